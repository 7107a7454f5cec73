package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"tableingest/internal/ddl"
	"tableingest/internal/metrics"
)

// DefaultBatchSize is used when ReplaceOptions.BatchSize is not positive.
const DefaultBatchSize = 1000

// ReplaceOptions tunes ReplaceTable.
type ReplaceOptions struct {
	// BatchSize caps rows per INSERT statement or bulk call. Multi-row
	// INSERTs are further capped by the dialect's parameter limit.
	BatchSize int
	// Job labels the batch metrics.
	Job string
	// Logger receives progress lines; nil uses slog.Default.
	Logger *slog.Logger
}

const dropTemplate = "DROP TABLE IF EXISTS {" + ddl.TablePlaceholder + "}"

// ReplaceTable drops def.Name if it exists, creates it from def, and inserts
// rows, all in one transaction. Each row must have one argument per column,
// already converted to the column's Go type.
//
// Every identifier in def is validated before any statement runs; an invalid
// one yields a *SecurityValidationError and leaves the database untouched.
// Backends with transactional DDL roll everything back on failure; on MySQL
// the DROP and CREATE commit implicitly.
func (s *DB) ReplaceTable(ctx context.Context, def ddl.TableDef, rows [][]any, opts ReplaceOptions) (int64, error) {
	ids := Idents(ddl.Idents(def))
	if err := ValidateIdents(ids); err != nil {
		return 0, err
	}
	create, err := ddl.BuildCreateTemplate(def, s.d.MapType)
	if err != nil {
		return 0, err
	}
	ncols := len(def.Columns)
	for i, r := range rows {
		if len(r) != ncols {
			return 0, fmt.Errorf("storage: row %d has %d values, table %s has %d columns", i, len(r), def.Name, ncols)
		}
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}

	conn, err := s.db.Conn(ctx)
	if err != nil {
		return 0, fmt.Errorf("storage: acquire connection: %w", err)
	}
	defer conn.Close()

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("storage: begin: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				log.Warn("storage: rollback failed", "table", string(def.Name), "err", rbErr)
			}
		}
	}()

	ex := NewExecutor(tx, s.d)
	if _, err := ex.Exec(ctx, dropTemplate, ids); err != nil {
		return 0, fmt.Errorf("storage: drop %s: %w", def.Name, err)
	}
	if _, err := ex.Exec(ctx, create, ids); err != nil {
		return 0, fmt.Errorf("storage: create %s: %w", def.Name, err)
	}

	copyFn, batchSize := s.copyFunc(conn, tx, ex, def, ids, opts.BatchSize)
	total, batches, err := LoadBatches(ctx, log, rows, batchSize, copyFn)
	if err != nil {
		return total, fmt.Errorf("storage: insert into %s: %w", def.Name, err)
	}

	if err := tx.Commit(); err != nil {
		return total, fmt.Errorf("storage: commit %s: %w", def.Name, err)
	}
	committed = true

	metrics.RecordBatches(opts.Job, batches)
	log.Debug("storage: table replaced", "table", string(def.Name), "columns", ncols, "rows", total, "batches", batches)
	return total, nil
}

// copyFunc picks the dialect's bulk path when it has one and multi-row INSERT
// otherwise, returning the batch size to drive it with.
func (s *DB) copyFunc(conn *sql.Conn, tx *sql.Tx, ex *Executor, def ddl.TableDef, ids Idents, batchSize int) (CopyFn, int) {
	if bi, ok := s.d.(BulkInserter); ok {
		return func(ctx context.Context, rows [][]any) (int64, error) {
			return bi.BulkInsert(ctx, conn, tx, def, rows)
		}, batchSize
	}

	ncols := len(def.Columns)
	if perStmt := s.d.MaxParams() / ncols; perStmt < batchSize {
		batchSize = max(perStmt, 1)
	}

	// Only the final batch can be short, so at most two templates are built.
	templates := map[int]string{}
	return func(ctx context.Context, rows [][]any) (int64, error) {
		tmpl, ok := templates[len(rows)]
		if !ok {
			var err error
			if tmpl, err = ddl.BuildInsertTemplate(def, len(rows)); err != nil {
				return 0, err
			}
			templates[len(rows)] = tmpl
		}
		args := make([]any, 0, len(rows)*ncols)
		for _, r := range rows {
			args = append(args, r...)
		}
		res, err := ex.Exec(ctx, tmpl, ids, args...)
		if err != nil {
			return 0, err
		}
		n, err := res.RowsAffected()
		if err != nil {
			// Some drivers cannot report it; the statement either inserted
			// every tuple or failed.
			return int64(len(rows)), nil
		}
		return n, nil
	}, batchSize
}
