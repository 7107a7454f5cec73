package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"tableingest/internal/ddl"
	"tableingest/internal/ident"
	"tableingest/internal/schema"
	"tableingest/internal/storage"
)

// maxParams is the protocol limit on bind parameters per statement.
const maxParams = 65535

// Dialect is the Postgres storage.Dialect. It loads rows with COPY.
type Dialect struct{}

var (
	_ storage.Dialect      = Dialect{}
	_ storage.BulkInserter = Dialect{}
)

func (Dialect) Name() string { return "postgres" }

// QuoteIdent quotes id with pgx's identifier sanitizer.
func (Dialect) QuoteIdent(id ident.Identifier) string {
	return pgx.Identifier{string(id)}.Sanitize()
}

func (Dialect) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (Dialect) MaxParams() int { return maxParams }

func (Dialect) MapType(t schema.ColumnType) string {
	switch t {
	case schema.TypeInteger:
		return "BIGINT"
	case schema.TypeReal:
		return "DOUBLE PRECISION"
	case schema.TypeBoolean:
		return "BOOLEAN"
	case schema.TypeText:
		return "TEXT"
	default:
		return ""
	}
}

// SampleTemplate orders by ctid. Rows written once by ReplaceTable and never
// updated keep their insertion order in ctid.
func (Dialect) SampleTemplate(cols string) string {
	return "SELECT " + cols + " FROM {table} ORDER BY ctid LIMIT ?"
}

const describeSQL = `SELECT column_name, data_type
FROM information_schema.columns
WHERE table_schema = current_schema() AND table_name = ?
ORDER BY ordinal_position`

// DescribeColumns reads information_schema for table in the current schema.
func (Dialect) DescribeColumns(ctx context.Context, ex *storage.Executor, table ident.Identifier) ([]storage.ColumnInfo, error) {
	rows, err := ex.Query(ctx, describeSQL, nil, string(table))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []storage.ColumnInfo
	for rows.Next() {
		var name, typ string
		if err := rows.Scan(&name, &typ); err != nil {
			return nil, err
		}
		out = append(out, storage.ColumnInfo{Name: ident.Identifier(name), Type: typ})
	}
	return out, rows.Err()
}

// BulkInsert streams rows with COPY FROM STDIN on the connection that owns
// tx, so the load commits or rolls back with the rest of the replace.
func (Dialect) BulkInsert(ctx context.Context, conn *sql.Conn, _ *sql.Tx, def ddl.TableDef, rows [][]any) (int64, error) {
	cols := make([]string, len(def.Columns))
	for i, c := range def.Columns {
		cols[i] = string(c.Name)
	}

	var n int64
	err := conn.Raw(func(dc any) error {
		sc, ok := dc.(*stdlib.Conn)
		if !ok {
			return fmt.Errorf("postgres: unexpected driver connection %T", dc)
		}
		var err error
		n, err = sc.Conn().CopyFrom(ctx, pgx.Identifier{string(def.Name)}, cols, pgx.CopyFromRows(rows))
		return err
	})
	if err != nil {
		return n, fmt.Errorf("postgres: copy into %s: %w", def.Name, err)
	}
	return n, nil
}
