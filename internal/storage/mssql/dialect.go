package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"

	"tableingest/internal/ddl"
	"tableingest/internal/ident"
	"tableingest/internal/schema"
	"tableingest/internal/storage"
)

// maxParams is SQL Server's per-request parameter limit.
const maxParams = 2100

// Dialect is the SQL Server storage.Dialect. It loads rows with the TDS bulk
// copy protocol.
type Dialect struct{}

var (
	_ storage.Dialect      = Dialect{}
	_ storage.BulkInserter = Dialect{}
)

func (Dialect) Name() string { return "mssql" }

// QuoteIdent brackets id, escaping closing brackets.
func (Dialect) QuoteIdent(id ident.Identifier) string { return msIdent(string(id)) }

func msIdent(id string) string { return `[` + strings.ReplaceAll(id, `]`, `]]`) + `]` }

func (Dialect) Placeholder(n int) string { return fmt.Sprintf("@p%d", n) }

func (Dialect) MaxParams() int { return maxParams }

func (Dialect) MapType(t schema.ColumnType) string {
	switch t {
	case schema.TypeInteger:
		return "BIGINT"
	case schema.TypeReal:
		return "FLOAT"
	case schema.TypeBoolean:
		return "BIT"
	case schema.TypeText:
		return "NVARCHAR(MAX)"
	default:
		return ""
	}
}

// SampleTemplate uses TOP, which takes the bound row count. The tables are
// heaps with no row identity to order on, so which rows come back is up to
// the server; small freshly loaded tables usually return insertion order.
func (Dialect) SampleTemplate(cols string) string {
	return "SELECT TOP (?) " + cols + " FROM {table}"
}

const describeSQL = `SELECT COLUMN_NAME, DATA_TYPE
FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = SCHEMA_NAME() AND TABLE_NAME = ?
ORDER BY ORDINAL_POSITION`

// DescribeColumns reads INFORMATION_SCHEMA for table in the default schema.
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

// BulkInsert bulk-copies rows inside tx. CopyIn splices the table name into
// the INSERT BULK statement as given, so it receives the bracketed name of an
// identifier the caller has already validated.
func (Dialect) BulkInsert(ctx context.Context, _ *sql.Conn, tx *sql.Tx, def ddl.TableDef, rows [][]any) (int64, error) {
	cols := make([]string, len(def.Columns))
	for i, c := range def.Columns {
		cols[i] = string(c.Name)
	}

	stmt, err := tx.PrepareContext(ctx, mssql.CopyIn(msIdent(string(def.Name)), mssql.BulkOptions{}, cols...))
	if err != nil {
		return 0, fmt.Errorf("prepare bulk: %w", err)
	}
	for i := range rows {
		if _, err := stmt.ExecContext(ctx, rows[i]...); err != nil {
			_ = stmt.Close()
			return 0, fmt.Errorf("bulk row %d: %w", i, err)
		}
	}
	res, err := stmt.ExecContext(ctx)
	if cerr := stmt.Close(); cerr != nil && err == nil {
		err = cerr
	}
	if err != nil {
		return 0, fmt.Errorf("bulk finalize: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
