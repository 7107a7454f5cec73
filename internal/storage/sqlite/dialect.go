package sqlite

import (
	"context"
	"strings"

	"tableingest/internal/ident"
	"tableingest/internal/schema"
	"tableingest/internal/storage"
)

// maxParams is SQLITE_MAX_VARIABLE_NUMBER for SQLite 3.32 and later.
const maxParams = 32766

// Dialect is the SQLite storage.Dialect.
type Dialect struct{}

var _ storage.Dialect = Dialect{}

func (Dialect) Name() string { return "sqlite" }

// QuoteIdent wraps id in double quotes, doubling any embedded quote.
func (Dialect) QuoteIdent(id ident.Identifier) string {
	return `"` + strings.ReplaceAll(string(id), `"`, `""`) + `"`
}

func (Dialect) Placeholder(int) string { return "?" }

func (Dialect) MaxParams() int { return maxParams }

// MapType maps a logical type onto a SQLite declared type. BOOLEAN has
// NUMERIC affinity and stores 0/1; the declared name lets the driver report
// the column as boolean when reading back.
func (Dialect) MapType(t schema.ColumnType) string {
	switch t {
	case schema.TypeInteger:
		return "INTEGER"
	case schema.TypeReal:
		return "REAL"
	case schema.TypeBoolean:
		return "BOOLEAN"
	case schema.TypeText:
		return "TEXT"
	default:
		return ""
	}
}

// SampleTemplate orders by rowid, which follows insertion order for the
// tables ReplaceTable creates.
func (Dialect) SampleTemplate(cols string) string {
	return "SELECT " + cols + " FROM {table} ORDER BY rowid LIMIT ?"
}

// DescribeColumns reads PRAGMA table_info. A missing table yields no rows.
func (Dialect) DescribeColumns(ctx context.Context, ex *storage.Executor, table ident.Identifier) ([]storage.ColumnInfo, error) {
	rows, err := ex.Query(ctx, "PRAGMA table_info({table})", storage.Idents{"table": table})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []storage.ColumnInfo
	for rows.Next() {
		var (
			cid     int64
			name    string
			typ     string
			notNull int64
			dflt    any
			pk      int64
		)
		if err := rows.Scan(&cid, &name, &typ, &notNull, &dflt, &pk); err != nil {
			return nil, err
		}
		out = append(out, storage.ColumnInfo{Name: ident.Identifier(name), Type: typ})
	}
	return out, rows.Err()
}
