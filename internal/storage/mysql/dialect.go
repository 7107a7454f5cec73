package mysql

import (
	"context"
	"strings"

	"tableingest/internal/ident"
	"tableingest/internal/schema"
	"tableingest/internal/storage"
)

// maxParams is the protocol limit on placeholders in one prepared statement.
const maxParams = 65535

// Dialect is the MySQL storage.Dialect.
type Dialect struct{}

var _ storage.Dialect = Dialect{}

func (Dialect) Name() string { return "mysql" }

// QuoteIdent wraps id in backticks, doubling embedded backticks.
func (Dialect) QuoteIdent(id ident.Identifier) string {
	return "`" + strings.ReplaceAll(string(id), "`", "``") + "`"
}

func (Dialect) Placeholder(int) string { return "?" }

func (Dialect) MaxParams() int { return maxParams }

// MapType maps logical types to MySQL types. BOOLEAN is an alias for
// TINYINT(1) and reads back as tinyint.
func (Dialect) MapType(t schema.ColumnType) string {
	switch t {
	case schema.TypeInteger:
		return "BIGINT"
	case schema.TypeReal:
		return "DOUBLE"
	case schema.TypeBoolean:
		return "BOOLEAN"
	case schema.TypeText:
		return "LONGTEXT"
	default:
		return ""
	}
}

// SampleTemplate has no ORDER BY: the tables have no key to order on. InnoDB
// clusters them on its hidden row id, so a scan returns insertion order in
// practice but the server does not promise it.
func (Dialect) SampleTemplate(cols string) string {
	return "SELECT " + cols + " FROM {table} LIMIT ?"
}

const describeSQL = `SELECT column_name, data_type
FROM information_schema.columns
WHERE table_schema = DATABASE() AND table_name = ?
ORDER BY ordinal_position`

// DescribeColumns reads information_schema for table in the connection's
// database.
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
