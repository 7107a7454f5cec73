package storage

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"tableingest/internal/ddl"
	"tableingest/internal/ident"
	"tableingest/internal/record"
)

// ErrTableNotFound is returned by Describe when the table does not exist.
var ErrTableNotFound = errors.New("table not found")

// TableInfo is what the database reports about a materialized table.
type TableInfo struct {
	Name     ident.Identifier
	Columns  []ColumnInfo
	RowCount int64
	// Sample holds up to the requested number of rows, one value per
	// column. See Dialect.SampleTemplate for the row order.
	Sample [][]record.Value
}

const countTemplate = "SELECT COUNT(*) FROM {" + ddl.TablePlaceholder + "}"

// Describe reads back table's columns, row count and the first sampleSize
// rows. The column list comes from the database catalog, so it reflects what
// was actually created.
func (s *DB) Describe(ctx context.Context, table ident.Identifier, sampleSize int) (*TableInfo, error) {
	if err := ident.Validate(string(table)); err != nil {
		return nil, &SecurityValidationError{Placeholder: ddl.TablePlaceholder, Value: string(table), Err: err}
	}
	ex := s.Executor()

	cols, err := s.d.DescribeColumns(ctx, ex, table)
	if err != nil {
		return nil, fmt.Errorf("storage: describe %s: %w", table, err)
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("storage: describe %s: %w", table, ErrTableNotFound)
	}
	info := &TableInfo{Name: table, Columns: cols}

	ids := Idents{ddl.TablePlaceholder: table}
	row, err := ex.QueryRow(ctx, countTemplate, ids)
	if err != nil {
		return nil, err
	}
	if err := row.Scan(&info.RowCount); err != nil {
		return nil, fmt.Errorf("storage: count %s: %w", table, err)
	}

	if sampleSize <= 0 {
		return info, nil
	}
	info.Sample, err = s.sample(ctx, ex, table, cols, sampleSize)
	if err != nil {
		return nil, fmt.Errorf("storage: sample %s: %w", table, err)
	}
	return info, nil
}

func (s *DB) sample(ctx context.Context, ex *Executor, table ident.Identifier, cols []ColumnInfo, n int) ([][]record.Value, error) {
	ids := Idents{ddl.TablePlaceholder: table}
	names := make([]string, len(cols))
	for i, c := range cols {
		ph := ddl.ColumnPlaceholder(i)
		ids[ph] = c.Name
		names[i] = "{" + ph + "}"
	}

	rows, err := ex.Query(ctx, s.d.SampleTemplate(strings.Join(names, ", ")), ids, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out [][]record.Value
	for rows.Next() {
		dest := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range dest {
			ptrs[i] = &dest[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, err
		}
		vals := make([]record.Value, len(cols))
		for i, x := range dest {
			vals[i] = fromColumn(x, cols[i].Type)
		}
		out = append(out, vals)
	}
	return out, rows.Err()
}

// fromColumn converts a scanned value. Columns declared boolean come back as
// 0/1 integers from SQLite and MySQL (where BOOLEAN is TINYINT), so those are
// turned back into booleans.
func fromColumn(x any, declared string) record.Value {
	if isBoolType(declared) {
		switch v := x.(type) {
		case int64:
			return record.Bool(v != 0)
		case []byte:
			if b, err := strconv.ParseBool(string(v)); err == nil {
				return record.Bool(b)
			}
		}
	}
	return record.FromDriver(x)
}

func isBoolType(declared string) bool {
	switch strings.ToLower(strings.TrimSpace(declared)) {
	case "boolean", "bool", "bit", "tinyint", "tinyint(1)":
		return true
	}
	return false
}
