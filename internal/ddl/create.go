// Package ddl renders the statements that materialize a discovered table:
// CREATE TABLE and multi-row INSERT.
//
// Nothing here splices a name into SQL. Statements are produced as templates
// in which every identifier is a {placeholder} and every value a '?', together
// with the identifier map that fills the placeholders. The storage executor
// validates and quotes each identifier when it renders the template, and
// rebinds '?' to the backend's parameter syntax.
package ddl

import (
	"fmt"
	"strings"

	"tableingest/internal/ident"
	"tableingest/internal/schema"
)

// TablePlaceholder is the template placeholder naming the target table.
const TablePlaceholder = "table"

// ColumnPlaceholder returns the placeholder name of column i ("c0", "c1", ...).
func ColumnPlaceholder(i int) string { return fmt.Sprintf("c%d", i) }

// TypeMapper maps a logical column type to a dialect SQL type.
type TypeMapper func(schema.ColumnType) string

// Idents returns the placeholder map for t: {table} plus {c0}..{cN-1}.
func Idents(t TableDef) map[string]ident.Identifier {
	m := make(map[string]ident.Identifier, len(t.Columns)+1)
	m[TablePlaceholder] = t.Name
	for i, c := range t.Columns {
		m[ColumnPlaceholder(i)] = c.Name
	}
	return m
}

// BuildCreateTemplate renders a CREATE TABLE template:
//
//	CREATE TABLE {table} (
//	  {c0} BIGINT,
//	  {c1} TEXT
//	)
//
// A table with no columns is an error; the caller decides what an empty schema
// means before getting here.
func BuildCreateTemplate(t TableDef, mapType TypeMapper) (string, error) {
	if t.Name == "" {
		return "", fmt.Errorf("ddl: table name must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}

	cols := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		if c.Name == "" {
			return "", fmt.Errorf("ddl: column %d of %s has an empty name", i, t.Name)
		}
		typ := strings.TrimSpace(mapType(c.Type))
		if typ == "" {
			return "", fmt.Errorf("ddl: no SQL type for column %s (%s)", c.Name, c.Type)
		}
		cols[i] = "{" + ColumnPlaceholder(i) + "} " + typ
	}

	return fmt.Sprintf("CREATE TABLE {%s} (\n  %s\n)", TablePlaceholder, strings.Join(cols, ",\n  ")), nil
}

// BuildInsertTemplate renders a multi-row INSERT template for rows rows:
//
//	INSERT INTO {table} ({c0}, {c1}) VALUES (?, ?), (?, ?)
//
// Arguments are bound in row-major order.
func BuildInsertTemplate(t TableDef, rows int) (string, error) {
	if len(t.Columns) == 0 {
		return "", fmt.Errorf("ddl: at least one column is required")
	}
	if rows <= 0 {
		return "", fmt.Errorf("ddl: rows must be positive, got %d", rows)
	}

	var sb strings.Builder
	sb.WriteString("INSERT INTO {" + TablePlaceholder + "} (")
	for i := range t.Columns {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("{" + ColumnPlaceholder(i) + "}")
	}
	sb.WriteString(") VALUES ")

	tuple := "(" + strings.TrimSuffix(strings.Repeat("?, ", len(t.Columns)), ", ") + ")"
	for r := 0; r < rows; r++ {
		if r > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(tuple)
	}
	return sb.String(), nil
}
