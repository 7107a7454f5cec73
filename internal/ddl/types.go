package ddl

import (
	"tableingest/internal/ident"
	"tableingest/internal/schema"
)

// ColumnDef describes a single column of a table to be created.
//
// Fields:
//   - Name: validated column identifier (quoting happens at render time)
//   - Type: backend-neutral logical type; dialects map it to SQL
//
// Every generated column is nullable: sparse records leave gaps that are
// stored as NULL.
type ColumnDef struct {
	Name ident.Identifier
	Type schema.ColumnType
}

// TableDef holds the table name and its ordered columns.
type TableDef struct {
	Name    ident.Identifier
	Columns []ColumnDef
}

// NewTableDef pairs column names with their inferred types. The slices must
// have the same length.
func NewTableDef(name ident.Identifier, cols []ident.Identifier, types []schema.ColumnType) TableDef {
	def := TableDef{Name: name, Columns: make([]ColumnDef, len(cols))}
	for i, c := range cols {
		t := schema.TypeText
		if i < len(types) {
			t = types[i]
		}
		def.Columns[i] = ColumnDef{Name: c, Type: t}
	}
	return def
}

