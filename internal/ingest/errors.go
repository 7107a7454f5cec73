package ingest

import (
	"fmt"

	"tableingest/internal/ident"
	"tableingest/internal/parser"
)

// IngestionError wraps any failure of an Ingest call with the input format and
// the sanitized table name. Use errors.Is / errors.As to reach the cause:
// *parser.ParseError, parser.ErrEmptyInput, parser.ErrNoValidRecords,
// *storage.SecurityValidationError or a store error.
type IngestionError struct {
	Format parser.Format
	Table  ident.Identifier
	Err    error
}

func (e *IngestionError) Error() string {
	format := string(e.Format)
	if format == "" {
		format = "input"
	}
	return fmt.Sprintf("ingest %s into table %s: %v", format, e.Table, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }
