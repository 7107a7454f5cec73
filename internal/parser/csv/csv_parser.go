// Package csv parses CSV input into a header plus positional rows of typed
// scalar values. The header row names the columns as they appear in the file;
// column-name normalization happens later, at the ingestion layer.
package csv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"tableingest/internal/config"
	"tableingest/internal/parser"
	"tableingest/internal/record"
)

// Options configures the CSV parser behavior. Zero values are replaced by
// DefaultOptions' values where noted.
type Options struct {
	// Comma specifies the field delimiter. When zero, ',' is used.
	Comma rune

	// TrimSpace trims leading/trailing spaces from each data cell.
	TrimSpace bool

	// LazyQuotes lets a quote appear in an unquoted field and a non-doubled
	// quote appear in a quoted field.
	LazyQuotes bool

	// InferTypes turns cells into numbers, booleans and nulls. When false every
	// non-empty cell stays a string and empty cells become null.
	InferTypes bool
}

// DefaultOptions returns the options used when no configuration is given.
func DefaultOptions() Options {
	return Options{Comma: ',', InferTypes: true}
}

// FromConfigOptions builds Options from a generic config.Options map. Known
// keys: comma (string), trim_space (bool), lazy_quotes (bool),
// infer_types (bool, default true).
func FromConfigOptions(o config.Options) Options {
	d := DefaultOptions()
	return Options{
		Comma:      o.Rune("comma", d.Comma),
		TrimSpace:  o.Bool("trim_space", d.TrimSpace),
		LazyQuotes: o.Bool("lazy_quotes", d.LazyQuotes),
		InferTypes: o.Bool("infer_types", d.InferTypes),
	}
}

// Table is the parsed form of a CSV document.
type Table struct {
	// Header holds the raw header cells.
	Header []string
	// Rows are aligned with Header; short rows are padded with nulls.
	Rows [][]record.Value
	// Warnings lists skipped rows.
	Warnings []parser.Warning
}

// Parser parses CSV input according to Options. It is safe to reuse across
// inputs.
type Parser struct{ opt Options }

// NewParser constructs a Parser with the provided Options.
func NewParser(opt Options) *Parser {
	if opt.Comma == 0 {
		opt.Comma = ','
	}
	return &Parser{opt: opt}
}

// Parse reads the whole document.
//
// A missing header row yields parser.ErrEmptyInput; an unreadable header
// yields a *parser.ParseError. Data rows with more cells than the header, or
// rows encoding/csv rejects, are skipped and reported in Table.Warnings. A
// header with no data rows is valid and produces an empty Rows slice.
func (p *Parser) Parse(content []byte) (*Table, error) {
	content, err := parser.Decode(parser.CSV, content)
	if err != nil {
		return nil, err
	}

	cr := csv.NewReader(bytes.NewReader(content))
	cr.Comma = p.opt.Comma
	cr.LazyQuotes = p.opt.LazyQuotes
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, parser.ErrEmptyInput
	}
	if err != nil {
		return nil, &parser.ParseError{Format: parser.CSV, Line: errLine(err, 1), Err: fmt.Errorf("read header: %w", err)}
	}
	if len(header) == 1 && strings.TrimSpace(header[0]) == "" {
		return nil, &parser.ParseError{Format: parser.CSV, Line: 1, Err: errors.New("header row is blank")}
	}

	t := &Table{Header: header}
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Warnings = append(t.Warnings, parser.Warning{Line: errLine(err, 0), Message: err.Error()})
			continue
		}
		line, _ := cr.FieldPos(0)
		if len(row) > len(header) {
			t.Warnings = append(t.Warnings, parser.Warning{
				Line:    line,
				Message: fmt.Sprintf("expected at most %d fields, got %d", len(header), len(row)),
			})
			continue
		}

		vals := make([]record.Value, len(header))
		for i, cell := range row {
			vals[i] = p.cell(cell)
		}
		t.Rows = append(t.Rows, vals)
	}
	return t, nil
}

// cell converts one CSV field into a Value.
func (p *Parser) cell(s string) record.Value {
	if p.opt.TrimSpace {
		s = strings.TrimSpace(s)
	}
	if s == "" {
		return record.Null()
	}
	if !p.opt.InferTypes {
		return record.String(s)
	}
	return InferCell(s)
}

// InferCell types a non-empty cell: integers and finite floats become
// numbers, "true"/"false" (any case) become booleans, everything else stays
// a string.
func InferCell(s string) record.Value {
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return record.Int(n)
	}
	if looksNumeric(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return record.Float(f)
		}
	}
	switch {
	case strings.EqualFold(s, "true"):
		return record.Bool(true)
	case strings.EqualFold(s, "false"):
		return record.Bool(false)
	}
	return record.String(s)
}

// looksNumeric rejects the spellings ParseFloat accepts that no spreadsheet
// export means as a number: hex floats, underscores, "inf", "nan".
func looksNumeric(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c >= '0' && c <= '9':
		case c == '.' || c == '-' || c == '+' || c == 'e' || c == 'E':
		default:
			return false
		}
	}
	return true
}

// errLine pulls the line number out of a *csv.ParseError.
func errLine(err error, def int) int {
	var pe *csv.ParseError
	if errors.As(err, &pe) && pe.Line > 0 {
		return pe.Line
	}
	return def
}
