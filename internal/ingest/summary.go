package ingest

import (
	"bytes"
	"encoding/json"

	"tableingest/internal/parser"
	"tableingest/internal/record"
)

// TableSummary describes a materialized table as the store reports it.
type TableSummary struct {
	Name       string        `json:"name"`
	Format     parser.Format `json:"format,omitempty"`
	Schema     Schema        `json:"schema"`
	RowCount   int64         `json:"row_count"`
	SampleRows []Row         `json:"sample_rows"`
	// Warnings lists input records that were skipped.
	Warnings []string `json:"warnings,omitempty"`
}

// Column is one column name with its declared SQL type.
type Column struct {
	Name string
	Type string
}

// Schema is the ordered column list. It marshals to a JSON object that keeps
// column order: {"id": "INTEGER", "name": "TEXT"}.
type Schema []Column

// Names returns the column names in order.
func (s Schema) Names() []string {
	out := make([]string, len(s))
	for i, c := range s {
		out[i] = c.Name
	}
	return out
}

// Type returns the declared type of column name.
func (s Schema) Type(name string) (string, bool) {
	for _, c := range s {
		if c.Name == name {
			return c.Type, true
		}
	}
	return "", false
}

func (s Schema) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range s {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writePair(&buf, c.Name, c.Type); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Cell is one column value of a sample row.
type Cell struct {
	Column string
	Value  record.Value
}

// Row is a sample row in column order. It marshals to a JSON object that
// keeps column order.
type Row []Cell

// Get returns the value of column name.
func (r Row) Get(name string) (record.Value, bool) {
	for _, c := range r {
		if c.Column == name {
			return c.Value, true
		}
	}
	return record.Null(), false
}

func (r Row) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, c := range r {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writePair(&buf, c.Column, c.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func writePair(buf *bytes.Buffer, key string, v any) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	val, err := json.Marshal(v)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	buf.Write(val)
	return nil
}
