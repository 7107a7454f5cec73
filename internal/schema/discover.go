package schema

import (
	"errors"
	"fmt"

	"tableingest/internal/flatten"
	"tableingest/internal/record"
)

// ErrNoValidRecords is returned when an input yields no usable records, for
// example a JSONL file in which every line is malformed.
var ErrNoValidRecords = errors.New("no valid records")

// Discover flattens records and unifies their keys.
//
// Pass 1 flattens every record and collects the union of keys in first-seen
// order. Pass 2 null-fills, for each record, every key it lacks. The returned
// FlatRecords have exactly fs.Len() keys each, in FieldSet order, and appear in
// input order.
func Discover(records []record.Node) (*FieldSet, []record.FlatRecord, error) {
	if len(records) == 0 {
		return nil, nil, ErrNoValidRecords
	}

	fs := NewFieldSet()
	flat := make([]record.FlatRecord, len(records))
	for i, n := range records {
		flat[i] = flatten.Flatten(n)
		for _, k := range flat[i].Keys() {
			fs.Add(k)
		}
	}
	if fs.Len() == 0 {
		// Only empty objects: nothing to build a table from.
		return nil, nil, fmt.Errorf("%w: records contain no fields", ErrNoValidRecords)
	}

	out := make([]record.FlatRecord, len(flat))
	for i, fr := range flat {
		full := record.NewFlatRecord(fs.Len())
		for _, name := range fs.Names() {
			v, _ := fr.Get(name) // zero Value is null
			full.Set(name, v)
		}
		out[i] = full
	}
	return fs, out, nil
}

// Rows projects flat records onto fs as positional rows, the shape the
// storage layer inserts.
func Rows(fs *FieldSet, recs []record.FlatRecord) [][]record.Value {
	rows := make([][]record.Value, len(recs))
	for i, fr := range recs {
		row := make([]record.Value, fs.Len())
		for j, name := range fs.Names() {
			row[j], _ = fr.Get(name)
		}
		rows[i] = row
	}
	return rows
}
