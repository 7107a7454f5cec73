// Package parser holds what the format-specific parsers (csv, json) share:
// the Format enum, input decoding, the error taxonomy and skip warnings.
package parser

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"tableingest/internal/schema"
)

// Format identifies an input encoding.
type Format string

const (
	CSV   Format = "csv"
	JSON  Format = "json"
	JSONL Format = "jsonl"
)

// Formats lists the supported formats.
var Formats = []Format{CSV, JSON, JSONL}

// ErrUnknownFormat is returned by ParseFormat and FormatFromFilename.
var ErrUnknownFormat = errors.New("unknown format")

// ParseFormat maps a user-supplied format name to a Format. It accepts the
// canonical names case-insensitively plus "ndjson" as an alias of JSONL.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return CSV, nil
	case "json":
		return JSON, nil
	case "jsonl", "ndjson":
		return JSONL, nil
	default:
		return "", fmt.Errorf("%w %q (want csv, json or jsonl)", ErrUnknownFormat, s)
	}
}

// FormatFromFilename picks a Format from name's extension.
func FormatFromFilename(name string) (Format, error) {
	ext := strings.TrimPrefix(path.Ext(strings.ReplaceAll(name, `\`, "/")), ".")
	if ext == "" {
		return "", fmt.Errorf("%w: %q has no extension", ErrUnknownFormat, name)
	}
	return ParseFormat(ext)
}

// ErrEmptyInput is returned when the input is well formed but holds no
// records (an empty JSON array, a CSV file without a header row).
var ErrEmptyInput = errors.New("input contains no records")

// ErrNoValidRecords is returned when every record was rejected. It is the
// same sentinel schema.Discover uses.
var ErrNoValidRecords = schema.ErrNoValidRecords

// ParseError reports a structural failure of the whole input: undecodable
// bytes, a top-level JSON value of the wrong kind, a malformed CSV header.
type ParseError struct {
	Format Format
	Line   int // 1-based; 0 when unknown
	Err    error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parse %s: line %d: %v", e.Format, e.Line, e.Err)
	}
	return fmt.Sprintf("parse %s: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Warning is a recoverable, per-record problem: the record was skipped and
// parsing continued.
type Warning struct {
	Line    int // 1-based line (CSV, JSONL); 0 when unknown
	Element int // 1-based array position (JSON); 0 when not in an array
	Message string
}

func (w Warning) String() string {
	if w.Element > 0 {
		return fmt.Sprintf("element %d: %s", w.Element, w.Message)
	}
	if w.Line > 0 {
		return fmt.Sprintf("line %d: %s", w.Line, w.Message)
	}
	return w.Message
}

// LineOf returns the 1-based line containing byte offset off in data.
func LineOf(data []byte, off int64) int {
	if off > int64(len(data)) {
		off = int64(len(data))
	}
	line := 1
	for _, c := range data[:off] {
		if c == '\n' {
			line++
		}
	}
	return line
}
