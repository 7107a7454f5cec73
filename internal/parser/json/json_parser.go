// Package json decodes the two JSON input shapes into record trees:
//
//   - a JSON document whose top-level value is an array of objects;
//   - newline-delimited JSON (JSONL/NDJSON), one object per line.
//
// Object key order is preserved so that the discovered column order follows
// the input. Numbers keep their literal text.
package json

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"tableingest/internal/parser"
	"tableingest/internal/record"
)

// Result is the outcome of decoding a JSON or JSONL document.
type Result struct {
	// Records holds the accepted objects in input order.
	Records []record.Node
	// Warnings lists skipped elements or lines.
	Warnings []parser.Warning
	// Lines is the number of lines in a JSONL document (0 for JSON).
	Lines int
}

// ParseArray decodes a document whose top-level value must be an array.
//
// Errors: undecodable input or a non-array root is a *parser.ParseError; an
// empty array is parser.ErrEmptyInput; an array in which no element is an
// object is parser.ErrNoValidRecords. Non-object elements are skipped with a
// warning naming their 1-based position.
func ParseArray(content []byte) (*Result, error) {
	content, err := parser.Decode(parser.JSON, content)
	if err != nil {
		return nil, err
	}

	root, err := record.Unmarshal(content)
	if err != nil {
		return nil, &parser.ParseError{Format: parser.JSON, Line: syntaxLine(content, err), Err: err}
	}
	if root.Kind() != record.NodeList {
		return nil, &parser.ParseError{
			Format: parser.JSON,
			Err:    fmt.Errorf("JSON must be an array of objects, got %s", describe(root)),
		}
	}

	items := root.Items()
	if len(items) == 0 {
		return nil, parser.ErrEmptyInput
	}

	res := &Result{Records: make([]record.Node, 0, len(items))}
	for i, it := range items {
		if it.Kind() != record.NodeObject {
			res.Warnings = append(res.Warnings, parser.Warning{
				Element: i + 1,
				Message: fmt.Sprintf("expected JSON object, got %s", describe(it)),
			})
			continue
		}
		res.Records = append(res.Records, it)
	}
	if len(res.Records) == 0 {
		return res, fmt.Errorf("%w: none of %d array elements is an object", parser.ErrNoValidRecords, len(items))
	}
	return res, nil
}

// ParseLines decodes newline-delimited JSON. Blank lines are ignored. A line
// that fails to decode, or decodes to something other than an object, is
// skipped and reported as a warning; parsing continues. If no line yields an
// object the error is parser.ErrNoValidRecords.
func ParseLines(content []byte) (*Result, error) {
	content, err := parser.Decode(parser.JSONL, content)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	lineNo := 0
	for len(content) > 0 {
		var line []byte
		if i := bytes.IndexByte(content, '\n'); i >= 0 {
			line, content = content[:i], content[i+1:]
		} else {
			line, content = content, nil
		}
		lineNo++

		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		n, err := record.Unmarshal(line)
		if err != nil {
			res.Warnings = append(res.Warnings, parser.Warning{
				Line:    lineNo,
				Message: fmt.Sprintf("malformed JSON: %v", err),
			})
			continue
		}
		if n.Kind() != record.NodeObject {
			res.Warnings = append(res.Warnings, parser.Warning{
				Line:    lineNo,
				Message: fmt.Sprintf("expected JSON object, got %s", describe(n)),
			})
			continue
		}
		res.Records = append(res.Records, n)
	}
	res.Lines = lineNo

	if len(res.Records) == 0 {
		return res, fmt.Errorf("%w: no valid JSON records in %d lines", parser.ErrNoValidRecords, lineNo)
	}
	return res, nil
}

// describe names the JSON kind of n for error messages.
func describe(n record.Node) string {
	switch n.Kind() {
	case record.NodeObject:
		return "object"
	case record.NodeList:
		return "array"
	}
	switch n.Value().Kind() {
	case record.KindNull:
		return "null"
	case record.KindString:
		return "string"
	case record.KindNumber:
		return "number"
	case record.KindBool:
		return "boolean"
	}
	return "unknown"
}

func syntaxLine(content []byte, err error) int {
	var se *json.SyntaxError
	if errors.As(err, &se) {
		return parser.LineOf(content, se.Offset)
	}
	return 0
}
