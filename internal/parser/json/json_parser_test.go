package json

import (
	"errors"
	"strings"
	"testing"

	"tableingest/internal/parser"
)

func TestParseArray(t *testing.T) {
	t.Parallel()

	res, err := ParseArray([]byte(`[{"id":1,"user":{"name":"a"}},{"id":2}]`))
	if err != nil {
		t.Fatalf("ParseArray error = %v", err)
	}
	if len(res.Records) != 2 || len(res.Warnings) != 0 {
		t.Fatalf("got %d records, %d warnings; want 2, 0", len(res.Records), len(res.Warnings))
	}
	if _, ok := res.Records[0].Get("user"); !ok {
		t.Fatalf("first record lost nested field")
	}
}

func TestParseArray_SkipsNonObjects(t *testing.T) {
	t.Parallel()

	res, err := ParseArray([]byte(`[{"id":1}, 5, "x", {"id":2}]`))
	if err != nil {
		t.Fatalf("ParseArray error = %v", err)
	}
	if len(res.Records) != 2 {
		t.Fatalf("len(Records) = %d, want 2", len(res.Records))
	}
	if len(res.Warnings) != 2 || res.Warnings[0].Element != 2 || res.Warnings[0].Line != 0 {
		t.Fatalf("Warnings = %+v", res.Warnings)
	}
	if got := res.Warnings[1].String(); got != "element 3: expected JSON object, got string" {
		t.Fatalf("Warnings[1] = %q", got)
	}
}

func TestParseArray_Errors(t *testing.T) {
	t.Parallel()

	var pe *parser.ParseError

	if _, err := ParseArray([]byte(`{"id":1}`)); !errors.As(err, &pe) {
		t.Fatalf("object root error = %v, want *parser.ParseError", err)
	} else if !strings.Contains(pe.Error(), "array of objects") {
		t.Fatalf("message = %q", pe.Error())
	}

	if _, err := ParseArray([]byte("[\n{\"id\":1},\n{\"id\":}\n]")); !errors.As(err, &pe) {
		t.Fatalf("syntax error = %v, want *parser.ParseError", err)
	} else if pe.Line != 3 {
		t.Fatalf("ParseError.Line = %d, want 3", pe.Line)
	}

	if _, err := ParseArray([]byte(`[]`)); !errors.Is(err, parser.ErrEmptyInput) {
		t.Fatalf("empty array error = %v, want ErrEmptyInput", err)
	}
	if _, err := ParseArray([]byte(`[1,2,null]`)); !errors.Is(err, parser.ErrNoValidRecords) {
		t.Fatalf("no objects error = %v, want ErrNoValidRecords", err)
	}
	if _, err := ParseArray(nil); !errors.As(err, &pe) {
		t.Fatalf("empty input error = %v, want *parser.ParseError", err)
	}
}

func TestParseLines_SkipsMalformed(t *testing.T) {
	t.Parallel()

	in := "{\"id\":1}\n{\"id\": broken\n\n{\"id\":3}\r\n[1,2]\n"
	res, err := ParseLines([]byte(in))
	if err != nil {
		t.Fatalf("ParseLines error = %v", err)
	}
	if len(res.Records) != 2 {
		t.Fatalf("len(Records) = %d, want 2", len(res.Records))
	}
	if len(res.Warnings) != 2 {
		t.Fatalf("Warnings = %+v, want 2", res.Warnings)
	}
	if w := res.Warnings[0]; w.Line != 2 || !strings.HasPrefix(w.Message, "malformed JSON") {
		t.Fatalf("Warnings[0] = %+v", w)
	}
	if w := res.Warnings[1]; w.Line != 5 || !strings.Contains(w.Message, "got array") {
		t.Fatalf("Warnings[1] = %+v", w)
	}
	if res.Lines != 5 {
		t.Fatalf("Lines = %d, want 5", res.Lines)
	}
}

func TestParseLines_NoValidRecords(t *testing.T) {
	t.Parallel()

	for _, in := range []string{"", "\n\n", "nope\n{bad\n", "1\n\"s\"\n"} {
		if _, err := ParseLines([]byte(in)); !errors.Is(err, parser.ErrNoValidRecords) {
			t.Fatalf("ParseLines(%q) error = %v, want ErrNoValidRecords", in, err)
		}
	}
}

func TestParseLines_TrailingValueOnLineIsMalformed(t *testing.T) {
	t.Parallel()

	res, err := ParseLines([]byte("{\"a\":1} {\"b\":2}\n{\"c\":3}\n"))
	if err != nil {
		t.Fatalf("ParseLines error = %v", err)
	}
	if len(res.Records) != 1 || len(res.Warnings) != 1 {
		t.Fatalf("got %d records, %d warnings; want 1, 1", len(res.Records), len(res.Warnings))
	}
}
