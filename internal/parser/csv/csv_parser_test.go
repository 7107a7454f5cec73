package csv_test

import (
	"errors"
	"testing"

	"tableingest/internal/config"
	"tableingest/internal/parser"
	pcsv "tableingest/internal/parser/csv"
	"tableingest/internal/record"
)

func TestParse_HeaderAndTypedRows(t *testing.T) {
	t.Parallel()

	in := "\ufeffUser Name,User-Age,score,active,note\n" +
		"alice,30,1.5,true,\n" +
		"bob,,2,FALSE,hello\n"

	tbl, err := pcsv.NewParser(pcsv.DefaultOptions()).Parse([]byte(in))
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}

	wantHeader := []string{"User Name", "User-Age", "score", "active", "note"}
	if len(tbl.Header) != len(wantHeader) {
		t.Fatalf("Header = %q, want %q", tbl.Header, wantHeader)
	}
	for i := range wantHeader {
		if tbl.Header[i] != wantHeader[i] {
			t.Fatalf("Header[%d] = %q, want %q", i, tbl.Header[i], wantHeader[i])
		}
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(tbl.Rows))
	}

	r0 := tbl.Rows[0]
	checks := []struct {
		got  record.Value
		want record.Value
	}{
		{r0[0], record.String("alice")},
		{r0[1], record.Int(30)},
		{r0[2], record.Number("1.5")},
		{r0[3], record.Bool(true)},
		{r0[4], record.Null()},
		{tbl.Rows[1][1], record.Null()},
		{tbl.Rows[1][3], record.Bool(false)},
		{tbl.Rows[1][4], record.String("hello")},
	}
	for i, c := range checks {
		if !c.got.Equal(c.want) {
			t.Fatalf("check %d: got %v (%v), want %v (%v)", i, c.got, c.got.Kind(), c.want, c.want.Kind())
		}
	}
}

func TestParse_ShortRowsPaddedLongRowsSkipped(t *testing.T) {
	t.Parallel()

	in := "a,b,c\n1,2\n1,2,3,4\n5,6,7\n"
	tbl, err := pcsv.NewParser(pcsv.DefaultOptions()).Parse([]byte(in))
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	if len(tbl.Rows) != 2 {
		t.Fatalf("len(Rows) = %d, want 2", len(tbl.Rows))
	}
	if !tbl.Rows[0][2].IsNull() {
		t.Fatalf("padded cell = %v, want null", tbl.Rows[0][2])
	}
	if len(tbl.Warnings) != 1 || tbl.Warnings[0].Line != 3 {
		t.Fatalf("Warnings = %+v, want one warning on line 3", tbl.Warnings)
	}
}

func TestParse_InferTypesOff(t *testing.T) {
	t.Parallel()

	opt := pcsv.FromConfigOptions(config.Options{"infer_types": false, "comma": ";", "trim_space": true})
	tbl, err := pcsv.NewParser(opt).Parse([]byte("id;flag\n 7 ;true\n"))
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	if got := tbl.Rows[0][0]; !got.Equal(record.String("7")) {
		t.Fatalf("id = %v (%v), want string 7", got, got.Kind())
	}
	if got := tbl.Rows[0][1]; !got.Equal(record.String("true")) {
		t.Fatalf("flag = %v (%v), want string true", got, got.Kind())
	}
}

func TestParse_HeaderOnly(t *testing.T) {
	t.Parallel()

	tbl, err := pcsv.NewParser(pcsv.DefaultOptions()).Parse([]byte("a,b\n"))
	if err != nil {
		t.Fatalf("Parse error = %v", err)
	}
	if len(tbl.Rows) != 0 || len(tbl.Header) != 2 {
		t.Fatalf("got header %q rows %d, want 2 columns and no rows", tbl.Header, len(tbl.Rows))
	}
}

func TestParse_Errors(t *testing.T) {
	t.Parallel()

	p := pcsv.NewParser(pcsv.DefaultOptions())

	if _, err := p.Parse(nil); !errors.Is(err, parser.ErrEmptyInput) {
		t.Fatalf("Parse(empty) error = %v, want ErrEmptyInput", err)
	}

	var pe *parser.ParseError
	if _, err := p.Parse([]byte("\"unterminated,header\n1,2\n")); !errors.As(err, &pe) {
		t.Fatalf("Parse(bad header) error = %v, want *parser.ParseError", err)
	}
	if _, err := p.Parse([]byte("a,b\n\xff,1\n")); !errors.As(err, &pe) {
		t.Fatalf("Parse(invalid utf8) error = %v, want *parser.ParseError", err)
	}
	if pe.Format != parser.CSV {
		t.Fatalf("ParseError.Format = %q, want csv", pe.Format)
	}
}

func TestInferCell(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want record.Value
	}{
		{"42", record.Int(42)},
		{"-3", record.Int(-3)},
		{"3.25", record.Number("3.25")},
		{"1e3", record.Number("1000")},
		{"True", record.Bool(true)},
		{"inf", record.String("inf")},
		{"NaN", record.String("NaN")},
		{"0x1p-2", record.String("0x1p-2")},
		{"1_000", record.String("1_000")},
		{"12abc", record.String("12abc")},
	}
	for _, tc := range tests {
		if got := pcsv.InferCell(tc.in); !got.Equal(tc.want) {
			t.Fatalf("InferCell(%q) = %v (%v), want %v (%v)", tc.in, got, got.Kind(), tc.want, tc.want.Kind())
		}
	}
}
