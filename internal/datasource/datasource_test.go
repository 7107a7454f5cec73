package datasource

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"tableingest/internal/datasource/httpds"
	"tableingest/internal/parser"
)

func TestIsURL(t *testing.T) {
	t.Parallel()

	for ref, want := range map[string]bool{
		"https://example.com/a.csv": true,
		"HTTP://example.com/a.csv":  true,
		"ftp://example.com/a.csv":   false,
		"data/a.csv":                false,
		"/abs/a.csv":                false,
		"http:///nohost.csv":        false,
	} {
		if got := IsURL(ref); got != want {
			t.Errorf("IsURL(%q) = %v, want %v", ref, got, want)
		}
	}
}

func TestLoader_LocalFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "Sales Report.csv")
	if err := os.WriteFile(path, []byte("id\n1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := &Loader{}
	doc, err := l.Load(context.Background(), path, "", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Name != "Sales Report.csv" || doc.Format != parser.CSV || string(doc.Content) != "id\n1\n" {
		t.Fatalf("doc = %+v", doc)
	}

	doc, err = l.Load(context.Background(), path, "sales", parser.JSONL)
	if err != nil {
		t.Fatalf("Load with overrides: %v", err)
	}
	if doc.Name != "sales" || doc.Format != parser.JSONL {
		t.Fatalf("overrides ignored: %+v", doc)
	}
}

func TestLoader_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	big := filepath.Join(dir, "big.json")
	if err := os.WriteFile(big, []byte(`[{"a":1},{"a":2}]`), 0o644); err != nil {
		t.Fatal(err)
	}
	noext := filepath.Join(dir, "README")
	if err := os.WriteFile(noext, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name   string
		loader *Loader
		ref    string
		is     error
	}{
		{"missing", &Loader{}, filepath.Join(dir, "nope.csv"), os.ErrNotExist},
		{"too_large", &Loader{MaxBytes: 4}, big, ErrTooLarge},
		{"no_extension", &Loader{}, noext, parser.ErrUnknownFormat},
		{"bad_extension", &Loader{}, filepath.Join(dir, "x.xlsx"), parser.ErrUnknownFormat},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if _, err := tt.loader.Load(context.Background(), tt.ref, "", ""); !errors.Is(err, tt.is) {
				t.Fatalf("err = %v, want %v", err, tt.is)
			}
		})
	}
}

func TestLoader_URL(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/exports/events.jsonl" {
			http.NotFound(w, r)
			return
		}
		_, _ = io.WriteString(w, "{\"id\":1}\n{\"id\":2}\n")
	}))
	defer srv.Close()

	l := &Loader{HTTP: httpds.NewClient(httpds.Config{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})}
	doc, err := l.Load(context.Background(), srv.URL+"/exports/events.jsonl?sig=abc", "", "")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if doc.Name != "events.jsonl" || doc.Format != parser.JSONL || string(doc.Content) != "{\"id\":1}\n{\"id\":2}\n" {
		t.Fatalf("doc = %+v", doc)
	}

	_, err = l.Load(context.Background(), srv.URL+"/missing.csv", "", "")
	var se *httpds.StatusError
	if !errors.As(err, &se) || se.Status != http.StatusNotFound {
		t.Fatalf("err = %v, want 404 StatusError", err)
	}
}
