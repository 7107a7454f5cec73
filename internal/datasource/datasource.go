// Package datasource resolves an input reference (a local path or an
// http(s) URL) into document bytes, a desired table name and a format.
package datasource

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strings"

	"tableingest/internal/datasource/file"
	"tableingest/internal/datasource/httpds"
	"tableingest/internal/parser"
)

// Source opens a document for reading.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
}

// ErrTooLarge is returned when a document exceeds Loader.MaxBytes.
var ErrTooLarge = httpds.ErrTooLarge

// Document is a loaded input.
type Document struct {
	Ref     string
	Name    string
	Format  parser.Format
	Content []byte
}

// Loader reads documents from disk or over HTTP.
type Loader struct {
	// HTTP fetches URL references; nil means a default httpds.Client.
	HTTP *httpds.Client
	// MaxBytes caps a document's size; 0 means no cap.
	MaxBytes int64
}

// IsURL reports whether ref is an http or https URL.
func IsURL(ref string) bool {
	u, err := url.Parse(ref)
	if err != nil {
		return false
	}
	s := strings.ToLower(u.Scheme)
	return (s == "http" || s == "https") && u.Host != ""
}

// Load reads ref. name overrides the desired table name and format overrides
// the format; when empty they are derived from the file name in ref.
func (l *Loader) Load(ctx context.Context, ref, name string, format parser.Format) (*Document, error) {
	remote := IsURL(ref)
	src := file.NewLocal(ref)
	base := src.Name()
	if remote {
		base = httpds.NameFromURL(ref)
	}

	doc := &Document{Ref: ref, Name: name, Format: format}
	if doc.Name == "" {
		doc.Name = base
	}
	if doc.Format == "" {
		f, err := parser.FormatFromFilename(base)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", ref, err)
		}
		doc.Format = f
	}

	var err error
	if remote {
		c := l.HTTP
		if c == nil {
			c = httpds.NewClient(httpds.Config{})
		}
		doc.Content, err = c.Fetch(ctx, ref, l.MaxBytes)
	} else {
		doc.Content, err = readAll(ctx, src, l.MaxBytes)
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func readAll(ctx context.Context, src Source, limit int64) ([]byte, error) {
	rc, err := src.Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if limit > 0 {
		r = io.LimitReader(rc, limit+1)
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if limit > 0 && int64(len(b)) > limit {
		return nil, fmt.Errorf("%w: limit %d", ErrTooLarge, limit)
	}
	return b, nil
}
