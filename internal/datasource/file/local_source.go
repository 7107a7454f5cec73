// Package file reads ingestion inputs from the local filesystem.
package file

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Local is one file on disk.
type Local struct{ path string }

// NewLocal returns a Local for path. It does not touch the filesystem.
func NewLocal(path string) *Local { return &Local{path: path} }

// Name is the file's base name, used as the desired table name.
func (l *Local) Name() string { return filepath.Base(l.path) }

// Open opens the file for reading. A context that is already done is
// reported without touching the filesystem. Filesystem errors keep their
// cause, so errors.Is(err, os.ErrNotExist) works.
func (l *Local) Open(ctx context.Context) (io.ReadCloser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f, err := os.Open(l.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", l.path, err)
	}
	if st, err := f.Stat(); err == nil && st.IsDir() {
		f.Close()
		return nil, fmt.Errorf("open %s: is a directory", l.path)
	}
	return f, nil
}
