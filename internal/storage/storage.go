// Package storage contains the storage-agnostic contracts used to materialize
// ingested tables, plus the registry through which concrete backends
// (sqlite, postgres, mssql, mysql) make themselves available.
//
// Backends register a Factory in init. Callers blank-import
// tableingest/internal/storage/all and then call Open with the configured
// kind; they never import driver packages directly.
//
// Every statement that names a table or column goes through an Executor, which
// renders {placeholder} identifiers only after re-validating them and binds
// all values as parameters.
package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"

	"tableingest/internal/ddl"
	"tableingest/internal/ident"
	"tableingest/internal/schema"
)

// Config selects and configures a backend.
type Config struct {
	// Kind is the registered backend name, e.g. "sqlite".
	Kind string
	// DSN is passed to the backend's driver.
	DSN string
}

// Dialect captures what differs between SQL backends.
type Dialect interface {
	// Name returns the backend kind.
	Name() string

	// QuoteIdent quotes an identifier that has already passed ident.Validate.
	QuoteIdent(id ident.Identifier) string

	// Placeholder returns the n-th (1-based) bind parameter marker.
	Placeholder(n int) string

	// MaxParams is the largest number of bind parameters one statement may
	// carry.
	MaxParams() int

	// MapType maps a logical column type to the backend SQL type.
	MapType(t schema.ColumnType) string

	// SampleTemplate selects {cols} from {table}, limited by one bound
	// row count, in insertion order where the backend has a row identity
	// to order by.
	SampleTemplate(cols string) string

	// DescribeColumns returns the columns of table in ordinal order. It must
	// run every query through ex.
	DescribeColumns(ctx context.Context, ex *Executor, table ident.Identifier) ([]ColumnInfo, error)
}

// BulkInserter is implemented by dialects with a native bulk-load path.
// conn is the connection tx runs on; implementations must load rows inside
// tx and must only use identifiers from def, which the caller has validated.
type BulkInserter interface {
	BulkInsert(ctx context.Context, conn *sql.Conn, tx *sql.Tx, def ddl.TableDef, rows [][]any) (int64, error)
}

// ColumnInfo is one column as reported by the database.
type ColumnInfo struct {
	Name ident.Identifier
	// Type is the SQL type name as the database reports it.
	Type string
}

// Factory opens a backend for cfg. Backends build the result with New.
type Factory func(ctx context.Context, cfg Config) (*DB, error)

var (
	regMu     sync.RWMutex
	factories = map[string]Factory{}
)

// Register makes a backend available under kind. It panics on a duplicate or
// nil registration, which can only be a programming error in an init func.
func Register(kind string, f Factory) {
	regMu.Lock()
	defer regMu.Unlock()
	if f == nil {
		panic("storage: Register factory is nil for " + kind)
	}
	if _, dup := factories[kind]; dup {
		panic("storage: Register called twice for " + kind)
	}
	factories[kind] = f
}

// Kinds lists the registered backends, sorted.
func Kinds() []string {
	regMu.RLock()
	defer regMu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// Open connects to the backend selected by cfg.Kind.
func Open(ctx context.Context, cfg Config) (*DB, error) {
	kind := strings.ToLower(strings.TrimSpace(cfg.Kind))
	regMu.RLock()
	f, ok := factories[kind]
	regMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("storage: unknown kind %q (registered: %s)", cfg.Kind, strings.Join(Kinds(), ", "))
	}
	db, err := f(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", kind, err)
	}
	return db, nil
}

// DB is an open backend: a connection pool plus its dialect.
type DB struct {
	db      *sql.DB
	d       Dialect
	closers []func()
}

// New wraps an already opened pool. closers run after the pool is closed, for
// resources the backend opened underneath it. Backends and tests use New;
// applications call Open.
func New(db *sql.DB, d Dialect, closers ...func()) *DB {
	return &DB{db: db, d: d, closers: closers}
}

// Dialect returns the backend dialect.
func (s *DB) Dialect() Dialect { return s.d }

// Executor returns an Executor running directly on the pool.
func (s *DB) Executor() *Executor { return NewExecutor(s.db, s.d) }

// Ping verifies the connection.
func (s *DB) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Close closes the pool and anything the backend opened beneath it.
func (s *DB) Close() error {
	err := s.db.Close()
	for _, c := range s.closers {
		c()
	}
	return err
}
