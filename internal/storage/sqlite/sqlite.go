// Package sqlite registers the "sqlite" storage backend, built on the pure-Go
// modernc.org/sqlite driver. Callers reach it through storage.Open.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"tableingest/internal/storage"
)

// busyTimeoutMS is how long a connection waits on a locked database file
// before reporting SQLITE_BUSY.
const busyTimeoutMS = 5000

// openDB is a test hook that points to sql.Open by default.
var openDB = sql.Open

func init() {
	storage.Register("sqlite", Open)
}

// Open opens a SQLite database. The DSN is a file path or a "file:" URI, as
// understood by modernc.org/sqlite.
//
// An in-memory database exists per connection, so its pool is pinned to one
// connection. File databases get a busy timeout so that concurrent ingests
// wait for the write lock instead of failing.
func Open(ctx context.Context, cfg storage.Config) (*storage.DB, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}
	mem := isMemory(dsn)
	if !mem {
		dsn = withBusyTimeout(dsn)
	}

	db, err := openDB("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	if mem {
		db.SetMaxOpenConns(1)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return storage.New(db, Dialect{}), nil
}

func isMemory(dsn string) bool {
	return dsn == ":memory:" || strings.Contains(dsn, ":memory:") || strings.Contains(dsn, "mode=memory")
}

func withBusyTimeout(dsn string) string {
	if strings.Contains(dsn, "busy_timeout") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%s_pragma=busy_timeout(%d)", dsn, sep, busyTimeoutMS)
}
