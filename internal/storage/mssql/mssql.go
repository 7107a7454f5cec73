// Package mssql registers the "mssql" storage backend on top of
// github.com/microsoft/go-mssqldb.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/microsoft/go-mssqldb/msdsn"

	"tableingest/internal/storage"
)

// openDB is a test hook that points to sql.Open by default.
var openDB = sql.Open

func init() {
	storage.Register("mssql", Open)
}

// Open validates the DSN, opens the pool and pings it.
func Open(ctx context.Context, cfg storage.Config) (*storage.DB, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("mssql: DSN must not be empty")
	}
	// Validate DSN early to fail fast on obvious mistakes.
	if _, err := msdsn.Parse(cfg.DSN); err != nil {
		return nil, fmt.Errorf("mssql dsn: %w", err)
	}
	db, err := openDB("sqlserver", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sql.Open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	return storage.New(db, Dialect{}), nil
}
