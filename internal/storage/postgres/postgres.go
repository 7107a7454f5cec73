// Package postgres registers the "postgres" storage backend. Connections come
// from a pgxpool.Pool exposed through database/sql by pgx's stdlib adapter,
// and table loads use COPY.
package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"tableingest/internal/storage"
)

// newPool is a test hook that points to pgxpool.NewWithConfig by default.
// Tests may replace it to avoid real DB connections.
var newPool = pgxpool.NewWithConfig

func init() {
	storage.Register("postgres", Open)
}

// Open parses cfg.DSN, opens a pool and verifies it with a ping.
func Open(ctx context.Context, cfg storage.Config) (*storage.DB, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("postgres: DSN must not be empty")
	}
	pcfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: parse DSN: %w", err)
	}
	pool, err := newPool(ctx, pcfg)
	if err != nil {
		return nil, fmt.Errorf("pgxpool: %w", err)
	}
	db := stdlib.OpenDBFromPool(pool)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return storage.New(db, Dialect{}, pool.Close), nil
}
