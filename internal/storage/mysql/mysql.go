// Package mysql registers the "mysql" storage backend on top of
// github.com/go-sql-driver/mysql. Rows are loaded with multi-row INSERTs.
//
// MySQL commits DDL implicitly, so a failed load can leave the freshly
// created table behind, empty or partially filled.
package mysql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"

	"tableingest/internal/storage"
)

// newConnector is a test hook that points to mysql.NewConnector by default.
var newConnector = mysql.NewConnector

func init() {
	storage.Register("mysql", Open)
}

// Open parses the DSN (user:pass@tcp(host:3306)/db), opens a pool and pings
// it.
func Open(ctx context.Context, cfg storage.Config) (*storage.DB, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("mysql: DSN must not be empty")
	}
	mcfg, err := mysql.ParseDSN(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("mysql dsn: %w", err)
	}
	if mcfg.DBName == "" {
		return nil, fmt.Errorf("mysql dsn: a database name is required")
	}
	conn, err := newConnector(mcfg)
	if err != nil {
		return nil, fmt.Errorf("mysql: connector: %w", err)
	}
	db := sql.OpenDB(conn)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("mysql: ping: %w", err)
	}
	return storage.New(db, Dialect{}), nil
}
