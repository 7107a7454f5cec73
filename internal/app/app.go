// Package app wires a loaded configuration into the pieces both binaries
// share: the logger, the metrics backend, the storage pool and the ingestor.
//
// It never imports a storage driver; the binaries blank-import
// tableingest/internal/storage/all so every backend is registered.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"tableingest/internal/config"
	"tableingest/internal/datasource"
	"tableingest/internal/datasource/httpds"
	"tableingest/internal/ingest"
	"tableingest/internal/logging"
	csvparser "tableingest/internal/parser/csv"
	"tableingest/internal/storage"
)

// Runtime is an opened application. Close it when done.
type Runtime struct {
	Config   config.Config
	Logger   *slog.Logger
	DB       *storage.DB
	Ingestor *ingest.Ingestor
	Locks    *ingest.TableLocks
	Loader   *datasource.Loader

	closeMetrics func()
}

// Open sets up logging on logOut, the metrics backend and the storage pool
// described by cfg. cfg must already be validated.
func Open(ctx context.Context, cfg config.Config, logOut io.Writer) (*Runtime, error) {
	logger := logging.Setup(logOut, cfg.Logging.Level, cfg.Logging.Format)

	closeMetrics := SetupMetrics(cfg.Job, cfg.Metrics, logger)

	openCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	db, err := storage.Open(openCtx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.Storage.DSN})
	if err != nil {
		closeMetrics()
		return nil, err
	}
	if err := db.Ping(openCtx); err != nil {
		_ = db.Close()
		closeMetrics()
		return nil, fmt.Errorf("storage: ping %s: %w", cfg.Storage.Kind, err)
	}
	logger.Info("storage ready", "kind", db.Dialect().Name())

	csvOpts := csvparser.FromConfigOptions(cfg.Ingest.CSV)
	rt := &Runtime{
		Config: cfg,
		Logger: logger,
		DB:     db,
		Ingestor: ingest.New(db, ingest.Config{
			SampleSize: cfg.Ingest.SampleSize,
			BatchSize:  cfg.Ingest.BatchSize,
			Job:        cfg.Job,
			CSV:        &csvOpts,
			Logger:     logger,
		}),
		Locks: &ingest.TableLocks{},
		Loader: &datasource.Loader{
			HTTP: httpds.NewClient(httpds.Config{
				Timeout:            time.Duration(cfg.Source.HTTPTimeout),
				MaxRetries:         cfg.Source.HTTPRetries,
				InsecureSkipVerify: cfg.Source.InsecureSkipVerify,
				Logger:             logger,
			}),
			MaxBytes: cfg.Source.MaxBytes,
		},
		closeMetrics: closeMetrics,
	}
	return rt, nil
}

// Ingest stores doc in the table named after doc.Name while holding that
// table's lock.
func (rt *Runtime) Ingest(ctx context.Context, doc *datasource.Document) (*ingest.TableSummary, error) {
	unlock := rt.Locks.Lock(doc.Name)
	defer unlock()
	return rt.Ingestor.Ingest(ctx, doc.Content, doc.Name, doc.Format)
}

// Describe reads back the table for name, sanitized the way Ingest does.
func (rt *Runtime) Describe(ctx context.Context, name string) (*ingest.TableSummary, error) {
	return rt.Ingestor.Describe(ctx, name)
}

// Ping checks the storage connection.
func (rt *Runtime) Ping(ctx context.Context) error { return rt.DB.Ping(ctx) }

// Close flushes metrics and closes the storage pool.
func (rt *Runtime) Close() error {
	rt.closeMetrics()
	return rt.DB.Close()
}
