// Command tableingest-server accepts CSV, JSON and JSONL uploads over HTTP and
// materializes each one as a table. See package server for the routes.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"tableingest/internal/app"
	"tableingest/internal/config"
	"tableingest/internal/server"
	"tableingest/internal/storage"

	// register all backends with the storage factory.
	_ "tableingest/internal/storage/all"
)

func main() {
	var (
		cfgPath  string
		addr     string
		validate bool
	)
	flag.StringVar(&cfgPath, "config", "", "configuration JSON path (defaults apply when empty)")
	flag.StringVar(&addr, "addr", "", "listen address (overrides server.addr and INGEST_SERVER_ADDR)")
	flag.BoolVar(&validate, "validate", false, "validate the configuration and exit")
	verbose := flag.Bool("v", false, "enable debug logs")
	flag.Parse()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fatalf("load .env: %v", err)
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		fatalf("%v", err)
	}
	config.ApplyEnv(&cfg, os.Getenv)
	if addr != "" {
		cfg.Server.Addr = addr
	}
	if *verbose {
		cfg.Logging.Level = "debug"
	}

	issues := config.Validate(cfg, storage.Kinds())
	for _, iss := range issues {
		fmt.Fprintln(os.Stderr, iss.Error())
	}
	if config.HasErrors(issues) {
		fatalf("configuration is invalid: %s", cfgPath)
	}
	if validate {
		fmt.Fprintln(os.Stderr, "configuration is valid")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt, err := app.Open(ctx, cfg, os.Stderr)
	if err != nil {
		fatalf("%v", err)
	}
	defer func() {
		if err := rt.Close(); err != nil {
			slog.Warn("close storage", "error", err)
		}
	}()

	srv := server.New(rt, server.Options{MaxUploadBytes: cfg.Server.MaxUploadBytes})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start(cfg.Server.Addr) }()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server stopped", "error", err)
		}
		return
	case <-ctx.Done():
	}

	slog.Info("shutting down", "timeout", time.Duration(cfg.Server.ShutdownTimeout))
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Server.ShutdownTimeout))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
