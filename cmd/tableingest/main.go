// Command tableingest loads CSV, JSON and JSONL documents into relational
// tables, one table per input, and prints a JSON summary of each table.
//
// Inputs are local paths or http(s) URLs, given as arguments or listed in a
// file passed with -list. Each input replaces the table named after its file
// (or -name). Summaries go to stdout, one JSON object per line in input
// order; logs go to stderr.
//
//	tableingest -config configs/local.json data/users.csv https://example.com/events.jsonl
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"tableingest/internal/app"
	"tableingest/internal/config"
	"tableingest/internal/datasource/file"
	"tableingest/internal/ingest"
	"tableingest/internal/parser"
	"tableingest/internal/storage"

	// register all backends with the storage factory.
	_ "tableingest/internal/storage/all"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Getenv, os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// options are the parsed command-line flags.
type options struct {
	cfgPath        string
	validate       bool
	format         string
	name           string
	list           string
	concurrency    int
	storageKind    string
	dsn            string
	metricsBackend string
	pushGatewayURL string
	verbose        bool
	inputs         []string
}

func parseFlags(args []string, stderr io.Writer) (*options, error) {
	var o options
	flags := flag.NewFlagSet("tableingest", flag.ContinueOnError)
	flags.SetOutput(stderr)
	flags.StringVar(&o.cfgPath, "config", "", "configuration JSON path (defaults apply when empty)")
	flags.BoolVar(&o.validate, "validate", false, "validate the configuration and exit")
	flags.StringVar(&o.format, "format", "", "input format: csv, json or jsonl (default: from the file extension)")
	flags.StringVar(&o.name, "name", "", "table name (only with a single input; default: the input's file name)")
	flags.StringVar(&o.list, "list", "", "file listing inputs, one \"ref [name]\" per line")
	flags.IntVar(&o.concurrency, "concurrency", 4, "inputs ingested in parallel")
	flags.StringVar(&o.storageKind, "storage", "", "storage kind (overrides config and INGEST_STORAGE_KIND)")
	flags.StringVar(&o.dsn, "dsn", "", "storage DSN (overrides config and INGEST_STORAGE_DSN)")
	flags.StringVar(&o.metricsBackend, "metrics-backend", "", "metrics backend: pushgateway, datadog or none (overrides config and env)")
	flags.StringVar(&o.pushGatewayURL, "pushgateway-url", "", "Pushgateway base URL (overrides config and PUSHGATEWAY_URL)")
	flags.BoolVar(&o.verbose, "v", false, "enable debug logs")
	if err := flags.Parse(args); err != nil {
		return nil, err
	}
	o.inputs = flags.Args()
	if o.concurrency < 1 {
		o.concurrency = 1
	}
	return &o, nil
}

// loadConfig resolves configuration: defaults, then the file, then the
// environment (after .env), then flags.
func loadConfig(o *options, getenv func(string) string) (config.Config, error) {
	cfg, err := config.Load(o.cfgPath)
	if err != nil {
		return config.Config{}, err
	}
	config.ApplyEnv(&cfg, getenv)

	if o.storageKind != "" {
		cfg.Storage.Kind = o.storageKind
	}
	if o.dsn != "" {
		cfg.Storage.DSN = o.dsn
	}
	if o.metricsBackend != "" {
		cfg.Metrics.Backend = o.metricsBackend
	}
	if o.pushGatewayURL != "" {
		cfg.Metrics.PushgatewayURL = o.pushGatewayURL
	}
	if o.verbose {
		cfg.Logging.Level = "debug"
	}
	return cfg, nil
}

// input is one document to ingest.
type input struct {
	ref  string
	name string
}

func collectInputs(o *options) ([]input, error) {
	var out []input
	for _, ref := range o.inputs {
		out = append(out, input{ref: ref, name: o.name})
	}
	if o.list != "" {
		entries, err := file.ReadList(o.list)
		if err != nil {
			return nil, fmt.Errorf("read input list: %w", err)
		}
		for _, e := range entries {
			out = append(out, input{ref: e.Ref, name: e.Name})
		}
	}
	if len(out) == 0 {
		return nil, errors.New("no inputs given")
	}
	if o.name != "" && len(out) > 1 {
		return nil, errors.New("-name requires exactly one input")
	}
	return out, nil
}

// result is the outcome of one input.
type result struct {
	summary *ingest.TableSummary
	err     error
}

// run is main without the process exit. It returns the exit code: 0 when
// every input was ingested, 1 when any failed, 2 for usage or configuration
// errors.
func run(ctx context.Context, args []string, getenv func(string) string, stdout, stderr io.Writer) int {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Fprintf(stderr, "load .env: %v\n", err)
		return 2
	}

	o, err := parseFlags(args, stderr)
	if err != nil {
		return 2
	}
	cfg, err := loadConfig(o, getenv)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	issues := config.Validate(cfg, storage.Kinds())
	for _, iss := range issues {
		fmt.Fprintln(stderr, iss.Error())
	}
	if config.HasErrors(issues) {
		fmt.Fprintf(stderr, "configuration is invalid: %s\n", o.cfgPath)
		return 2
	}
	if o.validate {
		fmt.Fprintln(stderr, "configuration is valid")
		return 0
	}

	var format parser.Format
	if o.format != "" {
		if format, err = parser.ParseFormat(o.format); err != nil {
			fmt.Fprintln(stderr, err)
			return 2
		}
	}
	inputs, err := collectInputs(o)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 2
	}

	rt, err := app.Open(ctx, cfg, stderr)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer func() {
		if err := rt.Close(); err != nil {
			rt.Logger.Warn("close storage", "error", err)
		}
	}()

	start := time.Now()
	results := make([]result, len(inputs))
	var g errgroup.Group
	g.SetLimit(o.concurrency)
	for i, in := range inputs {
		g.Go(func() error {
			results[i] = ingestOne(ctx, rt, in, format)
			return nil
		})
	}
	_ = g.Wait()

	enc := json.NewEncoder(stdout)
	failed := 0
	for i, r := range results {
		if r.err != nil {
			failed++
			rt.Logger.Error("ingest failed", "input", inputs[i].ref, "error", r.err)
			continue
		}
		if err := enc.Encode(r.summary); err != nil {
			rt.Logger.Error("write summary", "input", inputs[i].ref, "error", err)
			failed++
		}
	}
	rt.Logger.Info("run complete",
		"inputs", len(inputs), "failed", failed, "elapsed", time.Since(start).Truncate(time.Millisecond))
	if failed > 0 {
		return 1
	}
	return 0
}

func ingestOne(ctx context.Context, rt *app.Runtime, in input, format parser.Format) result {
	doc, err := rt.Loader.Load(ctx, in.ref, in.name, format)
	if err != nil {
		return result{err: err}
	}
	sum, err := rt.Ingest(ctx, doc)
	return result{summary: sum, err: err}
}
