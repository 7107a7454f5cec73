// Package ingest turns a CSV, JSON or JSONL document into a relational table
// and reports what was stored.
//
// An Ingest call runs these steps on the caller's goroutine:
//
//  1. sanitize the desired table name;
//  2. parse the content (JSONL lines that fail are skipped with a warning);
//  3. for JSON and JSONL, flatten the records and unify their keys;
//  4. normalize and deduplicate column names, infer column types;
//  5. drop, create and fill the table in one transaction;
//  6. read back the declared schema, row count and a sample.
//
// Any failure is returned as an *IngestionError.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"tableingest/internal/ddl"
	"tableingest/internal/ident"
	"tableingest/internal/metrics"
	"tableingest/internal/parser"
	csvparser "tableingest/internal/parser/csv"
	jsonparser "tableingest/internal/parser/json"
	"tableingest/internal/record"
	"tableingest/internal/schema"
	"tableingest/internal/storage"
)

// DefaultSampleSize is the number of rows returned in TableSummary.SampleRows.
const DefaultSampleSize = 5

// Config tunes an Ingestor.
type Config struct {
	// SampleSize is the number of rows read back; 0 means DefaultSampleSize.
	SampleSize int
	// BatchSize caps rows per INSERT; 0 means storage.DefaultBatchSize.
	BatchSize int
	// Job labels metrics.
	Job string
	// CSV configures the CSV parser; the zero value means
	// csvparser.DefaultOptions.
	CSV *csvparser.Options
	// Logger receives warnings and progress; nil means slog.Default.
	Logger *slog.Logger
}

// Ingestor materializes documents into a store. It holds no per-call state
// and is safe for concurrent use on distinct table names.
type Ingestor struct {
	db     *storage.DB
	cfg    Config
	csv    *csvparser.Parser
	logger *slog.Logger
}

// New returns an Ingestor writing to db.
func New(db *storage.DB, cfg Config) *Ingestor {
	if cfg.SampleSize <= 0 {
		cfg.SampleSize = DefaultSampleSize
	}
	opts := csvparser.DefaultOptions()
	if cfg.CSV != nil {
		opts = *cfg.CSV
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Ingestor{db: db, cfg: cfg, csv: csvparser.NewParser(opts), logger: logger}
}

// parsed is a document reduced to columns and positional rows.
type parsed struct {
	fields   []string
	rows     [][]record.Value
	warnings []parser.Warning
}

// Ingest stores content as table ident.Sanitize(desiredName), replacing any
// table of that name, and returns the store's view of the result.
func (in *Ingestor) Ingest(ctx context.Context, content []byte, desiredName string, format parser.Format) (*TableSummary, error) {
	table := ident.Sanitize(desiredName)
	log := in.logger.With("table", string(table), "format", string(format))
	fail := func(err error) (*TableSummary, error) {
		return nil, &IngestionError{Format: format, Table: table, Err: err}
	}

	doc, err := in.parse(content, format, log)
	if err != nil {
		return fail(err)
	}
	metrics.RecordRow(in.cfg.Job, metrics.KindParsed, int64(len(doc.rows)))
	metrics.RecordRow(in.cfg.Job, metrics.KindSkipped, int64(len(doc.warnings)))

	cols := make([]ident.Identifier, len(doc.fields))
	for i, f := range doc.fields {
		cols[i] = ident.Column(f)
	}
	cols = ident.Unique(cols)
	types := schema.InferTypes(doc.rows, len(cols))

	args := make([][]any, len(doc.rows))
	for i, row := range doc.rows {
		args[i] = schema.Args(row, types)
	}

	start := time.Now()
	n, err := in.db.ReplaceTable(ctx, ddl.NewTableDef(table, cols, types), args, storage.ReplaceOptions{
		BatchSize: in.cfg.BatchSize,
		Job:       in.cfg.Job,
		Logger:    log,
	})
	metrics.RecordStep(in.cfg.Job, metrics.StepMaterialize, err, time.Since(start))
	if err != nil {
		return fail(err)
	}
	metrics.RecordRow(in.cfg.Job, metrics.KindInserted, n)

	sum, err := in.describe(ctx, table)
	if err != nil {
		return fail(err)
	}
	sum.Format = format
	for _, w := range doc.warnings {
		sum.Warnings = append(sum.Warnings, w.String())
	}

	log.Info("table ingested", "columns", len(cols), "rows", sum.RowCount, "skipped", len(doc.warnings))
	return sum, nil
}

// Describe reads back an existing table. name is sanitized the way Ingest
// sanitizes it, so the original desired name works too.
func (in *Ingestor) Describe(ctx context.Context, name string) (*TableSummary, error) {
	return in.describe(ctx, ident.Sanitize(name))
}

func (in *Ingestor) describe(ctx context.Context, table ident.Identifier) (*TableSummary, error) {
	start := time.Now()
	info, err := in.db.Describe(ctx, table, in.cfg.SampleSize)
	metrics.RecordStep(in.cfg.Job, metrics.StepDescribe, err, time.Since(start))
	if err != nil {
		return nil, err
	}

	sum := &TableSummary{
		Name:       string(info.Name),
		Schema:     make(Schema, len(info.Columns)),
		RowCount:   info.RowCount,
		SampleRows: make([]Row, len(info.Sample)),
	}
	for i, c := range info.Columns {
		sum.Schema[i] = Column{Name: string(c.Name), Type: c.Type}
	}
	for i, vals := range info.Sample {
		row := make(Row, len(vals))
		for j, v := range vals {
			row[j] = Cell{Column: sum.Schema[j].Name, Value: v}
		}
		sum.SampleRows[i] = row
	}
	return sum, nil
}

func (in *Ingestor) parse(content []byte, format parser.Format, log *slog.Logger) (*parsed, error) {
	start := time.Now()
	var (
		doc *parsed
		err error
	)
	switch format {
	case parser.CSV:
		doc, err = in.parseCSV(content)
	case parser.JSON:
		doc, err = in.parseJSON(content)
	case parser.JSONL:
		doc, err = in.parseJSONL(content, log)
	default:
		err = fmt.Errorf("%w %q", parser.ErrUnknownFormat, format)
	}
	metrics.RecordStep(in.cfg.Job, metrics.StepParse, err, time.Since(start))
	if doc != nil {
		for _, w := range doc.warnings {
			if w.Element > 0 {
				log.Warn("skipped record", "element", w.Element, "error", w.Message)
			} else {
				log.Warn("skipped record", "line", w.Line, "error", w.Message)
			}
		}
	}
	return doc, err
}

func (in *Ingestor) parseCSV(content []byte) (*parsed, error) {
	t, err := in.csv.Parse(content)
	if err != nil {
		return nil, err
	}
	return &parsed{fields: t.Header, rows: t.Rows, warnings: t.Warnings}, nil
}

func (in *Ingestor) parseJSON(content []byte) (*parsed, error) {
	res, err := jsonparser.ParseArray(content)
	if err != nil {
		return warningsOf(res), err
	}
	return in.discover(res)
}

func (in *Ingestor) parseJSONL(content []byte, log *slog.Logger) (*parsed, error) {
	res, err := jsonparser.ParseLines(content)
	if err != nil {
		return warningsOf(res), err
	}
	doc, err := in.discover(res)
	if err != nil {
		return doc, err
	}
	log.Info(fmt.Sprintf("processed %d lines, found %d valid records with %d unique fields",
		res.Lines, len(res.Records), len(doc.fields)))
	return doc, nil
}

// discover runs schema discovery over decoded records.
func (in *Ingestor) discover(res *jsonparser.Result) (*parsed, error) {
	start := time.Now()
	fs, flat, err := schema.Discover(res.Records)
	metrics.RecordStep(in.cfg.Job, metrics.StepDiscover, err, time.Since(start))
	if err != nil {
		return warningsOf(res), err
	}
	return &parsed{fields: fs.Names(), rows: schema.Rows(fs, flat), warnings: res.Warnings}, nil
}

// warningsOf keeps a failed parse's warnings so they are still logged.
func warningsOf(res *jsonparser.Result) *parsed {
	if res == nil {
		return nil
	}
	return &parsed{warnings: res.Warnings}
}

// IsInputError reports whether err is the caller's fault: malformed or empty
// input, an unknown format, or an identifier that failed validation.
func IsInputError(err error) bool {
	var pe *parser.ParseError
	var sve *storage.SecurityValidationError
	return errors.As(err, &pe) ||
		errors.As(err, &sve) ||
		errors.Is(err, parser.ErrEmptyInput) ||
		errors.Is(err, parser.ErrNoValidRecords) ||
		errors.Is(err, parser.ErrUnknownFormat)
}
