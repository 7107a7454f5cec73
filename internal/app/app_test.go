package app

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"tableingest/internal/config"
	"tableingest/internal/datasource"
	"tableingest/internal/metrics"
	"tableingest/internal/parser"

	_ "tableingest/internal/storage/sqlite"
)

func memoryConfig() config.Config {
	cfg := config.Defaults()
	cfg.Storage = config.Storage{Kind: "sqlite", DSN: ":memory:"}
	cfg.Logging.Format = "json"
	return cfg
}

func TestOpen_IngestAndClose(t *testing.T) {
	var logs bytes.Buffer
	rt, err := Open(context.Background(), memoryConfig(), &logs)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rt.Close()

	sum, err := rt.Ingest(context.Background(), &datasource.Document{
		Name:    "people.csv",
		Format:  parser.CSV,
		Content: []byte("id,name\n1,ann\n2,bob\n"),
	})
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if sum.Name != "people" || sum.RowCount != 2 {
		t.Fatalf("summary = %+v", sum)
	}
	if !strings.Contains(logs.String(), `"msg":"table ingested"`) {
		t.Fatalf("expected JSON log line, got %s", logs.String())
	}
}

func TestOpen_UnknownKind(t *testing.T) {
	cfg := memoryConfig()
	cfg.Storage.Kind = "oracle"
	if _, err := Open(context.Background(), cfg, io.Discard); err == nil {
		t.Fatalf("Open with unknown kind succeeded")
	}
}

func TestSetupMetrics_PushgatewayFlushesOnClose(t *testing.T) {
	var pushes atomic.Int32
	var path atomic.Value
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		pushes.Add(1)
		path.Store(r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))
	defer gw.Close()

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	done := SetupMetrics("nightly", config.Metrics{Backend: "pushgateway", PushgatewayURL: gw.URL}, log)
	metrics.RecordRow("nightly", metrics.KindParsed, 3)
	done()

	if pushes.Load() != 1 {
		t.Fatalf("pushes = %d, want 1", pushes.Load())
	}
	if p, _ := path.Load().(string); !strings.Contains(p, "/job/nightly") {
		t.Fatalf("push path = %q, want job grouping", p)
	}
}

func TestSetupMetrics_DisabledBackends(t *testing.T) {
	var logs bytes.Buffer
	log := slog.New(slog.NewTextHandler(&logs, nil))

	for _, backend := range []string{"", "none", "graphite"} {
		done := SetupMetrics("job", config.Metrics{Backend: backend}, log)
		done()
	}
	if !strings.Contains(logs.String(), "unknown metrics backend") {
		t.Fatalf("unknown backend not reported: %s", logs.String())
	}
}
