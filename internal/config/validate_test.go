package config

import (
	"path/filepath"
	"strings"
	"testing"
)

var testKinds = []string{"mssql", "mysql", "postgres", "sqlite"}

// hasIssue reports whether issues contains an Issue with the given severity,
// path, and a Message containing msgSubstr.
func hasIssue(t *testing.T, issues []Issue, sev IssueSeverity, path, msgSubstr string) bool {
	t.Helper()
	for _, iss := range issues {
		if iss.Severity == sev && iss.Path == path && strings.Contains(iss.Message, msgSubstr) {
			return true
		}
	}
	return false
}

/*
TestValidate_Defaults verifies that the default configuration is clean.
*/
func TestValidate_Defaults(t *testing.T) {
	t.Parallel()

	if issues := Validate(Defaults(), testKinds); len(issues) != 0 {
		t.Fatalf("Validate(Defaults) = %+v, want no issues", issues)
	}
}

func TestValidate_Findings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		sev    IssueSeverity
		path   string
		msg    string
	}{
		{"empty kind", func(c *Config) { c.Storage.Kind = "" }, SeverityError, "storage.kind", "must not be empty"},
		{"unknown kind", func(c *Config) { c.Storage.Kind = "oracle" }, SeverityError, "storage.kind", `unknown storage kind "oracle"`},
		{"empty dsn", func(c *Config) { c.Storage.DSN = " " }, SeverityError, "storage.dsn", "must not be empty"},
		{"memory sqlite", func(c *Config) { c.Storage.DSN = ":memory:" }, SeverityWarning, "storage.dsn", "in-memory"},
		{"negative sample", func(c *Config) { c.Ingest.SampleSize = -1 }, SeverityError, "ingest.sample_size", "negative"},
		{"zero batch", func(c *Config) { c.Ingest.BatchSize = 0 }, SeverityWarning, "ingest.batch_size", "batch_size=0"},
		{"long comma", func(c *Config) { c.Ingest.CSV = Options{"comma": ";;"} }, SeverityError, "ingest.csv.comma", "single character"},
		{"quote comma", func(c *Config) { c.Ingest.CSV = Options{"comma": `"`} }, SeverityError, "ingest.csv.comma", "cannot be used"},
		{"numeric comma", func(c *Config) { c.Ingest.CSV = Options{"comma": float64(1)} }, SeverityError, "ingest.csv.comma", "must be a string"},
		{"string bool", func(c *Config) { c.Ingest.CSV = Options{"infer_types": "no"} }, SeverityError, "ingest.csv.infer_types", "boolean"},
		{"log level", func(c *Config) { c.Logging.Level = "loud" }, SeverityWarning, "logging.level", "unknown level"},
		{"log format", func(c *Config) { c.Logging.Format = "xml" }, SeverityWarning, "logging.format", "unknown format"},
		{"pushgateway url", func(c *Config) { c.Metrics.Backend = "pushgateway" }, SeverityError, "metrics.pushgateway_url", "requires"},
		{"bad pushgateway url", func(c *Config) {
			c.Metrics.Backend = "pushgateway"
			c.Metrics.PushgatewayURL = "localhost"
		}, SeverityError, "metrics.pushgateway_url", "invalid"},
		{"datadog addr", func(c *Config) { c.Metrics.Backend = "datadog" }, SeverityWarning, "metrics.datadog_addr", "client default"},
		{"unknown backend", func(c *Config) { c.Metrics.Backend = "graphite" }, SeverityWarning, "metrics.backend", "unknown"},
		{"empty job", func(c *Config) { c.Job = "" }, SeverityWarning, "job", "default name"},
		{"negative max bytes", func(c *Config) { c.Source.MaxBytes = -1 }, SeverityError, "source.max_bytes", "negative"},
		{"negative retries", func(c *Config) { c.Source.HTTPRetries = -2 }, SeverityError, "source.http_retries", "negative"},
		{"insecure tls", func(c *Config) { c.Source.InsecureSkipVerify = true }, SeverityWarning, "source.insecure_skip_verify", "disabled"},
		{"negative upload", func(c *Config) { c.Server.MaxUploadBytes = -1 }, SeverityError, "server.max_upload_bytes", "negative"},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			cfg := Defaults()
			tc.mutate(&cfg)
			issues := Validate(cfg, testKinds)
			if !hasIssue(t, issues, tc.sev, tc.path, tc.msg) {
				t.Fatalf("expected %s at %s containing %q; got %+v", tc.sev, tc.path, tc.msg, issues)
			}
		})
	}
}

func TestHasErrors(t *testing.T) {
	t.Parallel()

	if HasErrors([]Issue{{Severity: SeverityWarning}}) {
		t.Fatalf("HasErrors(warning only) = true")
	}
	if !HasErrors([]Issue{{Severity: SeverityWarning}, {Severity: SeverityError}}) {
		t.Fatalf("HasErrors(with error) = false")
	}
	iss := Issue{Severity: SeverityError, Path: "storage.kind", Message: "x"}
	if got := iss.Error(); got != "error at storage.kind: x" {
		t.Fatalf("Issue.Error = %q", got)
	}
}

func TestValidate_ShippedConfigs(t *testing.T) {
	t.Parallel()

	paths, err := filepath.Glob(filepath.Join("..", "..", "configs", "*.json"))
	if err != nil {
		t.Fatal(err)
	}
	if len(paths) == 0 {
		t.Fatalf("no shipped configs found")
	}
	for _, p := range paths {
		cfg, err := Load(p)
		if err != nil {
			t.Fatalf("Load(%s): %v", p, err)
		}
		if issues := Validate(cfg, testKinds); HasErrors(issues) {
			t.Fatalf("%s: %+v", p, issues)
		}
	}
}
