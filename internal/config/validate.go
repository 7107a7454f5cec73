// This file adds a lightweight linter for Config values. It performs static
// checks over a decoded Config and returns a list of issues (errors and
// warnings) that callers can surface in a CLI or tests.

package config

import (
	"fmt"
	"net/url"
	"strings"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning indicates a finding that should be surfaced to users but
	// does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "ingest.csv.comma"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// Validate performs static validation of a Config. It does not mutate cfg.
// knownKinds lists the registered storage backends; an unknown kind is an
// error because Open would fail anyway.
func Validate(cfg Config, knownKinds []string) []Issue {
	var issues []Issue

	if strings.TrimSpace(cfg.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "job",
			Message:  "job is empty; metrics will be reported under a default name",
		})
	}
	issues = append(issues, validateStorage(cfg.Storage, knownKinds)...)
	issues = append(issues, validateIngest(cfg.Ingest)...)
	issues = append(issues, validateSource(cfg.Source)...)
	issues = append(issues, validateLogging(cfg.Logging)...)
	issues = append(issues, validateMetrics(cfg.Metrics)...)
	issues = append(issues, validateServer(cfg.Server)...)
	return issues
}

func validateStorage(s Storage, knownKinds []string) []Issue {
	var issues []Issue

	if strings.TrimSpace(s.Kind) == "" {
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  "storage.kind must not be empty",
		})
	}
	known := false
	for _, k := range knownKinds {
		if k == s.Kind {
			known = true
			break
		}
	}
	if !known {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q (registered: %s)", s.Kind, strings.Join(knownKinds, ", ")),
		})
	}
	if strings.TrimSpace(s.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.dsn",
			Message:  "storage.dsn must not be empty",
		})
	}
	if s.Kind == "sqlite" && s.DSN == ":memory:" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.dsn",
			Message:  "in-memory sqlite database is discarded when the process exits",
		})
	}
	return issues
}

func validateIngest(in Ingest) []Issue {
	var issues []Issue

	if in.SampleSize < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "ingest.sample_size",
			Message:  "sample_size must not be negative",
		})
	}
	if in.BatchSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "ingest.batch_size",
			Message:  fmt.Sprintf("batch_size=%d; the backend default will be used", in.BatchSize),
		})
	}

	if v, ok := in.CSV["comma"]; ok {
		s, isString := v.(string)
		switch {
		case !isString:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "ingest.csv.comma",
				Message:  "comma must be a string",
			})
		case len([]rune(s)) != 1:
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "ingest.csv.comma",
				Message:  fmt.Sprintf("comma must be a single character, got %q", s),
			})
		case s == "\"" || s == "\r" || s == "\n":
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "ingest.csv.comma",
				Message:  fmt.Sprintf("%q cannot be used as a delimiter", s),
			})
		}
	}
	for _, k := range []string{"trim_space", "lazy_quotes", "infer_types"} {
		if v, ok := in.CSV[k]; ok {
			if _, isBool := v.(bool); !isBool {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     "ingest.csv." + k,
					Message:  fmt.Sprintf("%s must be a boolean", k),
				})
			}
		}
	}
	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue
	if s.MaxBytes < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.max_bytes",
			Message:  "max_bytes must not be negative",
		})
	}
	if s.HTTPRetries < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.http_retries",
			Message:  "http_retries must not be negative",
		})
	}
	if s.InsecureSkipVerify {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "source.insecure_skip_verify",
			Message:  "TLS certificate verification is disabled for downloads",
		})
	}
	return issues
}

func validateLogging(l Logging) []Issue {
	var issues []Issue
	switch strings.ToLower(l.Level) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "logging.level",
			Message:  fmt.Sprintf("unknown level %q; info will be used", l.Level),
		})
	}
	switch strings.ToLower(l.Format) {
	case "", "text", "json":
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "logging.format",
			Message:  fmt.Sprintf("unknown format %q; text will be used", l.Format),
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	switch m.Backend {
	case "", "none":
	case "pushgateway":
		if m.PushgatewayURL == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  "pushgateway backend requires pushgateway_url",
			})
		} else if u, err := url.Parse(m.PushgatewayURL); err != nil || u.Scheme == "" || u.Host == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "metrics.pushgateway_url",
				Message:  fmt.Sprintf("invalid pushgateway_url %q", m.PushgatewayURL),
			})
		}
	case "datadog":
		if m.DatadogAddr == "" {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "metrics.datadog_addr",
				Message:  "datadog_addr is empty; the client default (DD_AGENT_HOST or localhost:8125) applies",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q; metrics disabled", m.Backend),
		})
	}
	return issues
}

func validateServer(s Server) []Issue {
	var issues []Issue
	if s.MaxUploadBytes < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "server.max_upload_bytes",
			Message:  "max_upload_bytes must not be negative",
		})
	}
	if s.ShutdownTimeout < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "server.shutdown_timeout",
			Message:  "shutdown_timeout must not be negative",
		})
	}
	return issues
}
