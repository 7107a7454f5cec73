package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Load reads a JSON configuration file on top of Defaults. Keys absent from
// the file keep their default values; unknown keys are rejected so typos do
// not silently fall back to defaults. An empty path returns Defaults.
func Load(path string) (Config, error) {
	cfg := Defaults()
	if path == "" {
		return cfg, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := Decode(b, &cfg); err != nil {
		return Config{}, fmt.Errorf("decode config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode strictly decodes JSON into cfg, keeping values already set for keys
// the document does not mention.
func Decode(b []byte, cfg *Config) error {
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	return dec.Decode(cfg)
}

// ApplyEnv overrides cfg with INGEST_* variables read through getenv (pass
// os.Getenv). Unset or empty variables leave the field untouched; integers
// that do not parse are ignored. The unprefixed METRICS_BACKEND and
// PUSHGATEWAY_URL variables are honored as fallbacks.
func ApplyEnv(cfg *Config, getenv func(string) string) {
	setString(&cfg.Job, getenv("INGEST_JOB"))
	setString(&cfg.Storage.Kind, getenv("INGEST_STORAGE_KIND"))
	setString(&cfg.Storage.DSN, getenv("INGEST_STORAGE_DSN"))

	setInt(&cfg.Ingest.SampleSize, getenv("INGEST_SAMPLE_SIZE"))
	setInt(&cfg.Ingest.BatchSize, getenv("INGEST_BATCH_SIZE"))

	if n, err := strconv.ParseInt(strings.TrimSpace(getenv("INGEST_SOURCE_MAX_BYTES")), 10, 64); err == nil {
		cfg.Source.MaxBytes = n
	}
	setInt(&cfg.Source.HTTPRetries, getenv("INGEST_SOURCE_HTTP_RETRIES"))

	setString(&cfg.Logging.Level, getenv("INGEST_LOG_LEVEL"))
	setString(&cfg.Logging.Format, getenv("INGEST_LOG_FORMAT"))

	setString(&cfg.Metrics.Backend, firstNonEmpty(getenv("INGEST_METRICS_BACKEND"), getenv("METRICS_BACKEND")))
	setString(&cfg.Metrics.PushgatewayURL, firstNonEmpty(getenv("INGEST_PUSHGATEWAY_URL"), getenv("PUSHGATEWAY_URL")))
	setString(&cfg.Metrics.DatadogAddr, getenv("INGEST_DATADOG_ADDR"))
	if tags := getenv("INGEST_DATADOG_TAGS"); tags != "" {
		cfg.Metrics.DatadogTags = splitList(tags)
	}

	setString(&cfg.Server.Addr, getenv("INGEST_SERVER_ADDR"))
}

func setString(dst *string, v string) {
	if v = strings.TrimSpace(v); v != "" {
		*dst = v
	}
}

func setInt(dst *int, v string) {
	if n, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
		*dst = n
	}
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if v != "" {
			return v
		}
	}
	return ""
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
