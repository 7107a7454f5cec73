package app

import (
	"log/slog"

	"tableingest/internal/config"
	"tableingest/internal/metrics"
	"tableingest/internal/metrics/datadog"
	"tableingest/internal/metrics/prompush"
)

// SetupMetrics installs the backend named by m.Backend as the process-wide
// metrics backend. A backend that fails to initialize is logged and metrics
// stay disabled; a metrics outage never stops ingestion. The returned
// function flushes and detaches the backend.
func SetupMetrics(job string, m config.Metrics, log *slog.Logger) func() {
	var (
		b       metrics.Backend
		release func() error
		err     error
	)
	switch m.Backend {
	case "pushgateway":
		var pb *prompush.Backend
		pb, err = prompush.NewBackend(job, m.PushgatewayURL)
		b = pb
	case "datadog":
		var db *datadog.Backend
		db, err = datadog.NewBackend(datadog.Config{
			Addr:       m.DatadogAddr,
			Namespace:  m.DatadogNamespace,
			GlobalTags: m.DatadogTags,
		})
		if err == nil {
			b, release = db, db.Close
		}
	case "", "none":
		log.Debug("metrics disabled")
		return func() {}
	default:
		log.Warn("unknown metrics backend; metrics disabled", "backend", m.Backend)
		return func() {}
	}
	if err != nil {
		log.Warn("metrics backend failed to initialize; metrics disabled", "backend", m.Backend, "error", err)
		return func() {}
	}

	log.Info("metrics enabled", "backend", m.Backend, "job", job)
	metrics.SetBackend(b)
	return func() {
		if err := metrics.Flush(); err != nil {
			log.Warn("metrics flush failed", "backend", m.Backend, "error", err)
		}
		metrics.Reset()
		if release != nil {
			if err := release(); err != nil {
				log.Warn("metrics close failed", "backend", m.Backend, "error", err)
			}
		}
	}
}
