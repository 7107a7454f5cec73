// Package metrics provides a small, backend-agnostic abstraction for recording
// operational metrics from table ingestion.
//
// It exposes a narrow interface (Backend) focused on counters and timing data,
// and a global, pluggable backend that defaults to a no-op implementation, so
// instrumentation is always safe to call even when nothing is configured.
// Concrete metric systems live in the prompush and datadog subpackages.
package metrics

import (
	"sync"
	"time"
)

// Metric names emitted by the helpers below.
const (
	StepTotal       = "ingest_step_total"
	StepDuration    = "ingest_step_duration_seconds"
	RecordsTotal    = "ingest_records_total"
	BatchesTotal    = "ingest_batches_total"
	defaultJobLabel = "tableingest"
)

// Ingestion steps reported through RecordStep.
const (
	StepParse       = "parse"
	StepDiscover    = "discover"
	StepMaterialize = "materialize"
	StepDescribe    = "describe"
)

// Record kinds reported through RecordRow.
const (
	KindParsed   = "parsed"
	KindSkipped  = "skipped"
	KindInserted = "inserted"
)

// Labels are string key/value pairs attached to a metric.
type Labels map[string]string

// Backend is the minimal interface for metrics backends.
type Backend interface {
	// IncCounter increments a counter by delta.
	IncCounter(name string, delta float64, labels Labels)
	// ObserveHistogram records a value in a latency/duration style metric.
	ObserveHistogram(name string, value float64, labels Labels)
	// Flush pushes or flushes metrics, if the backend needs it (e.g. Pushgateway).
	Flush() error
}

// nopBackend is used by default so metrics are optional.
type nopBackend struct{}

func (nopBackend) IncCounter(name string, delta float64, labels Labels)       {}
func (nopBackend) ObserveHistogram(name string, value float64, labels Labels) {}
func (nopBackend) Flush() error                                               { return nil }

var (
	mu      sync.RWMutex
	backend Backend = nopBackend{}
)

// SetBackend installs a concrete backend. Passing nil keeps the existing backend.
func SetBackend(b Backend) {
	if b == nil {
		return
	}
	mu.Lock()
	backend = b
	mu.Unlock()
}

// Reset restores the no-op backend.
func Reset() {
	mu.Lock()
	backend = nopBackend{}
	mu.Unlock()
}

func current() Backend {
	mu.RLock()
	defer mu.RUnlock()
	return backend
}

// Flush delegates to the current backend.
func Flush() error {
	return current().Flush()
}

// RecordStep measures latency plus success/failure of one ingestion step.
func RecordStep(job, step string, err error, d time.Duration) {
	status := "success"
	if err != nil {
		status = "failure"
	}

	lbls := Labels{
		"job":    jobLabel(job),
		"step":   step,
		"status": status,
	}

	b := current()
	b.IncCounter(StepTotal, 1, lbls)
	b.ObserveHistogram(StepDuration, d.Seconds(), lbls)
}

// RecordRow increments a record-level counter for the given job and kind
// (KindParsed, KindSkipped, KindInserted).
func RecordRow(job, kind string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(RecordsTotal, float64(delta), Labels{
		"job":  jobLabel(job),
		"kind": kind,
	})
}

// RecordBatches increments the INSERT batch counter for the given job.
func RecordBatches(job string, delta int64) {
	if delta <= 0 {
		return
	}
	current().IncCounter(BatchesTotal, float64(delta), Labels{
		"job": jobLabel(job),
	})
}

func jobLabel(job string) string {
	if job == "" {
		return defaultJobLabel
	}
	return job
}
