package datadog

import (
	"reflect"
	"sync"
	"testing"

	"tableingest/internal/metrics"

	"github.com/DataDog/datadog-go/v5/statsd"
)

type call struct {
	kind  string
	name  string
	value float64
	tags  []string
}

// recordingClient captures Count and Histogram calls; everything else is a
// no-op.
type recordingClient struct {
	*statsd.NoOpClient

	mu      sync.Mutex
	calls   []call
	flushed int
}

func (r *recordingClient) Count(name string, value int64, tags []string, rate float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{"count", name, float64(value), tags})
	return nil
}

func (r *recordingClient) Histogram(name string, value float64, tags []string, rate float64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call{"histogram", name, value, tags})
	return nil
}

func (r *recordingClient) Flush() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushed++
	return nil
}

func TestBackend_ForwardsWithTags(t *testing.T) {
	t.Parallel()

	rc := &recordingClient{NoOpClient: &statsd.NoOpClient{}}
	b := NewWithClient(rc)

	b.IncCounter(metrics.RecordsTotal, 4, metrics.Labels{"kind": "inserted", "job": "j"})
	b.ObserveHistogram(metrics.StepDuration, 0.25, metrics.Labels{"step": "parse"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	want := []call{
		{"count", metrics.RecordsTotal, 4, []string{"job:j", "kind:inserted"}},
		{"histogram", metrics.StepDuration, 0.25, []string{"step:parse"}},
	}
	if !reflect.DeepEqual(rc.calls, want) {
		t.Fatalf("calls = %+v, want %+v", rc.calls, want)
	}
	if rc.flushed != 1 {
		t.Fatalf("flushed = %d, want 1", rc.flushed)
	}
}

func TestBackend_NilClient(t *testing.T) {
	t.Parallel()

	b := &Backend{}
	b.IncCounter("x", 1, nil)
	b.ObserveHistogram("x", 1, nil)
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	if err := b.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestLabelsToTags(t *testing.T) {
	t.Parallel()

	if got := labelsToTags(nil); got != nil {
		t.Fatalf("labelsToTags(nil) = %v", got)
	}
	got := labelsToTags(metrics.Labels{"b": "2", "a": "1"})
	if !reflect.DeepEqual(got, []string{"a:1", "b:2"}) {
		t.Fatalf("labelsToTags = %v", got)
	}
}
