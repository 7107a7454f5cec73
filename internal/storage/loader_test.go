package storage

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"tableingest/internal/logging"
)

func makeRows(n int) [][]any {
	rows := make([][]any, n)
	for i := range rows {
		rows[i] = []any{i, "x"}
	}
	return rows
}

// TestLoadBatches_Basic verifies rows are grouped into batches and copyFn is
// called with the expected counts. It also checks the total equals the sum of
// all successful copyFn returns.
func TestLoadBatches_Basic(t *testing.T) {
	t.Parallel()

	var calls int32
	var sizes []int
	copyFn := func(_ context.Context, rows [][]any) (int64, error) {
		atomic.AddInt32(&calls, 1)
		sizes = append(sizes, len(rows))
		return int64(len(rows)), nil
	}

	total, batches, err := LoadBatches(context.Background(), logging.Discard(), makeRows(7), 3, copyFn)
	if err != nil {
		t.Fatalf("LoadBatches error: %v", err)
	}
	if total != 7 || batches != 3 {
		t.Fatalf("total=%d batches=%d, want 7 and 3", total, batches)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("copyFn calls %d, want 3 (3+3+1)", got)
	}
	if sizes[2] != 1 {
		t.Fatalf("last batch size %d, want 1", sizes[2])
	}
}

// TestLoadBatches_ErrorPropagation ensures the first copy error is propagated
// and processing stops after that batch.
func TestLoadBatches_ErrorPropagation(t *testing.T) {
	t.Parallel()

	wantErr := errors.New("copy failed")
	var calls int
	copyFn := func(_ context.Context, rows [][]any) (int64, error) {
		calls++
		if calls == 2 {
			return 0, wantErr
		}
		return int64(len(rows)), nil
	}

	total, batches, err := LoadBatches(context.Background(), logging.Discard(), makeRows(5), 2, copyFn)
	if !errors.Is(err, wantErr) {
		t.Fatalf("want error %v, got %v", wantErr, err)
	}
	if total != 2 || batches != 1 || calls != 2 {
		t.Fatalf("total=%d batches=%d calls=%d, want 2, 1, 2", total, batches, calls)
	}
}

// TestLoadBatches_ContextCancel checks the loader stops before the next batch
// once the context is canceled.
func TestLoadBatches_ContextCancel(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int
	copyFn := func(_ context.Context, rows [][]any) (int64, error) {
		calls++
		cancel()
		return int64(len(rows)), nil
	}

	_, _, err := LoadBatches(ctx, logging.Discard(), makeRows(4), 1, copyFn)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if calls != 1 {
		t.Fatalf("copyFn calls %d after cancel, want 1", calls)
	}
}

func TestLoadBatches_InvalidArgs(t *testing.T) {
	t.Parallel()

	noop := func(context.Context, [][]any) (int64, error) { return 0, nil }
	if _, _, err := LoadBatches(context.Background(), nil, nil, 0, noop); err == nil {
		t.Fatalf("batchSize 0 accepted")
	}
	if _, _, err := LoadBatches(context.Background(), nil, nil, 1, nil); err == nil {
		t.Fatalf("nil copyFn accepted")
	}
	total, batches, err := LoadBatches(context.Background(), nil, nil, 1, noop)
	if err != nil || total != 0 || batches != 0 {
		t.Fatalf("empty input: total=%d batches=%d err=%v", total, batches, err)
	}
}
