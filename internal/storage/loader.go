package storage

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// CopyFn abstracts a backend's bulk insert capability. Implementations insert
// rows (aligned to the table's column order) and return the number of rows
// reported as inserted. It must cancel promptly when ctx is done.
type CopyFn func(ctx context.Context, rows [][]any) (int64, error)

// LoadBatches splits rows into batches of at most batchSize and calls copyFn
// for each. It returns the total reported by copyFn and the first error.
//
// Progress is logged on each successful flush with running totals and rows/sec
// since the previous flush.
func LoadBatches(
	ctx context.Context,
	log *slog.Logger,
	rows [][]any,
	batchSize int,
	copyFn CopyFn,
) (total int64, batches int64, err error) {
	if batchSize <= 0 {
		return 0, 0, fmt.Errorf("batchSize must be > 0")
	}
	if copyFn == nil {
		return 0, 0, fmt.Errorf("copyFn must not be nil")
	}
	if log == nil {
		log = slog.Default()
	}

	var (
		start       = time.Now()
		lastFlushTS = start
		lastTotal   int64
	)

	for lo := 0; lo < len(rows); lo += batchSize {
		if err := ctx.Err(); err != nil {
			return total, batches, err
		}
		hi := min(lo+batchSize, len(rows))

		n, err := copyFn(ctx, rows[lo:hi])
		total += n
		if err != nil {
			log.Warn("loader: batch failed", "batch", batches+1, "inserted", n, "total_inserted", total, "err", err)
			return total, batches, err
		}

		batches++
		now := time.Now()
		sinceLast := now.Sub(lastFlushTS)
		rps := float64(0)
		if sinceLast > 0 {
			rps = float64(total-lastTotal) / sinceLast.Seconds()
		}
		log.Debug("loader: batch",
			"batch", batches,
			"rps", int64(rps),
			"inserted", n,
			"total_inserted", total,
			"elapsed", now.Sub(start).Truncate(time.Millisecond),
			"since_last", sinceLast.Truncate(time.Millisecond),
		)
		lastFlushTS = now
		lastTotal = total
	}
	return total, batches, nil
}
