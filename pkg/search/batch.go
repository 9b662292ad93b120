package search

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// defaultBatchSize is the fixed batch size an atomic cursor hands each
// worker (spec §5 "atomic-cursor batch distribution ~1024 items, no
// work-stealing"). A worker that finishes its batch claims the next
// contiguous range itself — nothing is ever handed back or stolen,
// unlike the teacher's task-channel WorkerPool
// (gitrdm-gokando/internal/parallel/pool.go), which this distributor
// replaces for exactly that reason.
const defaultBatchSize = 1024

// BatchDistributor hands out fixed-size, non-overlapping index ranges
// over [0,total) via a single atomic cursor. Workers never block on each
// other and never steal work from one another.
type BatchDistributor struct {
	cursor    int64
	total     int64
	batchSize int64
}

// NewBatchDistributor returns a distributor over [0,total) with the
// given batch size (0 selects defaultBatchSize).
func NewBatchDistributor(total, batchSize int) *BatchDistributor {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &BatchDistributor{total: int64(total), batchSize: int64(batchSize)}
}

// Next atomically claims and returns the next [start,end) range, or
// ok=false once the cursor has passed total.
func (d *BatchDistributor) Next() (start, end int, ok bool) {
	for {
		cur := atomic.LoadInt64(&d.cursor)
		if cur >= d.total {
			return 0, 0, false
		}
		next := cur + d.batchSize
		if next > d.total {
			next = d.total
		}
		if atomic.CompareAndSwapInt64(&d.cursor, cur, next) {
			return int(cur), int(next), true
		}
	}
}

// Run fans out workerCount goroutines, each repeatedly claiming batches
// from the distributor and invoking process(start,end) until the
// distributor is drained. Any worker error cancels the remaining work
// and is returned (golang.org/x/sync/errgroup, already a teacher
// indirect dependency and used directly by several pack repos).
func (d *BatchDistributor) Run(ctx context.Context, workerCount int, process func(ctx context.Context, start, end int) error) error {
	if workerCount <= 0 {
		workerCount = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workerCount; w++ {
		g.Go(func() error {
			for {
				start, end, ok := d.Next()
				if !ok {
					return nil
				}
				if err := process(ctx, start, end); err != nil {
					return err
				}
				if err := ctx.Err(); err != nil {
					return err
				}
			}
		})
	}
	return g.Wait()
}
