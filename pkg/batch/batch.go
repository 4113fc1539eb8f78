// Package batch partitions work items into bounded batches and runs them with
// bounded concurrency and settle-all semantics: every item's outcome is
// collected, and one failure never cancels its siblings.
package batch

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Partition splits items into ordered slices of at most size elements.
// A non-positive size yields a single batch.
func Partition[T any](items []T, size int) [][]T {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		return [][]T{items}
	}
	batches := make([][]T, 0, (len(items)+size-1)/size)
	for start := 0; start < len(items); start += size {
		end := start + size
		if end > len(items) {
			end = len(items)
		}
		batches = append(batches, items[start:end])
	}
	return batches
}

// Outcome is the settled result of one item's operation.
type Outcome[T any] struct {
	Item T
	Err  error
}

// Result aggregates settled outcomes.
type Result struct {
	Succeeded int
	Failed    int
}

// Options control partitioning and pacing for Run.
type Options struct {
	// BatchSize bounds each sequential batch. Non-positive means one batch.
	BatchSize int
	// Concurrency bounds simultaneous operations within a batch. Values
	// below 1 are treated as 1.
	Concurrency int
	// GroupDelay is the pause between concurrency groups inside a batch.
	GroupDelay time.Duration
	// BatchDelay is the pause between batches.
	BatchDelay time.Duration
	// AfterBatch, when set, observes the cumulative result after each batch
	// settles. Batch indices are 1-based.
	AfterBatch func(batch, totalBatches int, cumulative Result)
}

// Run applies op to every item. Items are partitioned into sequential batches
// of Options.BatchSize; within a batch, groups of Options.Concurrency items
// run concurrently and every group settles fully before the next starts.
// Per-item errors are captured in the returned outcomes, never propagated.
// The only error Run itself returns is context cancellation between groups.
func Run[T any](ctx context.Context, items []T, opts Options, op func(ctx context.Context, item T) error) (Result, []Outcome[T], error) {
	outcomes := make([]Outcome[T], len(items))
	for i, item := range items {
		outcomes[i] = Outcome[T]{Item: item}
	}

	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}

	var result Result
	batches := Partition(items, opts.BatchSize)
	offset := 0

	for bi, b := range batches {
		groups := Partition(b, concurrency)
		for gi, group := range groups {
			if err := ctx.Err(); err != nil {
				return result, outcomes, err
			}

			var g errgroup.Group
			for i := range group {
				idx := offset + i
				g.Go(func() error {
					outcomes[idx].Err = op(ctx, outcomes[idx].Item)
					return nil
				})
			}
			// Never returns an error: workers settle into outcomes.
			_ = g.Wait()

			for i := range group {
				if outcomes[offset+i].Err != nil {
					result.Failed++
				} else {
					result.Succeeded++
				}
			}
			offset += len(group)

			if gi < len(groups)-1 {
				if err := sleep(ctx, opts.GroupDelay); err != nil {
					return result, outcomes, err
				}
			}
		}

		if opts.AfterBatch != nil {
			opts.AfterBatch(bi+1, len(batches), result)
		}
		if bi < len(batches)-1 {
			if err := sleep(ctx, opts.BatchDelay); err != nil {
				return result, outcomes, err
			}
		}
	}

	return result, outcomes, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
