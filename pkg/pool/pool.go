// Package pool runs an operation over a slice with a bounded number of
// in-flight workers while keeping results in input order.
package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
)

// ErrBadLimit is returned when the concurrency limit is not positive.
var ErrBadLimit = errors.New("concurrency limit must be at least 1")

type job[T any] struct {
	item  T
	index int
}

// Map applies fn to every item with at most limit operations in flight and
// returns the results in input order: out[i] is fn(items[i]).
//
// Failure is fail-fast without cancellation: the first error fn returns is
// propagated to the caller immediately, no further items are started, and
// operations already in flight run to completion in the background.
func Map[T, R any](ctx context.Context, items []T, limit int, fn func(context.Context, T) (R, error)) ([]R, error) {
	if limit < 1 {
		return nil, ErrBadLimit
	}
	out := make([]R, len(items))
	if len(items) == 0 {
		return out, nil
	}
	if limit > len(items) {
		limit = len(items)
	}

	jobs := make(chan job[T], len(items))
	for i, item := range items {
		jobs <- job[T]{index: i, item: item}
	}
	close(jobs)

	var failed atomic.Bool
	errc := make(chan error, 1)
	var wg sync.WaitGroup
	wg.Add(limit)
	for range limit {
		go func() {
			defer wg.Done()
			for j := range jobs {
				if failed.Load() {
					return
				}
				result, err := fn(ctx, j.item)
				if err != nil {
					if failed.CompareAndSwap(false, true) {
						errc <- err
					}
					return
				}
				out[j.index] = result
			}
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case err := <-errc:
		return nil, err
	case <-done:
		// All workers finished; an error may still be buffered if the
		// failing worker was the last one standing.
		select {
		case err := <-errc:
			return nil, err
		default:
			return out, nil
		}
	}
}
