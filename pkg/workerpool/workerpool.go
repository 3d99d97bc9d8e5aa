// Package workerpool maps a function over a slice with bounded concurrency
// and an optional rate limit.
package workerpool

import (
	"context"
	"sync"

	"go.uber.org/ratelimit"
)

// Pool bounds how many calls run at once and how many start per second.
type Pool struct {
	workers int
	limiter ratelimit.Limiter
}

// New returns a pool of workers goroutines. A nil limiter means unlimited.
func New(workers int, limiter ratelimit.Limiter) *Pool {
	if workers < 1 {
		workers = 1
	}
	if limiter == nil {
		limiter = ratelimit.NewUnlimited()
	}
	return &Pool{workers: workers, limiter: limiter}
}

// Workers returns the concurrency bound.
func (p *Pool) Workers() int {
	return p.workers
}

// Map calls fn for every item and returns the results in input order. The
// first error cancels the context passed to the remaining calls, no new
// calls are started, and that error is returned.
func Map[T, R any](ctx context.Context, p *Pool, items []T, fn func(context.Context, T) (R, error)) ([]R, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	results := make([]R, len(items))
	if len(items) == 0 {
		return results, nil
	}

	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)

	next := make(chan int)
	var wg sync.WaitGroup
	for range min(p.workers, len(items)) {
		wg.Go(func() {
			for i := range next {
				if ctx.Err() != nil {
					continue
				}
				p.limiter.Take()
				result, err := fn(ctx, items[i])
				if err != nil {
					cancel(err)
					continue
				}
				results[i] = result
			}
		})
	}

feed:
	for i := range items {
		select {
		case <-ctx.Done():
			break feed
		case next <- i:
		}
	}
	close(next)
	wg.Wait()

	if err := context.Cause(ctx); err != nil {
		return nil, err
	}
	return results, nil
}
