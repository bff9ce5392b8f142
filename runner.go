package docstract

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// loadRunner bounds how many sources are read or uploaded at once.
type loadRunner struct {
	ctx context.Context // derived ctx shared by all tasks
	eg  *errgroup.Group
	sem chan struct{} // concurrency gate
}

func newLoadRunner(parent context.Context, concurrency int) *loadRunner {
	if concurrency <= 0 {
		concurrency = runtime.NumCPU()
	}
	eg, ctx := errgroup.WithContext(parent)
	return &loadRunner{
		ctx: ctx,
		eg:  eg,
		sem: make(chan struct{}, concurrency),
	}
}

func (r *loadRunner) Go(fn func() error) {
	r.eg.Go(func() error {
		r.sem <- struct{}{}        // acquire
		defer func() { <-r.sem }() // release
		return fn()
	})
}

func (r *loadRunner) Wait() error { return r.eg.Wait() }
