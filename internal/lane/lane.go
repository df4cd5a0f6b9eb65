// Package lane runs one serialized job lane per conversation. Jobs on the
// same lane execute in enqueue order; lanes share a semaphore that bounds
// process-wide concurrency.
package lane

import "context"

type Options[J any] struct {
	Ctx    context.Context
	Sem    chan struct{}
	Jobs   <-chan J
	Handle func(context.Context, J)
}

// Start launches the lane goroutine. It drains Jobs one at a time, acquiring
// a semaphore slot per job, and stops when Ctx is done or Jobs is closed.
func Start[J any](opts Options[J]) {
	go func() {
		for {
			select {
			case <-opts.Ctx.Done():
				return
			case job, ok := <-opts.Jobs:
				if !ok {
					return
				}
				select {
				case opts.Sem <- struct{}{}:
				case <-opts.Ctx.Done():
					return
				}
				func() {
					defer func() { <-opts.Sem }()
					opts.Handle(opts.Ctx, job)
				}()
			}
		}
	}()
}

// Enqueue submits a job to a lane, giving up when either context ends.
func Enqueue[J any](ctx, lanesCtx context.Context, jobs chan<- J, job J) error {
	if ctx == nil {
		ctx = lanesCtx
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-lanesCtx.Done():
		return lanesCtx.Err()
	case jobs <- job:
		return nil
	}
}
