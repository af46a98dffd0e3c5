// Package await bounds remote calls with a caller-side timeout and reports
// the result as a tagged outcome instead of an error the caller has to
// pattern-match. Every suspension point in the app (session bootstrap,
// profile fetch, invite claim) goes through the same wrapper so timeouts are
// classified uniformly.
package await

import (
	"context"
	"errors"
	"time"
)

type Outcome int

const (
	// OK means fn returned before the deadline without error.
	OK Outcome = iota
	// TimedOut means the deadline elapsed first. Callers treat this as a
	// terminal state for the operation, distinct from Failed.
	TimedOut
	// Failed means fn returned an error before the deadline.
	Failed
)

func (o Outcome) String() string {
	switch o {
	case OK:
		return "ok"
	case TimedOut:
		return "timed out"
	case Failed:
		return "failed"
	}
	return "unknown"
}

// WithTimeout runs fn under a deadline derived from ctx and returns as soon
// as the deadline elapses, whether or not fn has. The context passed to fn is
// cancelled at the deadline so well-behaved fns stop their underlying query;
// an fn that ignores cancellation keeps running in the background and its
// eventual result is discarded.
func WithTimeout[T any](ctx context.Context, d time.Duration, fn func(ctx context.Context) (T, error)) (T, Outcome, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		v   T
		err error
	}

	// Buffered so a straggler can deliver after we stop listening and exit.
	done := make(chan result, 1)
	go func() {
		v, err := fn(ctx)
		done <- result{v: v, err: err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			var zero T
			if errors.Is(r.err, context.DeadlineExceeded) || ctx.Err() == context.DeadlineExceeded {
				return zero, TimedOut, r.err
			}
			return zero, Failed, r.err
		}
		return r.v, OK, nil
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, TimedOut, ctx.Err()
		}
		return zero, Failed, ctx.Err()
	}
}
