package loop

import (
	"context"
	"fmt"
	"time"
)

// Next tells Start what to do after a task returns.
//
// The zero value means Continue(0).
type Next struct {
	stop     bool
	err      error
	interval time.Duration
}

func (n Next) String() string {
	switch {
	case n.err != nil:
		return fmt.Sprintf("break with error: %v", n.err)
	case n.stop:
		return "break"
	default:
		return fmt.Sprintf("continue after %s", n.interval)
	}
}

// Continue the loop after interval.
func Continue(interval time.Duration) Next {
	return Next{interval: interval}
}

// Break the loop. err is returned from Start as is, and can be nil.
func Break(err error) Next {
	return Next{stop: true, err: err}
}

// Task is called repeatedly by Start with the value it returned last time.
type Task[T any] func(context.Context, T) (T, Next)

// Option decorates each call of Task.
type Option func(call func(context.Context) Next) func(context.Context) Next

// WithTimeout limits each call of the task in d.
func WithTimeout(d time.Duration) Option {
	return func(call func(context.Context) Next) func(context.Context) Next {
		return func(ctx context.Context) Next {
			ctx, cancel := context.WithTimeout(ctx, d)
			defer cancel()
			return call(ctx)
		}
	}
}

// Start calls task as task(ctx, init), and then with the value it returned last,
// until the task Breaks or ctx is done.
//
// Example: refresh something every 10 seconds, until it gets ready.
//
//	Start(ctx, 0, func(ctx context.Context, attempt int) (int, Next) {
//		ready, err := refresh(ctx)
//		if err != nil {
//			return attempt, Break(err)
//		}
//		if ready {
//			return attempt, Break(nil)
//		}
//		return attempt + 1, Continue(10 * time.Second)
//	})
//
// # Returns
//
// - T: the value the task returned last. When ctx is done before the first call, init.
//
// - error: error passed to Break, or ctx.Err().
func Start[T any](ctx context.Context, init T, task Task[T], options ...Option) (T, error) {
	if err := ctx.Err(); err != nil {
		return init, err
	}

	value := init
	call := func(ctx context.Context) Next {
		v, next := task(ctx, value)
		value = v
		return next
	}
	for _, opt := range options {
		call = opt(call)
	}

	for {
		next := call(ctx)
		if next.err != nil {
			return value, next.err
		}
		if next.stop {
			return value, nil
		}

		timer := time.NewTimer(next.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return value, ctx.Err()
		case <-timer.C:
		}
	}
}
