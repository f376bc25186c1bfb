package retry

import (
	"context"
	"errors"
	"time"
)

// ErrRetry tells Blocking to call the function again after backoff.
var ErrRetry = errors.New("retry")

// Backoff is a (blocking) function returns when to retry.
//
// # Args
//
// - context: context. If context is canceled, Backoff should return ctx.Err().
//
// # Returns
//
// - error: nil if retry, non-nil if not.
type Backoff func(context.Context) error

// StaticBackoff returns a Backoff function that waits for a fixed interval.
func StaticBackoff(interval time.Duration) Backoff {
	return ExponentialBackoff(interval, 1)
}

// ExponentialBackoff returns a Backoff function that waits with exponential backoff.
//
// For N-th call, it waits for `initialInterval * r^N` or context to be done.
func ExponentialBackoff(initialInterval time.Duration, r float64) Backoff {
	interval := initialInterval
	return func(ctx context.Context) error {
		timer := time.NewTimer(interval)
		defer timer.Stop()

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			interval = time.Duration(float64(interval) * r)
			return nil
		}
	}
}

// Blocking calls f until it returns nil or non-retry error.
//
// Each call of f is preceded by b.
//
// # Returns
//
// - T: last return value of f
//
// - error: error returned by f, or by b (e.g. ctx.Err()).
func Blocking[T any](ctx context.Context, b Backoff, f func(context.Context) (T, error)) (T, error) {
	last := *new(T)
	for {
		if err := b(ctx); err != nil {
			return last, err
		}

		var err error
		last, err = f(ctx)
		if err == nil {
			return last, nil
		}
		if errors.Is(err, ErrRetry) {
			continue
		}
		return last, err
	}
}

// Tolerate wraps f to turn up to n consecutive errors into ErrRetry.
//
// The counter is reset when f succeeds or asks retry by itself.
// Once f fails n+1 times in a row, the error is returned as is.
func Tolerate[T any](n int, f func(context.Context) (T, error)) func(context.Context) (T, error) {
	failures := 0
	return func(ctx context.Context) (T, error) {
		v, err := f(ctx)
		if err == nil || errors.Is(err, ErrRetry) {
			failures = 0
			return v, err
		}
		if ctx.Err() != nil {
			return v, err
		}
		failures += 1
		if failures <= n {
			return v, errors.Join(ErrRetry, err)
		}
		return v, err
	}
}
