// Package promise is a future value which is settled by a background goroutine.
package promise

import (
	"context"
	"fmt"
)

// Result is what a Promise settles with. Err is nil when the Promise is resolved.
type Result[T any] struct {
	Value T
	Err   error
}

// Promise is a value which will be available in future.
//
// A Promise delivers exactly one Result and then is closed.
// So, a Promise can be awaited only once; receive it once and pass the Result around.
type Promise[T any] <-chan Result[T]

// Failed returns a Promise already rejected with err.
func Failed[T any](err error) Promise[T] {
	ch := make(chan Result[T], 1)
	ch <- Result[T]{Err: err}
	close(ch)
	return ch
}

// Ok returns a Promise already resolved with value.
func Ok[T any](value T) Promise[T] {
	ch := make(chan Result[T], 1)
	ch <- Result[T]{Value: value}
	close(ch)
	return ch
}

// Go runs f in background goroutine, and returns a Promise of its result.
//
// When f returns error, the value is discarded.
// When f panics, the Promise is rejected with the recovered value.
func Go[T any](f func() (T, error)) Promise[T] {
	ch := make(chan Result[T], 1)

	go func() {
		defer close(ch)
		defer func() {
			r := recover()
			switch rr := r.(type) {
			case nil:
				return
			case error:
				ch <- Result[T]{Err: rr}
			default:
				ch <- Result[T]{Err: fmt.Errorf("%+v", rr)}
			}
		}()

		v, err := f()
		if err != nil {
			ch <- Result[T]{Err: err}
			return
		}
		ch <- Result[T]{Value: v}
	}()

	return ch
}

// Await blocks until the Promise settles or ctx is done.
//
// # Returns
//
// - T: resolved value. Zero value when rejected.
//
// - error: rejection reason, or ctx.Err() if ctx gets done first.
func (p Promise[T]) Await(ctx context.Context) (T, error) {
	select {
	case <-ctx.Done():
		return *new(T), ctx.Err()
	case r, ok := <-p:
		if !ok {
			return *new(T), ErrConsumed
		}
		return r.Value, r.Err
	}
}

// ErrConsumed is returned by Await when the Promise has been awaited already.
var ErrConsumed = fmt.Errorf("promise has been consumed")

// Then maps the resolved value of p with f.
//
// Rejection of p is passed through as is, and f is not called.
func Then[T, R any](p Promise[T], f func(T) (R, error)) Promise[R] {
	return Go(func() (R, error) {
		r, ok := <-p
		if !ok {
			return *new(R), ErrConsumed
		}
		if r.Err != nil {
			return *new(R), r.Err
		}
		return f(r.Value)
	})
}

// Catch recovers rejection of p with f.
//
// Resolved value of p is passed through as is, and f is not called.
func Catch[T any](p Promise[T], f func(error) (T, error)) Promise[T] {
	return Go(func() (T, error) {
		r, ok := <-p
		if !ok {
			return *new(T), ErrConsumed
		}
		if r.Err == nil {
			return r.Value, nil
		}
		return f(r.Err)
	})
}
