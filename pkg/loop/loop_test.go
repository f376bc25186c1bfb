package loop_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/opst/pipedeck/pkg/loop"
	"github.com/opst/pipedeck/pkg/utils/try"
)

func TestStart(t *testing.T) {
	t.Run("it repeats tasks with interval until context get be done", func(t *testing.T) {
		ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
		defer cancel()

		actual, err := loop.Start(
			ctx, 0, func(_ context.Context, v int64) (int64, loop.Next) {
				return v + 1, loop.Continue(10 * time.Millisecond)
			},
		)

		if !errors.Is(err, context.DeadlineExceeded) {
			t.Error("expected error (DeadlineExceeded) is not returned: ", err)
		}
		if actual < 2 || 11 < actual {
			t.Errorf("task run too much/less: %d", actual)
		}
	})

	t.Run("it pass deadlined context when WithTimout is passed", func(t *testing.T) {
		timeout := 100 * time.Millisecond

		try.To(loop.Start(
			context.Background(), 1, func(ctx context.Context, v int64) (int64, loop.Next) {
				if _, ok := ctx.Deadline(); !ok {
					t.Errorf("deadline is not set")
				}
				if 3 <= v {
					return v + 1, loop.Break(nil)
				}
				return v + 1, loop.Continue(time.Millisecond)
			},
			loop.WithTimeout(timeout),
		)).OrFatal(t)
	})

	t.Run("when context has been done before starting, it does nothing", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		actual, err := loop.Start(
			ctx, 1, func(ctx context.Context, v int) (int, loop.Next) {
				t.Error("task is called")
				return v + 1, loop.Continue(0)
			},
		)

		if !errors.Is(err, context.Canceled) {
			t.Fatal(err)
		}
		if actual != 1 {
			t.Errorf("loop does not honour context")
		}
	})

	t.Run("it repeats task until it Breaks", func(t *testing.T) {
		expected := 10
		actual, err := loop.Start(context.Background(), 1, func(ctx context.Context, v int) (int, loop.Next) {
			if expected <= v+1 {
				return v + 1, loop.Break(nil)
			}
			return v + 1, loop.Continue(0)
		})

		if err != nil {
			t.Fatal(err)
		}
		if actual != expected {
			t.Errorf("repeats too much/less. (actual, expected) = (%d, %d)", actual, expected)
		}
	})

	t.Run("it returns the error passed to Break", func(t *testing.T) {
		expectedErr := errors.New("break!")

		actual, err := loop.Start(context.Background(), 1, func(ctx context.Context, v int) (int, loop.Next) {
			if 5 <= v+1 {
				return v + 1, loop.Break(expectedErr)
			}
			return v + 1, loop.Continue(0)
		})

		if !errors.Is(err, expectedErr) {
			t.Errorf("error is unexpected one. (actual, expected) = (%v, %v) ", err, expectedErr)
		}
		if actual != 5 {
			t.Errorf("repeats too much/less: %d", actual)
		}
	})
}
