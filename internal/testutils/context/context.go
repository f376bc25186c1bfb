package context

import (
	"context"
	"testing"
	"time"
)

// WithTest wraps ctx with the deadline of the test.
//
// The deadline is 1 second before test's deadline, to leave time for clean-up.
// When the test has no deadline, it returns ctx with 30 seconds timeout.
func WithTest(ctx context.Context, t *testing.T) (context.Context, func()) {
	if deadline, ok := t.Deadline(); ok {
		return context.WithDeadline(ctx, deadline.Add(-time.Second))
	}
	return context.WithTimeout(ctx, 30*time.Second)
}
