package mock

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/opst/pipedeck/pkg/api/types/executions"
	"github.com/opst/pipedeck/pkg/api/types/tasks"
	"github.com/opst/pipedeck/pkg/rest"
)

// ErrNotImplemented is returned when a method without Impl is called.
//
// The test is also marked as failed.
var ErrNotImplemented = errors.New("mock: not implemented")

func New(t *testing.T) *MockClient {
	return &MockClient{t: t}
}

// MockClient is rest.Client for tests.
//
// It is safe to be called from goroutines other than the test's one.
type MockClient struct {
	t    *testing.T
	mu   sync.Mutex
	Impl struct {
		SubmitTask    func(ctx context.Context, req tasks.TaskRequest) (tasks.TaskRef, error)
		GetTask       func(ctx context.Context, taskId string) (tasks.Task, error)
		GetExecutions func(ctx context.Context, application string) ([]executions.Execution, error)
	}
	Calls struct {
		SubmitTask    []tasks.TaskRequest
		GetTask       []string
		GetExecutions []string
	}
}

var _ rest.Client = &MockClient{}

func (m *MockClient) SubmitTask(ctx context.Context, req tasks.TaskRequest) (tasks.TaskRef, error) {
	m.t.Helper()

	m.mu.Lock()
	m.Calls.SubmitTask = append(m.Calls.SubmitTask, req)
	impl := m.Impl.SubmitTask
	m.mu.Unlock()

	if impl == nil {
		m.t.Error("SubmitTask is not ready to be called")
		return tasks.TaskRef{}, ErrNotImplemented
	}
	return impl(ctx, req)
}

func (m *MockClient) GetTask(ctx context.Context, taskId string) (tasks.Task, error) {
	m.t.Helper()

	m.mu.Lock()
	m.Calls.GetTask = append(m.Calls.GetTask, taskId)
	impl := m.Impl.GetTask
	m.mu.Unlock()

	if impl == nil {
		m.t.Error("GetTask is not ready to be called")
		return tasks.Task{}, ErrNotImplemented
	}
	return impl(ctx, taskId)
}

func (m *MockClient) GetExecutions(ctx context.Context, application string) ([]executions.Execution, error) {
	m.t.Helper()

	m.mu.Lock()
	m.Calls.GetExecutions = append(m.Calls.GetExecutions, application)
	impl := m.Impl.GetExecutions
	m.mu.Unlock()

	if impl == nil {
		m.t.Error("GetExecutions is not ready to be called")
		return nil, ErrNotImplemented
	}
	return impl(ctx, application)
}

// SubmitTaskCalls returns a copy of recorded SubmitTask calls.
func (m *MockClient) SubmitTaskCalls() []tasks.TaskRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]tasks.TaskRequest{}, m.Calls.SubmitTask...)
}

// GetTaskCalls returns a copy of recorded GetTask calls.
func (m *MockClient) GetTaskCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string{}, m.Calls.GetTask...)
}
