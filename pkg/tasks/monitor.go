package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	apitasks "github.com/opst/pipedeck/pkg/api/types/tasks"
	"github.com/opst/pipedeck/pkg/utils/promise"
)

var (
	ErrAlreadySubmitted = errors.New("task has been submitted already")

	// ErrSubmissionBroken tells the submit function passed to Monitor.Submit has panicked
	// or has returned no promise.
	ErrSubmissionBroken = errors.New("task submission is broken")
)

type State int

const (
	Idle State = iota
	Pending
	Succeeded
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Pending:
		return "pending"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// IsTerminal reports s does not change anymore.
func (s State) IsTerminal() bool {
	return s == Succeeded || s == Failed
}

// Monitor observes a task submitted through it, for the presentation layer.
//
// A Monitor accepts only one submission. Its state goes Idle -> Pending -> Succeeded or Failed.
type Monitor struct {
	title       string
	application string
	onSuccess   []func(apitasks.Task)
	logger      *log.Logger

	mu    sync.Mutex
	state State
	task  *apitasks.Task
	err   error
	done  chan struct{}
}

type MonitorOption func(*Monitor)

// WithOnSuccess registers side effect to be done when the task succeeded.
//
// It is called exactly once, before Done() is closed.
func WithOnSuccess(f func(apitasks.Task)) MonitorOption {
	return func(m *Monitor) {
		m.onSuccess = append(m.onSuccess, f)
	}
}

func WithMonitorLogger(logger *log.Logger) MonitorOption {
	return func(m *Monitor) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func NewMonitor(title string, application string, options ...MonitorOption) *Monitor {
	m := &Monitor{
		title:       title,
		application: application,
		logger:      log.New(io.Discard, "", 0),
		done:        make(chan struct{}),
	}
	for _, opt := range options {
		opt(m)
	}
	return m
}

func (m *Monitor) Title() string {
	return m.title
}

func (m *Monitor) Application() string {
	return m.application
}

// Submit starts the task with submit, and watches the promise it returns.
//
// # Returns
//
// - error: ErrAlreadySubmitted if the Monitor has been submitted once.
// Result of the task is not returned here. Use Wait or Done.
func (m *Monitor) Submit(ctx context.Context, submit func(context.Context) promise.Promise[apitasks.Task]) error {
	m.mu.Lock()
	if m.state != Idle {
		m.mu.Unlock()
		return ErrAlreadySubmitted
	}
	m.state = Pending
	m.mu.Unlock()

	m.logger.Printf("%s: submitting (application: %s)", m.title, m.application)
	p, err := invoke(ctx, submit)
	if err != nil {
		m.settle(apitasks.Task{}, err)
		return nil
	}

	go func() {
		task, err := p.Await(ctx)
		m.settle(task, err)
	}()
	return nil
}

// invoke calls submit, turning its panic or missing promise into error.
func invoke(ctx context.Context, submit func(context.Context) promise.Promise[apitasks.Task]) (p promise.Promise[apitasks.Task], err error) {
	defer func() {
		switch r := recover().(type) {
		case nil:
		case error:
			err = fmt.Errorf("%w: %w", ErrSubmissionBroken, r)
		default:
			err = fmt.Errorf("%w: %v", ErrSubmissionBroken, r)
		}
	}()
	if p = submit(ctx); p == nil {
		return nil, fmt.Errorf("%w: no promise is returned", ErrSubmissionBroken)
	}
	return p, nil
}

// Watch is a SubmitOption to keep the latest snapshot of the task in the Monitor.
func (m *Monitor) Watch() SubmitOption {
	return WithProgress(func(t apitasks.Task) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if m.state != Pending {
			return
		}
		m.task = &t
	})
}

func (m *Monitor) settle(task apitasks.Task, err error) {
	defer close(m.done)

	m.mu.Lock()
	if err != nil {
		m.state = Failed
		m.err = err
		if failed := FailedTask(err); failed != nil {
			m.task = failed
		}
	} else {
		m.state = Succeeded
		m.task = &task
	}
	m.mu.Unlock()

	if err != nil {
		m.logger.Printf("%s: failed: %s", m.title, err)
		return
	}

	m.logger.Printf("%s: succeeded (task id: %s)", m.title, task.Id)
	for _, f := range m.onSuccess {
		f(task)
	}
}

func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Task returns the latest known snapshot of the task, or nil when it is not known yet.
func (m *Monitor) Task() *apitasks.Task {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.task == nil {
		return nil
	}
	t := *m.task
	return &t
}

// Err returns the reason of failure, or nil unless the state is Failed.
func (m *Monitor) Err() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}

// Done is closed when the Monitor gets terminal state.
func (m *Monitor) Done() <-chan struct{} {
	return m.done
}

// Wait blocks until the Monitor gets terminal state or ctx is done.
//
// # Returns
//
// - *Task: the latest snapshot of the task. It can be nil.
//
// - error: the reason of the failure, or ctx.Err().
func (m *Monitor) Wait(ctx context.Context) (*apitasks.Task, error) {
	select {
	case <-ctx.Done():
		return m.Task(), ctx.Err()
	case <-m.done:
		return m.Task(), m.Err()
	}
}
