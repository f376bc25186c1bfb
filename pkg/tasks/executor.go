// Package tasks submits jobs to the orchestration API as tracked tasks,
// and watches them until they complete.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"time"

	apitasks "github.com/opst/pipedeck/pkg/api/types/tasks"
	"github.com/opst/pipedeck/pkg/rest"
	"github.com/opst/pipedeck/pkg/utils/promise"
	"github.com/opst/pipedeck/pkg/utils/retry"
)

var (
	// ErrInvalidRequest is returned when a task request can not be submitted.
	ErrInvalidRequest = errors.New("invalid task request")

	// ErrTaskFailed is the root of errors of tasks which completed but not succeeded.
	ErrTaskFailed = errors.New("task failed")
)

// TaskFailure is the rejection reason of a task which has been completed with failure.
type TaskFailure struct {
	Task apitasks.Task
}

func (tf *TaskFailure) Error() string {
	return fmt.Sprintf("%s: %s (id = %s, status = %s)", ErrTaskFailed, tf.Task.Name, tf.Task.Id, tf.Task.Status)
}

func (tf *TaskFailure) Is(err error) bool {
	return err == ErrTaskFailed
}

// FailedTask returns the task which err tells. When err is not a TaskFailure, it returns nil.
func FailedTask(err error) *apitasks.Task {
	tf := new(TaskFailure)
	if !errors.As(err, &tf) {
		return nil
	}
	t := tf.Task
	return &t
}

// Executor submits tasks.
type Executor interface {
	// ExecuteTask submits the task request once, and watches it until completion.
	//
	// # Returns
	//
	// - promise.Promise[Task]: resolved with the task succeeded,
	// or rejected with *TaskFailure for the task failed,
	// or rejected with error on submission or polling.
	ExecuteTask(ctx context.Context, req apitasks.TaskRequest, options ...SubmitOption) promise.Promise[apitasks.Task]
}

type ExecutorOption func(*executor)

// WithPollInterval sets the interval of polling task status. Default is 2 seconds.
func WithPollInterval(d time.Duration) ExecutorOption {
	return func(e *executor) {
		if 0 < d {
			e.interval = d
		}
	}
}

// WithPollTolerance sets how many consecutive polling errors are tolerated. Default is 3.
func WithPollTolerance(n int) ExecutorOption {
	return func(e *executor) {
		if 0 <= n {
			e.tolerance = n
		}
	}
}

type SubmitOption func(*submitConfig)

type submitConfig struct {
	progress []func(apitasks.Task)
}

// WithProgress registers a observer of task snapshots.
//
// f is called for each snapshot of the task polled, in the polling goroutine.
func WithProgress(f func(apitasks.Task)) SubmitOption {
	return func(sc *submitConfig) {
		sc.progress = append(sc.progress, f)
	}
}

type executor struct {
	client    rest.Client
	interval  time.Duration
	tolerance int
}

func NewExecutor(client rest.Client, options ...ExecutorOption) Executor {
	e := &executor{client: client, interval: 2 * time.Second, tolerance: 3}
	for _, opt := range options {
		opt(e)
	}
	return e
}

func (e *executor) ExecuteTask(ctx context.Context, req apitasks.TaskRequest, options ...SubmitOption) promise.Promise[apitasks.Task] {
	if req.Application == "" {
		return promise.Failed[apitasks.Task](fmt.Errorf("%w: application is empty", ErrInvalidRequest))
	}

	sc := &submitConfig{}
	for _, opt := range options {
		opt(sc)
	}

	return promise.Go(func() (apitasks.Task, error) {
		ref, err := e.client.SubmitTask(ctx, req)
		if err != nil {
			return apitasks.Task{}, err
		}

		task, err := retry.Blocking(
			ctx, retry.StaticBackoff(e.interval),
			retry.Tolerate(e.tolerance, func(ctx context.Context) (apitasks.Task, error) {
				task, err := e.client.GetTask(ctx, ref.Id())
				if err != nil {
					return task, err
				}
				for _, p := range sc.progress {
					p(task)
				}
				if !task.Status.IsCompleted() {
					return task, retry.ErrRetry
				}
				return task, nil
			}),
		)
		if err != nil {
			return apitasks.Task{}, err
		}
		if task.Status.IsFailed() {
			return task, &TaskFailure{Task: task}
		}
		return task, nil
	})
}
