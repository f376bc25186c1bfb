package application

import (
	"context"
	"io"
	"log"

	apitasks "github.com/opst/pipedeck/pkg/api/types/tasks"
	"github.com/opst/pipedeck/pkg/history"
	"github.com/opst/pipedeck/pkg/tasks"
	"github.com/opst/pipedeck/pkg/utils/promise"
)

const (
	JobCreate = "createApplication"
	JobUpdate = "updateApplication"
	JobDelete = "deleteApplication"
)

// DeleteOutcome is the result of DeleteApplication.
//
// When the deletion has failed, Err is not nil and Task is the failed task, if the task is known.
type DeleteOutcome struct {
	Task *apitasks.Task
	Err  error
}

func (o DeleteOutcome) Succeeded() bool {
	return o.Err == nil
}

type Writer struct {
	executor tasks.Executor
	history  history.Store
	logger   *log.Logger
}

type WriterOption func(*Writer)

func WithLogger(logger *log.Logger) WriterOption {
	return func(w *Writer) {
		if logger != nil {
			w.logger = logger
		}
	}
}

func NewWriter(executor tasks.Executor, store history.Store, options ...WriterOption) *Writer {
	w := &Writer{
		executor: executor,
		history:  store,
		logger:   log.New(io.Discard, "", 0),
	}
	for _, opt := range options {
		opt(w)
	}
	return w
}

func (w *Writer) CreateApplication(ctx context.Context, attrs Attributes, options ...tasks.SubmitOption) promise.Promise[apitasks.Task] {
	return w.executor.ExecuteTask(
		ctx,
		apitasks.TaskRequest{
			Job:         BuildJobs(attrs, JobCreate, CloneDeep),
			Application: attrs.Name(),
			Description: "Create Application: " + attrs.Name(),
		},
		options...,
	)
}

func (w *Writer) UpdateApplication(ctx context.Context, attrs Attributes, options ...tasks.SubmitOption) promise.Promise[apitasks.Task] {
	return w.executor.ExecuteTask(
		ctx,
		apitasks.TaskRequest{
			Job:         BuildJobs(attrs, JobUpdate, CloneDeep),
			Application: attrs.Name(),
			Description: "Update Application: " + attrs.Name(),
		},
		options...,
	)
}

// DeleteApplication deletes the application.
//
// The returned promise is never rejected. Failures are told with DeleteOutcome.Err.
//
// When the deletion succeeded, entries of the application are removed from the history store.
// Failure of that is logged, and not told as a failure of the deletion.
func (w *Writer) DeleteApplication(ctx context.Context, attrs Attributes, options ...tasks.SubmitOption) promise.Promise[DeleteOutcome] {
	name := attrs.Name()
	p := w.executor.ExecuteTask(
		ctx,
		apitasks.TaskRequest{
			Job:         BuildJobs(attrs, JobDelete, NameOnly),
			Application: name,
			Description: "Deleting Application: " + name,
		},
		options...,
	)

	return promise.Go(func() (DeleteOutcome, error) {
		task, err := p.Await(ctx)
		if err != nil {
			w.logger.Printf("deleting application %s failed: %s", name, err)
			return DeleteOutcome{Task: tasks.FailedTask(err), Err: err}, nil
		}

		if err := w.history.RemoveByAppName(context.WithoutCancel(ctx), name); err != nil {
			w.logger.Printf("application %s is deleted, but cannot be removed from history: %s", name, err)
		}
		return DeleteOutcome{Task: &task}, nil
	})
}
