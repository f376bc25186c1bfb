package manifest

import (
	"context"
	"fmt"

	apitasks "github.com/opst/pipedeck/pkg/api/types/tasks"
	"github.com/opst/pipedeck/pkg/tasks"
	"github.com/opst/pipedeck/pkg/utils/promise"
)

const JobDelete = "deleteManifest"

type Writer struct {
	executor tasks.Executor
}

func NewWriter(executor tasks.Executor) *Writer {
	return &Writer{executor: executor}
}

// DeleteManifest submits a job to delete the manifest, with the payload built by BuildDeletePayload.
//
// Rejections are propagated as they are.
func (w *Writer) DeleteManifest(ctx context.Context, payload map[string]any, application string, options ...tasks.SubmitOption) promise.Promise[apitasks.Task] {
	return w.executor.ExecuteTask(
		ctx,
		apitasks.TaskRequest{
			Job:         []apitasks.Job{apitasks.NewJob(JobDelete, payload)},
			Application: application,
			Description: fmt.Sprintf("Delete Manifest: %v", payload["manifestName"]),
		},
		options...,
	)
}
