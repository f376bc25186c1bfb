// Package testorch sets up a fake orchestrator for tests of subcommands.
package testorch

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/opst/pipedeck/cmd/deck/subcommands/common"
	apitasks "github.com/opst/pipedeck/pkg/api/types/tasks"
	"github.com/opst/pipedeck/pkg/history"
	"github.com/opst/pipedeck/pkg/rest/mock"
	"github.com/opst/pipedeck/pkg/tasks"
)

// Deps returns Deps with a mock client, which accepts tasks and completes them with final status.
//
// The task has 2 steps, and it completes at the second poll.
func Deps(t *testing.T, final apitasks.Status) (common.Deps, *mock.MockClient, *history.Memory) {
	client := mock.New(t)
	client.Impl.SubmitTask = func(context.Context, apitasks.TaskRequest) (apitasks.TaskRef, error) {
		return apitasks.TaskRef{Ref: "/tasks/task-1"}, nil
	}
	polled := atomic.Int32{}
	client.Impl.GetTask = func(_ context.Context, taskId string) (apitasks.Task, error) {
		task := apitasks.Task{
			Id: taskId, Name: "task", Status: apitasks.Running,
			Steps: []apitasks.Step{
				{Name: "first", Status: apitasks.Succeeded},
				{Name: "second", Status: apitasks.Running},
			},
		}
		if 2 <= polled.Add(1) {
			task.Status = final
			task.Steps[1].Status = final
		}
		return task, nil
	}

	store := history.NewMemory()
	return common.Deps{
		Client:   client,
		Executor: tasks.NewExecutor(client, tasks.WithPollInterval(time.Millisecond)),
		History:  store,
	}, client, store
}
