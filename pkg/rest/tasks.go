package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/opst/pipedeck/pkg/api/types/executions"
	"github.com/opst/pipedeck/pkg/api/types/tasks"
)

func (c *client) SubmitTask(ctx context.Context, treq tasks.TaskRequest) (tasks.TaskRef, error) {
	body, err := json.Marshal(treq)
	if err != nil {
		return tasks.TaskRef{}, err
	}

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost,
		c.apipath("applications", treq.Application, "tasks"),
		bytes.NewReader(body),
	)
	if err != nil {
		return tasks.TaskRef{}, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return tasks.TaskRef{}, err
	}
	defer resp.Body.Close()

	ref := tasks.TaskRef{}
	if err := unmarshalJsonResponse(
		resp, &ref,
		MessageFor{
			Status4xx: fmt.Sprintf("task is rejected: %s", treq.Description),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return tasks.TaskRef{}, err
	}
	if ref.Id() == "" || ref.Id() == "." {
		return tasks.TaskRef{}, fmt.Errorf("server responds no task reference: %+v", ref)
	}
	return ref, nil
}

func (c *client) GetTask(ctx context.Context, taskId string) (tasks.Task, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apipath("tasks", taskId), nil)
	if err != nil {
		return tasks.Task{}, err
	}

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return tasks.Task{}, err
	}
	defer resp.Body.Close()

	task := tasks.Task{}
	if err := unmarshalJsonResponse(
		resp, &task,
		MessageFor{
			Status4xx: fmt.Sprintf("task:%s is not found", taskId),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return tasks.Task{}, err
	}
	return task, nil
}

func (c *client) GetExecutions(ctx context.Context, application string) ([]executions.Execution, error) {
	req, err := http.NewRequestWithContext(
		ctx, http.MethodGet, c.apipath("applications", application, "pipelines"), nil,
	)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpclient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	execs := []executions.Execution{}
	if err := unmarshalJsonResponse(
		resp, &execs,
		MessageFor{
			Status4xx: fmt.Sprintf("application:%s is not found", application),
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return nil, err
	}
	return execs, nil
}
