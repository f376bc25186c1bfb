package handlers_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/opst/pipedeck/cmd/deckd/handlers"
	httptestutil "github.com/opst/pipedeck/internal/testutils/http"
	apitasks "github.com/opst/pipedeck/pkg/api/types/tasks"
	"github.com/opst/pipedeck/pkg/application"
	"github.com/opst/pipedeck/pkg/history"
	"github.com/opst/pipedeck/pkg/rest/mock"
	"github.com/opst/pipedeck/pkg/tasks"
	"github.com/opst/pipedeck/pkg/utils/try"
)

// orchestrator sets up client to accept a task and report it with the final status.
func orchestrator(client *mock.MockClient, final apitasks.Status) {
	client.Impl.SubmitTask = func(_ context.Context, req apitasks.TaskRequest) (apitasks.TaskRef, error) {
		return apitasks.TaskRef{Ref: "/tasks/task-1"}, nil
	}
	polled := atomic.Int32{}
	client.Impl.GetTask = func(_ context.Context, taskId string) (apitasks.Task, error) {
		status := apitasks.Running
		if 2 <= polled.Add(1) {
			status = final
		}
		return apitasks.Task{Id: taskId, Name: "task", Status: status}, nil
	}
}

func newExecutor(client *mock.MockClient) tasks.Executor {
	return tasks.NewExecutor(client, tasks.WithPollInterval(time.Millisecond))
}

func TestCreateApplicationHandler(t *testing.T) {
	t.Run("it submits a createApplication task and responds the completed task", func(t *testing.T) {
		client := mock.New(t)
		orchestrator(client, apitasks.Succeeded)

		testee := handlers.CreateApplicationHandler(
			application.NewWriter(newExecutor(client), history.NewMemory()), time.Minute,
		)

		e := echo.New()
		c, resp := httptestutil.Post(
			e, "/api/applications",
			strings.NewReader(`{"name": "app-1", "email": "someone@example.com", "cloudProviders": ["kubernetes", "aws"]}`),
			httptestutil.ContentType(echo.MIMEApplicationJSON),
		)
		if err := testee(c); err != nil {
			t.Fatal(err)
		}
		if resp.Code != http.StatusOK {
			t.Errorf("status code: %d", resp.Code)
		}

		actual := apitasks.Task{}
		if err := json.Unmarshal(resp.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}
		if actual.Id != "task-1" || actual.Status != apitasks.Succeeded {
			t.Errorf("unexpected task: %+v", actual)
		}

		calls := client.SubmitTaskCalls()
		if len(calls) != 1 {
			t.Fatalf("SubmitTask is called %d times", len(calls))
		}
		req := calls[0]
		if req.Application != "app-1" {
			t.Errorf("application: %s", req.Application)
		}
		if len(req.Job) != 1 || req.Job[0].Type() != application.JobCreate {
			t.Fatalf("unexpected jobs: %+v", req.Job)
		}
		app, _ := req.Job[0]["application"].(map[string]any)
		if app["cloudProviders"] != "kubernetes,aws" {
			t.Errorf("cloudProviders: %v", app["cloudProviders"])
		}
	})

	t.Run("it responds BadRequest when the name is missing", func(t *testing.T) {
		client := mock.New(t)
		testee := handlers.CreateApplicationHandler(
			application.NewWriter(newExecutor(client), history.NewMemory()), time.Minute,
		)

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/applications", strings.NewReader(`{"email": "someone@example.com"}`),
			httptestutil.ContentType(echo.MIMEApplicationJSON),
		)
		err := testee(c)
		if herr := new(echo.HTTPError); !errors.As(err, &herr) {
			t.Fatalf("error is not echo.HTTPError: %+v", err)
		} else if herr.Code != http.StatusBadRequest {
			t.Errorf("status code: %d", herr.Code)
		}
		if n := len(client.SubmitTaskCalls()); n != 0 {
			t.Errorf("SubmitTask is called %d times", n)
		}
	})

	t.Run("it responds BadGateway when the task failed", func(t *testing.T) {
		client := mock.New(t)
		orchestrator(client, apitasks.Terminal)

		testee := handlers.CreateApplicationHandler(
			application.NewWriter(newExecutor(client), history.NewMemory()), time.Minute,
		)

		e := echo.New()
		c, _ := httptestutil.Post(
			e, "/api/applications", strings.NewReader(`{"name": "app-1"}`),
			httptestutil.ContentType(echo.MIMEApplicationJSON),
		)
		err := testee(c)
		if herr := new(echo.HTTPError); !errors.As(err, &herr) {
			t.Fatalf("error is not echo.HTTPError: %+v", err)
		} else if herr.Code != http.StatusBadGateway {
			t.Errorf("status code: %d", herr.Code)
		}
	})
}

func TestUpdateApplicationHandler(t *testing.T) {
	t.Run("it takes the name from the path", func(t *testing.T) {
		client := mock.New(t)
		orchestrator(client, apitasks.Succeeded)

		testee := handlers.UpdateApplicationHandler(
			application.NewWriter(newExecutor(client), history.NewMemory()), "name", time.Minute,
		)

		e := echo.New()
		c, resp := httptestutil.Put(
			e, "/api/applications/app-1", strings.NewReader(`{"name": "other", "description": "updated"}`),
			httptestutil.ContentType(echo.MIMEApplicationJSON),
		)
		httptestutil.Params(c, "name", "app-1")

		if err := testee(c); err != nil {
			t.Fatal(err)
		}
		if resp.Code != http.StatusOK {
			t.Errorf("status code: %d", resp.Code)
		}

		calls := client.SubmitTaskCalls()
		if len(calls) != 1 {
			t.Fatalf("SubmitTask is called %d times", len(calls))
		}
		if calls[0].Application != "app-1" || calls[0].Job[0].Type() != application.JobUpdate {
			t.Errorf("unexpected request: %+v", calls[0])
		}
	})
}

func TestDeleteApplicationHandler(t *testing.T) {
	seed := func(t *testing.T, store history.Store) {
		t.Helper()
		for _, e := range []history.Entry{
			{Type: "applications", Application: "app-1", Params: map[string]string{"application": "app-1"}},
			{Type: "applications", Application: "app-2", Params: map[string]string{"application": "app-2"}},
		} {
			if _, err := store.AddEntry(context.Background(), e); err != nil {
				t.Fatal(err)
			}
		}
	}

	type when struct {
		final apitasks.Status
	}
	type then struct {
		succeeded bool
		remaining []string
	}

	theory := func(when when, then then) func(*testing.T) {
		return func(t *testing.T) {
			client := mock.New(t)
			orchestrator(client, when.final)
			store := history.NewMemory()
			seed(t, store)

			testee := handlers.DeleteApplicationHandler(
				application.NewWriter(newExecutor(client), store), "name", time.Minute,
			)

			e := echo.New()
			c, resp := httptestutil.Delete(e, "/api/applications/app-1", nil)
			httptestutil.Params(c, "name", "app-1")

			if err := testee(c); err != nil {
				t.Fatal(err)
			}
			if resp.Code != http.StatusOK {
				t.Errorf("status code: %d", resp.Code)
			}

			actual := handlers.DeleteApplicationResponse{}
			if err := json.Unmarshal(resp.Body.Bytes(), &actual); err != nil {
				t.Fatal(err)
			}
			if actual.Succeeded != then.succeeded {
				t.Errorf("succeeded: %v", actual.Succeeded)
			}
			if then.succeeded != (actual.Error == "") {
				t.Errorf("error: %q", actual.Error)
			}
			if actual.Task == nil || actual.Task.Status != when.final {
				t.Errorf("task: %+v", actual.Task)
			}

			entries, err := store.Entries(context.Background(), "applications")
			if err != nil {
				t.Fatal(err)
			}
			remaining := []string{}
			for _, e := range entries {
				remaining = append(remaining, e.Application)
			}
			if strings.Join(remaining, ",") != strings.Join(then.remaining, ",") {
				t.Errorf("remaining history: %v", remaining)
			}
		}
	}

	t.Run("when the task succeeded, history of the application is removed", theory(
		when{final: apitasks.Succeeded},
		then{succeeded: true, remaining: []string{"app-2"}},
	))
	t.Run("when the task failed, it responds OK with the failure and history is kept", theory(
		when{final: apitasks.Terminal},
		then{succeeded: false, remaining: []string{"app-2", "app-1"}},
	))

	t.Run("when the task does not complete in time, it responds OK with the failure", func(t *testing.T) {
		client := mock.New(t)
		client.Impl.SubmitTask = func(context.Context, apitasks.TaskRequest) (apitasks.TaskRef, error) {
			return apitasks.TaskRef{Ref: "/tasks/task-1"}, nil
		}
		client.Impl.GetTask = func(_ context.Context, taskId string) (apitasks.Task, error) {
			return apitasks.Task{Id: taskId, Name: "task", Status: apitasks.Running}, nil
		}
		store := history.NewMemory()
		seed(t, store)

		testee := handlers.DeleteApplicationHandler(
			application.NewWriter(newExecutor(client), store), "name", 20*time.Millisecond,
		)

		e := echo.New()
		c, resp := httptestutil.Delete(e, "/api/applications/app-1", nil)
		httptestutil.Params(c, "name", "app-1")

		if err := testee(c); err != nil {
			t.Fatal(err)
		}
		if resp.Code != http.StatusOK {
			t.Fatalf("status code: %d", resp.Code)
		}

		actual := handlers.DeleteApplicationResponse{}
		if err := json.Unmarshal(resp.Body.Bytes(), &actual); err != nil {
			t.Fatal(err)
		}
		if actual.Succeeded {
			t.Errorf("succeeded: %+v", actual)
		}
		if !strings.Contains(actual.Error, context.DeadlineExceeded.Error()) {
			t.Errorf("error: %q", actual.Error)
		}
		if entries := try.To(store.Entries(context.Background(), "applications")).OrFatal(t); len(entries) != 2 {
			t.Errorf("history is changed: %+v", entries)
		}
	})
}
