package handlers_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/opst/pipedeck/cmd/deckd/handlers"
	httptestutil "github.com/opst/pipedeck/internal/testutils/http"
	apitasks "github.com/opst/pipedeck/pkg/api/types/tasks"
	"github.com/opst/pipedeck/pkg/manifest"
	"github.com/opst/pipedeck/pkg/rest/mock"
)

var manifestParams = handlers.ManifestParams{
	Account: "account", Namespace: "namespace", Kind: "kind", Name: "name",
}

func deleteManifest(e *echo.Echo, coords [4]string, body string) (echo.Context, *httptest.ResponseRecorder) {
	c, resp := httptestutil.Delete(
		e, "/api/manifests/"+strings.Join(coords[:], "/"), strings.NewReader(body),
		httptestutil.ContentType(echo.MIMEApplicationJSON),
	)
	httptestutil.Params(
		c,
		"account", coords[0], "namespace", coords[1],
		"kind", coords[2], "name", coords[3],
	)
	return c, resp
}

func TestDeleteManifestHandler(t *testing.T) {
	t.Run("it submits a deleteManifest task", func(t *testing.T) {
		type when struct {
			body string
		}
		type then struct {
			reason  any
			options map[string]any
		}

		theory := func(when when, then then) func(*testing.T) {
			return func(t *testing.T) {
				client := mock.New(t)
				orchestrator(client, apitasks.Succeeded)
				testee := handlers.DeleteManifestHandler(
					manifest.NewWriter(newExecutor(client)), manifestParams, time.Minute,
				)

				e := echo.New()
				c, resp := deleteManifest(
					e, [4]string{"my-k8s", "default", "Deployment", "web"}, when.body,
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
				if actual.Status != apitasks.Succeeded {
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
				if req.Description != "Delete Manifest: deployment web" {
					t.Errorf("description: %s", req.Description)
				}
				job := req.Job[0]
				if job.Type() != manifest.JobDelete {
					t.Errorf("job type: %s", job.Type())
				}
				if job["manifestName"] != "deployment web" || job["location"] != "default" || job["account"] != "my-k8s" {
					t.Errorf("unexpected job: %+v", job)
				}
				if job["reason"] != then.reason {
					t.Errorf("reason: %v", job["reason"])
				}
				options, _ := job["options"].(map[string]any)
				if len(options) != len(then.options) {
					t.Errorf("options: %+v", options)
				}
				for k, v := range then.options {
					if options[k] != v {
						t.Errorf("options[%s]: (actual, expected) = (%v, %v)", k, options[k], v)
					}
				}
			}
		}

		t.Run("deletion is cascading by default", theory(
			when{body: `{"application": "app-1", "verified": true}`},
			then{reason: nil, options: map[string]any{"orphanDependants": false}},
		))
		t.Run("non-cascading deletion orphans dependants", theory(
			when{body: `{"application": "app-1", "verified": true, "cascading": false, "reason": "cleanup", "gracePeriodSeconds": 30}`},
			then{reason: "cleanup", options: map[string]any{"orphanDependants": true, "gracePeriodSeconds": 30}},
		))
	})

	t.Run("it responds BadRequest", func(t *testing.T) {
		type when struct {
			coords [4]string
			body   string
		}

		theory := func(when when) func(*testing.T) {
			return func(t *testing.T) {
				client := mock.New(t)
				testee := handlers.DeleteManifestHandler(
					manifest.NewWriter(newExecutor(client)), manifestParams, time.Minute,
				)

				e := echo.New()
				c, _ := deleteManifest(e, when.coords, when.body)
				err := testee(c)
				if herr := new(echo.HTTPError); !errors.As(err, &herr) {
					t.Fatalf("error is not echo.HTTPError: %+v", err)
				} else if herr.Code != http.StatusBadRequest {
					t.Errorf("status code: %d", herr.Code)
				}
				if n := len(client.SubmitTaskCalls()); n != 0 {
					t.Errorf("SubmitTask is called %d times", n)
				}
			}
		}

		t.Run("when it is not verified", theory(when{
			coords: [4]string{"my-k8s", "default", "Deployment", "web"},
			body:   `{"application": "app-1"}`,
		}))
		t.Run("when the namespace is invalid", theory(when{
			coords: [4]string{"my-k8s", "Not_A_Namespace", "Deployment", "web"},
			body:   `{"application": "app-1", "verified": true}`,
		}))
		t.Run("when the application is missing", theory(when{
			coords: [4]string{"my-k8s", "default", "Deployment", "web"},
			body:   `{"verified": true}`,
		}))
	})

	t.Run("it responds BadGateway when the task failed", func(t *testing.T) {
		client := mock.New(t)
		orchestrator(client, apitasks.Terminal)
		testee := handlers.DeleteManifestHandler(
			manifest.NewWriter(newExecutor(client)), manifestParams, time.Minute,
		)

		e := echo.New()
		c, _ := deleteManifest(
			e, [4]string{"my-k8s", "default", "Deployment", "web"},
			`{"application": "app-1", "verified": true}`,
		)
		err := testee(c)
		if herr := new(echo.HTTPError); !errors.As(err, &herr) {
			t.Fatalf("error is not echo.HTTPError: %+v", err)
		} else if herr.Code != http.StatusBadGateway {
			t.Errorf("status code: %d", herr.Code)
		}
	})
}
