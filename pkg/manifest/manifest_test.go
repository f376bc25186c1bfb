package manifest_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	apitasks "github.com/opst/pipedeck/pkg/api/types/tasks"
	"github.com/opst/pipedeck/pkg/manifest"
	"github.com/opst/pipedeck/pkg/tasks"
	"github.com/opst/pipedeck/pkg/utils/promise"
	"github.com/opst/pipedeck/pkg/utils/try"
)

func TestParseCoordinates(t *testing.T) {
	t.Run("valid coordinates", func(t *testing.T) {
		coords := try.To(manifest.ParseCoordinates("k8s-prod", "default", "Deployment", "nginx")).OrFatal(t)
		if coords.Name != "deployment nginx" || coords.Namespace != "default" || coords.Account != "k8s-prod" {
			t.Errorf("unexpected coordinates: %+v", coords)
		}
		if coords.Kind() != "deployment" {
			t.Errorf("unexpected kind: %s", coords.Kind())
		}
	})

	for name, args := range map[string][4]string{
		"empty account":        {"", "default", "deployment", "nginx"},
		"empty kind":           {"k8s", "default", "", "nginx"},
		"namespace with dot":   {"k8s", "my.ns", "deployment", "nginx"},
		"namespace upper case": {"k8s", "Default", "deployment", "nginx"},
		"name with underscore": {"k8s", "default", "deployment", "my_app"},
		"empty name":           {"k8s", "default", "deployment", ""},
	} {
		t.Run(name, func(t *testing.T) {
			if _, err := manifest.ParseCoordinates(args[0], args[1], args[2], args[3]); !errors.Is(err, manifest.ErrInvalidCoordinates) {
				t.Errorf("unexpected error: %+v", err)
			}
		})
	}
}

func TestBuildDeletePayload(t *testing.T) {
	coords := manifest.Coordinates{Name: "deployment nginx", Namespace: "default", Account: "k8s"}

	for _, cascading := range []bool{true, false} {
		cmd := manifest.NewDeleteCommand(coords)
		cmd.Options.Cascading = cascading

		payload := manifest.BuildDeletePayload(cmd)
		options := payload["options"].(map[string]any)

		if options["orphanDependants"] != !cascading {
			t.Errorf("cascading=%v: orphanDependants = %v", cascading, options["orphanDependants"])
		}
		if _, ok := options["cascading"]; ok {
			t.Errorf("cascading=%v: cascading remains", cascading)
		}
		if _, ok := payload["cascading"]; ok {
			t.Errorf("cascading=%v: cascading is in payload", cascading)
		}
		if payload["cloudProvider"] != "kubernetes" {
			t.Errorf("unexpected cloudProvider: %v", payload["cloudProvider"])
		}
		if payload["manifestName"] != "deployment nginx" || payload["location"] != "default" || payload["account"] != "k8s" {
			t.Errorf("unexpected payload: %+v", payload)
		}
		if reason, ok := payload["reason"]; !ok || reason != nil {
			t.Errorf("reason should be null: %+v", payload)
		}
		if _, ok := options["gracePeriodSeconds"]; ok {
			t.Errorf("gracePeriodSeconds is set: %+v", options)
		}
	}

	t.Run("reason and grace period are copied", func(t *testing.T) {
		cmd := manifest.NewDeleteCommand(coords)
		reason, grace := "cleanup", 30
		cmd.Reason = &reason
		cmd.Options.GracePeriodSeconds = &grace

		payload := manifest.BuildDeletePayload(cmd)
		if payload["reason"] != "cleanup" {
			t.Errorf("unexpected reason: %v", payload["reason"])
		}
		if payload["options"].(map[string]any)["gracePeriodSeconds"] != 30 {
			t.Errorf("unexpected options: %v", payload["options"])
		}
	})
}

type fakeExecutor struct {
	mu       sync.Mutex
	requests []apitasks.TaskRequest
	result   func() (apitasks.Task, error)
}

func (f *fakeExecutor) ExecuteTask(_ context.Context, req apitasks.TaskRequest, _ ...tasks.SubmitOption) promise.Promise[apitasks.Task] {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	return promise.Go(f.result)
}

func (f *fakeExecutor) Requests() []apitasks.TaskRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]apitasks.TaskRequest{}, f.requests...)
}

func TestDeleteDialog(t *testing.T) {
	coords := manifest.Coordinates{Name: "deployment nginx", Namespace: "default", Account: "k8s"}

	t.Run("defaults", func(t *testing.T) {
		testee := manifest.NewDeleteDialog(coords, manifest.NewWriter(&fakeExecutor{}), "app")
		if !testee.Command.Options.Cascading || testee.Command.Reason != nil {
			t.Errorf("unexpected default command: %+v", testee.Command)
		}
		if testee.IsValid() {
			t.Errorf("dialog is valid without verification")
		}
		if title := testee.Monitor().Title(); title != "Deleting deployment nginx in default" {
			t.Errorf("unexpected title: %s", title)
		}
	})

	t.Run("unverified dialog does not submit", func(t *testing.T) {
		exec := &fakeExecutor{}
		testee := manifest.NewDeleteDialog(coords, manifest.NewWriter(exec), "app")

		if err := testee.Delete(context.Background()); !errors.Is(err, manifest.ErrNotVerified) {
			t.Errorf("unexpected error: %+v", err)
		}
		if len(exec.Requests()) != 0 {
			t.Errorf("job is submitted")
		}
		if testee.Monitor().State() != tasks.Idle {
			t.Errorf("monitor is not idle: %s", testee.Monitor().State())
		}
	})

	t.Run("verified dialog submits a deleteManifest job", func(t *testing.T) {
		deleted := []apitasks.Task{}
		exec := &fakeExecutor{result: func() (apitasks.Task, error) {
			return apitasks.Task{Id: "01TASK", Status: apitasks.Succeeded}, nil
		}}
		testee := manifest.NewDeleteDialog(
			coords, manifest.NewWriter(exec), "app",
			manifest.WithOnDeleted(func(t apitasks.Task) { deleted = append(deleted, t) }),
		)
		testee.Command.Options.Cascading = false
		testee.Verification.Verified = true

		if err := testee.Delete(context.Background()); err != nil {
			t.Fatal(err)
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		task := try.To(testee.Monitor().Wait(ctx)).OrFatal(t)
		if task.Id != "01TASK" || len(deleted) != 1 {
			t.Errorf("unexpected result: %+v, %+v", task, deleted)
		}

		reqs := exec.Requests()
		if len(reqs) != 1 {
			t.Fatalf("unexpected requests: %+v", reqs)
		}
		req := reqs[0]
		if req.Application != "app" || req.Description != "Delete Manifest: deployment nginx" {
			t.Errorf("unexpected request: %+v", req)
		}
		job := req.Job[0]
		if job.Type() != "deleteManifest" || job["cloudProvider"] != "kubernetes" {
			t.Errorf("unexpected job: %+v", job)
		}
		if job["options"].(map[string]any)["orphanDependants"] != true {
			t.Errorf("unexpected options: %+v", job["options"])
		}

		if err := testee.Delete(context.Background()); !errors.Is(err, tasks.ErrAlreadySubmitted) {
			t.Errorf("second deletion: unexpected error: %+v", err)
		}
	})

	t.Run("failure is propagated to the monitor", func(t *testing.T) {
		exec := &fakeExecutor{result: func() (apitasks.Task, error) {
			return apitasks.Task{}, &tasks.TaskFailure{Task: apitasks.Task{Id: "01TASK", Status: apitasks.Terminal}}
		}}
		testee := manifest.NewDeleteDialog(coords, manifest.NewWriter(exec), "app")
		testee.Verification.Verified = true

		if err := testee.Delete(context.Background()); err != nil {
			t.Fatal(err)
		}
		<-testee.Monitor().Done()
		if testee.Monitor().State() != tasks.Failed || !errors.Is(testee.Monitor().Err(), tasks.ErrTaskFailed) {
			t.Errorf("unexpected monitor: %s, %+v", testee.Monitor().State(), testee.Monitor().Err())
		}
		if !strings.Contains(testee.Monitor().Err().Error(), "01TASK") {
			t.Errorf("error does not tell the task: %s", testee.Monitor().Err())
		}
	})

	t.Run("canceled dialog does not submit", func(t *testing.T) {
		exec := &fakeExecutor{}
		testee := manifest.NewDeleteDialog(coords, manifest.NewWriter(exec), "app")
		testee.Verification.Verified = true
		testee.Cancel()

		if err := testee.Delete(context.Background()); !errors.Is(err, manifest.ErrDismissed) {
			t.Errorf("unexpected error: %+v", err)
		}
		if len(exec.Requests()) != 0 {
			t.Errorf("job is submitted")
		}
	})
}
