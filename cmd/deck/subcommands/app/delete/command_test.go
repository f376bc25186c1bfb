package delete_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	app_delete "github.com/opst/pipedeck/cmd/deck/subcommands/app/delete"
	"github.com/opst/pipedeck/cmd/deck/subcommands/internal/commandline"
	"github.com/opst/pipedeck/cmd/deck/subcommands/internal/testorch"
	"github.com/opst/pipedeck/cmd/deck/subcommands/logger"
	apitasks "github.com/opst/pipedeck/pkg/api/types/tasks"
	"github.com/opst/pipedeck/pkg/application"
	"github.com/opst/pipedeck/pkg/history"
	"github.com/opst/pipedeck/pkg/tasks"
)

func TestDeleteCommand(t *testing.T) {
	type when struct {
		final apitasks.Status
	}
	type then struct {
		err       error
		remaining int
	}

	theory := func(when when, then then) func(*testing.T) {
		return func(t *testing.T) {
			deps, client, store := testorch.Deps(t, when.final)
			ctx := context.Background()
			for _, app := range []string{"app-1", "app-2"} {
				if _, err := store.AddEntry(ctx, history.ApplicationEntry(app)); err != nil {
					t.Fatal(err)
				}
			}

			cl := commandline.MockCommandline[struct{}]{
				Fullname_: "deck app delete",
				Stdout_:   new(bytes.Buffer),
				Stderr_:   new(bytes.Buffer),
				Args_:     map[string][]string{app_delete.ARG_APPLICATION: {"app-1"}},
			}

			err := app_delete.Task(ctx, logger.Null(), deps, cl, nil)
			if then.err == nil {
				if err != nil {
					t.Errorf("unexpected error: %+v", err)
				}
			} else if !errors.Is(err, then.err) {
				t.Errorf("unexpected error: %+v", err)
			}

			calls := client.SubmitTaskCalls()
			if len(calls) != 1 || calls[0].Job[0].Type() != application.JobDelete {
				t.Errorf("unexpected submission: %+v", calls)
			}
			entries, _ := store.Entries(ctx, history.TypeApplications)
			if len(entries) != then.remaining {
				t.Errorf("history: %+v", entries)
			}
		}
	}

	t.Run("deleted application is removed from history", theory(
		when{final: apitasks.Succeeded},
		then{err: nil, remaining: 1},
	))
	t.Run("when deletion failed, it tells the failure and history is kept", theory(
		when{final: apitasks.Terminal},
		then{err: tasks.ErrTaskFailed, remaining: 2},
	))
}
