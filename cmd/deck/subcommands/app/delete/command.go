package delete

import (
	"context"
	"fmt"
	"log"

	"github.com/opst/pipedeck/cmd/deck/subcommands/common"
	"github.com/opst/pipedeck/cmd/deck/subcommands/internal/progress"
	"github.com/opst/pipedeck/pkg/application"
	"github.com/youta-t/flarc"
)

const ARG_APPLICATION = "APPLICATION"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Delete an application.",
		struct{}{},
		flarc.Args{
			{
				Name: ARG_APPLICATION, Required: true,
				Help: "name of the application to be deleted.",
			},
		},
		common.NewTask(Task),
		flarc.WithDescription(`
Delete an application, and wait until it is done.

When it is deleted, the application is also removed from the history of recently used items.
`),
	)
}

func Task(
	ctx context.Context,
	logger *log.Logger,
	deps common.Deps,
	cl flarc.Commandline[struct{}],
	_ []any,
) error {
	name := cl.Args()[ARG_APPLICATION][0]
	w := application.NewWriter(deps.Executor, deps.History, application.WithLogger(logger))

	bar := progress.Start(cl.Stderr(), "Deleting Application: "+name)
	outcome, err := w.DeleteApplication(
		ctx, application.Attributes{"name": name}, bar.Watch(),
	).Await(ctx)
	bar.Finish()
	if err != nil {
		return err
	}

	if outcome.Task != nil {
		if err := common.PrintJSON(cl.Stdout(), outcome.Task); err != nil {
			return err
		}
	}
	if !outcome.Succeeded() {
		return fmt.Errorf("application %s is not deleted: %w", name, outcome.Err)
	}
	logger.Printf("deleted application: %s", name)
	return nil
}
