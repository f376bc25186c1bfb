package executions

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/opst/pipedeck/cmd/deck/subcommands/common"
	"github.com/opst/pipedeck/pkg/application"
	kflag "github.com/opst/pipedeck/pkg/commandline/flag"
	"github.com/opst/pipedeck/pkg/executions/filter"
	"github.com/opst/pipedeck/pkg/executions/groups"
	"github.com/opst/pipedeck/pkg/history"
	"github.com/opst/pipedeck/pkg/state"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Pipeline *kflag.Argslice `flag:"pipeline" alias:"p" metavar:"NAME" help:"show executions of the pipeline only. Repeatable."`
	Status   *kflag.Argslice `flag:"status" alias:"s" metavar:"STATUS" help:"show executions in the status only, like RUNNING. Repeatable."`
	GroupBy  string          `flag:"group-by" metavar:"name|none" help:"how executions are grouped."`
	Watch    bool            `flag:"watch" alias:"w" help:"keep showing executions each time they are updated, until interrupted."`
	Interval time.Duration   `flag:"interval" help:"interval of polling with --watch."`
}

const ARG_APPLICATION = "APPLICATION"

// navigation state of this command. It lists executions and does not show details.
const stateList = "executions"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Show executions of an application, in groups.",
		Flag{
			Pipeline: &kflag.Argslice{},
			Status:   &kflag.Argslice{},
			GroupBy:  string(filter.GroupByName),
			Interval: 5 * time.Second,
		},
		flarc.Args{
			{
				Name: ARG_APPLICATION, Required: true,
				Help: "name of the application.",
			},
		},
		common.NewTask(Task),
		flarc.WithDescription(`
Show executions of an application, grouped by pipeline name (or not grouped with --group-by none).

Executions in each group are newest first.

Example
-------

Show failed executions of pipeline "deploy":

	{{ .Command }} --pipeline deploy --status TERMINAL my-app

Keep watching executions:

	{{ .Command }} --watch --interval 10s my-app
`),
	)
}

func Task(
	ctx context.Context,
	logger *log.Logger,
	deps common.Deps,
	cl flarc.Commandline[Flag],
	_ []any,
) error {
	flags := cl.Flags()
	name := cl.Args()[ARG_APPLICATION][0]

	groupBy, err := filter.ParseGroupBy(flags.GroupBy)
	if err != nil {
		return errors.Join(flarc.ErrUsage, err)
	}
	if flags.Watch && flags.Interval <= 0 {
		return errors.Join(flarc.ErrUsage, fmt.Errorf("--interval should be positive: %s", flags.Interval))
	}

	app := application.New(name, deps.Client, logger)
	service := filter.NewService(filter.NewFilterModel())
	service.SetCriteria(filter.Criteria{
		Pipelines: flags.Pipeline.Values(),
		Statuses:  flags.Status.Values(),
		GroupBy:   groupBy,
	})
	unsubscribe := app.Executions.OnRefresh(func() { service.UpdateExecutionGroups(app) })
	defer unsubscribe()

	if err := app.Executions.Refresh(ctx); err != nil {
		return err
	}
	if _, err := deps.History.AddEntry(ctx, history.ApplicationEntry(name)); err != nil {
		logger.Printf("failed to record history: %s", err)
	}

	router := state.NewRouter(stateList)
	if !flags.Watch {
		view := groups.New(app, service, router, func(groups.State) {})
		defer view.Close()
		return groups.WriteText(cl.Stdout(), view.State())
	}

	// prints only when the text is changed.
	out := cl.Stdout()
	last := ""
	var renderErr error
	view := groups.New(app, service, router, func(s groups.State) {
		if renderErr != nil {
			return
		}
		buf := new(strings.Builder)
		if renderErr = groups.WriteText(buf, s); renderErr != nil {
			return
		}
		if text := buf.String(); text != last {
			last = text
			_, renderErr = fmt.Fprintf(out, "--- %s\n%s", time.Now().Format(time.RFC3339), text)
		}
	})
	defer view.Close()

	err = app.Executions.Poll(ctx, flags.Interval)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return errors.Join(err, renderErr)
}
