package appflag

import (
	"context"
	"log"

	"github.com/opst/pipedeck/cmd/deck/subcommands/common"
	"github.com/opst/pipedeck/cmd/deck/subcommands/internal/progress"
	apitasks "github.com/opst/pipedeck/pkg/api/types/tasks"
	"github.com/opst/pipedeck/pkg/application"
	kflag "github.com/opst/pipedeck/pkg/commandline/flag"
	"github.com/opst/pipedeck/pkg/history"
	"github.com/opst/pipedeck/pkg/tasks"
	"github.com/opst/pipedeck/pkg/utils/promise"
	"github.com/youta-t/flarc"
)

// BuildAttributes merges flags into attributes of the application named name.
//
// Attributes given by --attr are overwritten by dedicated flags.
func BuildAttributes(name string, attrs *kflag.Attrs, cloudProviders *kflag.Argslice) application.Attributes {
	ret := application.Attributes{}
	if attrs != nil {
		for k, v := range *attrs {
			ret[k] = v
		}
	}
	if cp := cloudProviders.Values(); 0 < len(cp) {
		ret["cloudProviders"] = cp
	}
	ret["name"] = name
	return ret
}

// WriteFunc is a write operation of application.Writer.
type WriteFunc = func(context.Context, application.Attributes, ...tasks.SubmitOption) promise.Promise[apitasks.Task]

// Write runs a write operation of the application with a progress bar,
// and prints the completed task.
//
// On success, the application is recorded in the history.
func Write[T any](
	ctx context.Context,
	logger *log.Logger,
	deps common.Deps,
	cl flarc.Commandline[T],
	title string,
	attrs application.Attributes,
	write func(*application.Writer) WriteFunc,
) error {
	w := application.NewWriter(deps.Executor, deps.History, application.WithLogger(logger))

	bar := progress.Start(cl.Stderr(), title)
	task, err := write(w)(ctx, attrs, bar.Watch()).Await(ctx)
	bar.Finish()
	if err != nil {
		if failed := tasks.FailedTask(err); failed != nil {
			if perr := common.PrintJSON(cl.Stdout(), failed); perr != nil {
				logger.Println(perr)
			}
		}
		return err
	}

	if _, err := deps.History.AddEntry(ctx, history.ApplicationEntry(attrs.Name())); err != nil {
		logger.Printf("failed to record history: %s", err)
	}
	return common.PrintJSON(cl.Stdout(), task)
}
