package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path"

	subapp "github.com/opst/pipedeck/cmd/deck/subcommands/app"
	"github.com/opst/pipedeck/cmd/deck/subcommands/common"
	subexec "github.com/opst/pipedeck/cmd/deck/subcommands/executions"
	subhist "github.com/opst/pipedeck/cmd/deck/subcommands/history"
	"github.com/opst/pipedeck/cmd/deck/subcommands/logger"
	submani "github.com/opst/pipedeck/cmd/deck/subcommands/manifest"
	subver "github.com/opst/pipedeck/cmd/deck/subcommands/version"
	"github.com/opst/pipedeck/pkg/utils/try"
	"github.com/youta-t/flarc"
)

func main() {
	name := path.Base(os.Args[0])
	logger := logger.Default()
	logger.SetPrefix(fmt.Sprintf("[%s] ", name))

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	cf := try.To(common.Flags(".")).OrFatal(logger)
	app := try.To(subapp.New()).OrFatal(logger)
	manifest := try.To(submani.New()).OrFatal(logger)
	executions := try.To(subexec.New()).OrFatal(logger)
	history := try.To(subhist.New()).OrFatal(logger)
	version := try.To(subver.New()).OrFatal(logger)

	deck := try.To(
		flarc.NewCommandGroup(
			"pipedeck commandline interface",
			cf,
			flarc.WithSubcommand("app", app),
			flarc.WithSubcommand("manifest", manifest),
			flarc.WithSubcommand("executions", executions),
			flarc.WithSubcommand("history", history),
			flarc.WithSubcommand("version", version),
		),
	).OrFatal(logger)

	os.Exit(flarc.Run(ctx, deck, flarc.WithHelp(true)))
}
