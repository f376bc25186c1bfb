package update

import (
	"context"
	"log"

	"github.com/opst/pipedeck/cmd/deck/subcommands/app/internal/appflag"
	"github.com/opst/pipedeck/cmd/deck/subcommands/common"
	"github.com/opst/pipedeck/pkg/application"
	kflag "github.com/opst/pipedeck/pkg/commandline/flag"
	"github.com/youta-t/flarc"
)

type Flag struct {
	CloudProvider *kflag.Argslice `flag:"cloud-provider" metavar:"PROVIDER" help:"cloud provider which the application is deployed to. Repeatable."`
	Attr          *kflag.Attrs    `flag:"attr" metavar:"KEY=VALUE" help:"attribute of the application to be set. Repeatable."`
}

const ARG_APPLICATION = "APPLICATION"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Update attributes of an application.",
		Flag{
			CloudProvider: &kflag.Argslice{},
			Attr:          &kflag.Attrs{},
		},
		flarc.Args{
			{
				Name: ARG_APPLICATION, Required: true,
				Help: "name of the application to be updated.",
			},
		},
		common.NewTask(Task),
		flarc.WithDescription(`
Update attributes of an application, and wait until it is done.

The task is printed in JSON when it is completed.

Example
-------

	{{ .Command }} --cloud-provider kubernetes --attr email=team@example.com my-app
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

	return appflag.Write(
		ctx, logger, deps, cl,
		"Update Application: "+name,
		appflag.BuildAttributes(name, flags.Attr, flags.CloudProvider),
		func(w *application.Writer) appflag.WriteFunc { return w.UpdateApplication },
	)
}
