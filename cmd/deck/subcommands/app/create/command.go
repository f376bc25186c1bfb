package create

import (
	"context"
	"errors"
	"log"

	"github.com/opst/pipedeck/cmd/deck/subcommands/app/internal/appflag"
	"github.com/opst/pipedeck/cmd/deck/subcommands/common"
	"github.com/opst/pipedeck/pkg/application"
	kflag "github.com/opst/pipedeck/pkg/commandline/flag"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Name          string          `flag:"name" alias:"n" help:"name of the application. Required."`
	Email         string          `flag:"email" help:"email of the owner."`
	CloudProvider *kflag.Argslice `flag:"cloud-provider" metavar:"PROVIDER" help:"cloud provider which the application is deployed to. Repeatable."`
	Attr          *kflag.Attrs    `flag:"attr" metavar:"KEY=VALUE" help:"other attribute of the application. Repeatable."`
}

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Create an application.",
		Flag{
			CloudProvider: &kflag.Argslice{},
			Attr:          &kflag.Attrs{},
		},
		flarc.Args{},
		common.NewTask(Task),
		flarc.WithDescription(`
Create an application, and wait until it is done.

The task is printed in JSON when it is completed.

Example
-------

	{{ .Command }} --name my-app --email me@example.com --cloud-provider kubernetes
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
	if flags.Name == "" {
		return errors.Join(flarc.ErrUsage, errors.New("--name is required"))
	}

	attrs := appflag.BuildAttributes(flags.Name, flags.Attr, flags.CloudProvider)
	if flags.Email != "" {
		attrs["email"] = flags.Email
	}

	return appflag.Write(
		ctx, logger, deps, cl,
		"Create Application: "+flags.Name, attrs,
		func(w *application.Writer) appflag.WriteFunc { return w.CreateApplication },
	)
}
