package delete

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/opst/pipedeck/cmd/deck/subcommands/common"
	"github.com/opst/pipedeck/cmd/deck/subcommands/internal/progress"
	kflag "github.com/opst/pipedeck/pkg/commandline/flag"
	"github.com/opst/pipedeck/pkg/manifest"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Application string             `flag:"application" alias:"a" help:"application which the manifest belongs to. Required."`
	Account     string             `flag:"account" help:"account of the cluster. Required."`
	Namespace   string             `flag:"namespace" alias:"n" help:"namespace of the manifest."`
	Reason      string             `flag:"reason" help:"reason of the deletion, to be recorded."`
	Cascading   bool               `flag:"cascading" help:"delete dependants together. Pass --cascading=false to orphan them."`
	GracePeriod *kflag.OptionalInt `flag:"grace-period" metavar:"SECONDS" help:"seconds to wait for graceful termination."`
	Yes         bool               `flag:"yes" alias:"y" help:"verify the deletion. Without this, nothing is deleted."`
}

const (
	ARG_KIND = "KIND"
	ARG_NAME = "NAME"
)

type Option struct {
	interval time.Duration
}

// WithInterval sets the interval to update the progress bar.
func WithInterval(d time.Duration) func(*Option) *Option {
	return func(o *Option) *Option {
		o.interval = d
		return o
	}
}

func New(options ...func(*Option) *Option) (flarc.Command, error) {
	option := &Option{interval: 500 * time.Millisecond}
	for _, opt := range options {
		option = opt(option)
	}

	return flarc.NewCommand(
		"Delete a manifest from a cluster.",
		Flag{
			Namespace:   "default",
			Cascading:   true,
			GracePeriod: &kflag.OptionalInt{},
		},
		flarc.Args{
			{
				Name: ARG_KIND, Required: true,
				Help: "kind of the manifest, like Deployment.",
			},
			{
				Name: ARG_NAME, Required: true,
				Help: "name of the manifest.",
			},
		},
		common.NewTask(Task(option.interval)),
		flarc.WithDescription(`
Delete a manifest from a cluster, and wait until it is done.

Deletion is destructive. It needs --yes to be done.
Without --yes, the command which would be submitted is printed.

Example
-------

	{{ .Command }} --application my-app --account my-k8s --namespace web --yes Deployment frontend
`),
	)
}

func Task(interval time.Duration) common.Task[Flag] {
	return func(
		ctx context.Context,
		logger *log.Logger,
		deps common.Deps,
		cl flarc.Commandline[Flag],
		_ []any,
	) error {
		flags := cl.Flags()
		if flags.Application == "" {
			return errors.Join(flarc.ErrUsage, errors.New("--application is required"))
		}

		coords, err := manifest.ParseCoordinates(
			flags.Account, flags.Namespace, cl.Args()[ARG_KIND][0], cl.Args()[ARG_NAME][0],
		)
		if err != nil {
			return errors.Join(flarc.ErrUsage, err)
		}

		dialog := manifest.NewDeleteDialog(
			coords, manifest.NewWriter(deps.Executor), flags.Application,
			manifest.WithDialogLogger(logger),
		)
		if flags.Reason != "" {
			reason := flags.Reason
			dialog.Command.Reason = &reason
		}
		dialog.Command.Options.Cascading = flags.Cascading
		dialog.Command.Options.GracePeriodSeconds = flags.GracePeriod.Int()
		dialog.Verification.Verified = flags.Yes

		if err := dialog.Delete(ctx); err != nil {
			if errors.Is(err, manifest.ErrNotVerified) {
				logger.Println("deletion is not verified. it would submit:")
				if perr := common.PrintJSON(cl.Stdout(), manifest.BuildDeletePayload(dialog.Command)); perr != nil {
					logger.Println(perr)
				}
				return errors.Join(flarc.ErrUsage, fmt.Errorf("%w: pass --yes to delete", err))
			}
			return err
		}

		monitor := dialog.Monitor()
		bar := progress.Start(cl.Stderr(), monitor.Title())
		bar.Follow(ctx, monitor, interval)
		bar.Finish()

		task, err := monitor.Wait(ctx)
		if task != nil {
			if perr := common.PrintJSON(cl.Stdout(), task); perr != nil {
				logger.Println(perr)
			}
		}
		return err
	}
}
