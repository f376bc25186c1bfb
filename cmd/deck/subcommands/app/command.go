package app

import (
	app_create "github.com/opst/pipedeck/cmd/deck/subcommands/app/create"
	app_delete "github.com/opst/pipedeck/cmd/deck/subcommands/app/delete"
	app_update "github.com/opst/pipedeck/cmd/deck/subcommands/app/update"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	create, err := app_create.New()
	if err != nil {
		return nil, err
	}
	update, err := app_update.New()
	if err != nil {
		return nil, err
	}
	delete, err := app_delete.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manipulate applications.",
		struct{}{},
		flarc.WithSubcommand("create", create),
		flarc.WithSubcommand("update", update),
		flarc.WithSubcommand("delete", delete),
	)
}
