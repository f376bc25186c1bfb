package manifest

import (
	manifest_delete "github.com/opst/pipedeck/cmd/deck/subcommands/manifest/delete"
	"github.com/youta-t/flarc"
)

func New() (flarc.Command, error) {
	delete, err := manifest_delete.New()
	if err != nil {
		return nil, err
	}

	return flarc.NewCommandGroup(
		"Manipulate manifests deployed by applications.",
		struct{}{},
		flarc.WithSubcommand("delete", delete),
	)
}
