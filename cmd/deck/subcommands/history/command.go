package history

import (
	"context"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/opst/pipedeck/cmd/deck/subcommands/common"
	"github.com/opst/pipedeck/pkg/history"
	"github.com/opst/pipedeck/pkg/history/file"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Json bool `flag:"json" help:"print entries in JSON."`
}

const ARG_TYPE = "TYPE"

func New() (flarc.Command, error) {
	return flarc.NewCommand(
		"Show recently used items.",
		Flag{},
		flarc.Args{
			{
				Name: ARG_TYPE, Required: false,
				Help: "type of items. (default: " + history.TypeApplications + ")",
			},
		},
		common.NewTaskWithCommonFlag(Task),
		flarc.WithDescription(`
Show recently used items, newest first.

Items are recorded by other commands, up to 5 for each type.
`),
	)
}

func Task(
	ctx context.Context,
	logger *log.Logger,
	commonFlag common.CommonFlags,
	cl flarc.Commandline[Flag],
	_ []any,
) error {
	typ := history.TypeApplications
	if t := cl.Args()[ARG_TYPE]; 0 < len(t) {
		typ = t[0]
	}

	entries, err := file.New(commonFlag.History).Entries(ctx, typ)
	if err != nil {
		return err
	}
	if cl.Flags().Json {
		if entries == nil {
			entries = []history.Entry{}
		}
		return common.PrintJSON(cl.Stdout(), entries)
	}

	for _, e := range entries {
		if _, err := fmt.Fprintf(
			cl.Stdout(), "%s  %s\n", e.AccessedAt.Local().Format(time.DateTime), describe(e),
		); err != nil {
			return err
		}
	}
	return nil
}

// describe tells what the entry is, like "my-app (application=my-app)"
func describe(e history.Entry) string {
	keys := make([]string, 0, len(e.Params))
	for k := range e.Params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	params := make([]string, 0, len(keys))
	for _, k := range keys {
		params = append(params, k+"="+e.Params[k])
	}

	name := e.Application
	if name == "" {
		name = e.Id
	}
	return fmt.Sprintf("%s (%s)", name, strings.Join(params, ", "))
}
