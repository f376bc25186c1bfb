package common

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/opst/pipedeck/cmd/deck/config/profiles"
	"github.com/opst/pipedeck/pkg/history"
	"github.com/opst/pipedeck/pkg/history/file"
	"github.com/opst/pipedeck/pkg/rest"
	"github.com/opst/pipedeck/pkg/tasks"
	"github.com/youta-t/flarc"
)

type TaskWithCommonFlag[T any] func(
	ctx context.Context,
	logger *log.Logger,
	commonFlag CommonFlags,
	cl flarc.Commandline[T],
	params []any,
) error

func NewTaskWithCommonFlag[T any](task TaskWithCommonFlag[T]) flarc.Task[T] {
	return func(ctx context.Context, cl flarc.Commandline[T], pos []any) error {
		var commonFlag CommonFlags
		found := false
		newpos := make([]any, 0, len(pos))
		for _, p := range pos {
			switch v := p.(type) {
			case CommonFlags:
				found = true
				commonFlag = v
			default:
				newpos = append(newpos, p)
			}
		}
		if !found {
			return errors.New("programming error: common flags not found")
		}

		logger := log.New(cl.Stderr(), "", log.LstdFlags)
		logger.SetPrefix(fmt.Sprintf("[%s] ", cl.Fullname()))

		return task(ctx, logger, commonFlag, cl, newpos)
	}
}

// Deps are what tasks work with.
type Deps struct {
	Client   rest.Client
	Executor tasks.Executor
	History  history.Store
}

type Task[T any] func(
	ctx context.Context,
	logger *log.Logger,
	deps Deps,
	cl flarc.Commandline[T],
	params []any,
) error

// NewTask builds flarc.Task which runs task with Deps for the profile chosen by common flags.
func NewTask[T any](task Task[T]) flarc.Task[T] {
	return NewTaskWithCommonFlag(func(
		ctx context.Context,
		logger *log.Logger,
		commonFlag CommonFlags,
		cl flarc.Commandline[T],
		params []any,
	) error {
		store, err := profiles.LoadProfileStore(commonFlag.ProfileStore)
		if err != nil {
			if errors.Is(err, profiles.ErrProfileStoreNotFound) {
				return fmt.Errorf(
					"%w. Ask your admin to get deck profile, and put it at %s",
					err, commonFlag.ProfileStore,
				)
			}
			return fmt.Errorf("%w: failed to load profile store (%s)", err, commonFlag.ProfileStore)
		}
		prof, ok := store[commonFlag.Profile]
		if !ok {
			return fmt.Errorf(
				"profile '%s' not found in the profile store (%s)",
				commonFlag.Profile, commonFlag.ProfileStore,
			)
		}
		if err := prof.Verify(time.Now()); err != nil {
			if errors.Is(err, profiles.ErrTokenExpired) {
				return fmt.Errorf("%w. Renew the token of profile '%s'", err, commonFlag.Profile)
			}
			return fmt.Errorf(
				"%w. Your profile (%s in %s) may be broken",
				err, commonFlag.Profile, commonFlag.ProfileStore,
			)
		}

		client, err := prof.Client()
		if err != nil {
			return fmt.Errorf(
				"%w: failed to create client. Your profile (%s in %s) may be broken",
				err, commonFlag.Profile, commonFlag.ProfileStore,
			)
		}

		return task(ctx, logger, Deps{
			Client:   client,
			Executor: tasks.NewExecutor(client),
			History:  file.New(commonFlag.History),
		}, cl, params)
	})
}
