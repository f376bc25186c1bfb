package application

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/opst/pipedeck/pkg/api/types/executions"
	"github.com/opst/pipedeck/pkg/events"
	"github.com/opst/pipedeck/pkg/loop"
	"github.com/opst/pipedeck/pkg/rest"
)

// DataSource holds data of an application loaded from somewhere,
// and notifies refreshes of it.
type DataSource[T any] struct {
	load   func(context.Context) (T, error)
	logger *log.Logger

	mu        sync.Mutex
	data      T
	loaded    bool
	refreshed *events.Subject[struct{}]
}

func NewDataSource[T any](load func(context.Context) (T, error), logger *log.Logger) *DataSource[T] {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &DataSource[T]{
		load:      load,
		logger:    logger,
		refreshed: events.NewSubject[struct{}](),
	}
}

// OnRefresh registers f to be called on each successful refresh.
//
// # Returns
//
// - func(): unsubscribe f. It is safe to be called many times.
func (ds *DataSource[T]) OnRefresh(f func()) func() {
	sub := ds.refreshed.Subscribe(func(struct{}) { f() })
	return sub.Unsubscribe
}

// Refresh loads data, and notifies it.
//
// When loading fails, data is kept as it is and nothing is notified.
func (ds *DataSource[T]) Refresh(ctx context.Context) error {
	data, err := ds.load(ctx)
	if err != nil {
		return err
	}

	ds.mu.Lock()
	ds.data = data
	ds.loaded = true
	ds.mu.Unlock()

	ds.refreshed.Next(struct{}{})
	return nil
}

// Data returns the data loaded last, and whether it has been loaded.
func (ds *DataSource[T]) Data() (T, bool) {
	ds.mu.Lock()
	defer ds.mu.Unlock()
	return ds.data, ds.loaded
}

// Poll refreshes data every interval until ctx is done.
//
// Each refresh should complete within interval.
// Errors on refresh are logged and polling continues.
func (ds *DataSource[T]) Poll(ctx context.Context, interval time.Duration) error {
	_, err := loop.Start(ctx, 0, func(rctx context.Context, failures int) (int, loop.Next) {
		if err := ds.Refresh(rctx); err != nil {
			if ctx.Err() != nil {
				return failures, loop.Break(ctx.Err())
			}
			ds.logger.Printf("refresh failed (%d times in a row): %s", failures+1, err)
			return failures + 1, loop.Continue(interval)
		}
		return 0, loop.Continue(interval)
	}, loop.WithTimeout(interval))
	return err
}

// Application is the runtime state of an application.
type Application struct {
	Name       string
	Executions *DataSource[[]executions.Execution]
}

// New creates an Application which loads executions with client.
func New(name string, client rest.Client, logger *log.Logger) *Application {
	return &Application{
		Name: name,
		Executions: NewDataSource(
			func(ctx context.Context) ([]executions.Execution, error) {
				return client.GetExecutions(ctx, name)
			},
			logger,
		),
	}
}
