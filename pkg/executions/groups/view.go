// Package groups is the view of execution groups of an application.
package groups

import (
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/opst/pipedeck/pkg/api/types/executions"
	"github.com/opst/pipedeck/pkg/application"
	"github.com/opst/pipedeck/pkg/executions/filter"
	"github.com/opst/pipedeck/pkg/state"
)

// DetailsState is the glob of navigation states showing details of an execution.
const DetailsState = "**.execution"

const EmptyMessage = "No executions match the filters you've selected."

type State struct {
	Groups         []executions.Group `json:"groups"`
	ShowingDetails bool               `json:"showingDetails"`
}

// View renders execution groups each time they or the application are updated.
type View struct {
	render func(State)

	mu     sync.Mutex
	state  State
	closed bool

	teardown []func()
}

// New creates a View and renders it once.
//
// render is called with the view locked. It must not call Close.
//
// The view subscribes to refreshes of app, groups updated by service and navigation of router,
// until Close.
func New(app *application.Application, service *filter.Service, router *state.Router, render func(State)) *View {
	v := &View{
		render: render,
		state: State{
			Groups:         slices.Clone(service.Model().Groups()),
			ShowingDetails: router.Includes(DetailsState),
		},
	}
	v.update(func(*State) bool { return true })

	v.teardown = []func(){
		app.Executions.OnRefresh(func() {
			v.update(func(*State) bool { return true })
		}),
		service.GroupsUpdated.Subscribe(func([]executions.Group) {
			v.update(func(s *State) bool {
				s.Groups = slices.Clone(service.Model().Groups())
				return true
			})
		}).Unsubscribe,
		router.StateChangeSuccess.Subscribe(func(state.Transition) {
			v.update(func(s *State) bool {
				showing := router.Includes(DetailsState)
				if showing == s.ShowingDetails {
					return false
				}
				s.ShowingDetails = showing
				return true
			})
		}).Unsubscribe,
	}
	return v
}

// update applies f to the state, and renders it if f tells so.
func (v *View) update(f func(*State) bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	if f(&v.state) {
		v.render(v.state)
	}
}

func (v *View) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Close unsubscribes all. It is safe to be called many times.
//
// After Close returns, the state is not updated nor rendered.
func (v *View) Close() {
	v.mu.Lock()
	if v.closed {
		v.mu.Unlock()
		return
	}
	v.closed = true
	v.mu.Unlock()

	for _, unsubscribe := range v.teardown {
		unsubscribe()
	}
}

// WriteText renders s as text.
func WriteText(w io.Writer, s State) error {
	if len(s.Groups) == 0 {
		_, err := fmt.Fprintln(w, EmptyMessage)
		return err
	}

	for _, g := range s.Groups {
		if _, err := fmt.Fprintf(w, "%s (%d)\n", g.Heading, len(g.Executions)); err != nil {
			return err
		}
		for _, e := range g.Executions {
			started := "-"
			if !e.Started().Equal(time.UnixMilli(0)) {
				started = e.Started().Format(time.RFC3339)
			}
			line := fmt.Sprintf("    %-16s %-24s %s", e.Status, e.Id, started)
			if e.Trigger.User != "" {
				line += " by " + e.Trigger.User
			}
			if _, err := fmt.Fprintln(w, line); err != nil {
				return err
			}
		}
	}
	return nil
}
