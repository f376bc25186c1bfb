// Package state tracks the navigation state of the presentation layer.
//
// A state name is dot separated segments, like "home.applications.application.pipelines.executions.execution".
package state

import (
	"strings"
	"sync"

	"github.com/opst/pipedeck/pkg/events"
)

// Transition is a change of the navigation state.
type Transition struct {
	From string
	To   string
}

type Router struct {
	mu      sync.Mutex
	current string

	// StateChangeSuccess publishes Transitions. New subscribers get the last one.
	StateChangeSuccess *events.Subject[Transition]
}

func NewRouter(initial string) *Router {
	return &Router{
		current:            initial,
		StateChangeSuccess: events.NewReplaySubject[Transition](),
	}
}

func (r *Router) Current() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current
}

// Go moves to the state, and publishes the transition.
//
// Moving to the current state is not a transition, and nothing is published.
func (r *Router) Go(name string) {
	r.mu.Lock()
	from := r.current
	if from == name {
		r.mu.Unlock()
		return
	}
	r.current = name
	r.mu.Unlock()

	r.StateChangeSuccess.Next(Transition{From: from, To: name})
}

// Includes reports the current state matches glob.
func (r *Router) Includes(glob string) bool {
	return Includes(r.Current(), glob)
}

// Includes reports state matches glob.
//
// In glob, "*" matches exactly one segment, and "**" matches zero or more segments.
// Other segments match the same segment.
//
//	Includes("a.b.execution", "**.execution") // true
//	Includes("execution", "**.execution")     // true
//	Includes("a.b.execution", "*.execution")  // false
func Includes(state string, glob string) bool {
	if state == "" {
		return glob == "" || glob == "**"
	}
	return match(strings.Split(state, "."), strings.Split(glob, "."))
}

func match(segments []string, pattern []string) bool {
	if len(pattern) == 0 {
		return len(segments) == 0
	}

	switch head := pattern[0]; head {
	case "**":
		for skip := 0; skip <= len(segments); skip++ {
			if match(segments[skip:], pattern[1:]) {
				return true
			}
		}
		return false
	default:
		if len(segments) == 0 {
			return false
		}
		if head != "*" && head != segments[0] {
			return false
		}
		return match(segments[1:], pattern[1:])
	}
}
