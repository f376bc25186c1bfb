// Package filter filters and groups executions of an application.
//
// FilterModel is shared by readers (views) and only Service updates it.
package filter

import (
	"cmp"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/opst/pipedeck/pkg/api/types/executions"
	"github.com/opst/pipedeck/pkg/application"
	"github.com/opst/pipedeck/pkg/events"
)

type GroupBy string

const (
	GroupByName GroupBy = "name"
	GroupByNone GroupBy = "none"

	// heading of the group when executions are not grouped.
	HeadingAll = "All"
)

func ParseGroupBy(s string) (GroupBy, error) {
	switch g := GroupBy(strings.ToLower(s)); g {
	case "":
		return GroupByName, nil
	case GroupByName, GroupByNone:
		return g, nil
	default:
		return "", fmt.Errorf("unknown grouping: %q (expected: %s or %s)", s, GroupByName, GroupByNone)
	}
}

// Criteria of executions to be shown.
//
// Empty Pipelines or Statuses means "any".
type Criteria struct {
	Pipelines []string `json:"pipelines,omitempty"`
	Statuses  []string `json:"statuses,omitempty"`
	GroupBy   GroupBy  `json:"groupBy"`
}

func (c Criteria) Match(e executions.Execution) bool {
	if len(c.Pipelines) != 0 && !slices.Contains(c.Pipelines, e.Name) {
		return false
	}
	if len(c.Statuses) != 0 && !slices.ContainsFunc(c.Statuses, func(s string) bool {
		return strings.EqualFold(s, string(e.Status))
	}) {
		return false
	}
	return true
}

type FilterModel struct {
	mu       sync.RWMutex
	groups   []executions.Group
	criteria Criteria
}

func NewFilterModel() *FilterModel {
	return &FilterModel{criteria: Criteria{GroupBy: GroupByName}}
}

// Groups returns the current groups.
//
// Returned slice is shared. Do not modify it.
func (m *FilterModel) Groups() []executions.Group {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.groups
}

func (m *FilterModel) Criteria() Criteria {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.criteria
}

type Service struct {
	model *FilterModel

	// GroupsUpdated publishes groups each time they are rebuilt.
	GroupsUpdated *events.Subject[[]executions.Group]
}

func NewService(model *FilterModel) *Service {
	return &Service{
		model:         model,
		GroupsUpdated: events.NewReplaySubject[[]executions.Group](),
	}
}

func (s *Service) Model() *FilterModel {
	return s.model
}

// SetCriteria replaces criteria. Groups are not rebuilt until UpdateExecutionGroups.
func (s *Service) SetCriteria(c Criteria) {
	if c.GroupBy == "" {
		c.GroupBy = GroupByName
	}
	s.model.mu.Lock()
	defer s.model.mu.Unlock()
	s.model.criteria = Criteria{
		Pipelines: slices.Clone(c.Pipelines),
		Statuses:  slices.Clone(c.Statuses),
		GroupBy:   c.GroupBy,
	}
}

// UpdateExecutionGroups rebuilds groups from executions of app, and publishes them.
func (s *Service) UpdateExecutionGroups(app *application.Application) []executions.Group {
	execs, _ := app.Executions.Data()
	groups := Group(execs, s.model.Criteria())

	s.model.mu.Lock()
	s.model.groups = groups
	s.model.mu.Unlock()

	s.GroupsUpdated.Next(groups)
	return groups
}

// Group filters execs with c, and groups them.
//
// Groups are sorted by heading, and executions in a group are newest first.
// When no execution matches, it returns an empty slice.
func Group(execs []executions.Execution, c Criteria) []executions.Group {
	matched := []executions.Execution{}
	for _, e := range execs {
		if c.Match(e) {
			matched = append(matched, e)
		}
	}
	if len(matched) == 0 {
		return []executions.Group{}
	}

	slices.SortStableFunc(matched, func(a, b executions.Execution) int {
		return b.Started().Compare(a.Started())
	})

	if c.GroupBy == GroupByNone {
		return []executions.Group{{Heading: HeadingAll, Executions: matched}}
	}

	byName := map[string][]executions.Execution{}
	for _, e := range matched {
		byName[e.Name] = append(byName[e.Name], e)
	}
	groups := make([]executions.Group, 0, len(byName))
	for name, es := range byName {
		groups = append(groups, executions.Group{Heading: name, Executions: es})
	}
	slices.SortFunc(groups, func(a, b executions.Group) int {
		return cmp.Compare(a.Heading, b.Heading)
	})
	return groups
}
