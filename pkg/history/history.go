// Package history is the store of recently viewed items ("recency store").
//
// Entries are kept per type (e.g. "applications", "manifests"),
// newest first, and at most MaxItems for each type.
package history

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/opst/pipedeck/pkg/cmp"
)

// MaxItems is the number of entries kept for each type.
const MaxItems = 5

// TypeApplications is the type of entries of applications.
const TypeApplications = "applications"

// ApplicationEntry is an entry telling the application is accessed.
func ApplicationEntry(application string) Entry {
	return Entry{
		Type:        TypeApplications,
		Application: application,
		Params:      map[string]string{"application": application},
	}
}

var ErrInvalidEntry = errors.New("invalid history entry")

type Entry struct {
	Id          string            `json:"id" yaml:"id"`
	Type        string            `json:"type" yaml:"type"`
	Application string            `json:"application,omitempty" yaml:"application,omitempty"`
	Params      map[string]string `json:"params,omitempty" yaml:"params,omitempty"`
	AccessedAt  time.Time         `json:"accessedAt" yaml:"accessedAt"`
}

// SameItem reports e and other point the same item.
func (e Entry) SameItem(other Entry) bool {
	return e.Type == other.Type && cmp.MapEq(e.Params, other.Params)
}

type Store interface {
	// AddEntry records an access to an item.
	//
	// If the store has an entry of the same item, it is replaced.
	//
	// # Returns
	//
	// - Entry: recorded entry. Id and AccessedAt are filled when they are empty.
	//
	// - error: ErrInvalidEntry when Type is empty.
	AddEntry(ctx context.Context, e Entry) (Entry, error)

	// Entries returns entries of the type, newest first.
	Entries(ctx context.Context, typ string) ([]Entry, error)

	// RemoveByAppName removes all entries of the application, across all types.
	RemoveByAppName(ctx context.Context, application string) error
}

// Normalize validates e and fills its Id and AccessedAt.
func Normalize(e Entry, now time.Time) (Entry, error) {
	if e.Type == "" {
		return e, errors.Join(ErrInvalidEntry, errors.New("type is empty"))
	}
	if e.Id == "" {
		e.Id = uuid.NewString()
	}
	if e.AccessedAt.IsZero() {
		e.AccessedAt = now
	}
	return e, nil
}

// Push puts e at the head of entries.
//
// An entry of the same item is removed, and entries over MaxItems are dropped.
// entries are expected to be of the type of e, newest first.
func Push(entries []Entry, e Entry) []Entry {
	rest := slices.DeleteFunc(slices.Clone(entries), e.SameItem)
	ret := append([]Entry{e}, rest...)
	if MaxItems < len(ret) {
		ret = ret[:MaxItems]
	}
	return ret
}

// Memory is in-memory Store.
type Memory struct {
	mu      sync.Mutex
	entries map[string][]Entry
	now     func() time.Time
}

var _ Store = &Memory{}

func NewMemory() *Memory {
	return &Memory{entries: map[string][]Entry{}, now: time.Now}
}

func (m *Memory) AddEntry(_ context.Context, e Entry) (Entry, error) {
	e, err := Normalize(e, m.now())
	if err != nil {
		return e, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[e.Type] = Push(m.entries[e.Type], e)
	return e, nil
}

func (m *Memory) Entries(_ context.Context, typ string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.entries[typ]), nil
}

func (m *Memory) RemoveByAppName(_ context.Context, application string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for typ, entries := range m.entries {
		m.entries[typ] = RemoveApplication(entries, application)
	}
	return nil
}

// RemoveApplication returns entries without ones of the application.
func RemoveApplication(entries []Entry, application string) []Entry {
	return slices.DeleteFunc(slices.Clone(entries), func(e Entry) bool {
		return e.Application == application
	})
}
