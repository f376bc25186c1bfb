// Package file is the recency store saved as a YAML file.
//
// The file is shaped like:
//
//	applications:
//	  - id: 5f0c...
//	    type: applications
//	    application: my-app
//	    params:
//	      application: my-app
//	    accessedAt: 2024-01-02T03:04:05Z
package file

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/opst/pipedeck/pkg/history"
	"github.com/opst/pipedeck/pkg/utils/open"
	yaml "gopkg.in/yaml.v3"
)

type store struct {
	path string
	mu   sync.Mutex
	now  func() time.Time
}

// New returns a Store backed by the file at path.
//
// The file is created on the first write, with permission 0600.
func New(path string) history.Store {
	return &store{path: path, now: time.Now}
}

type document map[string][]history.Entry

func (s *store) load() (document, error) {
	buf, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return document{}, nil
	} else if err != nil {
		return nil, err
	}

	doc := document{}
	if err := yaml.Unmarshal(buf, &doc); err != nil {
		return nil, fmt.Errorf("history file %s is broken: %w", s.path, err)
	}
	if doc == nil {
		doc = document{}
	}
	return doc, nil
}

func (s *store) save(doc document) error {
	buf, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return open.WriteSafeFile(s.path, buf)
}

func (s *store) AddEntry(_ context.Context, e history.Entry) (history.Entry, error) {
	e, err := history.Normalize(e, s.now())
	if err != nil {
		return e, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return e, err
	}
	doc[e.Type] = history.Push(doc[e.Type], e)
	return e, s.save(doc)
}

func (s *store) Entries(_ context.Context, typ string) ([]history.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return nil, err
	}
	return doc[typ], nil
}

func (s *store) RemoveByAppName(_ context.Context, application string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.load()
	if err != nil {
		return err
	}
	for typ, entries := range doc {
		doc[typ] = history.RemoveApplication(entries, application)
	}
	return s.save(doc)
}
