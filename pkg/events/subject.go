// Package events provides in-process update streams.
package events

import (
	"sync"
	"sync/atomic"
)

// Subject is a stream of values which many subscribers can listen to.
//
// Values are delivered synchronously in the goroutine calling Next.
type Subject[T any] struct {
	replay bool

	mu        sync.Mutex
	seq       uint64
	subs      map[uint64]*Subscription
	handlers  map[uint64]func(T)
	latest    T
	hasLatest bool
}

// NewSubject creates a Subject which delivers only values published after subscription.
func NewSubject[T any]() *Subject[T] {
	return &Subject[T]{
		subs:     map[uint64]*Subscription{},
		handlers: map[uint64]func(T){},
	}
}

// NewReplaySubject creates a Subject which also delivers the latest value
// to new subscribers, on subscription.
func NewReplaySubject[T any]() *Subject[T] {
	s := NewSubject[T]()
	s.replay = true
	return s
}

// Next publishes v to all subscribers.
func (s *Subject[T]) Next(v T) {
	s.mu.Lock()
	if s.replay {
		s.latest = v
		s.hasLatest = true
	}
	targets := make([]delivery[T], 0, len(s.subs))
	for id, sub := range s.subs {
		targets = append(targets, delivery[T]{sub: sub, handler: s.handlers[id]})
	}
	s.mu.Unlock()

	for _, d := range targets {
		d.deliver(v)
	}
}

// Subscribe registers handler.
//
// For replay subjects, handler is called with the latest value before Subscribe returns,
// if any value has been published.
func (s *Subject[T]) Subscribe(handler func(T)) *Subscription {
	s.mu.Lock()
	s.seq += 1
	id := s.seq
	sub := &Subscription{}
	sub.detach = func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.subs, id)
		delete(s.handlers, id)
	}
	s.subs[id] = sub
	s.handlers[id] = handler
	latest, replay := s.latest, s.replay && s.hasLatest
	s.mu.Unlock()

	if replay {
		delivery[T]{sub: sub, handler: handler}.deliver(latest)
	}
	return sub
}

// Subscribers returns the number of active subscriptions.
func (s *Subject[T]) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

type delivery[T any] struct {
	sub     *Subscription
	handler func(T)
}

func (d delivery[T]) deliver(v T) {
	d.sub.mu.Lock()
	defer d.sub.mu.Unlock()
	if d.sub.closed.Load() {
		return
	}
	d.handler(v)
}

// Subscription is a registration of a handler to a Subject.
type Subscription struct {
	mu     sync.Mutex // serializes deliveries
	closed atomic.Bool
	once   sync.Once
	detach func()
}

// Unsubscribe stops deliveries to the handler.
//
// It is safe to call Unsubscribe many times, and from the handler itself.
// Once it returns, no more delivery starts.
func (s *Subscription) Unsubscribe() {
	s.closed.Store(true)
	s.once.Do(s.detach)
}

func (s *Subscription) Closed() bool {
	return s.closed.Load()
}
