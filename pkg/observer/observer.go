// Package observer holds subscriber lists for the state stores.
package observer

import (
	"slices"
	"sync"
)

// Subscribers is safe for concurrent use. The zero value is ready.
type Subscribers[T any] struct {
	mu     sync.Mutex
	nextID int
	fns    map[int]func(T)
}

// Add registers fn and returns the function removing it.
func (s *Subscribers[T]) Add(fn func(T)) (unsubscribe func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fns == nil {
		s.fns = make(map[int]func(T))
	}
	id := s.nextID
	s.nextID++
	s.fns[id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.fns, id)
			s.mu.Unlock()
		})
	}
}

// Notify calls every subscriber in registration order.
func (s *Subscribers[T]) Notify(v T) {
	s.mu.Lock()
	ids := make([]int, 0, len(s.fns))
	for id := range s.fns {
		ids = append(ids, id)
	}
	fns := make([]func(T), 0, len(ids))
	slices.Sort(ids)
	for _, id := range ids {
		fns = append(fns, s.fns[id])
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Clear removes all subscribers.
func (s *Subscribers[T]) Clear() {
	s.mu.Lock()
	s.fns = nil
	s.mu.Unlock()
}
