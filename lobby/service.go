package lobby

import (
	"sync"
)

// Service is an insertion-ordered set of items keyed by id. The relay keeps
// its connections that have not joined a room yet in one, and the in-memory
// room store keeps rooms in another.
type Service[T any] struct {
	mu    sync.RWMutex
	items map[string]T
	order []string
}

func NewService[T any]() *Service[T] {
	return &Service[T]{
		items: make(map[string]T),
		order: make([]string, 0),
	}
}

// Add inserts item under id. It reports false if id is already present.
func (s *Service[T]) Add(id string, item T) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; exists {
		return false
	}

	s.items[id] = item
	s.order = append(s.order, id)
	return true
}

// Put inserts or replaces item, keeping its original position.
func (s *Service[T]) Put(id string, item T) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.items[id]; !exists {
		s.order = append(s.order, id)
	}
	s.items[id] = item
}

func (s *Service[T]) Remove(id string) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.items[id]
	if !exists {
		return item, false
	}
	delete(s.items, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return item, true
}

func (s *Service[T]) Get(id string) (T, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.items[id]
	return item, exists
}

func (s *Service[T]) Snapshot() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]T, 0, len(s.order))
	for _, id := range s.order {
		if item, exists := s.items[id]; exists {
			result = append(result, item)
		}
	}
	return result
}

func (s *Service[T]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
