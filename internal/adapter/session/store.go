package session

import "sync"

// Store is one session's key/value map. It implements domain.SessionStore
// and is safe for concurrent use.
type Store struct {
	mu    sync.RWMutex
	items map[string]string
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{items: make(map[string]string)}
}

func (s *Store) GetItem(key string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.items[key]
	return v, ok
}

func (s *Store) SetItem(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items[key] = value
}

// Clear drops every key.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.items)
}

// Len reports the number of keys held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.items)
}
