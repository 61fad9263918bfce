package session

import (
	"context"
	"sync"
)

// memoryStore implements Store in process memory. Used by tests and as a
// fallback when no Redis is configured; state does not survive restarts.
type memoryStore struct {
	mu      sync.Mutex
	users   map[string]int64
	flashes map[string][]string
}

// NewMemoryStore creates an in-memory session store.
func NewMemoryStore() Store {
	return &memoryStore{
		users:   make(map[string]int64),
		flashes: make(map[string][]string),
	}
}

func (s *memoryStore) SetUser(_ context.Context, sid string, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[sid] = userID
	return nil
}

func (s *memoryStore) User(_ context.Context, sid string) (int64, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID, ok := s.users[sid]
	return userID, ok, nil
}

func (s *memoryStore) Clear(_ context.Context, sid string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.users, sid)
	delete(s.flashes, sid)
	return nil
}

func (s *memoryStore) AddFlash(_ context.Context, sid, message string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flashes[sid] = append(s.flashes[sid], message)
	return nil
}

func (s *memoryStore) PopFlashes(_ context.Context, sid string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	flashes := s.flashes[sid]
	delete(s.flashes, sid)
	return flashes, nil
}
