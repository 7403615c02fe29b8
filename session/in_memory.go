package session

import (
	"sync"

	"github.com/relayagents/relay/core"
)

// InMemoryStore is a volatile Store keeping histories in a process-local map.
// It is safe for concurrent access and best suited for tests or ephemeral
// demo servers. Histories are copied on the way in and out to prevent
// external mutation of internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string][]core.Message
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string][]core.Message)}
}

// Load implements Store.
func (s *InMemoryStore) Load(sessionID string) ([]core.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.sessions[sessionID]
	out := make([]core.Message, len(msgs))
	copy(out, msgs)
	return out, nil
}

// Save implements Store.
func (s *InMemoryStore) Save(sessionID string, msgs []core.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := make([]core.Message, len(msgs))
	copy(stored, msgs)
	s.sessions[sessionID] = stored
	return nil
}

// Delete implements Store.
func (s *InMemoryStore) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
	return nil
}

// Len returns the number of stored sessions.
func (s *InMemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
