package state

import (
	"errors"
	"fmt"
	"sync"

	"pokelearn/web/internal/domain"

	"github.com/google/uuid"
)

var ErrSessionNotFound = errors.New("session not found")

// Entry is everything the server keeps for one signed-in browser.
type Entry struct {
	Session domain.Session
	Values  map[string]any
}

type SessionStore interface {
	Create(session domain.Session) (string, error)
	Get(id string) (*Entry, error)
	Update(id string, fn func(entry *Entry)) error
	Delete(id string)
}

// memorySessionStore lives only as long as the process; sessions are not
// persisted anywhere.
type memorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Entry
}

func NewMemorySessionStore() SessionStore {
	return &memorySessionStore{
		sessions: make(map[string]*Entry),
	}
}

func (s *memorySessionStore) Create(session domain.Session) (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[id.String()] = &Entry{
		Session: session,
		Values:  make(map[string]any),
	}
	return id.String(), nil
}

func (s *memorySessionStore) Get(id string) (*Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return entry, nil
}

func (s *memorySessionStore) Update(id string, fn func(entry *Entry)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.sessions[id]
	if !ok {
		return fmt.Errorf("failed to update session %s: %w", id, ErrSessionNotFound)
	}
	fn(entry)
	return nil
}

func (s *memorySessionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
}
