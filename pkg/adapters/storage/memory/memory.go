package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/aescanero/llmgate/pkg/domain/session"
)

// Store implements SessionStore and JobStore with in-memory maps.
// This is for testing purposes only; nothing expires.
type Store struct {
	sessions map[string]*session.Session
	jobs     map[string]*session.Job
	mu       sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[string]*session.Session),
		jobs:     make(map[string]*session.Job),
	}
}

// SaveSession persists a session transcript.
func (s *Store) SaveSession(ctx context.Context, sess *session.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Shallow copy to avoid callers mutating stored state
	stored := *sess
	s.sessions[sess.ID] = &stored
	return nil
}

// LoadSession retrieves a session transcript.
func (s *Store) LoadSession(ctx context.Context, id string) (*session.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session not found: %s", id)
	}

	copied := *sess
	return &copied, nil
}

// DeleteSession removes a session transcript.
func (s *Store) DeleteSession(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	return nil
}

// SessionExists checks whether a session exists.
func (s *Store) SessionExists(ctx context.Context, id string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	_, ok := s.sessions[id]
	return ok, nil
}

// ListSessions returns the IDs of all stored sessions.
func (s *Store) ListSessions(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids, nil
}

// SaveJob persists an asynchronous chat job.
func (s *Store) SaveJob(ctx context.Context, job *session.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored := *job
	s.jobs[job.ID] = &stored
	return nil
}

// LoadJob retrieves an asynchronous chat job.
func (s *Store) LoadJob(ctx context.Context, id string) (*session.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, fmt.Errorf("job not found: %s", id)
	}

	copied := *job
	return &copied, nil
}

// DeleteJob removes an asynchronous chat job.
func (s *Store) DeleteJob(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.jobs, id)
	return nil
}
