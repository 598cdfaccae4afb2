package memory

import (
	"context"
	"sync"

	"github.com/aretw0/scorm/pkg/domain"
)

// Store implements ports.AttemptStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*domain.Attempt
	mu   sync.RWMutex
}

// NewStore creates a new in-memory store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*domain.Attempt),
	}
}

// Save persists a copy of the attempt.
func (s *Store) Save(ctx context.Context, registrationID string, attempt *domain.Attempt) error {
	copied := attempt.Clone()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[registrationID] = copied
	return nil
}

// Load returns a copy so callers can't mutate the stored attempt.
func (s *Store) Load(ctx context.Context, registrationID string) (*domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	attempt, ok := s.data[registrationID]
	if !ok {
		return nil, domain.ErrAttemptNotFound
	}
	return attempt.Clone(), nil
}

// Delete removes the attempt.
func (s *Store) Delete(ctx context.Context, registrationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, registrationID)
	return nil
}

// List returns the stored registration IDs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
