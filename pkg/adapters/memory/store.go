// Package memory provides in-memory adapter implementations, useful for
// tests and single-process embedding.
package memory

import (
	"context"
	"sync"

	"github.com/canopyhq/canopy/pkg/domain"
	"github.com/canopyhq/canopy/pkg/ports"
)

// Store implements ports.RunStore in memory.
// Safe for concurrent use.
type Store struct {
	data map[string]*ports.RunRecord
	mu   sync.RWMutex
}

// NewStore creates a new in-memory run store.
func NewStore() *Store {
	return &Store{
		data: make(map[string]*ports.RunRecord),
	}
}

// Save persists the run record in memory.
func (s *Store) Save(ctx context.Context, runID string, rec *ports.RunRecord) error {
	// Copy so later caller mutation can't reach into the store.
	copied := *rec
	copied.Messages = append([]domain.Message(nil), rec.Messages...)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[runID] = &copied
	return nil
}

// Load retrieves the run record from memory.
func (s *Store) Load(ctx context.Context, runID string) (*ports.RunRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.data[runID]
	if !ok {
		return nil, domain.ErrRunNotFound
	}

	// Copy on read so the caller can't mutate stored state by pointer.
	ret := *rec
	ret.Messages = append([]domain.Message(nil), rec.Messages...)
	return &ret, nil
}

// Delete removes the run record.
func (s *Store) Delete(ctx context.Context, runID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.data, runID)
	return nil
}

// List returns the ids of persisted runs.
func (s *Store) List(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.data))
	for id := range s.data {
		ids = append(ids, id)
	}
	return ids, nil
}
