package session

import (
	"context"
	"sync"

	"github.com/desertthunder/sesh/internal/models"
)

// MemoryStore is an [ExpiryStore] that keeps records in process memory.
type MemoryStore struct {
	mu      sync.Mutex
	records map[models.Kind]models.ExpiryRecord
}

// NewMemoryStore creates an empty [MemoryStore].
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[models.Kind]models.ExpiryRecord)}
}

// Load returns a copy of every stored record.
func (s *MemoryStore) Load(context.Context) ([]models.ExpiryRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.ExpiryRecord, 0, len(s.records))
	for _, kind := range models.Kinds {
		if rec, ok := s.records[kind]; ok {
			out = append(out, rec)
		}
	}
	return out, nil
}

// Put overwrites the record for rec.Kind.
func (s *MemoryStore) Put(_ context.Context, rec models.ExpiryRecord) error {
	if err := rec.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Kind] = rec
	return nil
}

// Clear removes all records.
func (s *MemoryStore) Clear(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	clear(s.records)
	return nil
}
