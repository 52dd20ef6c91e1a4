package documents

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryPath is the documents path value that selects the in-memory
// store instead of SQLite.
const InMemoryPath = ":memory:"

// Store persists document status records. Implementations must be safe for
// concurrent use; the orchestration engine reads from multiple runs at once.
type Store interface {
	// ListByUser returns all records for a user, newest first.
	ListByUser(ctx context.Context, userID string) ([]Record, error)

	// Upsert inserts the record, or replaces the existing record with the
	// same user ID and document type.
	Upsert(ctx context.Context, rec Record) error

	// Delete removes a record by ID. Returns ErrNotFound if absent.
	Delete(ctx context.Context, id string) error

	// Close releases store resources.
	Close() error
}

// MemoryStore is an in-memory Store for tests and ephemeral deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record // keyed by ID
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]Record),
	}
}

// ListByUser returns all records for a user, newest first.
func (s *MemoryStore) ListByUser(ctx context.Context, userID string) ([]Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Record
	for _, rec := range s.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out, nil
}

// Upsert inserts or replaces the record for (user, type).
func (s *MemoryStore) Upsert(ctx context.Context, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if rec.UpdatedAt.IsZero() {
		rec.UpdatedAt = time.Now().UTC()
	}
	// Replace any existing record for the same user and type.
	for id, existing := range s.records {
		if existing.UserID == rec.UserID && existing.Type == rec.Type {
			delete(s.records, id)
		}
	}
	s.records[rec.ID] = rec
	return nil
}

// Delete removes a record by ID.
func (s *MemoryStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return ErrNotFound
	}
	delete(s.records, id)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *MemoryStore) Close() error {
	return nil
}

var _ Store = (*MemoryStore)(nil)
