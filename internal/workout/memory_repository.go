package workout

import (
	"context"
	"sync"
)

type memoryRepository struct {
	mu    sync.RWMutex
	store map[string][]Record // userID -> records in append order
	ids   map[string]struct{}
}

// NewMemoryRepository returns an in-memory repository intended for local development and tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{
		store: make(map[string][]Record),
		ids:   make(map[string]struct{}),
	}
}

func (r *memoryRepository) Append(_ context.Context, record Record) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.ids[record.ID]; exists {
		return ErrConflict
	}
	r.ids[record.ID] = struct{}{}
	r.store[record.UserID] = append(r.store[record.UserID], record)
	return nil
}

func (r *memoryRepository) List(_ context.Context, userID string) ([]Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	records := r.store[userID]
	out := make([]Record, len(records))
	copy(out, records)
	return out, nil
}
