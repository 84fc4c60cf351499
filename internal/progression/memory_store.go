package progression

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu    sync.RWMutex
	store map[string]State
}

// NewMemoryStore returns an in-memory state store intended for local development and tests.
func NewMemoryStore() StateStore {
	return &memoryStore{store: make(map[string]State)}
}

func (s *memoryStore) Load(_ context.Context, userID string) (State, error) {
	if userID == "" {
		return State{}, ErrMissingUserID
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	state, ok := s.store[userID]
	if !ok {
		return State{}, ErrStateNotFound
	}
	state.Stats = state.Stats.Clone()
	state.Pending = append([]PendingNotification(nil), state.Pending...)
	return state, nil
}

func (s *memoryStore) Save(_ context.Context, userID string, state State) error {
	if userID == "" {
		return ErrMissingUserID
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	state.Stats = state.Stats.Clone()
	state.Pending = append([]PendingNotification(nil), state.Pending...)
	s.store[userID] = state
	return nil
}
