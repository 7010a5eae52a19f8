package cache

import (
	"context"
	"sync"

	"github.com/walletgate/origo/domain"
	serrors "github.com/walletgate/origo/errors"
)

// MemoryStateStore is the in-memory pass-state mirror, for local mode and
// tests. The mongodb package provides the durable variant.
type MemoryStateStore struct {
	mu     sync.Mutex
	states map[string]domain.PassState
}

// NewMemoryStateStore creates an empty mirror.
func NewMemoryStateStore() *MemoryStateStore {
	return &MemoryStateStore{states: make(map[string]domain.PassState)}
}

// Apply implements domain.StateStore.Apply: a write older than the stored
// state is rejected as stale, returning false without error.
func (s *MemoryStateStore) Apply(_ context.Context, state domain.PassState) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.states[state.PassID]
	if ok && state.UpdatedAt.Before(existing.UpdatedAt) {
		return false, nil
	}
	s.states[state.PassID] = state
	return true, nil
}

// Get implements domain.StateStore.Get.
func (s *MemoryStateStore) Get(_ context.Context, passID string) (*domain.PassState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	state, ok := s.states[passID]
	if !ok {
		return nil, serrors.NewNotFound("pass_state", passID)
	}
	return &state, nil
}
