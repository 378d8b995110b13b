package attention

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory Repository used by tests and by the CLI
// when no database path is configured.
type MemoryRepository struct {
	mu     sync.Mutex
	states map[string]*State
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{states: make(map[string]*State)}
}

// Load implements Repository.
func (r *MemoryRepository) Load(ctx context.Context, personalityID string) (*State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s, ok := r.states[personalityID]; ok {
		return s.Clone(), nil
	}
	return NewState(), nil
}

// Save implements Repository with compare-and-swap semantics.
func (r *MemoryRepository) Save(ctx context.Context, personalityID string, state *State, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.states[personalityID]
	switch {
	case !ok && expectedVersion != 0:
		return ErrVersionConflict
	case ok && current.Version != expectedVersion:
		return ErrVersionConflict
	}

	r.states[personalityID] = state.Clone()
	return nil
}
