package invocation

import (
	"context"
	"fmt"
	"sync"
)

// MemoryRepository is an in-memory Repository for tests and ephemeral runs.
type MemoryRepository struct {
	mu      sync.RWMutex
	byID    map[string]*Invocation
	ordered []*Invocation
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{byID: make(map[string]*Invocation)}
}

// Save implements Repository.
func (r *MemoryRepository) Save(ctx context.Context, inv *Invocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.byID[inv.ID]; exists {
		return fmt.Errorf("invocation %q already recorded", inv.ID)
	}
	r.byID[inv.ID] = inv
	r.ordered = append(r.ordered, inv)
	return nil
}

// FindByID implements Repository.
func (r *MemoryRepository) FindByID(ctx context.Context, id string) (*Invocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byID[id], nil
}

// FindByCorrelationID implements Repository.
func (r *MemoryRepository) FindByCorrelationID(ctx context.Context, correlationID string) ([]*Invocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Invocation
	for _, inv := range r.ordered {
		if inv.CorrelationID == correlationID {
			out = append(out, inv)
		}
	}
	return out, nil
}
