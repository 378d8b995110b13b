package feedback

import (
	"context"
	"sync"
)

// MemoryRepository is an in-memory Repository for tests and ephemeral runs.
type MemoryRepository struct {
	mu   sync.RWMutex
	rows []*Feedback
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

// Save implements Repository.
func (r *MemoryRepository) Save(ctx context.Context, f *Feedback) error {
	if err := f.Validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.rows = append(r.rows, f)
	return nil
}

// FindByTurnAndComponent implements Repository.
func (r *MemoryRepository) FindByTurnAndComponent(ctx context.Context, turnID, component string) ([]*Feedback, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []*Feedback
	for _, f := range r.rows {
		if f.TurnID == turnID && f.Component == component {
			out = append(out, f)
		}
	}
	return out, nil
}
