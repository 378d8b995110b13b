package attention

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/khanglvm/intent-hub/internal/storage"
)

// SQLRepository persists attention state through the storage layer.
type SQLRepository struct {
	store *storage.Store
}

// NewSQLRepository creates a repository over the given store.
func NewSQLRepository(store *storage.Store) *SQLRepository {
	return &SQLRepository{store: store}
}

// Load implements Repository.
func (r *SQLRepository) Load(ctx context.Context, personalityID string) (*State, error) {
	blob, version, err := r.store.LoadAttention(personalityID)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return NewState(), nil
	}

	state := NewState()
	if err := json.Unmarshal(blob, state); err != nil {
		return nil, fmt.Errorf("corrupt attention state for %q: %w", personalityID, err)
	}
	state.Version = version
	return state, nil
}

// Save implements Repository, mapping the storage-level version check to
// ErrVersionConflict.
func (r *SQLRepository) Save(ctx context.Context, personalityID string, state *State, expectedVersion int64) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshal attention state: %w", err)
	}

	err = r.store.SaveAttention(personalityID, blob, state.Version, expectedVersion)
	if errors.Is(err, storage.ErrVersionConflict) {
		return ErrVersionConflict
	}
	return err
}
