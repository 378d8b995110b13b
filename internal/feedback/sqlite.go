package feedback

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/khanglvm/intent-hub/internal/storage"
)

// SQLRepository persists feedback rows through the storage layer.
type SQLRepository struct {
	store *storage.Store
}

// NewSQLRepository creates a repository over the given store.
func NewSQLRepository(store *storage.Store) *SQLRepository {
	return &SQLRepository{store: store}
}

// Save implements Repository.
func (r *SQLRepository) Save(ctx context.Context, f *Feedback) error {
	if err := f.Validate(); err != nil {
		return err
	}

	payload, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal feedback: %w", err)
	}
	return r.store.SaveFeedback(f.ID, f.InvocationID, f.TurnID, f.Component, string(f.Action), payload, f.CreatedAt)
}

// FindByTurnAndComponent implements Repository.
func (r *SQLRepository) FindByTurnAndComponent(ctx context.Context, turnID, component string) ([]*Feedback, error) {
	blobs, err := r.store.ListFeedbackByTurn(turnID, component)
	if err != nil {
		return nil, err
	}

	out := make([]*Feedback, 0, len(blobs))
	for _, blob := range blobs {
		var f Feedback
		if err := json.Unmarshal(blob, &f); err != nil {
			return nil, fmt.Errorf("corrupt feedback row: %w", err)
		}
		out = append(out, &f)
	}
	return out, nil
}
