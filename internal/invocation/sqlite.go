package invocation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/khanglvm/intent-hub/internal/storage"
)

// SQLRepository persists invocations through the storage layer.
type SQLRepository struct {
	store *storage.Store
}

// NewSQLRepository creates a repository over the given store.
func NewSQLRepository(store *storage.Store) *SQLRepository {
	return &SQLRepository{store: store}
}

// Save implements Repository.
func (r *SQLRepository) Save(ctx context.Context, inv *Invocation) error {
	record, err := json.Marshal(inv)
	if err != nil {
		return fmt.Errorf("marshal invocation: %w", err)
	}

	err = r.store.SaveInvocation(inv.ID, inv.CorrelationID, inv.PersonalityID, inv.ErrorType, record, inv.CreatedAt)
	if errors.Is(err, storage.ErrDuplicate) {
		return fmt.Errorf("invocation %q already recorded", inv.ID)
	}
	return err
}

// FindByID implements Repository.
func (r *SQLRepository) FindByID(ctx context.Context, id string) (*Invocation, error) {
	blob, err := r.store.GetInvocation(id)
	if err != nil {
		return nil, err
	}
	if blob == nil {
		return nil, nil
	}
	return unmarshalInvocation(blob)
}

// FindByCorrelationID implements Repository.
func (r *SQLRepository) FindByCorrelationID(ctx context.Context, correlationID string) ([]*Invocation, error) {
	blobs, err := r.store.ListInvocationsByCorrelation(correlationID)
	if err != nil {
		return nil, err
	}

	out := make([]*Invocation, 0, len(blobs))
	for _, blob := range blobs {
		inv, err := unmarshalInvocation(blob)
		if err != nil {
			return nil, err
		}
		out = append(out, inv)
	}
	return out, nil
}

func unmarshalInvocation(blob []byte) (*Invocation, error) {
	var inv Invocation
	if err := json.Unmarshal(blob, &inv); err != nil {
		return nil, fmt.Errorf("corrupt invocation record: %w", err)
	}
	return &inv, nil
}
