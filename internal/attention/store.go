package attention

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// ErrVersionConflict is returned when an optimistic write loses the race: the
// stored version no longer matches the version the caller read.
var ErrVersionConflict = errors.New("attention: state version conflict")

// Repository persists attention state per personality.
type Repository interface {
	// Load returns the stored state for a personality. Implementations
	// return a fresh zero-version state when none has been persisted yet.
	Load(ctx context.Context, personalityID string) (*State, error)

	// Save writes the state if and only if the stored version still equals
	// expectedVersion. On mismatch it returns ErrVersionConflict and leaves
	// the stored state untouched.
	Save(ctx context.Context, personalityID string, state *State, expectedVersion int64) error
}

// Store wraps a Repository with the read-modify-compare-and-swap cycle every
// mutation must go through. A bounded number of retries absorbs benign races;
// persistent conflicts surface as ErrVersionConflict.
type Store struct {
	repo       Repository
	maxRetries int
	logger     *zap.Logger
}

// NewStore creates a store over the given repository.
func NewStore(repo Repository, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{repo: repo, maxRetries: 3, logger: logger}
}

// Get returns the current state for a personality.
func (st *Store) Get(ctx context.Context, personalityID string) (*State, error) {
	return st.repo.Load(ctx, personalityID)
}

// Apply loads the current state, applies mutate to a clone, and writes the
// result back under the optimistic version check. The whole mutation batch
// lands in a single write, so concurrent trainers cannot interleave partial
// updates. Returns the persisted state.
func (st *Store) Apply(ctx context.Context, personalityID string, mutate func(*State)) (*State, error) {
	var lastErr error
	for attempt := 0; attempt <= st.maxRetries; attempt++ {
		current, err := st.repo.Load(ctx, personalityID)
		if err != nil {
			return nil, fmt.Errorf("load attention state: %w", err)
		}

		next := current.Clone()
		mutate(next)
		expected := current.Version
		next.Version = expected + 1

		err = st.repo.Save(ctx, personalityID, next, expected)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, ErrVersionConflict) {
			return nil, fmt.Errorf("save attention state: %w", err)
		}

		lastErr = err
		st.logger.Warn("attention write conflict, retrying",
			zap.String("personality", personalityID),
			zap.Int("attempt", attempt+1),
		)
	}
	return nil, lastErr
}

// RaiseThreshold raises one threshold through a compare-and-swap write.
func (st *Store) RaiseThreshold(ctx context.Context, personalityID, name string) error {
	_, err := st.Apply(ctx, personalityID, func(s *State) { s.RaiseThreshold(name) })
	return err
}

// LowerThreshold lowers one threshold through a compare-and-swap write.
func (st *Store) LowerThreshold(ctx context.Context, personalityID, name string) error {
	_, err := st.Apply(ctx, personalityID, func(s *State) { s.LowerThreshold(name) })
	return err
}

// SetSuccessRate stores a tool success rate through a compare-and-swap write.
func (st *Store) SetSuccessRate(ctx context.Context, personalityID, tool string, value float64) error {
	_, err := st.Apply(ctx, personalityID, func(s *State) { s.SetSuccessRate(tool, value) })
	return err
}

// SetKeywordWeight stores a keyword boost override through a compare-and-swap
// write.
func (st *Store) SetKeywordWeight(ctx context.Context, personalityID, tool, keyword string, weight float64) error {
	_, err := st.Apply(ctx, personalityID, func(s *State) { s.SetKeywordWeight(tool, keyword, weight) })
	return err
}
