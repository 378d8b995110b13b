package storage

import "fmt"

// LoadAttention returns the stored attention state blob and version for a
// personality. A personality without stored state returns (nil, 0, nil).
func (s *Store) LoadAttention(personalityID string) ([]byte, int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow(
		"SELECT state, version FROM attention_state WHERE personality_id = ?",
		personalityID,
	)

	var state string
	var version int64
	if err := row.Scan(&state, &version); err != nil {
		if isNoRows(err) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("failed to load attention state: %w", err)
	}
	return []byte(state), version, nil
}

// SaveAttention writes the state blob if and only if the stored version still
// equals expectedVersion. The first write for a personality must pass
// expectedVersion 0.
func (s *Store) SaveAttention(personalityID string, state []byte, version, expectedVersion int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if expectedVersion == 0 {
		res, err := s.db.Exec(
			"INSERT OR IGNORE INTO attention_state (personality_id, state, version) VALUES (?, ?, ?)",
			personalityID, string(state), version,
		)
		if err != nil {
			return fmt.Errorf("failed to insert attention state: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrVersionConflict
		}
		return nil
	}

	res, err := s.db.Exec(
		"UPDATE attention_state SET state = ?, version = ? WHERE personality_id = ? AND version = ?",
		string(state), version, personalityID, expectedVersion,
	)
	if err != nil {
		return fmt.Errorf("failed to update attention state: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrVersionConflict
	}
	return nil
}
