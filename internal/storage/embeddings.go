package storage

import (
	"encoding/json"
	"fmt"
	"time"
)

// SaveEmbedding caches an embedding vector under an owner key.
func (s *Store) SaveEmbedding(owner string, vector []float32, version string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	vectorJSON, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("failed to marshal vector: %w", err)
	}

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO embedding_cache (owner, vector, version, created_at) VALUES (?, ?, ?, ?)",
		owner, string(vectorJSON), version, time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save embedding: %w", err)
	}
	return nil
}

// GetEmbedding retrieves a cached embedding and its model version. A cache
// miss returns (nil, "", nil).
func (s *Store) GetEmbedding(owner string) ([]float32, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow("SELECT vector, version FROM embedding_cache WHERE owner = ?", owner)

	var vectorJSON, version string
	if err := row.Scan(&vectorJSON, &version); err != nil {
		if isNoRows(err) {
			return nil, "", nil
		}
		return nil, "", fmt.Errorf("failed to load embedding: %w", err)
	}

	var vector []float32
	if err := json.Unmarshal([]byte(vectorJSON), &vector); err != nil {
		return nil, "", fmt.Errorf("failed to parse embedding vector: %w", err)
	}
	return vector, version, nil
}
