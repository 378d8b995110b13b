package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SaveInvocation inserts an invocation record blob. Invocations are
// append-only; inserting an existing id fails with ErrDuplicate.
func (s *Store) SaveInvocation(id, correlationID, personalityID, errorType string, record []byte, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT INTO invocations (id, correlation_id, personality_id, error_type, record, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		id, correlationID, personalityID, errorType, string(record), createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert invocation: %w", err)
	}
	return nil
}

// GetInvocation returns the record blob for an invocation id, or nil.
func (s *Store) GetInvocation(id string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row := s.db.QueryRow("SELECT record FROM invocations WHERE id = ?", id)

	var record string
	if err := row.Scan(&record); err != nil {
		if isNoRows(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load invocation: %w", err)
	}
	return []byte(record), nil
}

// ListInvocationsByCorrelation returns record blobs for a correlation id in
// creation order.
func (s *Store) ListInvocationsByCorrelation(correlationID string) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		"SELECT record FROM invocations WHERE correlation_id = ? ORDER BY created_at ASC",
		correlationID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query invocations: %w", err)
	}
	defer rows.Close()

	return collectBlobs(rows)
}

// SaveFeedback inserts a feedback row blob.
func (s *Store) SaveFeedback(id, invocationID, turnID, component, action string, payload []byte, createdAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT INTO feedback (id, invocation_id, turn_id, component, action, payload, created_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
		id, invocationID, turnID, component, action, string(payload), createdAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to insert feedback: %w", err)
	}
	return nil
}

// ListFeedbackByTurn returns feedback payload blobs for a turn and component
// in creation order.
func (s *Store) ListFeedbackByTurn(turnID, component string) ([][]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		"SELECT payload FROM feedback WHERE turn_id = ? AND component = ? ORDER BY created_at ASC",
		turnID, component,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query feedback: %w", err)
	}
	defer rows.Close()

	return collectBlobs(rows)
}

func collectBlobs(rows *sql.Rows) ([][]byte, error) {
	var out [][]byte
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}
		out = append(out, []byte(blob))
	}
	return out, rows.Err()
}

func isNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// isConstraintViolation detects primary-key violations without depending on
// driver-specific error types.
func isConstraintViolation(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "constraint")
}
