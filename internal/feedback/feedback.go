/*
Package feedback models user corrections and applies them to the attention
state as discrete, step-wise online learning.

Feedback rows are grouped by conversational turn. A `correct` row penalizes
whatever the invocation trail shows was actually selected (its threshold is
raised, making re-selection harder) and rewards the intended target named by
the correction (its threshold is lowered). `confirm` reinforces, `deny`
penalizes, the called tools' success rates. Each row is applied once per
training run; the data model carries no deduplication marker, so re-running
a turn compounds the adjustments.
*/
package feedback

import (
	"context"
	"fmt"
	"time"
)

// ComponentDispatcher tags feedback aimed at the semantic dispatcher.
const ComponentDispatcher = "dispatcher"

// Action is the kind of feedback a user gave.
type Action string

const (
	// ActionConfirm: the selection was right.
	ActionConfirm Action = "confirm"

	// ActionDeny: the selection was wrong; no alternative is known.
	ActionDeny Action = "deny"

	// ActionCorrect: the selection was wrong and the correction names the
	// intended target.
	ActionCorrect Action = "correct"
)

// Correction is the typed correction payload, constructed once at the system
// boundary. A correction may name a namespace, a tool, or both; an empty
// value is the unspecified correction.
type Correction struct {
	// Namespace is the intended namespace, if named.
	Namespace string `json:"namespace,omitempty"`

	// Tool is the intended tool full name, if named.
	Tool string `json:"tool,omitempty"`
}

// IsZero reports whether the correction names no target.
func (c Correction) IsZero() bool { return c.Namespace == "" && c.Tool == "" }

// Feedback is one user feedback row tied to an invocation and its turn.
type Feedback struct {
	// ID uniquely identifies the row.
	ID string `json:"id"`

	// InvocationID references the invocation being judged.
	InvocationID string `json:"invocationId"`

	// TurnID groups every invocation of one conversational exchange.
	TurnID string `json:"turnId"`

	// Component tags which component the feedback addresses.
	Component string `json:"component"`

	// Action is confirm, deny, or correct.
	Action Action `json:"action"`

	// Correction is the structured correction for correct rows.
	Correction Correction `json:"correction,omitempty"`

	// Reason is an optional free-text explanation.
	Reason string `json:"reason,omitempty"`

	// CreatedAt is the row timestamp.
	CreatedAt time.Time `json:"createdAt"`
}

// Validate checks structural invariants before a row enters the store.
func (f *Feedback) Validate() error {
	switch f.Action {
	case ActionConfirm, ActionDeny:
	case ActionCorrect:
		if f.Correction.IsZero() {
			return fmt.Errorf("correct feedback %q names no target", f.ID)
		}
	default:
		return fmt.Errorf("unknown feedback action %q", f.Action)
	}
	if f.InvocationID == "" {
		return fmt.Errorf("feedback %q has no invocation reference", f.ID)
	}
	return nil
}

// Repository persists feedback rows. Rows are retained indefinitely for
// analytics.
type Repository interface {
	// Save persists a feedback row.
	Save(ctx context.Context, f *Feedback) error

	// FindByTurnAndComponent returns the rows for a turn and component in
	// creation order.
	FindByTurnAndComponent(ctx context.Context, turnID, component string) ([]*Feedback, error)
}
