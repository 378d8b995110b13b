/*
Package invocation builds and persists the decision audit trail.

One Invocation is recorded per processed event regardless of outcome, and is
persisted synchronously before the dispatcher returns, so even execution
failures leave a trail. Records are append-only: nothing mutates an
Invocation after the orchestration completes. Training reads this trail to
find out what was actually selected; analysis and centroid re-training read
the full score maps, which always cover every candidate considered.
*/
package invocation

import (
	"context"
	"time"
)

// Invocation is the immutable audit record of one dispatched event.
type Invocation struct {
	// ID uniquely identifies this record.
	ID string `json:"id"`

	// CorrelationID is the opaque request identifier from the event.
	CorrelationID string `json:"correlationId"`

	// PersonalityID references the personality whose attention state was
	// consulted.
	PersonalityID string `json:"personalityId"`

	// EventEmbedding is the event's embedding vector.
	EventEmbedding []float32 `json:"eventEmbedding,omitempty"`

	// NamespaceScores maps every considered namespace to its similarity.
	NamespaceScores map[string]float64 `json:"namespaceScores,omitempty"`

	// SelectedNamespace is the chosen namespace, or empty when none was
	// eligible.
	SelectedNamespace string `json:"selectedNamespace,omitempty"`

	// ToolScores maps every considered tool full name to its combined score.
	ToolScores map[string]float64 `json:"toolScores,omitempty"`

	// ToolsPassed lists tools handed to the reasoning service, rank order.
	ToolsPassed []string `json:"toolsPassed,omitempty"`

	// ToolsFiltered lists tools that fell below the selection threshold.
	ToolsFiltered []string `json:"toolsFiltered,omitempty"`

	// ToolsCalled lists tools the reasoning service actually called.
	ToolsCalled []string `json:"toolsCalled,omitempty"`

	// ToolFailures lists the typed per-call failures that occurred during
	// the orchestration, carrying the affected slot and the confidence at
	// failure time. The feedback trainer reads these as learning signals.
	ToolFailures []ToolFailure `json:"toolFailures,omitempty"`

	// Confidence is the record confidence: the mean combined score of the
	// tools actually called, the selected namespace's similarity when no
	// tool was called, or 0.0 when no namespace was selected.
	Confidence float64 `json:"confidence"`

	// ContextItemCount is the number of context items (tool definitions)
	// provided to the reasoning service.
	ContextItemCount int `json:"contextItemCount"`

	// LatencyMS is the end-to-end processing latency in milliseconds.
	LatencyMS int64 `json:"latencyMs"`

	// ErrorType is the result error kind, populated uniformly for every
	// non-success path including the selection non-matches no_namespace and
	// no_tools. Empty means success.
	ErrorType string `json:"errorType,omitempty"`

	// Turns is the number of reasoning round trips consumed.
	Turns int `json:"turns"`

	// CreatedAt is the record timestamp.
	CreatedAt time.Time `json:"createdAt"`
}

// ToolFailure is one failed tool call preserved on the audit record.
type ToolFailure struct {
	// CallID is the id of the failed call.
	CallID string `json:"callId"`

	// Tool is the tool's full name.
	Tool string `json:"tool"`

	// Kind classifies the failure.
	Kind string `json:"kind"`

	// Slot names the affected parameter for slot-related kinds.
	Slot string `json:"slot,omitempty"`

	// Message is the failure detail string.
	Message string `json:"message,omitempty"`

	// Confidence is the tool's combined score at failure time.
	Confidence float64 `json:"confidence"`
}

// Repository persists invocations. Save is insert-only.
type Repository interface {
	// Save persists a new record. Saving an already-stored ID is an error.
	Save(ctx context.Context, inv *Invocation) error

	// FindByID returns the record with the given ID, or nil.
	FindByID(ctx context.Context, id string) (*Invocation, error)

	// FindByCorrelationID returns every record for a correlation id in
	// creation order.
	FindByCorrelationID(ctx context.Context, correlationID string) ([]*Invocation, error)
}
