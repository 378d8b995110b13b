/*
Package toolexec executes the tool calls requested by the reasoning service.

Every call produces exactly one Result carrying either a data payload or a
typed failure. Failures never abort the orchestration loop: they are fed back
into the conversation so the model can retry, and they double as learning
signals for the feedback trainer.

Sibling calls from one loop turn are dispatched concurrently with a bounded
worker limit; results are reattached to their call id, never by position.
A call that has been dispatched always runs to completion, even when the
surrounding request is cancelled.
*/
package toolexec

import "fmt"

// FailureKind classifies per-call tool failures.
type FailureKind string

const (
	// FailureToolNotFound: the call named a tool no executor knows.
	FailureToolNotFound FailureKind = "toolNotFound"

	// FailureRequiredSlotMissing: a required parameter was absent or null.
	FailureRequiredSlotMissing FailureKind = "requiredSlotMissing"

	// FailureInvalidSlotFormat: a parameter failed schema validation.
	FailureInvalidSlotFormat FailureKind = "invalidSlotFormat"

	// FailureAmbiguousEntity: a referenced entity matched more than once.
	FailureAmbiguousEntity FailureKind = "ambiguousEntity"

	// FailureEntityNotFound: a referenced entity does not exist.
	FailureEntityNotFound FailureKind = "entityNotFound"

	// FailureToolReturnedFailure: the tool itself reported an error.
	FailureToolReturnedFailure FailureKind = "toolReturnedFailure"
)

// Failure is a typed per-call failure. Handlers may return *Failure directly
// to surface domain failures such as ambiguous or missing entities.
type Failure struct {
	// Kind classifies the failure.
	Kind FailureKind `json:"kind"`

	// Slot names the affected parameter for slot-related kinds.
	Slot string `json:"slot,omitempty"`

	// Message is a human-readable detail string.
	Message string `json:"message"`
}

// Error implements the error interface.
func (f *Failure) Error() string {
	if f.Slot != "" {
		return fmt.Sprintf("%s (slot %q): %s", f.Kind, f.Slot, f.Message)
	}
	return fmt.Sprintf("%s: %s", f.Kind, f.Message)
}

// NewFailure constructs a Failure with the given kind and message.
func NewFailure(kind FailureKind, message string) *Failure {
	return &Failure{Kind: kind, Message: message}
}

// Result is the outcome of a single tool call.
type Result struct {
	// CallID is the id of the call this result answers.
	CallID string `json:"callId"`

	// ToolName is the tool's full name.
	ToolName string `json:"toolName"`

	// Success reports whether the call produced a data payload.
	Success bool `json:"success"`

	// Data is the tool's payload on success.
	Data any `json:"data,omitempty"`

	// Failure carries the typed failure on non-success.
	Failure *Failure `json:"failure,omitempty"`

	// Confidence is the call's selection score, carried over from the call
	// so failure signals keep the confidence at failure time.
	Confidence float64 `json:"confidence,omitempty"`
}
