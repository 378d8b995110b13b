/*
Package dispatcher ties the pipeline together: event validation, embedding,
the decision engine, the orchestration loop, and the invocation recorder.

Every code path, including every failure kind, returns the same well-formed
Result shape; callers never see a raw fault. Selection non-matches
(no_namespace, no_tools) are expected business outcomes and are reported
with HasError=false, while validation and execution failures set HasError.
*/
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/khanglvm/intent-hub/internal/embedding"
	"github.com/khanglvm/intent-hub/internal/engine"
	"github.com/khanglvm/intent-hub/internal/invocation"
	"github.com/khanglvm/intent-hub/internal/orchestrator"
	"github.com/khanglvm/intent-hub/internal/reasoning"
	"github.com/khanglvm/intent-hub/internal/registry"
)

// Result error types. Selection non-matches are not errors but still carry
// their type so downstream consumers read one field for every path.
const (
	ErrorTypeEmptyInput       = "empty_input"
	ErrorTypeNoPersonality    = "no_personality"
	ErrorTypeNoNamespace      = "no_namespace"
	ErrorTypeNoTools          = "no_tools"
	ErrorTypeLLMTimeout       = "llm_timeout"
	ErrorTypeLLMError         = "llm_error"
	ErrorTypeMaxTurnsExceeded = "max_turns_exceeded"
	ErrorTypeUnknown          = "unknown_error"
)

// Event is an incoming natural-language event.
type Event struct {
	// CorrelationID is an opaque request identifier. A missing id is
	// replaced with a generated one so the trail stays queryable.
	CorrelationID string `json:"correlationId"`

	// Source names the transport or producer.
	Source string `json:"source"`

	// Payload carries at least a "transcription" string.
	Payload map[string]any `json:"payload"`
}

// Transcription extracts the transcription string from the payload.
func (e Event) Transcription() string {
	if e.Payload == nil {
		return ""
	}
	s, _ := e.Payload["transcription"].(string)
	return s
}

// Result is the uniform contract returned to the wider pipeline.
type Result struct {
	// HasError reports validation or execution failure. Selection
	// non-matches leave it false.
	HasError bool `json:"hasError"`

	// ErrorType is one of the ErrorType constants, empty on success.
	ErrorType string `json:"errorType,omitempty"`

	// SelectedNamespace is the chosen namespace, if any.
	SelectedNamespace string `json:"selectedNamespace,omitempty"`

	// ToolCalls lists the calls the reasoning service made.
	ToolCalls []reasoning.ToolCall `json:"toolCalls"`

	// Confidence is the mean combined score of the called tools; 0.0
	// whenever ToolCalls is empty.
	Confidence float64 `json:"confidence"`

	// InvocationID references the audit record for this event.
	InvocationID string `json:"invocationId,omitempty"`

	// FinalText is the final answer text, if one was produced.
	FinalText string `json:"finalText,omitempty"`

	// Turns is the number of reasoning round trips consumed.
	Turns int `json:"turns"`
}

// Dispatcher processes events end to end. All collaborators are injected;
// the dispatcher holds no global state and is safe for concurrent use across
// independent events.
type Dispatcher struct {
	embedder      embedding.Provider
	engine        *engine.Engine
	loop          *orchestrator.Loop
	recorder      *invocation.Recorder
	personalities registry.PersonalityRepository
	logger        *zap.Logger
}

// New creates a dispatcher.
func New(
	embedder embedding.Provider,
	eng *engine.Engine,
	loop *orchestrator.Loop,
	recorder *invocation.Recorder,
	personalities registry.PersonalityRepository,
	logger *zap.Logger,
) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		embedder:      embedder,
		engine:        eng,
		loop:          loop,
		recorder:      recorder,
		personalities: personalities,
		logger:        logger,
	}
}

// Dispatch processes one event and always returns a well-formed Result. The
// invocation record is persisted before returning on every path that reaches
// scoring, and a minimal record is written even for validation failures.
func (d *Dispatcher) Dispatch(ctx context.Context, ev Event) (result *Result) {
	started := time.Now()
	if ev.CorrelationID == "" {
		ev.CorrelationID = uuid.NewString()
	}

	// Registered first so it also normalizes the recover path's result.
	defer func() {
		if result != nil && result.ToolCalls == nil {
			result.ToolCalls = []reasoning.ToolCall{}
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatch panicked",
				zap.String("correlation_id", ev.CorrelationID),
				zap.Any("recover", r),
			)
			result = &Result{HasError: true, ErrorType: ErrorTypeUnknown}
		}
	}()

	transcription := ev.Transcription()
	if transcription == "" {
		return d.failFast(ctx, ev, "", started, ErrorTypeEmptyInput)
	}

	personality, err := d.personalities.GetActive(ctx)
	if err != nil || personality == nil {
		return d.failFast(ctx, ev, "", started, ErrorTypeNoPersonality)
	}

	eventVec, err := d.embedder.Generate(ctx, transcription)
	if err != nil {
		d.logger.Error("embedding failed",
			zap.String("correlation_id", ev.CorrelationID),
			zap.Error(err),
		)
		return d.failFast(ctx, ev, personality.ID, started, ErrorTypeUnknown)
	}

	dec, err := d.engine.Decide(ctx, transcription, eventVec, personality.Attention)
	if err != nil {
		d.logger.Error("decision failed",
			zap.String("correlation_id", ev.CorrelationID),
			zap.Error(err),
		)
		return d.failFast(ctx, ev, personality.ID, started, ErrorTypeUnknown)
	}

	draft := invocation.Draft{
		CorrelationID:  ev.CorrelationID,
		PersonalityID:  personality.ID,
		EventEmbedding: eventVec,
		Decision:       dec,
		Started:        started,
	}

	switch dec.Outcome {
	case engine.OutcomeNoNamespace:
		draft.ErrorType = ErrorTypeNoNamespace
		inv := d.record(ctx, draft)
		return &Result{ErrorType: ErrorTypeNoNamespace, InvocationID: invID(inv)}

	case engine.OutcomeNoTools:
		draft.ErrorType = ErrorTypeNoTools
		inv := d.record(ctx, draft)
		return &Result{
			ErrorType:         ErrorTypeNoTools,
			SelectedNamespace: dec.Selected.Name,
			InvocationID:      invID(inv),
		}
	}

	loopResult := d.loop.Run(ctx, transcription, toolDefinitions(dec))
	stampConfidence(loopResult, dec.ToolScores)

	draft.ToolsCalled = calledToolNames(loopResult.ToolCalls)
	draft.ToolResults = loopResult.ToolResults
	draft.Turns = loopResult.Turns
	draft.ErrorType = string(loopResult.Failure)
	inv := d.record(ctx, draft)

	result = &Result{
		SelectedNamespace: dec.Selected.Name,
		ToolCalls:         loopResult.ToolCalls,
		FinalText:         loopResult.FinalText,
		Turns:             loopResult.Turns,
		InvocationID:      invID(inv),
	}
	if loopResult.Failure != orchestrator.FailureNone {
		result.HasError = true
		result.ErrorType = string(loopResult.Failure)
	}
	if len(result.ToolCalls) > 0 && inv != nil {
		result.Confidence = inv.Confidence
	}

	d.logger.Info("event dispatched",
		zap.String("correlation_id", ev.CorrelationID),
		zap.String("namespace", result.SelectedNamespace),
		zap.Int("tool_calls", len(result.ToolCalls)),
		zap.Int("tool_failures", len(loopResult.FailedToolResults())),
		zap.Float64("confidence", result.Confidence),
		zap.String("error_type", result.ErrorType),
		zap.Duration("latency", time.Since(started)),
	)
	return result
}

// failFast records a minimal invocation for pre-scoring failures and returns
// the matching result.
func (d *Dispatcher) failFast(ctx context.Context, ev Event, personalityID string, started time.Time, errorType string) *Result {
	inv := d.record(ctx, invocation.Draft{
		CorrelationID: ev.CorrelationID,
		PersonalityID: personalityID,
		ErrorType:     errorType,
		Started:       started,
	})
	return &Result{HasError: true, ErrorType: errorType, InvocationID: invID(inv)}
}

// record persists the invocation trail; a persistence failure is logged but
// never masks the dispatch outcome.
func (d *Dispatcher) record(ctx context.Context, draft invocation.Draft) *invocation.Invocation {
	inv, err := d.recorder.Record(ctx, draft)
	if err != nil {
		d.logger.Error("failed to record invocation",
			zap.String("correlation_id", draft.CorrelationID),
			zap.Error(err),
		)
		return nil
	}
	return inv
}

func invID(inv *invocation.Invocation) string {
	if inv == nil {
		return ""
	}
	return inv.ID
}

// toolDefinitions converts the decision's eligible tools, in rank order, to
// the reasoning service's tool definition shape.
func toolDefinitions(dec *engine.Decision) []reasoning.ToolDefinition {
	defs := make([]reasoning.ToolDefinition, len(dec.Eligible))
	for i, st := range dec.Eligible {
		defs[i] = reasoning.ToolDefinition{
			Name:        st.Tool.FullName(),
			Description: st.Tool.Description,
			Parameters:  st.Tool.Parameters,
		}
	}
	return defs
}

// stampConfidence annotates the loop's calls and results with each tool's
// combined selection score, so failed calls carry the confidence at failure
// time into the audit trail and the result contract.
func stampConfidence(lr *orchestrator.Result, scores map[string]float64) {
	for i := range lr.ToolCalls {
		lr.ToolCalls[i].Confidence = scores[lr.ToolCalls[i].Name]
	}
	for i := range lr.ToolResults {
		lr.ToolResults[i].Confidence = scores[lr.ToolResults[i].ToolName]
	}
}

// calledToolNames deduplicates the called tools preserving first-call order.
func calledToolNames(calls []reasoning.ToolCall) []string {
	seen := make(map[string]bool, len(calls))
	var out []string
	for _, c := range calls {
		if !seen[c.Name] {
			seen[c.Name] = true
			out = append(out, c.Name)
		}
	}
	return out
}

// Describe returns a short human-readable summary of a result, used by the
// CLI's plain output mode.
func (r *Result) Describe() string {
	switch {
	case r.ErrorType == "" && r.FinalText != "":
		return r.FinalText
	case r.ErrorType == "":
		return fmt.Sprintf("dispatched to %s (%d tool calls)", r.SelectedNamespace, len(r.ToolCalls))
	default:
		return fmt.Sprintf("dispatch ended with %s", r.ErrorType)
	}
}
