/*
Package orchestrator drives the bounded tool-calling loop against the
reasoning service.

The loop is a small state machine: while the service keeps requesting tool
calls, the calls are dispatched, their results appended to the conversation
history, and another turn begins. A reply without tool calls is the final
answer. The loop fails with max_turns_exceeded when the turn budget runs out,
or immediately with llm_timeout / llm_error when the service round trip
itself fails. Cancellation is observed between turns only; in-flight tool
calls always run to completion.
*/
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/khanglvm/intent-hub/internal/reasoning"
	"github.com/khanglvm/intent-hub/internal/toolexec"
)

// DefaultMaxTurns is the default reasoning round-trip budget per event.
const DefaultMaxTurns = 3

// FailureKind classifies loop-level failures.
type FailureKind string

const (
	// FailureNone means the loop succeeded.
	FailureNone FailureKind = ""

	// FailureMaxTurnsExceeded: the turn budget ran out before a final
	// answer was produced.
	FailureMaxTurnsExceeded FailureKind = "max_turns_exceeded"

	// FailureLLMTimeout: the reasoning service round trip timed out.
	FailureLLMTimeout FailureKind = "llm_timeout"

	// FailureLLMError: the reasoning service failed for any other reason.
	FailureLLMError FailureKind = "llm_error"
)

// Result is the loop's outcome.
type Result struct {
	// Success reports whether a final text answer was produced.
	Success bool

	// FinalText is the model's final answer on success.
	FinalText string

	// ToolCalls lists every call the model requested, in request order.
	ToolCalls []reasoning.ToolCall

	// ToolResults lists every call result, aligned with ToolCalls.
	ToolResults []toolexec.Result

	// Turns is the number of completed reasoning round trips. On
	// max_turns_exceeded it equals the configured maximum exactly.
	Turns int

	// Failure classifies the failure, if any.
	Failure FailureKind

	// TokensUsed accumulates reported token usage across turns.
	TokensUsed int
}

// FailedToolResults returns the results that carry a typed failure. These are
// the loop's contribution to the feedback trainer's input stream.
func (r *Result) FailedToolResults() []toolexec.Result {
	var out []toolexec.Result
	for _, res := range r.ToolResults {
		if !res.Success {
			out = append(out, res)
		}
	}
	return out
}

// Options configure a Loop.
type Options struct {
	MaxTurns    int
	Model       string
	Temperature float64
	MaxTokens   int
}

// Loop runs the bounded tool-calling cycle.
type Loop struct {
	reasoner reasoning.Service
	executor toolexec.Executor
	opts     Options
	logger   *zap.Logger
}

// NewLoop creates a loop over the given reasoning service and tool executor.
func NewLoop(reasoner reasoning.Service, executor toolexec.Executor, logger *zap.Logger, optFns ...func(o *Options)) *Loop {
	opts := Options{
		MaxTurns:    DefaultMaxTurns,
		Temperature: 0.2,
		MaxTokens:   1024,
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.MaxTurns <= 0 {
		opts.MaxTurns = DefaultMaxTurns
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loop{reasoner: reasoner, executor: executor, opts: opts, logger: logger}
}

// Run executes the loop for one event transcription with the given eligible
// tool definitions.
func (l *Loop) Run(ctx context.Context, transcription string, tools []reasoning.ToolDefinition) *Result {
	result := &Result{}
	messages := []reasoning.Message{
		{Role: reasoning.RoleUser, Content: transcription},
	}

	for turn := 1; turn <= l.opts.MaxTurns; turn++ {
		start := time.Now()
		resp, err := l.reasoner.Converse(ctx, reasoning.Request{
			Model:       l.opts.Model,
			Messages:    messages,
			Tools:       tools,
			Temperature: l.opts.Temperature,
			MaxTokens:   l.opts.MaxTokens,
		})
		if err != nil {
			result.Turns = turn - 1
			result.Failure = classifyServiceError(err)
			l.logger.Warn("reasoning round trip failed",
				zap.Int("turn", turn),
				zap.String("failure", string(result.Failure)),
				zap.Error(err),
			)
			return result
		}

		result.TokensUsed += resp.TokensUsed
		l.logger.Debug("reasoning turn complete",
			zap.Int("turn", turn),
			zap.Int("tool_calls", len(resp.ToolCalls)),
			zap.Duration("latency", time.Since(start)),
		)

		if len(resp.ToolCalls) == 0 {
			result.Success = true
			result.FinalText = resp.Content
			result.Turns = turn
			return result
		}

		toolResults := l.executor.ExecuteToolCalls(ctx, resp.ToolCalls)
		result.ToolCalls = append(result.ToolCalls, resp.ToolCalls...)
		result.ToolResults = append(result.ToolResults, toolResults...)

		messages = append(messages, reasoning.Message{
			Role:      reasoning.RoleAssistant,
			Content:   resp.Content,
			ToolCalls: resp.ToolCalls,
		})
		for _, tr := range toolResults {
			messages = append(messages, reasoning.Message{
				Role:       reasoning.RoleTool,
				ToolCallID: tr.CallID,
				Content:    renderToolResult(tr),
			})
		}
	}

	result.Turns = l.opts.MaxTurns
	result.Failure = FailureMaxTurnsExceeded
	return result
}

// classifyServiceError maps a service error to its failure kind. Deadline
// errors (from either the context or the service itself) are timeouts;
// everything else, including cancellation, is a generic service failure.
func classifyServiceError(err error) FailureKind {
	if errors.Is(err, reasoning.ErrTimeout) || errors.Is(err, context.DeadlineExceeded) {
		return FailureLLMTimeout
	}
	return FailureLLMError
}

// renderToolResult serializes a tool result into the tool message fed back to
// the model. Failures stay visible so the model can correct itself within the
// remaining turns.
func renderToolResult(tr toolexec.Result) string {
	if tr.Success {
		data, err := json.Marshal(tr.Data)
		if err != nil {
			return fmt.Sprintf("%v", tr.Data)
		}
		return string(data)
	}
	payload, err := json.Marshal(tr.Failure)
	if err != nil {
		return tr.Failure.Error()
	}
	return fmt.Sprintf(`{"error":%s}`, payload)
}
