package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/khanglvm/intent-hub/internal/reasoning"
	"github.com/khanglvm/intent-hub/internal/toolexec"
)

// echoExecutor records calls and succeeds with a fixed payload.
type echoExecutor struct {
	calls []reasoning.ToolCall
}

func (e *echoExecutor) ExecuteToolCalls(ctx context.Context, calls []reasoning.ToolCall) []toolexec.Result {
	e.calls = append(e.calls, calls...)
	results := make([]toolexec.Result, len(calls))
	for i, call := range calls {
		results[i] = toolexec.Result{
			CallID:   call.ID,
			ToolName: call.Name,
			Success:  true,
			Data:     map[string]any{"ok": true},
		}
	}
	return results
}

func TestRunFinalAnswerWithoutTools(t *testing.T) {
	mock := reasoning.NewMock(reasoning.Response{Content: "done", TokensUsed: 7})
	loop := NewLoop(mock, &echoExecutor{}, nil)

	result := loop.Run(context.Background(), "hello", nil)

	if !result.Success {
		t.Fatalf("expected success, got failure %q", result.Failure)
	}
	if result.FinalText != "done" {
		t.Errorf("expected final text 'done', got %q", result.FinalText)
	}
	if result.Turns != 1 {
		t.Errorf("expected 1 turn, got %d", result.Turns)
	}
	if result.TokensUsed != 7 {
		t.Errorf("expected 7 tokens, got %d", result.TokensUsed)
	}
}

func TestRunToolCallThenFinalAnswer(t *testing.T) {
	mock := reasoning.NewMock(
		reasoning.Response{ToolCalls: []reasoning.ToolCall{
			{ID: "c1", Name: "task.create", Arguments: map[string]any{"title": "milk"}},
		}},
		reasoning.Response{Content: "created"},
	)
	executor := &echoExecutor{}
	loop := NewLoop(mock, executor, nil)

	result := loop.Run(context.Background(), "add milk", nil)

	if !result.Success {
		t.Fatalf("expected success, got failure %q", result.Failure)
	}
	if result.Turns != 2 {
		t.Errorf("expected 2 turns, got %d", result.Turns)
	}
	if len(result.ToolCalls) != 1 || result.ToolCalls[0].Name != "task.create" {
		t.Errorf("unexpected tool calls: %v", result.ToolCalls)
	}
	if len(executor.calls) != 1 {
		t.Errorf("executor saw %d calls, expected 1", len(executor.calls))
	}

	// The second request must carry the assistant tool call and its result.
	requests := mock.Requests()
	if len(requests) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(requests))
	}
	history := requests[1].Messages
	if len(history) != 3 {
		t.Fatalf("expected user+assistant+tool history, got %d messages", len(history))
	}
	if history[1].Role != reasoning.RoleAssistant || len(history[1].ToolCalls) != 1 {
		t.Errorf("assistant tool-call message malformed: %+v", history[1])
	}
	if history[2].Role != reasoning.RoleTool || history[2].ToolCallID != "c1" {
		t.Errorf("tool result message malformed: %+v", history[2])
	}
}

func TestRunMaxTurnsExceeded(t *testing.T) {
	// The model keeps asking for tools on every turn.
	script := make([]reasoning.Response, DefaultMaxTurns)
	for i := range script {
		script[i] = reasoning.Response{ToolCalls: []reasoning.ToolCall{
			{ID: fmt.Sprintf("c%d", i), Name: "task.list", Arguments: map[string]any{}},
		}}
	}
	loop := NewLoop(reasoning.NewMock(script...), &echoExecutor{}, nil)

	result := loop.Run(context.Background(), "loop forever", nil)

	if result.Success {
		t.Fatal("expected failure")
	}
	if result.Failure != FailureMaxTurnsExceeded {
		t.Errorf("expected max_turns_exceeded, got %q", result.Failure)
	}
	if result.Turns != DefaultMaxTurns {
		t.Errorf("expected turns == %d exactly, got %d", DefaultMaxTurns, result.Turns)
	}
	if len(result.ToolCalls) != DefaultMaxTurns {
		t.Errorf("expected %d accumulated tool calls, got %d", DefaultMaxTurns, len(result.ToolCalls))
	}
}

func TestRunClassifiesTimeout(t *testing.T) {
	mock := reasoning.NewMock()
	mock.FailWith(fmt.Errorf("round trip: %w", reasoning.ErrTimeout))
	loop := NewLoop(mock, &echoExecutor{}, nil)

	result := loop.Run(context.Background(), "hello", nil)

	if result.Failure != FailureLLMTimeout {
		t.Errorf("expected llm_timeout, got %q", result.Failure)
	}
	if result.Turns != 0 {
		t.Errorf("expected 0 completed turns, got %d", result.Turns)
	}
}

func TestRunClassifiesGenericServiceError(t *testing.T) {
	mock := reasoning.NewMock()
	mock.FailWith(errors.New("boom"))
	loop := NewLoop(mock, &echoExecutor{}, nil)

	result := loop.Run(context.Background(), "hello", nil)

	if result.Failure != FailureLLMError {
		t.Errorf("expected llm_error, got %q", result.Failure)
	}
}

func TestRunDeadlineExceededIsTimeout(t *testing.T) {
	mock := reasoning.NewMock()
	mock.FailWith(context.DeadlineExceeded)
	loop := NewLoop(mock, &echoExecutor{}, nil)

	result := loop.Run(context.Background(), "hello", nil)

	if result.Failure != FailureLLMTimeout {
		t.Errorf("expected llm_timeout for deadline, got %q", result.Failure)
	}
}

func TestFailedToolResults(t *testing.T) {
	result := &Result{ToolResults: []toolexec.Result{
		{CallID: "a", Success: true},
		{CallID: "b", Failure: toolexec.NewFailure(toolexec.FailureToolNotFound, "missing")},
	}}

	failed := result.FailedToolResults()
	if len(failed) != 1 || failed[0].CallID != "b" {
		t.Errorf("expected only the failed result, got %v", failed)
	}
}

func TestNewLoopDefaults(t *testing.T) {
	loop := NewLoop(reasoning.NewMock(), &echoExecutor{}, nil, func(o *Options) {
		o.MaxTurns = -1
	})

	if loop.opts.MaxTurns != DefaultMaxTurns {
		t.Errorf("expected max turns fallback to %d, got %d", DefaultMaxTurns, loop.opts.MaxTurns)
	}
}
