package toolexec

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/khanglvm/intent-hub/internal/reasoning"
	"github.com/khanglvm/intent-hub/internal/registry"
)

// defaultMaxParallel bounds how many sibling calls run concurrently.
const defaultMaxParallel = 4

// Executor dispatches a batch of tool calls and returns one result per call,
// in the same order as the input, each carrying its call id.
type Executor interface {
	ExecuteToolCalls(ctx context.Context, calls []reasoning.ToolCall) []Result
}

// Handler implements one tool. Arguments have already passed schema
// validation. A returned *Failure is forwarded as-is; any other error becomes
// a toolReturnedFailure.
type Handler func(ctx context.Context, args map[string]any) (any, error)

// FuncExecutor is a registry-backed Executor mapping tool full names to Go
// handlers, with JSON Schema argument validation in front of every call.
type FuncExecutor struct {
	mu          sync.RWMutex
	handlers    map[string]Handler
	schemas     map[string]map[string]any
	maxParallel int
	logger      *zap.Logger
}

// NewFuncExecutor creates an empty executor.
func NewFuncExecutor(logger *zap.Logger) *FuncExecutor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FuncExecutor{
		handlers:    make(map[string]Handler),
		schemas:     make(map[string]map[string]any),
		maxParallel: defaultMaxParallel,
		logger:      logger,
	}
}

// Register binds a handler to a tool. The tool's parameter schema guards the
// handler's arguments.
func (e *FuncExecutor) Register(tool *registry.Tool, h Handler) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[tool.FullName()] = h
	e.schemas[tool.FullName()] = tool.Parameters
}

// ExecuteToolCalls implements Executor. Dispatched calls are detached from
// the caller's cancellation so in-flight work always completes; the bounded
// worker group keeps sibling parallelism in check.
func (e *FuncExecutor) ExecuteToolCalls(ctx context.Context, calls []reasoning.ToolCall) []Result {
	results := make([]Result, len(calls))
	if len(calls) == 0 {
		return results
	}

	execCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	g.SetLimit(e.maxParallel)
	for i := range calls {
		g.Go(func() error {
			results[i] = e.executeOne(execCtx, calls[i])
			return nil
		})
	}
	g.Wait()

	return results
}

func (e *FuncExecutor) executeOne(ctx context.Context, call reasoning.ToolCall) Result {
	res := Result{CallID: call.ID, ToolName: call.Name, Confidence: call.Confidence}

	e.mu.RLock()
	handler, ok := e.handlers[call.Name]
	schema := e.schemas[call.Name]
	e.mu.RUnlock()

	if !ok {
		res.Failure = NewFailure(FailureToolNotFound, fmt.Sprintf("no tool registered as %q", call.Name))
		return res
	}

	if failure := validateArguments(schema, call.Arguments); failure != nil {
		e.logger.Debug("tool call rejected by schema",
			zap.String("tool", call.Name),
			zap.String("kind", string(failure.Kind)),
			zap.String("slot", failure.Slot),
		)
		res.Failure = failure
		return res
	}

	data, err := safeInvoke(ctx, handler, call.Arguments)
	if err != nil {
		var failure *Failure
		if errors.As(err, &failure) {
			res.Failure = failure
		} else {
			res.Failure = NewFailure(FailureToolReturnedFailure, err.Error())
		}
		e.logger.Warn("tool call failed",
			zap.String("tool", call.Name),
			zap.String("call_id", call.ID),
			zap.String("kind", string(res.Failure.Kind)),
		)
		return res
	}

	res.Success = true
	res.Data = data
	return res
}

// safeInvoke shields the executor from panicking handlers.
func safeInvoke(ctx context.Context, h Handler, args map[string]any) (data any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tool panicked: %v", r)
		}
	}()
	return h(ctx, args)
}

// requiredSlots reads the schema's required list, tolerating both the
// []string shape produced by Go-built schemas and the []any shape produced by
// JSON-decoded ones.
func requiredSlots(schema map[string]any) []string {
	switch required := schema["required"].(type) {
	case []string:
		return required
	case []any:
		out := make([]string, 0, len(required))
		for _, r := range required {
			if s, ok := r.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}

// validateArguments checks the call arguments against the tool's JSON
// Schema. Absent or null required slots map to requiredSlotMissing with the
// slot name; every other violation maps to invalidSlotFormat.
func validateArguments(schema map[string]any, args map[string]any) *Failure {
	if schema == nil {
		return nil
	}
	if args == nil {
		args = map[string]any{}
	}

	// Explicit requiredness check first: the schema library reports a null
	// value for a required slot as a type violation, but for learning
	// purposes a null required slot is a missing slot.
	for _, slot := range requiredSlots(schema) {
		if v, present := args[slot]; !present || v == nil {
			return &Failure{
				Kind:    FailureRequiredSlotMissing,
				Slot:    slot,
				Message: fmt.Sprintf("required slot %q is missing", slot),
			}
		}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewGoLoader(schema),
		gojsonschema.NewGoLoader(args),
	)
	if err != nil {
		return NewFailure(FailureInvalidSlotFormat, fmt.Sprintf("schema validation error: %v", err))
	}
	if result.Valid() {
		return nil
	}

	first := result.Errors()[0]
	return &Failure{
		Kind:    FailureInvalidSlotFormat,
		Slot:    first.Field(),
		Message: first.Description(),
	}
}
