/*
Package reasoning defines the boundary to the external reasoning (LLM)
service used by the orchestration loop.

Types are normalized across vendors so the loop never branches per provider:
adapters in the openai and anthropic subpackages translate to and from the
respective SDKs. Timeouts are a distinct, catchable failure separate from
generic service errors.
*/
package reasoning

import (
	"context"
	"errors"
)

// ErrTimeout indicates the reasoning-service round trip exceeded its
// deadline. Callers match it with errors.Is.
var ErrTimeout = errors.New("reasoning: request timed out")

// Role values used in conversation messages.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one entry in the conversation history sent to the service.
type Message struct {
	// Role is one of the Role constants.
	Role string `json:"role"`

	// Content is the textual content, if any.
	Content string `json:"content,omitempty"`

	// ToolCalls carries the assistant's requested calls on assistant turns.
	ToolCalls []ToolCall `json:"toolCalls,omitempty"`

	// ToolCallID links a tool-role message back to the call it answers.
	ToolCallID string `json:"toolCallId,omitempty"`
}

// ToolDefinition declaratively exposes a callable tool to the model.
type ToolDefinition struct {
	// Name is the tool's full "namespace.name" identifier.
	Name string `json:"name"`

	// Description guides the model on when to call the tool.
	Description string `json:"description"`

	// Parameters is a JSON Schema object for the tool's arguments.
	Parameters map[string]any `json:"parameters"`
}

// ToolCall is a single call requested by the model.
type ToolCall struct {
	// ID is the provider-assigned call identifier. Results are reattached
	// to their call by this id, never by position.
	ID string `json:"id"`

	// Name is the tool's full name.
	Name string `json:"name"`

	// Arguments holds the parsed call arguments.
	Arguments map[string]any `json:"arguments"`

	// Confidence is the tool's combined selection score. Adapters leave it
	// zero; the dispatcher stamps it after the loop completes.
	Confidence float64 `json:"confidence,omitempty"`
}

// Request is one round trip to the reasoning service.
type Request struct {
	Model       string           `json:"model"`
	Messages    []Message        `json:"messages"`
	Tools       []ToolDefinition `json:"tools,omitempty"`
	Temperature float64          `json:"temperature"`
	MaxTokens   int              `json:"maxTokens"`
}

// Response is the service's reply to a Request. A reply carries tool calls,
// final text, or both; the orchestration loop treats a reply without tool
// calls as the final answer.
type Response struct {
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"toolCalls,omitempty"`
	TokensUsed int        `json:"tokensUsed"`
}

// Service is the minimal interface the orchestration loop requires.
type Service interface {
	Converse(ctx context.Context, req Request) (*Response, error)
}
