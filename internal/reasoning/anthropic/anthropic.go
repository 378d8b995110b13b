// Package anthropic adapts the Anthropic Messages API to the reasoning
// service interface, including tool use.
package anthropic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/shared/constant"

	"github.com/khanglvm/intent-hub/internal/reasoning"
)

// defaultModel is used when the request does not name a model.
const defaultModel = anthropic.ModelClaude3_5Sonnet20241022

// defaultMaxTokens applies when the request leaves MaxTokens unset, since the
// Messages API requires a positive value.
const defaultMaxTokens = 1024

// Service wraps the Anthropic client behind reasoning.Service.
type Service struct {
	client *anthropic.Client
}

// NewService creates a service using the default client (API key from the
// environment).
func NewService() *Service {
	client := anthropic.NewClient()
	return NewServiceFromClient(&client)
}

// NewServiceFromClient creates a service from an existing client.
func NewServiceFromClient(client *anthropic.Client) *Service {
	return &Service{client: client}
}

// Converse implements reasoning.Service.
func (s *Service) Converse(ctx context.Context, req reasoning.Request) (*reasoning.Response, error) {
	params := anthropic.MessageNewParams{
		Model:       modelOrDefault(req.Model),
		Messages:    buildMessages(req.Messages),
		MaxTokens:   maxTokensOrDefault(req.MaxTokens),
		Temperature: anthropic.Float(req.Temperature),
	}
	if system := systemBlocks(req.Messages); len(system) > 0 {
		params.System = system
	}
	if len(req.Tools) > 0 {
		params.Tools = buildTools(req.Tools)
	}

	resp, err := s.client.Messages.New(ctx, params)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", reasoning.ErrTimeout, err)
		}
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	out := &reasoning.Response{
		TokensUsed: int(resp.Usage.InputTokens + resp.Usage.OutputTokens),
	}
	for _, block := range resp.Content {
		switch block.Type {
		case "text":
			out.Content += block.AsText().Text
		case "tool_use":
			toolBlock := block.AsToolUse()
			args, err := decodeToolInput(toolBlock.Input)
			if err != nil {
				return nil, fmt.Errorf("anthropic api error: malformed tool input for %q: %w", toolBlock.Name, err)
			}
			out.ToolCalls = append(out.ToolCalls, reasoning.ToolCall{
				ID:        toolBlock.ID,
				Name:      toolBlock.Name,
				Arguments: args,
			})
		}
	}
	return out, nil
}

func modelOrDefault(model string) anthropic.Model {
	if model == "" {
		return defaultModel
	}
	return anthropic.Model(model)
}

func maxTokensOrDefault(maxTokens int) int64 {
	if maxTokens <= 0 {
		return defaultMaxTokens
	}
	return int64(maxTokens)
}

// buildMessages converts the normalized history into Anthropic messages.
// System messages are carried separately on the request; tool results become
// tool_result blocks inside user messages, as the Messages API requires.
func buildMessages(messages []reasoning.Message) []anthropic.MessageParam {
	var out []anthropic.MessageParam
	for i := 0; i < len(messages); i++ {
		m := messages[i]
		switch m.Role {
		case reasoning.RoleSystem:
			continue
		case reasoning.RoleAssistant:
			var blocks []anthropic.ContentBlockParamUnion
			if m.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Content))
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, anthropic.NewToolUseBlock(tc.ID, toolInput(tc.Arguments), tc.Name))
			}
			if len(blocks) > 0 {
				out = append(out, anthropic.NewAssistantMessage(blocks...))
			}
		case reasoning.RoleTool:
			// Consecutive tool results fold into one user message, which
			// keeps the user/assistant alternation the API expects.
			var blocks []anthropic.ContentBlockParamUnion
			for ; i < len(messages) && messages[i].Role == reasoning.RoleTool; i++ {
				blocks = append(blocks, anthropic.NewToolResultBlock(messages[i].ToolCallID, messages[i].Content, false))
			}
			i--
			out = append(out, anthropic.NewUserMessage(blocks...))
		default:
			if m.Content != "" {
				out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Content)))
			}
		}
	}
	return out
}

func systemBlocks(messages []reasoning.Message) []anthropic.TextBlockParam {
	var blocks []anthropic.TextBlockParam
	for _, m := range messages {
		if m.Role == reasoning.RoleSystem && m.Content != "" {
			blocks = append(blocks, anthropic.TextBlockParam{Text: m.Content})
		}
	}
	return blocks
}

// decodeToolInput round-trips the block input through JSON so it lands in a
// plain map regardless of the concrete type the SDK hands back.
func decodeToolInput(input any) (map[string]any, error) {
	args := make(map[string]any)
	if input == nil {
		return args, nil
	}
	raw, err := json.Marshal(input)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 || string(raw) == "null" {
		return args, nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, err
	}
	return args, nil
}

func toolInput(args map[string]any) any {
	if args == nil {
		return map[string]any{}
	}
	return args
}

func buildTools(defs []reasoning.ToolDefinition) []anthropic.ToolUnionParam {
	tools := make([]anthropic.ToolUnionParam, len(defs))
	for i, def := range defs {
		inputSchema := anthropic.ToolInputSchemaParam{
			Type: constant.Object("object"),
		}
		if def.Parameters != nil {
			if properties, ok := def.Parameters["properties"]; ok {
				inputSchema.Properties = properties
			}
			inputSchema.Required = requiredStrings(def.Parameters["required"])
		}
		tools[i] = anthropic.ToolUnionParamOfTool(inputSchema, def.Name)
	}
	return tools
}

func requiredStrings(raw any) []string {
	switch required := raw.(type) {
	case []string:
		return required
	case []any:
		var out []string
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
