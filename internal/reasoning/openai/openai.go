// Package openai adapts the OpenAI Chat Completions API to the reasoning
// service interface, including function/tool calling.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/openai/openai-go"

	"github.com/khanglvm/intent-hub/internal/reasoning"
)

// defaultModel is used when the request does not name a model.
const defaultModel = openai.ChatModelGPT4oMini

// Service wraps the OpenAI client behind reasoning.Service.
type Service struct {
	client *openai.Client
}

// NewService creates a service using the default client (API key from the
// environment).
func NewService() *Service {
	client := openai.NewClient()
	return NewServiceFromClient(&client)
}

// NewServiceFromClient creates a service from an existing client.
func NewServiceFromClient(client *openai.Client) *Service {
	return &Service{client: client}
}

// Converse implements reasoning.Service.
func (s *Service) Converse(ctx context.Context, req reasoning.Request) (*reasoning.Response, error) {
	params := openai.ChatCompletionNewParams{
		Messages:            buildMessages(req.Messages),
		Model:               modelOrDefault(req.Model),
		Temperature:         openai.Float(req.Temperature),
		MaxCompletionTokens: openai.Int(int64(req.MaxTokens)),
	}
	if len(req.Tools) > 0 {
		tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
		for i, tdef := range req.Tools {
			tools[i] = openai.ChatCompletionToolParam{
				Type: "function",
				Function: openai.FunctionDefinitionParam{
					Name:        tdef.Name,
					Description: openai.String(tdef.Description),
					Parameters:  tdef.Parameters,
				},
			}
		}
		params.Tools = tools
	}

	resp, err := s.client.Chat.Completions.New(ctx, params)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %v", reasoning.ErrTimeout, err)
		}
		return nil, fmt.Errorf("openai api error: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("openai api error: no choices returned")
	}

	message := resp.Choices[0].Message
	out := &reasoning.Response{
		Content:    message.Content,
		TokensUsed: int(resp.Usage.TotalTokens),
	}
	for _, tc := range message.ToolCalls {
		args := make(map[string]any)
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				return nil, fmt.Errorf("openai api error: malformed tool arguments for %q: %w", tc.Function.Name, err)
			}
		}
		out.ToolCalls = append(out.ToolCalls, reasoning.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	return out, nil
}

func modelOrDefault(model string) string {
	if model == "" {
		return defaultModel
	}
	return model
}

// buildMessages converts the normalized history into OpenAI chat messages.
// The orchestrator already interleaves assistant tool calls with their tool
// results, so the order is passed through unchanged.
func buildMessages(messages []reasoning.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(messages))
	for _, m := range messages {
		switch m.Role {
		case reasoning.RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case reasoning.RoleAssistant:
			if len(m.ToolCalls) == 0 {
				out = append(out, openai.AssistantMessage(m.Content))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallParam, len(m.ToolCalls))
			for i, tc := range m.ToolCalls {
				toolCalls[i] = openai.ChatCompletionMessageToolCallParam{
					ID:   tc.ID,
					Type: "function",
					Function: openai.ChatCompletionMessageToolCallFunctionParam{
						Name:      tc.Name,
						Arguments: marshalArguments(tc.Arguments),
					},
				}
			}
			out = append(out, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role:      "assistant",
					ToolCalls: toolCalls,
				},
			})
		case reasoning.RoleTool:
			out = append(out, openai.ToolMessage(m.Content, m.ToolCallID))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}

func marshalArguments(args map[string]any) string {
	if args == nil {
		return "{}"
	}
	data, err := json.Marshal(args)
	if err != nil {
		return "{}"
	}
	return string(data)
}
