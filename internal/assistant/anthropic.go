package assistant

import (
	"context"
	"encoding/json"

	"github.com/liushuangls/go-anthropic/v2"
	"github.com/pkg/errors"
)

// AnthropicProvider implements LLMProvider using the Anthropic API
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicProvider creates a new Anthropic provider instance
func NewAnthropicProvider(apiKey string, model string, opts ...anthropic.ClientOption) *AnthropicProvider {
	if model == "" {
		model = string(anthropic.ModelClaude3Dot5Sonnet20240620)
	}
	opts = append([]anthropic.ClientOption{anthropic.WithHTTPClient(defaultHTTPClient())}, opts...)
	return &AnthropicProvider{
		client: anthropic.NewClient(apiKey, opts...),
		model:  model,
	}
}

func (p *AnthropicProvider) Chat(ctx context.Context, messages []Message, tools []ToolDefinition, sampling Sampling) (*Completion, error) {
	var anthropicMessages []anthropic.Message
	var systemPrompt string

	for _, msg := range messages {
		// Anthropic takes the system prompt separately
		if msg.Role == RoleSystem {
			systemPrompt += msg.Content + "\n"
			continue
		}

		role := anthropic.RoleUser
		if msg.Role == RoleAssistant {
			role = anthropic.RoleAssistant
		}

		var content []anthropic.MessageContent
		switch {
		case msg.Role == RoleTool:
			// Tool results travel as user messages with a tool_result block
			content = []anthropic.MessageContent{
				anthropic.NewToolResultMessageContent(msg.ToolCallID, msg.Content, false),
			}
		default:
			if msg.Content != "" {
				content = append(content, anthropic.NewTextMessageContent(msg.Content))
			}
			for _, tc := range msg.ToolCalls {
				input := json.RawMessage(tc.Function.Arguments)
				if !json.Valid(input) {
					input = json.RawMessage(`{}`)
				}
				content = append(content, anthropic.NewToolUseMessageContent(tc.ID, tc.Function.Name, input))
			}
		}

		anthropicMessages = append(anthropicMessages, anthropic.Message{
			Role:    role,
			Content: content,
		})
	}

	var anthropicTools []anthropic.ToolDefinition
	for _, t := range tools {
		anthropicTools = append(anthropicTools, anthropic.ToolDefinition{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schemaMap(t.Parameters),
		})
	}

	temperature := sampling.Temperature
	req := anthropic.MessagesRequest{
		Model:       anthropic.Model(p.model),
		Messages:    anthropicMessages,
		Tools:       anthropicTools,
		MaxTokens:   sampling.MaxTokens,
		Temperature: &temperature,
		System:      systemPrompt,
	}

	resp, err := p.client.CreateMessages(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "anthropic completion error")
	}

	result := Message{Role: RoleAssistant}
	for _, content := range resp.Content {
		switch content.Type {
		case anthropic.MessagesContentTypeText:
			if content.Text != nil {
				result.Content += *content.Text
			}
		case anthropic.MessagesContentTypeToolUse:
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				ID:   content.ID,
				Type: "function",
				Function: FunctionCall{
					Name:      content.Name,
					Arguments: string(content.Input),
				},
			})
		}
	}

	return &Completion{Choices: []Message{result}}, nil
}

// schemaMap normalises a tool parameter schema to a generic map.
func schemaMap(params interface{}) map[string]interface{} {
	switch p := params.(type) {
	case map[string]interface{}:
		return p
	case json.RawMessage:
		var m map[string]interface{}
		_ = json.Unmarshal(p, &m)
		return m
	default:
		b, err := json.Marshal(p)
		if err != nil {
			return nil
		}
		var m map[string]interface{}
		_ = json.Unmarshal(b, &m)
		return m
	}
}
