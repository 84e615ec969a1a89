package assistant

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	openai "github.com/sashabaranov/go-openai"
)

// OpenAIProvider implements LLMProvider using the OpenAI chat completions API.
// It also serves Azure OpenAI and Ollama, which speak the same protocol.
type OpenAIProvider struct {
	client *openai.Client
	model  string
}

func defaultHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			MaxIdleConns:        10,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
	}
}

// NewOpenAIProvider creates a new OpenAI provider instance
func NewOpenAIProvider(apiKey string, model string) *OpenAIProvider {
	if model == "" {
		model = openai.GPT4oMini
	}

	config := openai.DefaultConfig(apiKey)
	config.HTTPClient = defaultHTTPClient()

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// NewAzureOpenAIProvider creates a provider bound to an Azure OpenAI deployment.
func NewAzureOpenAIProvider(apiKey, endpoint, apiVersion, deployment string) *OpenAIProvider {
	config := openai.DefaultAzureConfig(apiKey, endpoint)
	if apiVersion != "" {
		config.APIVersion = apiVersion
	}
	config.AzureModelMapperFunc = func(string) string { return deployment }
	config.HTTPClient = defaultHTTPClient()

	return &OpenAIProvider{
		client: openai.NewClientWithConfig(config),
		model:  deployment,
	}
}

// NewOpenAIProviderWithConfig wraps an arbitrary client configuration.
func NewOpenAIProviderWithConfig(config openai.ClientConfig, model string) *OpenAIProvider {
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}
}

// Chat sends messages to the LLM and returns every choice of the response
func (p *OpenAIProvider) Chat(ctx context.Context, messages []Message, tools []ToolDefinition, sampling Sampling) (*Completion, error) {
	apiMessages := make([]openai.ChatCompletionMessage, len(messages))
	for i, msg := range messages {
		role := openai.ChatMessageRoleUser
		switch msg.Role {
		case RoleSystem:
			role = openai.ChatMessageRoleSystem
		case RoleAssistant:
			role = openai.ChatMessageRoleAssistant
		case RoleTool:
			role = openai.ChatMessageRoleTool
		}

		var toolCalls []openai.ToolCall
		if len(msg.ToolCalls) > 0 {
			toolCalls = make([]openai.ToolCall, len(msg.ToolCalls))
			for j, tc := range msg.ToolCalls {
				typ := openai.ToolType(tc.Type)
				if typ == "" {
					typ = openai.ToolTypeFunction
				}
				toolCalls[j] = openai.ToolCall{
					ID:   tc.ID,
					Type: typ,
					Function: openai.FunctionCall{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				}
			}
		}

		// Tool messages must carry content; assistant tool-call messages may not.
		content := msg.Content
		if role == openai.ChatMessageRoleTool && content == "" {
			content = "{}"
		}

		apiMessages[i] = openai.ChatCompletionMessage{
			Role:       role,
			Content:    content,
			Name:       msg.Name,
			ToolCalls:  toolCalls,
			ToolCallID: msg.ToolCallID,
		}
	}

	var apiTools []openai.Tool
	if len(tools) > 0 {
		apiTools = make([]openai.Tool, len(tools))
		for i, t := range tools {
			apiTools[i] = openai.Tool{
				Type: openai.ToolTypeFunction,
				Function: &openai.FunctionDefinition{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.Parameters,
				},
			}
		}
	}

	req := openai.ChatCompletionRequest{
		Model:       p.model,
		Messages:    apiMessages,
		Tools:       apiTools,
		Temperature: sampling.Temperature,
		MaxTokens:   sampling.MaxTokens,
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, errors.Wrap(err, "openai completion error")
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("openai completion returned no choices")
	}

	out := &Completion{Choices: make([]Message, 0, len(resp.Choices))}
	for _, choice := range resp.Choices {
		msg := choice.Message
		result := Message{
			Role:    RoleAssistant,
			Content: msg.Content,
		}
		if len(msg.ToolCalls) > 0 {
			result.ToolCalls = make([]ToolCall, len(msg.ToolCalls))
			for i, tc := range msg.ToolCalls {
				result.ToolCalls[i] = ToolCall{
					ID:   tc.ID,
					Type: string(tc.Type),
					Function: FunctionCall{
						Name:      tc.Function.Name,
						Arguments: tc.Function.Arguments,
					},
				}
			}
		}
		out.Choices = append(out.Choices, result)
	}
	return out, nil
}
