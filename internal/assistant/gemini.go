package assistant

import (
	"context"
	"encoding/json"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"google.golang.org/api/option"
)

// GeminiProvider implements LLMProvider using Google's Gemini API
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a new Gemini provider instance
func NewGeminiProvider(ctx context.Context, apiKey string, model string) (*GeminiProvider, error) {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Wrap(err, "gemini client")
	}
	return &GeminiProvider{
		client: client,
		model:  model,
	}, nil
}

func (p *GeminiProvider) Chat(ctx context.Context, messages []Message, tools []ToolDefinition, sampling Sampling) (*Completion, error) {
	model := p.client.GenerativeModel(p.model)
	model.SetTemperature(sampling.Temperature)
	model.SetMaxOutputTokens(int32(sampling.MaxTokens))

	if len(tools) > 0 {
		funcDecls := make([]*genai.FunctionDeclaration, 0, len(tools))
		for _, t := range tools {
			funcDecls = append(funcDecls, &genai.FunctionDeclaration{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  toGenaiSchema(schemaMap(t.Parameters)),
			})
		}
		model.Tools = []*genai.Tool{{FunctionDeclarations: funcDecls}}
	}

	// System instructions live on the model, so collect them before the chat starts.
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			model.SystemInstruction = &genai.Content{
				Parts: []genai.Part{genai.Text(msg.Content)},
			}
		}
	}

	cs := model.StartChat()
	for _, msg := range messages {
		if msg.Role == RoleSystem {
			continue
		}

		role := "user"
		if msg.Role == RoleAssistant {
			role = "model"
		} else if msg.Role == RoleTool {
			role = "function"
		}

		var parts []genai.Part
		if msg.Content != "" && msg.Role != RoleTool {
			parts = append(parts, genai.Text(msg.Content))
		}
		for _, tc := range msg.ToolCalls {
			var args map[string]interface{}
			_ = json.Unmarshal([]byte(tc.Function.Arguments), &args)
			parts = append(parts, genai.FunctionCall{
				Name: tc.Function.Name,
				Args: args,
			})
		}
		if msg.Role == RoleTool {
			var response map[string]interface{}
			if err := json.Unmarshal([]byte(msg.Content), &response); err != nil {
				response = map[string]interface{}{"result": msg.Content}
			}
			parts = append(parts, genai.FunctionResponse{
				Name:     msg.Name,
				Response: response,
			})
		}

		cs.History = append(cs.History, &genai.Content{
			Role:  role,
			Parts: parts,
		})
	}

	// The last user message is sent; everything before it is history.
	if len(cs.History) == 0 || cs.History[len(cs.History)-1].Role != "user" {
		return nil, errors.New("last message was not from user")
	}
	last := cs.History[len(cs.History)-1]
	cs.History = cs.History[:len(cs.History)-1]

	resp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		return nil, errors.Wrap(err, "gemini completion error")
	}
	return parseGeminiResponse(resp)
}

func parseGeminiResponse(resp *genai.GenerateContentResponse) (*Completion, error) {
	if len(resp.Candidates) == 0 {
		return nil, errors.New("no candidates returned")
	}

	out := &Completion{}
	for _, cand := range resp.Candidates {
		result := Message{Role: RoleAssistant}
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				switch v := part.(type) {
				case genai.Text:
					result.Content += string(v)
				case genai.FunctionCall:
					argsBytes, _ := json.Marshal(v.Args)
					// Gemini has no call ids; generate one so tool results can reference it.
					result.ToolCalls = append(result.ToolCalls, ToolCall{
						ID:   "call_" + uuid.NewString(),
						Type: "function",
						Function: FunctionCall{
							Name:      v.Name,
							Arguments: string(argsBytes),
						},
					})
				}
			}
		}
		out.Choices = append(out.Choices, result)
	}
	return out, nil
}

// toGenaiSchema converts the subset of JSON Schema MCP tools use.
func toGenaiSchema(s map[string]interface{}) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{}
	switch s["type"] {
	case "object":
		out.Type = genai.TypeObject
	case "array":
		out.Type = genai.TypeArray
	case "string":
		out.Type = genai.TypeString
	case "integer":
		out.Type = genai.TypeInteger
	case "number":
		out.Type = genai.TypeNumber
	case "boolean":
		out.Type = genai.TypeBoolean
	default:
		out.Type = genai.TypeString
	}
	if d, ok := s["description"].(string); ok {
		out.Description = d
	}
	if props, ok := s["properties"].(map[string]interface{}); ok && len(props) > 0 {
		out.Properties = make(map[string]*genai.Schema, len(props))
		for name, raw := range props {
			if m, ok := raw.(map[string]interface{}); ok {
				out.Properties[name] = toGenaiSchema(m)
			}
		}
	}
	if items, ok := s["items"].(map[string]interface{}); ok {
		out.Items = toGenaiSchema(items)
	}
	if req, ok := s["required"].([]interface{}); ok {
		for _, r := range req {
			if name, ok := r.(string); ok {
				out.Required = append(out.Required, name)
			}
		}
	}
	if enum, ok := s["enum"].([]interface{}); ok {
		for _, e := range enum {
			if v, ok := e.(string); ok {
				out.Enum = append(out.Enum, v)
			}
		}
	}
	return out
}
