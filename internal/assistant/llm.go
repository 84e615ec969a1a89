package assistant

import (
	"context"
	"encoding/json"
)

// Role represents the role of a message sender
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message represents a single message in the conversation
type Message struct {
	Role       Role
	Content    string
	Name       string // Optional, used for tool responses
	ToolCalls  []ToolCall
	ToolCallID string // Used when Role is Tool to link back to the call
}

// ToolCall represents a request from the LLM to execute a tool
type ToolCall struct {
	ID       string
	Type     string
	Function FunctionCall
}

// FunctionCall represents the details of a function execution request
type FunctionCall struct {
	Name      string
	Arguments string // JSON string of arguments
}

// ToolDefinition defines a tool that can be used by the LLM
type ToolDefinition struct {
	Name        string
	Description string
	Parameters  interface{} // JSON Schema describing the parameters
}

// Sampling holds the generation settings sent with every model call.
type Sampling struct {
	Temperature float32
	MaxTokens   int
}

// DefaultSampling is the only sampling configuration the orchestrator uses.
var DefaultSampling = Sampling{Temperature: 0.5, MaxTokens: 1000}

// Completion is a model response; each choice is an assistant message.
type Completion struct {
	Choices []Message
}

// LLMProvider defines the interface for interacting with LLM backends
type LLMProvider interface {
	// Chat sends messages to the LLM and returns its choices, potentially including tool calls
	Chat(ctx context.Context, messages []Message, tools []ToolDefinition, sampling Sampling) (*Completion, error)
}

// ToolDescriptor is one entry of the tool provider's catalog.
type ToolDescriptor struct {
	Name        string
	Description string
	InputSchema json.RawMessage
}

// Definition translates the descriptor into the model's calling convention.
func (d ToolDescriptor) Definition() ToolDefinition {
	var params interface{} = json.RawMessage(`{"type":"object","properties":{}}`)
	if len(d.InputSchema) > 0 {
		params = d.InputSchema
	}
	return ToolDefinition{
		Name:        d.Name,
		Description: d.Description,
		Parameters:  params,
	}
}

// ContentBlock is one typed unit of a tool result.
type ContentBlock struct {
	Type     string `json:"type"`
	Text     string `json:"text,omitempty"`
	MIMEType string `json:"mimeType,omitempty"`
}

// ToolResult is the payload returned by a tool invocation.
type ToolResult struct {
	Content []ContentBlock `json:"content"`
	IsError bool           `json:"isError,omitempty"`
}

// Text returns the first text block, or the JSON rendering of the whole result.
func (r *ToolResult) Text() string {
	for _, c := range r.Content {
		if c.Type == "text" {
			return c.Text
		}
	}
	return r.String()
}

func (r *ToolResult) String() string {
	b, err := json.Marshal(r)
	if err != nil {
		return "[unprintable tool result]"
	}
	return string(b)
}

// ToolSession is the transport to the remote tool provider.
type ToolSession interface {
	ListTools(ctx context.Context) ([]ToolDescriptor, error)
	CallTool(ctx context.Context, name string, args map[string]any) (*ToolResult, error)
}
