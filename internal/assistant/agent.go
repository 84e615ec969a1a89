package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/sync/semaphore"

	"github.com/reinhart/finAgent/internal/logger"
)

// StatusUpdate represents a real-time update from the agent
type StatusUpdate struct {
	Message string
}

// Agent drives one query at a time through the model and the tool provider.
// Concurrent ProcessQuery calls queue behind each other.
type Agent struct {
	provider LLMProvider
	session  ToolSession
	registry *ToolRegistry
	sampling Sampling
	updates  chan StatusUpdate // Channel for sending updates to UI
	sem      *semaphore.Weighted
	catalog  string
}

// NewAgent creates a new agent instance
func NewAgent(provider LLMProvider, session ToolSession, registry *ToolRegistry) *Agent {
	return &Agent{
		provider: provider,
		session:  session,
		registry: registry,
		sampling: DefaultSampling,
		updates:  make(chan StatusUpdate, 10),
		sem:      semaphore.NewWeighted(1),
	}
}

// Updates returns the channel for status updates
func (a *Agent) Updates() <-chan StatusUpdate {
	return a.updates
}

// sendUpdate sends a status update non-blocking
func (a *Agent) sendUpdate(msg string) {
	select {
	case a.updates <- StatusUpdate{Message: msg}:
	default:
	}
}

// turn is the state of one query: the message sequence and the output blocks.
type turn struct {
	messages []Message
	output   []string
}

// ProcessQuery runs query through one model call and the tool calls it
// requests, and returns the transcript. Any failure aborts the whole query.
func (a *Agent) ProcessQuery(ctx context.Context, query string) (string, error) {
	if err := a.sem.Acquire(ctx, 1); err != nil {
		return "", err
	}
	defer a.sem.Release(1)

	t, err := a.run(ctx, query)
	if err != nil {
		a.sendUpdate("Error")
		return "", err
	}
	a.sendUpdate("Done")
	return strings.Join(t.output, "\n"), nil
}

func (a *Agent) run(ctx context.Context, query string) (*turn, error) {
	logger.Info("Processing user input: %s", query)
	t := &turn{messages: []Message{{Role: RoleUser, Content: query}}}

	a.sendUpdate("Listing tools...")
	descriptors, err := a.session.ListTools(ctx)
	if err != nil {
		return nil, NewConnectionError("failed to list tools", err)
	}
	a.noteCatalog(descriptors)

	defs := make([]ToolDefinition, len(descriptors))
	for i, d := range descriptors {
		defs[i] = d.Definition()
	}

	a.sendUpdate("Thinking...")
	logger.Debug("Sending request to LLM Provider with %d tools", len(defs))
	resp, err := a.provider.Chat(ctx, t.messages, defs, a.sampling)
	if err != nil {
		logger.Info("LLM Error: %v", err)
		return nil, newModelCallError(err)
	}

	for _, choice := range resp.Choices {
		logger.Debug("Choice (Content len: %d, ToolCalls: %d)", len(choice.Content), len(choice.ToolCalls))
		if choice.Content != "" {
			t.output = append(t.output, choice.Content)
		}
		for _, tc := range choice.ToolCalls {
			if err := a.callTool(ctx, t, tc); err != nil {
				return nil, err
			}
		}
	}
	return t, nil
}

func (a *Agent) callTool(ctx context.Context, t *turn, tc ToolCall) error {
	name := tc.Function.Name
	logger.Info("Tool Call Request: %s(%s)", name, tc.Function.Arguments)

	parsed, err := ParseArgs(tc.Function.Arguments)
	if err != nil {
		return newArgumentParseError(name, tc.Function.Arguments, err)
	}

	route, ok := a.registry.Get(name)
	if !ok {
		logger.Info("Rejected tool outside allowlist: %s", name)
		return newUnknownToolError(name)
	}

	a.sendUpdate(fmt.Sprintf("Calling %s...", name))
	result, err := a.session.CallTool(ctx, name, route.Forward(parsed))
	if err != nil {
		logger.Info("Tool Execution Error (%s): %v", name, err)
		return newToolExecutionError(name, err)
	}
	if result.IsError {
		return newToolExecutionError(name, errors.New(result.Text()))
	}
	logger.Debug("Tool Output (%s): %s", name, result.Text())

	t.output = append(t.output,
		fmt.Sprintf("[Calling tool %s with args %s]", name, formatArgs(tc.Function.Arguments)),
		result.Text(),
	)
	t.messages = append(t.messages,
		Message{Role: RoleAssistant, ToolCalls: []ToolCall{tc}},
		Message{Role: RoleTool, Name: name, ToolCallID: tc.ID, Content: result.String()},
	)
	return nil
}

// noteCatalog logs how the provider's catalog changed since the previous query.
func (a *Agent) noteCatalog(tools []ToolDescriptor) {
	cur := catalogText(tools)
	if a.catalog != "" {
		if d := catalogDiff(a.catalog, cur); d != "" {
			logger.Info("Tool catalog changed:\n%s", d)
		}
	}
	a.catalog = cur
}
