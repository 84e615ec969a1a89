// Package mcpsession is the transport session to a tool provider: it launches
// the provider process, performs the MCP handshake and relays tool calls.
package mcpsession

import (
	"context"
	"encoding/json"
	"os"
	"sync"

	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/pkg/errors"

	"github.com/reinhart/finAgent/internal/assistant"
	"github.com/reinhart/finAgent/internal/logger"
)

const (
	clientName    = "finAgent"
	clientVersion = "1.0.0"
)

// Session is an initialized MCP client connection.
type Session struct {
	client *mcpclient.Client
	server mcp.Implementation

	closeOnce sync.Once
	closeErr  error
}

// Connect launches script with the given interpreter command line and
// completes the handshake. Everything started here is released on failure.
func Connect(ctx context.Context, script string, interpreter []string) (*Session, error) {
	if len(interpreter) == 0 {
		return nil, assistant.NewConnectionError("no interpreter for "+script, nil)
	}
	if _, err := os.Stat(script); err != nil {
		return nil, assistant.NewConnectionError("server script not found", err)
	}

	args := append(append([]string{}, interpreter[1:]...), script)
	logger.Info("Starting MCP server with command: %s %v", interpreter[0], args)

	c, err := mcpclient.NewStdioMCPClient(interpreter[0], os.Environ(), args...)
	if err != nil {
		return nil, assistant.NewConnectionError("failed to start MCP server", err)
	}
	return Attach(ctx, c)
}

// Attach performs the handshake on an already-started client and takes
// ownership of it; the client is closed if the handshake fails.
func Attach(ctx context.Context, c *mcpclient.Client) (*Session, error) {
	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: clientName, Version: clientVersion}

	res, err := c.Initialize(ctx, initReq)
	if err != nil {
		_ = c.Close()
		return nil, assistant.NewConnectionError("failed to initialize MCP client", err)
	}

	s := &Session{client: c, server: res.ServerInfo}
	tools, err := s.ListTools(ctx)
	if err != nil {
		_ = s.Close()
		return nil, assistant.NewConnectionError("failed to list tools", err)
	}

	names := make([]string, len(tools))
	for i, t := range tools {
		names[i] = t.Name
	}
	logger.Info("Connected to server %s with tools: %v", res.ServerInfo.Name, names)
	return s, nil
}

// ServerInfo identifies the connected provider.
func (s *Session) ServerInfo() mcp.Implementation {
	return s.server
}

// ListTools fetches the provider's current catalog.
func (s *Session) ListTools(ctx context.Context) ([]assistant.ToolDescriptor, error) {
	res, err := s.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, errors.Wrap(err, "tools/list")
	}

	out := make([]assistant.ToolDescriptor, 0, len(res.Tools))
	for _, t := range res.Tools {
		schema := t.RawInputSchema
		if len(schema) == 0 {
			schema, err = json.Marshal(t.InputSchema)
			if err != nil {
				return nil, errors.Wrapf(err, "encoding input schema of %s", t.Name)
			}
		}
		out = append(out, assistant.ToolDescriptor{
			Name:        t.Name,
			Description: t.Description,
			InputSchema: schema,
		})
	}
	return out, nil
}

// CallTool invokes name on the provider.
func (s *Session) CallTool(ctx context.Context, name string, args map[string]any) (*assistant.ToolResult, error) {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	res, err := s.client.CallTool(ctx, req)
	if err != nil {
		return nil, errors.Wrapf(err, "tools/call %s", name)
	}
	return convertResult(res), nil
}

func convertResult(res *mcp.CallToolResult) *assistant.ToolResult {
	out := &assistant.ToolResult{IsError: res.IsError}
	for _, c := range res.Content {
		switch v := c.(type) {
		case mcp.TextContent:
			out.Content = append(out.Content, assistant.ContentBlock{Type: v.Type, Text: v.Text})
		case *mcp.TextContent:
			out.Content = append(out.Content, assistant.ContentBlock{Type: v.Type, Text: v.Text})
		case mcp.ImageContent:
			out.Content = append(out.Content, assistant.ContentBlock{Type: v.Type, MIMEType: v.MIMEType})
		case mcp.AudioContent:
			out.Content = append(out.Content, assistant.ContentBlock{Type: v.Type, MIMEType: v.MIMEType})
		default:
			out.Content = append(out.Content, assistant.ContentBlock{Type: contentType(c)})
		}
	}
	return out
}

// contentType reads the "type" discriminator of any other content kind.
func contentType(c mcp.Content) string {
	b, err := json.Marshal(c)
	if err != nil {
		return "unknown"
	}
	var probe struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &probe); err != nil || probe.Type == "" {
		return "unknown"
	}
	return probe.Type
}

// Close terminates the provider connection. Safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.closeErr = s.client.Close()
		logger.Debug("MCP session closed")
	})
	return s.closeErr
}
