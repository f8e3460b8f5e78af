package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"strings"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/DevanshMishra-12/AI-Agent/internal/ai"
)

// ServerConfig describes how to launch an MCP server as a child process speaking over stdio
type ServerConfig struct {
	Command string
	Args    []string
	// Env is appended to the current process environment, in KEY=VALUE form
	Env []string
}

// Session is a live connection to a tool server
type Session interface {
	Caller
	// ListTools returns every tool the server offers
	ListTools(ctx context.Context) ([]ai.ToolSpec, error)
	// Close disconnects from the server and stops it
	Close() error
}

// MCPServer launches a fresh MCP server for each Connect
type MCPServer struct {
	client       *mcp.Client
	newTransport func() (mcp.Transport, error)
}

// NewMCPServer creates an MCPServer that runs the configured command
func NewMCPServer(cfg ServerConfig, version string) *MCPServer {
	return newMCPServer(version, func() (mcp.Transport, error) {
		if cfg.Command == "" {
			return nil, errors.New("no MCP server command configured")
		}
		cmd := exec.Command(cfg.Command, cfg.Args...)
		cmd.Env = append(os.Environ(), cfg.Env...)
		// Keep the server's diagnostics visible in our logs
		cmd.Stderr = os.Stderr
		return &mcp.CommandTransport{Command: cmd}, nil
	})
}

func newMCPServer(version string, newTransport func() (mcp.Transport, error)) *MCPServer {
	client := mcp.NewClient(&mcp.Implementation{Name: "firecrawl-agent", Version: version}, nil)
	return &MCPServer{
		client:       client,
		newTransport: newTransport,
	}
}

// Connect starts the server and completes the MCP handshake
func (ms *MCPServer) Connect(ctx context.Context) (Session, error) {
	transport, err := ms.newTransport()
	if err != nil {
		return nil, fmt.Errorf("failed to create MCP transport: %w", err)
	}
	cs, err := ms.client.Connect(ctx, transport, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MCP server: %w", err)
	}
	return &mcpSession{session: cs}, nil
}

type mcpSession struct {
	session *mcp.ClientSession
}

func (s *mcpSession) ListTools(ctx context.Context) ([]ai.ToolSpec, error) {
	var specs []ai.ToolSpec
	params := &mcp.ListToolsParams{}
	for {
		res, err := s.session.ListTools(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("failed to list tools: %w", err)
		}
		for _, tool := range res.Tools {
			schema, err := toSchemaMap(tool.InputSchema)
			if err != nil {
				return nil, fmt.Errorf("failed to read input schema of tool %s: %w", tool.Name, err)
			}
			specs = append(specs, ai.ToolSpec{
				Name:        tool.Name,
				Description: tool.Description,
				InputSchema: schema,
			})
		}
		if res.NextCursor == "" {
			return specs, nil
		}
		params = &mcp.ListToolsParams{Cursor: res.NextCursor}
	}
}

func (s *mcpSession) CallTool(ctx context.Context, name string, args json.RawMessage) (string, error) {
	var arguments map[string]any
	if len(strings.TrimSpace(string(args))) > 0 {
		if err := json.Unmarshal(args, &arguments); err != nil {
			return "", NewToolInputError(fmt.Errorf("arguments are not a JSON object: %w", err))
		}
	}

	res, err := s.session.CallTool(ctx, &mcp.CallToolParams{
		Name:      name,
		Arguments: arguments,
	})
	if err != nil {
		return "", fmt.Errorf("failed to call tool: %w", err)
	}

	output := renderToolOutput(res)
	if res.IsError {
		return "", NewToolInputError(errors.New(output))
	}
	return output, nil
}

func (s *mcpSession) Close() error {
	if err := s.session.Close(); err != nil {
		return fmt.Errorf("failed to close MCP session: %w", err)
	}
	return nil
}

// renderToolOutput flattens a tool result into text for the model
func renderToolOutput(res *mcp.CallToolResult) string {
	var parts []string
	for _, content := range res.Content {
		switch c := content.(type) {
		case *mcp.TextContent:
			parts = append(parts, c.Text)
		case *mcp.ImageContent:
			parts = append(parts, fmt.Sprintf("[image content: %s, %d bytes]", c.MIMEType, len(c.Data)))
		case *mcp.EmbeddedResource:
			if c.Resource != nil && c.Resource.Text != "" {
				parts = append(parts, c.Resource.Text)
			} else if c.Resource != nil {
				parts = append(parts, fmt.Sprintf("[embedded resource: %s]", c.Resource.URI))
			}
		default:
			parts = append(parts, fmt.Sprintf("[%T content omitted]", content))
		}
	}
	if len(parts) == 0 && res.StructuredContent != nil {
		b, err := json.Marshal(res.StructuredContent)
		if err != nil {
			log.Printf("failed to marshal structured tool content: %v", err)
		} else {
			parts = append(parts, string(b))
		}
	}
	return strings.Join(parts, "\n")
}

// toSchemaMap converts a tool input schema of any JSON-compatible shape into a map
func toSchemaMap(schema any) (map[string]any, error) {
	if schema == nil {
		return nil, nil
	}
	if m, ok := schema.(map[string]any); ok {
		return m, nil
	}
	b, err := json.Marshal(schema)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return m, nil
}
