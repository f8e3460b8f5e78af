// Package ai provides provider-neutral chat model types and adapters for the supported model APIs.
package ai

import (
	"context"
	"encoding/json"
)

// Role of a message in a model conversation
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of a model conversation. Assistant messages may carry tool calls; tool messages carry the
// results of those calls
type Message struct {
	Role        Role
	Content     string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// ToolSpec describes a tool the model may call
type ToolSpec struct {
	Name        string
	Description string
	// InputSchema is a JSON schema object describing the tool arguments
	InputSchema map[string]any
}

// ToolCall is a request from the model to run a tool
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ToolResult is the outcome of a ToolCall, sent back to the model
type ToolResult struct {
	CallID  string
	Name    string
	Content string
	IsError bool
}

// Usage reports token counts for one model response
type Usage struct {
	InputTokens  int64
	OutputTokens int64
}

// Reply is one model response. A reply without tool calls ends a reasoning loop
type Reply struct {
	Text      string
	ToolCalls []ToolCall
	Usage     Usage
}

// Model generates a reply for a conversation, optionally calling tools
type Model interface {
	Generate(ctx context.Context, messages []Message, tools []ToolSpec) (Reply, error)
}

// NewToolResultMessage bundles tool results into a single tool message
func NewToolResultMessage(results ...ToolResult) Message {
	return Message{Role: RoleTool, ToolResults: results}
}
