// Package chat holds per-user conversation state: the turn log sent to the agent and the turn log shown in the UI.
package chat

import "context"

// Role identifies who produced a turn
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one role-tagged message. Turns are values and are never modified after creation
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// SystemPrompt is the instruction every context log starts with
const SystemPrompt = "You are a helpful assistant that can scrape websites, " +
	"crawl pages, and extract data using firecrawls tools. " +
	"Think step by step and use the tools when necessary."

// MaxUserInputChars bounds the user text that is forwarded to the agent. Longer input is truncated, not rejected
const MaxUserInputChars = 175000

// Bridge produces an assistant reply for a context log. Implementations must not fail: errors are reported through
// the returned text
type Bridge interface {
	Call(ctx context.Context, contextLog []Turn) string
}
