// Package tools connects the agent to an MCP tool server and dispatches the model's tool calls to it.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/DevanshMishra-12/AI-Agent/internal/ai"
)

// Caller runs a named tool with JSON arguments and returns its text output. The error will be a ToolInputError if the
// tool itself reported a failure that the model may be able to recover from
type Caller interface {
	CallTool(ctx context.Context, name string, args json.RawMessage) (string, error)
}

// ToolInputError represents an error that could be recovered by correcting inputs to the tool. This error will be
// uploaded to the AI, so it must not contain any sensitive information
type ToolInputError struct {
	cause error
}

func (tie ToolInputError) Error() string {
	return fmt.Sprintf("tool input error: %s", tie.cause)
}

func (tie ToolInputError) Unwrap() error {
	return tie.cause
}

func NewToolInputError(cause error) ToolInputError {
	return ToolInputError{cause: cause}
}

// ToolRegistry manages the tools offered by one tool session
type ToolRegistry struct {
	tools  map[string]ai.ToolSpec
	order  []string
	caller Caller
}

// NewToolRegistry creates a registry for the given tools, all of which are run by caller
func NewToolRegistry(specs []ai.ToolSpec, caller Caller) *ToolRegistry {
	registry := &ToolRegistry{
		tools:  make(map[string]ai.ToolSpec),
		caller: caller,
	}
	for _, spec := range specs {
		registry.registerTool(spec)
	}
	return registry
}

func (tr *ToolRegistry) registerTool(spec ai.ToolSpec) {
	if _, exists := tr.tools[spec.Name]; !exists {
		tr.order = append(tr.order, spec.Name)
	}
	tr.tools[spec.Name] = spec
}

// GetTool returns a tool by name
func (tr *ToolRegistry) GetTool(name string) (ai.ToolSpec, bool) {
	spec, ok := tr.tools[name]
	return spec, ok
}

// GetToolSpecs returns all tool specs, in the order the server listed them
func (tr *ToolRegistry) GetToolSpecs() []ai.ToolSpec {
	specs := make([]ai.ToolSpec, 0, len(tr.order))
	for _, name := range tr.order {
		specs = append(specs, tr.tools[name])
	}
	return specs
}

// ProcessToolUse runs a tool call and converts its outcome into a result for the model. Unknown tools and
// ToolInputErrors are reported to the model as error results; any other error is returned
func (tr *ToolRegistry) ProcessToolUse(ctx context.Context, call ai.ToolCall) (ai.ToolResult, error) {
	if _, ok := tr.tools[call.Name]; !ok {
		log.Printf("Warning: model requested unknown tool %q", call.Name)
		return newToolResult(call, fmt.Sprintf("unknown tool: %s", call.Name), true), nil
	}

	output, err := tr.caller.CallTool(ctx, call.Name, call.Arguments)

	var tie ToolInputError
	if errors.As(err, &tie) {
		// Respond with an error result to give the AI the opportunity to correct the inputs
		log.Print("Warning: recoverable tool error, reporting to the AI to give it an opportunity to retry")
		return newToolResult(call, tie.Error(), true), nil
	} else if err != nil {
		return ai.ToolResult{}, fmt.Errorf("error while running tool %s: %w", call.Name, err)
	}
	return newToolResult(call, output, false), nil
}

func newToolResult(call ai.ToolCall, content string, isError bool) ai.ToolResult {
	return ai.ToolResult{
		CallID:  call.ID,
		Name:    call.Name,
		Content: content,
		IsError: isError,
	}
}
