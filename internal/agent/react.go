// Package agent runs a ReAct-style reasoning loop against an MCP tool server and exposes it to chat sessions through a
// Bridge that never fails.
package agent

import (
	"context"
	"fmt"
	"log"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/DevanshMishra-12/AI-Agent/internal/ai"
	"github.com/DevanshMishra-12/AI-Agent/internal/chat"
	"github.com/DevanshMishra-12/AI-Agent/internal/telemetry"
	"github.com/DevanshMishra-12/AI-Agent/internal/tools"
)

// DefaultMaxIterations bounds the number of model calls in one invocation
const DefaultMaxIterations = 25

// ToolServer starts a tool session. Each invocation gets its own session, closed before the invocation returns
type ToolServer interface {
	Connect(ctx context.Context) (tools.Session, error)
}

// ReActAgent alternates between asking the model for a reply and running the tools it asks for, until the model
// answers without calling a tool
type ReActAgent struct {
	model         ai.Model
	server        ToolServer
	tracer        trace.Tracer
	maxIterations int
}

func NewReActAgent(model ai.Model, server ToolServer, tracer trace.Tracer, maxIterations int) *ReActAgent {
	if maxIterations <= 0 {
		maxIterations = DefaultMaxIterations
	}
	return &ReActAgent{
		model:         model,
		server:        server,
		tracer:        tracer,
		maxIterations: maxIterations,
	}
}

// Invoke runs the loop for a conversation and returns the assistant messages it produced, the final answer last
func (ra *ReActAgent) Invoke(ctx context.Context, turns []chat.Turn) (produced []chat.Turn, err error) {
	invocationID := telemetry.NewInvocationID()
	ctx, span := ra.tracer.Start(ctx, "agent.invoke", trace.WithAttributes(
		attribute.String("agent.invocation_id", invocationID),
		attribute.Int("agent.context_turns", len(turns)),
	))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	session, err := ra.server.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to start tool server: %w", err)
	}
	defer func() {
		if err := session.Close(); err != nil {
			log.Printf("failed to close tool session: %v", err)
		}
	}()

	specs, err := session.ListTools(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load tools: %w", err)
	}
	registry := tools.NewToolRegistry(specs, session)
	log.Printf("Agent invocation %s: %d tools available", invocationID, len(specs))

	messages := toModelMessages(turns)
	for i := 0; i < ra.maxIterations; i++ {
		reply, err := ra.generate(ctx, messages, registry.GetToolSpecs(), i)
		if err != nil {
			return nil, err
		}
		messages = append(messages, ai.Message{Role: ai.RoleAssistant, Content: reply.Text, ToolCalls: reply.ToolCalls})

		if len(reply.ToolCalls) == 0 {
			produced = append(produced, chat.Turn{Role: chat.RoleAssistant, Content: reply.Text})
			log.Printf("Agent invocation %s concluded after %d iterations", invocationID, i+1)
			return produced, nil
		}
		if reply.Text != "" {
			produced = append(produced, chat.Turn{Role: chat.RoleAssistant, Content: reply.Text})
		}

		results := []ai.ToolResult{}
		for _, call := range reply.ToolCalls {
			result, err := ra.runTool(ctx, registry, call, invocationID, i)
			if err != nil {
				return nil, err
			}
			results = append(results, result)
		}
		messages = append(messages, ai.NewToolResultMessage(results...))
	}

	return nil, fmt.Errorf("exceeded maximum iterations (%d) without completion", ra.maxIterations)
}

func (ra *ReActAgent) generate(ctx context.Context, messages []ai.Message, specs []ai.ToolSpec, iteration int) (ai.Reply, error) {
	ctx, span := ra.tracer.Start(ctx, "model.generate", trace.WithAttributes(
		attribute.Int("agent.iteration", iteration),
		attribute.Int("model.messages", len(messages)),
	))
	defer span.End()

	reply, err := ra.model.Generate(ctx, messages, specs)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ai.Reply{}, fmt.Errorf("failed to get model reply: %w", err)
	}
	span.SetAttributes(
		attribute.Int64("model.input_tokens", reply.Usage.InputTokens),
		attribute.Int64("model.output_tokens", reply.Usage.OutputTokens),
		attribute.Int("model.tool_calls", len(reply.ToolCalls)),
	)
	return reply, nil
}

func (ra *ReActAgent) runTool(ctx context.Context, registry *tools.ToolRegistry, call ai.ToolCall, invocationID string, iteration int) (ai.ToolResult, error) {
	ctx, span := ra.tracer.Start(ctx, "tool.call", trace.WithAttributes(
		attribute.String("tool.name", telemetry.TransformToolName(call.Name, call.Arguments)),
	))
	defer span.End()

	log.Printf("    Executing tool: %s", call.Name)
	result, err := registry.ProcessToolUse(ctx, call)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return ai.ToolResult{}, fmt.Errorf("failed to process tool use: %w", err)
	}

	telemetry.RecordToolUse(ctx, telemetry.ToolUseTelemetry{
		ToolName:       call.Name,
		ToolUseSize:    len(call.Arguments),
		ToolResultSize: len(result.Content),
		HasError:       result.IsError,
		InvocationID:   invocationID,
		Iteration:      iteration,
	})
	return result, nil
}

func toModelMessages(turns []chat.Turn) []ai.Message {
	messages := make([]ai.Message, 0, len(turns))
	for _, turn := range turns {
		messages = append(messages, ai.Message{Role: ai.Role(turn.Role), Content: turn.Content})
	}
	return messages
}
