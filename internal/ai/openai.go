package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"

	"github.com/tmc/langchaingo/llms"
)

// OpenAIModel implements Model on top of a langchaingo chat model, normally the OpenAI provider
type OpenAIModel struct {
	llm llms.Model
}

func NewOpenAIModel(llm llms.Model) *OpenAIModel {
	return &OpenAIModel{llm: llm}
}

func (om *OpenAIModel) Generate(ctx context.Context, messages []Message, tools []ToolSpec) (Reply, error) {
	content, err := toLangchainMessages(messages)
	if err != nil {
		return Reply{}, err
	}

	opts := []llms.CallOption{}
	if len(tools) > 0 {
		opts = append(opts, llms.WithTools(toLangchainTools(tools)))
	}

	resp, err := om.llm.GenerateContent(ctx, content, opts...)
	if err != nil {
		return Reply{}, fmt.Errorf("failed to generate content: %w", err)
	}
	return replyFromLangchain(resp)
}

func toLangchainMessages(messages []Message) ([]llms.MessageContent, error) {
	content := make([]llms.MessageContent, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			content = append(content, llms.TextParts(llms.ChatMessageTypeSystem, msg.Content))
		case RoleUser:
			content = append(content, llms.TextParts(llms.ChatMessageTypeHuman, msg.Content))
		case RoleAssistant:
			parts := []llms.ContentPart{}
			if msg.Content != "" {
				parts = append(parts, llms.TextContent{Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				parts = append(parts, llms.ToolCall{
					ID:   call.ID,
					Type: "function",
					FunctionCall: &llms.FunctionCall{
						Name:      call.Name,
						Arguments: string(normalizeArguments(call.Arguments)),
					},
				})
			}
			if len(parts) == 0 {
				continue
			}
			content = append(content, llms.MessageContent{Role: llms.ChatMessageTypeAI, Parts: parts})
		case RoleTool:
			// One tool message per result, as the chat completions API expects
			for _, result := range msg.ToolResults {
				text := result.Content
				if result.IsError {
					text = "Error: " + text
				}
				content = append(content, llms.MessageContent{
					Role: llms.ChatMessageTypeTool,
					Parts: []llms.ContentPart{
						llms.ToolCallResponse{
							ToolCallID: result.CallID,
							Name:       result.Name,
							Content:    text,
						},
					},
				})
			}
		default:
			return nil, fmt.Errorf("unsupported message role: %s", msg.Role)
		}
	}
	return content, nil
}

func toLangchainTools(tools []ToolSpec) []llms.Tool {
	result := make([]llms.Tool, 0, len(tools))
	for _, tool := range tools {
		parameters := tool.InputSchema
		if parameters == nil {
			parameters = map[string]any{"type": "object", "properties": map[string]any{}}
		}
		result = append(result, llms.Tool{
			Type: "function",
			Function: &llms.FunctionDefinition{
				Name:        tool.Name,
				Description: tool.Description,
				Parameters:  parameters,
			},
		})
	}
	return result
}

func replyFromLangchain(resp *llms.ContentResponse) (Reply, error) {
	if resp == nil || len(resp.Choices) == 0 {
		return Reply{}, errors.New("model response had no choices")
	}
	choice := resp.Choices[0]

	reply := Reply{Text: choice.Content}
	for _, call := range choice.ToolCalls {
		if call.FunctionCall == nil {
			log.Printf("Warning: ignoring tool call %s without a function", call.ID)
			continue
		}
		reply.ToolCalls = append(reply.ToolCalls, ToolCall{
			ID:        call.ID,
			Name:      call.FunctionCall.Name,
			Arguments: json.RawMessage(call.FunctionCall.Arguments),
		})
	}
	reply.Usage = usageFromGenerationInfo(choice.GenerationInfo)
	return reply, nil
}

// usageFromGenerationInfo reads token counts reported by the OpenAI provider, when present
func usageFromGenerationInfo(info map[string]any) Usage {
	toInt64 := func(v any) int64 {
		switch n := v.(type) {
		case int:
			return int64(n)
		case int64:
			return n
		case float64:
			return int64(n)
		default:
			return 0
		}
	}
	return Usage{
		InputTokens:  toInt64(info["PromptTokens"]),
		OutputTokens: toInt64(info["CompletionTokens"]),
	}
}
