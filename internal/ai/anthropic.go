package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
)

// AnthropicModel implements Model with the Anthropic Messages API. Responses are streamed and accumulated
type AnthropicModel struct {
	client          anthropic.Client
	model           anthropic.Model
	maxOutputTokens int64
}

func NewAnthropicModel(client anthropic.Client, model anthropic.Model, maxOutputTokens int64) *AnthropicModel {
	return &AnthropicModel{
		client:          client,
		model:           model,
		maxOutputTokens: maxOutputTokens,
	}
}

func (am *AnthropicModel) Generate(ctx context.Context, messages []Message, tools []ToolSpec) (Reply, error) {
	params, err := am.buildParams(messages, tools)
	if err != nil {
		return Reply{}, err
	}

	stream := am.client.Messages.NewStreaming(ctx, params)
	response := anthropic.Message{}
	for stream.Next() {
		event := stream.Current()
		err := response.Accumulate(event)
		if err != nil {
			return Reply{}, fmt.Errorf("failed to accumulate response content stream: %w", err)
		}
	}
	if stream.Err() != nil {
		return Reply{}, fmt.Errorf("failed to stream response: %w", stream.Err())
	}
	if response.StopReason == "" {
		b, err := json.Marshal(response)
		if err != nil {
			log.Printf("error while marshalling corrupt message for inspection: %v", err)
		}
		return Reply{}, fmt.Errorf("malformed message: %v", string(b))
	}

	log.Printf("Token usage - Input: %d, Output: %d", response.Usage.InputTokens, response.Usage.OutputTokens)

	return replyFromAnthropic(response)
}

func (am *AnthropicModel) buildParams(messages []Message, tools []ToolSpec) (anthropic.MessageNewParams, error) {
	params := anthropic.MessageNewParams{
		Model:     am.model,
		MaxTokens: am.maxOutputTokens,
	}

	for _, msg := range messages {
		switch msg.Role {
		case RoleSystem:
			// The Messages API takes system instructions out of band
			params.System = append(params.System, anthropic.TextBlockParam{Text: msg.Content})
		case RoleUser:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		case RoleAssistant:
			blocks := []anthropic.ContentBlockParamUnion{}
			if msg.Content != "" {
				blocks = append(blocks, anthropic.NewTextBlock(msg.Content))
			}
			for _, call := range msg.ToolCalls {
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolUse: &anthropic.ToolUseBlockParam{
						ID:    call.ID,
						Name:  call.Name,
						Input: normalizeArguments(call.Arguments),
					},
				})
			}
			if len(blocks) == 0 {
				continue
			}
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(blocks...))
		case RoleTool:
			// Tool results are sent as a user message
			blocks := []anthropic.ContentBlockParamUnion{}
			for _, result := range msg.ToolResults {
				blocks = append(blocks, anthropic.ContentBlockParamUnion{
					OfToolResult: &anthropic.ToolResultBlockParam{
						ToolUseID: result.CallID,
						Content: []anthropic.ToolResultBlockParamContentUnion{
							{OfText: &anthropic.TextBlockParam{Text: result.Content}},
						},
						IsError: anthropic.Bool(result.IsError),
					},
				})
			}
			params.Messages = append(params.Messages, anthropic.NewUserMessage(blocks...))
		default:
			return anthropic.MessageNewParams{}, fmt.Errorf("unsupported message role: %s", msg.Role)
		}
	}

	for _, tool := range tools {
		toolParam := anthropic.ToolParam{
			Name:        tool.Name,
			InputSchema: anthropicInputSchema(tool.InputSchema),
		}
		if tool.Description != "" {
			toolParam.Description = anthropic.String(tool.Description)
		}
		params.Tools = append(params.Tools, anthropic.ToolUnionParam{OfTool: &toolParam})
	}

	return params, nil
}

// anthropicInputSchema converts a JSON schema object into the tool input schema shape the API expects
func anthropicInputSchema(schema map[string]any) anthropic.ToolInputSchemaParam {
	inputSchema := anthropic.ToolInputSchemaParam{
		Properties: map[string]any{},
	}
	if properties, ok := schema["properties"]; ok && properties != nil {
		inputSchema.Properties = properties
	}
	if required, ok := schema["required"].([]any); ok {
		for _, r := range required {
			if name, ok := r.(string); ok {
				inputSchema.Required = append(inputSchema.Required, name)
			}
		}
	}
	return inputSchema
}

func replyFromAnthropic(response anthropic.Message) (Reply, error) {
	switch response.StopReason {
	case anthropic.StopReasonMaxTokens:
		return Reply{}, fmt.Errorf("exceeded max tokens")
	case anthropic.StopReasonRefusal:
		return Reply{}, fmt.Errorf("the AI refused to generate a response due to safety concerns")
	}

	reply := Reply{
		Usage: Usage{
			InputTokens:  response.Usage.InputTokens,
			OutputTokens: response.Usage.OutputTokens,
		},
	}
	var texts []string
	for _, contentBlock := range response.Content {
		switch block := contentBlock.AsAny().(type) {
		case anthropic.TextBlock:
			texts = append(texts, block.Text)
		case anthropic.ToolUseBlock:
			reply.ToolCalls = append(reply.ToolCalls, ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: block.Input,
			})
		}
	}
	reply.Text = strings.Join(texts, "\n\n")
	return reply, nil
}

// normalizeArguments returns the arguments as a JSON object, substituting an empty object for missing arguments
func normalizeArguments(args json.RawMessage) json.RawMessage {
	if len(strings.TrimSpace(string(args))) == 0 {
		return json.RawMessage("{}")
	}
	return args
}
