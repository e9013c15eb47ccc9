package provider

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/sashabaranov/go-openai"
	"github.com/tidwall/sjson"

	"github.com/petasbytes/toolgraph/memory"
	"github.com/petasbytes/toolgraph/tools"
)

const DefaultOpenAIModel = openai.GPT4oMini

// OpenAI adapts Chat Completions with function tools.
type OpenAI struct {
	client    *openai.Client
	model     string
	maxTokens int
}

func NewOpenAI(cfg openai.ClientConfig, model string, maxTokens int) *OpenAI {
	if model == "" {
		model = DefaultOpenAIModel
	}
	return &OpenAI{client: openai.NewClientWithConfig(cfg), model: model, maxTokens: maxTokens}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Generate(ctx context.Context, msgs []memory.Message, defs []tools.ToolDefinition) (memory.Message, error) {
	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:     o.model,
		MaxTokens: o.maxTokens,
		Messages:  openaiMessages(msgs),
		Tools:     openaiTools(defs),
	})
	if err != nil {
		return memory.Message{}, err
	}
	if len(resp.Choices) == 0 {
		return memory.Message{}, errors.New("no choices in OpenAI response")
	}

	msg := resp.Choices[0].Message
	out := memory.Message{Role: memory.RoleAssistant, Text: msg.Content}
	for _, tc := range msg.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, memory.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: inputOrEmpty(json.RawMessage(tc.Function.Arguments)),
		})
	}
	return out, nil
}

func openaiMessages(msgs []memory.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case memory.RoleUser:
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Text})
		case memory.RoleAssistant:
			cm := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Text}
			for _, tc := range m.ToolCalls {
				cm.ToolCalls = append(cm.ToolCalls, openai.ToolCall{
					ID:   tc.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      tc.Name,
						Arguments: string(inputOrEmpty(tc.Arguments)),
					},
				})
			}
			out = append(out, cm)
		case memory.RoleTool:
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    m.Text,
				ToolCallID: m.CallID,
				Name:       m.ToolName,
			})
		}
	}
	return out
}

func openaiTools(defs []tools.ToolDefinition) []openai.Tool {
	out := make([]openai.Tool, 0, len(defs))
	for _, d := range defs {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        d.Name,
				Description: d.Description,
				Parameters:  openaiParameters(d),
			},
		})
	}
	return out
}

// openaiParameters is the tool's schema without the draft/id keywords the
// function-calling endpoint does not expect.
func openaiParameters(d tools.ToolDefinition) json.RawMessage {
	if d.InputSchema == nil {
		return json.RawMessage(`{"type":"object","properties":{}}`)
	}
	b, err := json.Marshal(d.InputSchema)
	if err != nil {
		return json.RawMessage(`{"type":"object","properties":{}}`)
	}
	b, _ = sjson.DeleteBytes(b, `\$schema`)
	b, _ = sjson.DeleteBytes(b, `\$id`)
	return b
}
