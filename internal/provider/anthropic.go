package provider

import (
	"context"
	"encoding/json"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/petasbytes/toolgraph/memory"
	"github.com/petasbytes/toolgraph/tools"
)

const DefaultAnthropicModel = anthropic.ModelClaude3_7SonnetLatest

// Anthropic adapts the Messages API to the router's Inference contract.
type Anthropic struct {
	client    anthropic.Client
	model     anthropic.Model
	maxTokens int64
}

// NewAnthropic reads ANTHROPIC_API_KEY from the environment unless opts supply a key.
func NewAnthropic(model string, maxTokens int, opts ...option.RequestOption) *Anthropic {
	m := anthropic.Model(model)
	if model == "" {
		m = DefaultAnthropicModel
	}
	return &Anthropic{client: anthropic.NewClient(opts...), model: m, maxTokens: int64(maxTokens)}
}

func (a *Anthropic) Name() string { return "anthropic" }

func (a *Anthropic) Generate(ctx context.Context, msgs []memory.Message, defs []tools.ToolDefinition) (memory.Message, error) {
	params := anthropic.MessageNewParams{
		Model:     a.model,
		MaxTokens: a.maxTokens,
		Messages:  anthropicMessages(msgs),
		Tools:     anthropicTools(defs),
	}
	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return memory.Message{}, err
	}

	out := memory.Message{Role: memory.RoleAssistant}
	for _, block := range resp.Content {
		switch v := block.AsAny().(type) {
		case anthropic.TextBlock:
			out.Text += v.Text
		case anthropic.ToolUseBlock:
			// Pass raw JSON input through to the tool implementation
			out.ToolCalls = append(out.ToolCalls, memory.ToolCall{
				ID:        v.ID,
				Name:      v.Name,
				Arguments: json.RawMessage(v.JSON.Input.Raw()),
			})
		}
	}
	return out, nil
}

func anthropicTools(defs []tools.ToolDefinition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, d := range defs {
		schema := anthropic.ToolInputSchemaParam{}
		if d.InputSchema != nil {
			schema.Properties = d.InputSchema.Properties
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        d.Name,
			Description: anthropic.String(d.Description),
			InputSchema: schema,
		}})
	}
	return out
}

// anthropicMessages maps the history onto alternating user/assistant turns.
// Consecutive tool results become one user message of tool_result blocks.
func anthropicMessages(msgs []memory.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	var results []anthropic.ContentBlockParamUnion
	flush := func() {
		if len(results) > 0 {
			out = append(out, anthropic.NewUserMessage(results...))
			results = nil
		}
	}

	for _, m := range msgs {
		switch m.Role {
		case memory.RoleTool:
			results = append(results, anthropic.NewToolResultBlock(m.CallID, m.Text, m.IsError))
		case memory.RoleUser:
			flush()
			out = append(out, anthropic.NewUserMessage(anthropic.NewTextBlock(m.Text)))
		case memory.RoleAssistant:
			flush()
			var blocks []anthropic.ContentBlockParamUnion
			if m.Text != "" {
				blocks = append(blocks, anthropic.NewTextBlock(m.Text))
			}
			for _, tc := range m.ToolCalls {
				blocks = append(blocks, anthropic.ContentBlockParamUnion{OfToolUse: &anthropic.ToolUseBlockParam{
					ID:    tc.ID,
					Name:  tc.Name,
					Input: inputOrEmpty(tc.Arguments),
				}})
			}
			if len(blocks) == 0 {
				blocks = append(blocks, anthropic.NewTextBlock("(no content)"))
			}
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		}
	}
	flush()
	return out
}

// inputOrEmpty keeps tool_use.input a JSON object even when the model sent none.
func inputOrEmpty(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || !json.Valid(raw) {
		return json.RawMessage(`{}`)
	}
	return raw
}
