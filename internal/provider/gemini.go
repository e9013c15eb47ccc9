package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"github.com/google/uuid"
	"github.com/invopop/jsonschema"
	"google.golang.org/api/option"

	"github.com/petasbytes/toolgraph/memory"
	"github.com/petasbytes/toolgraph/tools"
)

const DefaultGeminiModel = "gemini-2.0-flash"

// Gemini adapts the Gemini API (AI Studio key) to the router's Inference contract.
// The API does not identify function calls, so call IDs are minted locally.
type Gemini struct {
	client    *genai.Client
	model     string
	maxTokens int32
}

func NewGemini(ctx context.Context, apiKey, model string, maxTokens int, opts ...option.ClientOption) (*Gemini, error) {
	if model == "" {
		model = DefaultGeminiModel
	}
	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	return &Gemini{client: client, model: model, maxTokens: int32(maxTokens)}, nil
}

func (g *Gemini) Name() string { return "gemini" }

func (g *Gemini) Close() error { return g.client.Close() }

func (g *Gemini) Generate(ctx context.Context, msgs []memory.Message, defs []tools.ToolDefinition) (memory.Message, error) {
	contents := geminiContents(msgs)
	if len(contents) == 0 {
		return memory.Message{}, errors.New("gemini: empty conversation")
	}

	model := g.client.GenerativeModel(g.model)
	model.SetMaxOutputTokens(g.maxTokens)
	model.Tools = geminiTools(defs)

	chat := model.StartChat()
	chat.History = contents[:len(contents)-1]
	resp, err := chat.SendMessage(ctx, contents[len(contents)-1].Parts...)
	if err != nil {
		return memory.Message{}, fmt.Errorf("gemini chat error: %w", err)
	}
	return geminiReply(resp, func() string { return "call_" + uuid.NewString() })
}

// geminiContents converts the history, merging consecutive turns of the same
// role; tool results travel as function responses in a user turn.
func geminiContents(msgs []memory.Message) []*genai.Content {
	var out []*genai.Content
	add := func(role string, parts ...genai.Part) {
		if len(parts) == 0 {
			return
		}
		if n := len(out); n > 0 && out[n-1].Role == role {
			out[n-1].Parts = append(out[n-1].Parts, parts...)
			return
		}
		out = append(out, &genai.Content{Role: role, Parts: parts})
	}

	for _, m := range msgs {
		switch m.Role {
		case memory.RoleUser:
			add("user", genai.Text(m.Text))
		case memory.RoleAssistant:
			var parts []genai.Part
			if m.Text != "" {
				parts = append(parts, genai.Text(m.Text))
			}
			for _, tc := range m.ToolCalls {
				args, err := tc.Args()
				if err != nil {
					args = map[string]any{}
				}
				parts = append(parts, genai.FunctionCall{Name: tc.Name, Args: args})
			}
			add("model", parts...)
		case memory.RoleTool:
			key := "content"
			if m.IsError {
				key = "error"
			}
			add("user", genai.FunctionResponse{Name: m.ToolName, Response: map[string]any{key: m.Text}})
		}
	}
	return out
}

func geminiReply(resp *genai.GenerateContentResponse, newID func() string) (memory.Message, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return memory.Message{}, errors.New("no response from Gemini")
	}
	out := memory.Message{Role: memory.RoleAssistant}
	for _, part := range resp.Candidates[0].Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			out.Text += string(p)
		case genai.FunctionCall:
			args, err := json.Marshal(p.Args)
			if err != nil || p.Args == nil {
				args = []byte(`{}`)
			}
			out.ToolCalls = append(out.ToolCalls, memory.ToolCall{ID: newID(), Name: p.Name, Arguments: args})
		}
	}
	return out, nil
}

func geminiTools(defs []tools.ToolDefinition) []*genai.Tool {
	if len(defs) == 0 {
		return nil
	}
	decls := make([]*genai.FunctionDeclaration, 0, len(defs))
	for _, d := range defs {
		fd := &genai.FunctionDeclaration{Name: d.Name, Description: d.Description}
		if d.InputSchema != nil && d.InputSchema.Properties != nil && d.InputSchema.Properties.Len() > 0 {
			fd.Parameters = geminiSchema(d.InputSchema)
		}
		decls = append(decls, fd)
	}
	return []*genai.Tool{{FunctionDeclarations: decls}}
}

// geminiSchema converts the subset of JSON Schema that genai.Schema can express.
func geminiSchema(s *jsonschema.Schema) *genai.Schema {
	if s == nil {
		return nil
	}
	out := &genai.Schema{Description: s.Description, Required: s.Required}
	switch s.Type {
	case "object":
		out.Type = genai.TypeObject
	case "string":
		out.Type = genai.TypeString
	case "integer":
		out.Type = genai.TypeInteger
	case "number":
		out.Type = genai.TypeNumber
	case "boolean":
		out.Type = genai.TypeBoolean
	case "array":
		out.Type = genai.TypeArray
		out.Items = geminiSchema(s.Items)
	}
	for _, e := range s.Enum {
		if v, ok := e.(string); ok {
			out.Enum = append(out.Enum, v)
		}
	}
	if s.Properties != nil && s.Properties.Len() > 0 {
		out.Properties = make(map[string]*genai.Schema, s.Properties.Len())
		for pair := s.Properties.Oldest(); pair != nil; pair = pair.Next() {
			out.Properties[pair.Key] = geminiSchema(pair.Value)
		}
	}
	return out
}
