package provider_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/petasbytes/toolgraph/internal/provider"
	"github.com/petasbytes/toolgraph/memory"
	"github.com/petasbytes/toolgraph/tools"
)

type capture struct {
	method string
	url    string
	body   []byte
}

type fakeTransport struct {
	respStatus int
	respBody   []byte
	captured   *capture
}

func (f *fakeTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	b, _ := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if f.captured != nil {
		f.captured.method = req.Method
		f.captured.url = req.URL.String()
		f.captured.body = b
	}
	resp := &http.Response{
		StatusCode: f.respStatus,
		Body:       io.NopCloser(bytes.NewReader(f.respBody)),
		Header:     make(http.Header),
	}
	resp.Header.Set("Content-Type", "application/json")
	return resp, nil
}

func newAnthropic(rt http.RoundTripper) *provider.Anthropic {
	return provider.NewAnthropic("", 256,
		option.WithHTTPClient(&http.Client{Transport: rt}),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
		// Base URL is irrelevant since transport intercepts
	)
}

type wireBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

type wireRequest struct {
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
	Messages  []struct {
		Role    string      `json:"role"`
		Content []wireBlock `json:"content"`
	} `json:"messages"`
	Tools []struct {
		Name        string          `json:"name"`
		InputSchema json.RawMessage `json:"input_schema"`
	} `json:"tools"`
}

type lookupInput struct {
	Query string `json:"query"`
}

func lookupDef() tools.ToolDefinition {
	return tools.NewTool("knowledge_lookup", "look up", func(context.Context, lookupInput) tools.Result {
		return tools.Success("")
	})
}

func TestAnthropic_ParsesTextAndToolUse(t *testing.T) {
	resp := `{
		"id": "msg_1", "type": "message", "role": "assistant", "model": "claude-3-7-sonnet-latest",
		"content": [
			{"type": "text", "text": "Let me check."},
			{"type": "tool_use", "id": "toolu_1", "name": "knowledge_lookup", "input": {"query": "LangChain"}}
		],
		"stop_reason": "tool_use"
	}`
	capReq := &capture{}
	a := newAnthropic(&fakeTransport{respStatus: 200, respBody: []byte(resp), captured: capReq})

	msg, err := a.Generate(context.Background(), []memory.Message{memory.UserMessage("hi")}, []tools.ToolDefinition{lookupDef()})
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if msg.Role != memory.RoleAssistant || msg.Text != "Let me check." {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if len(msg.ToolCalls) != 1 {
		t.Fatalf("tool calls: %+v", msg.ToolCalls)
	}
	tc := msg.ToolCalls[0]
	if tc.ID != "toolu_1" || tc.Name != "knowledge_lookup" {
		t.Fatalf("tool call: %+v", tc)
	}
	args, err := tc.Args()
	if err != nil || args["query"] != "LangChain" {
		t.Fatalf("args: %v %v", args, err)
	}

	var req wireRequest
	if err := json.Unmarshal(capReq.body, &req); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if capReq.method != http.MethodPost {
		t.Errorf("method: %s", capReq.method)
	}
	if req.Model != string(provider.DefaultAnthropicModel) || req.MaxTokens != 256 {
		t.Errorf("model/max_tokens: %s %d", req.Model, req.MaxTokens)
	}
	if len(req.Tools) != 1 || req.Tools[0].Name != "knowledge_lookup" {
		t.Fatalf("tools: %+v", req.Tools)
	}
	if !bytes.Contains(req.Tools[0].InputSchema, []byte(`"query"`)) {
		t.Errorf("schema lacks query property: %s", req.Tools[0].InputSchema)
	}
}

func TestAnthropic_GroupsToolResults(t *testing.T) {
	capReq := &capture{}
	a := newAnthropic(&fakeTransport{
		respStatus: 200,
		respBody:   []byte(`{"role":"assistant","content":[{"type":"text","text":"saved"}]}`),
		captured:   capReq,
	})

	history := []memory.Message{
		memory.UserMessage("look up and save"),
		memory.AssistantMessage("",
			memory.ToolCall{ID: "c1", Name: "knowledge_lookup", Arguments: json.RawMessage(`{"query":"x"}`)},
			memory.ToolCall{ID: "c2", Name: "record_result"},
		),
		memory.ToolResultMessage("c1", "knowledge_lookup", "Page: X", false),
		memory.ToolResultMessage("c2", "record_result", "Error ERR_NOT_CONFIGURED: no sheet", true),
	}
	msg, err := a.Generate(context.Background(), history, nil)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if msg.Text != "saved" || msg.HasToolCalls() {
		t.Fatalf("unexpected reply: %+v", msg)
	}

	var req wireRequest
	if err := json.Unmarshal(capReq.body, &req); err != nil {
		t.Fatalf("request body: %v", err)
	}
	if len(req.Messages) != 3 {
		t.Fatalf("want user, assistant, user(tool results); got %d messages", len(req.Messages))
	}
	asst := req.Messages[1]
	if asst.Role != "assistant" || len(asst.Content) != 2 || asst.Content[0].Type != "tool_use" {
		t.Fatalf("assistant message: %+v", asst)
	}
	if string(asst.Content[1].Input) != "{}" {
		t.Errorf("empty input should be sent as {}: %s", asst.Content[1].Input)
	}
	results := req.Messages[2]
	if results.Role != "user" || len(results.Content) != 2 {
		t.Fatalf("tool result message: %+v", results)
	}
	if results.Content[0].ToolUseID != "c1" || results.Content[1].ToolUseID != "c2" {
		t.Errorf("tool_use_id order: %+v", results.Content)
	}
	if results.Content[0].IsError || !results.Content[1].IsError {
		t.Errorf("is_error flags: %+v", results.Content)
	}
}

func TestAnthropic_APIError(t *testing.T) {
	a := newAnthropic(&fakeTransport{
		respStatus: 401,
		respBody:   []byte(`{"type":"error","error":{"type":"authentication_error","message":"invalid x-api-key"}}`),
	})
	if _, err := a.Generate(context.Background(), []memory.Message{memory.UserMessage("hi")}, nil); err == nil {
		t.Fatal("expected error")
	}
}
