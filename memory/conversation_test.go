package memory_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/petasbytes/toolgraph/memory"
)

func call(id, name string) memory.ToolCall {
	return memory.ToolCall{ID: id, Name: name, Arguments: json.RawMessage(`{"query":"x"}`)}
}

func TestConversation_AppendLinkage(t *testing.T) {
	tests := []struct {
		name    string
		msgs    []memory.Message
		wantErr error
	}{
		{
			name: "single call answered",
			msgs: []memory.Message{
				memory.UserMessage("hi"),
				memory.AssistantMessage("", call("a", "knowledge_lookup")),
				memory.ToolResultMessage("a", "knowledge_lookup", "ok", false),
			},
		},
		{
			name: "parallel calls answered out of order",
			msgs: []memory.Message{
				memory.AssistantMessage("", call("a", "x"), call("b", "y")),
				memory.ToolResultMessage("b", "y", "ok", false),
				memory.ToolResultMessage("a", "x", "ok", true),
			},
		},
		{
			name: "result without assistant",
			msgs: []memory.Message{
				memory.UserMessage("hi"),
				memory.ToolResultMessage("a", "x", "ok", false),
			},
			wantErr: memory.ErrOrphanToolResult,
		},
		{
			name: "result for unknown id",
			msgs: []memory.Message{
				memory.AssistantMessage("", call("a", "x")),
				memory.ToolResultMessage("zzz", "x", "ok", false),
			},
			wantErr: memory.ErrOrphanToolResult,
		},
		{
			name: "duplicate result",
			msgs: []memory.Message{
				memory.AssistantMessage("", call("a", "x")),
				memory.ToolResultMessage("a", "x", "ok", false),
				memory.ToolResultMessage("a", "x", "again", false),
			},
			wantErr: memory.ErrDuplicateToolResult,
		},
		{
			name: "intervening user message breaks adjacency",
			msgs: []memory.Message{
				memory.AssistantMessage("", call("a", "x")),
				memory.UserMessage("note"),
				memory.ToolResultMessage("a", "x", "ok", false),
			},
			wantErr: memory.ErrOrphanToolResult,
		},
		{
			name: "older assistant call is not reachable",
			msgs: []memory.Message{
				memory.AssistantMessage("", call("a", "x")),
				memory.ToolResultMessage("a", "x", "ok", false),
				memory.AssistantMessage("", call("b", "x")),
				memory.ToolResultMessage("a", "x", "late", false),
			},
			wantErr: memory.ErrOrphanToolResult,
		},
		{
			name:    "empty call id",
			msgs:    []memory.Message{memory.AssistantMessage("", call("a", "x")), memory.ToolResultMessage("", "x", "ok", false)},
			wantErr: memory.ErrEmptyCallID,
		},
		{
			name:    "unknown role",
			msgs:    []memory.Message{{Role: "system", Text: "x"}},
			wantErr: memory.ErrUnknownRole,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &memory.Conversation{}
			var err error
			for _, m := range tt.msgs {
				if err = c.Append(m); err != nil {
					break
				}
			}
			if tt.wantErr == nil && err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Fatalf("want %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestConversation_MessagesIsCopy(t *testing.T) {
	c, err := memory.NewConversation(memory.UserMessage("hello"))
	if err != nil {
		t.Fatalf("seed: %v", err)
	}
	got := c.Messages()
	got[0].Text = "mutated"
	if again := c.Messages(); again[0].Text != "hello" {
		t.Fatalf("history mutated through Messages(): %q", again[0].Text)
	}
}

func TestConversation_AppendCopiesToolCalls(t *testing.T) {
	calls := []memory.ToolCall{call("a", "x")}
	c := &memory.Conversation{}
	if err := c.Append(memory.AssistantMessage("", calls...)); err != nil {
		t.Fatal(err)
	}
	calls[0].Name = "changed"
	last, _ := c.Last()
	if last.ToolCalls[0].Name != "x" {
		t.Fatalf("stored tool call mutated: %+v", last.ToolCalls[0])
	}
}

func TestConversation_PendingCalls(t *testing.T) {
	c, err := memory.NewConversation(
		memory.UserMessage("go"),
		memory.AssistantMessage("", call("a", "x"), call("b", "y"), call("c", "z")),
		memory.ToolResultMessage("b", "y", "ok", false),
	)
	if err != nil {
		t.Fatal(err)
	}
	pending := c.PendingCalls()
	if len(pending) != 2 || pending[0].ID != "a" || pending[1].ID != "c" {
		t.Fatalf("unexpected pending: %+v", pending)
	}

	empty, _ := memory.NewConversation(memory.UserMessage("x"))
	if p := empty.PendingCalls(); p != nil {
		t.Fatalf("expected nil pending, got %+v", p)
	}
}

func TestToolCall_Args(t *testing.T) {
	args, err := call("a", "x").Args()
	if err != nil || args["query"] != "x" {
		t.Fatalf("got %v, %v", args, err)
	}
	empty, err := memory.ToolCall{ID: "e"}.Args()
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty args: %v, %v", empty, err)
	}
	if _, err := (memory.ToolCall{ID: "bad", Arguments: json.RawMessage(`[1]`)}).Args(); err == nil {
		t.Fatal("expected error for non-object arguments")
	}
}

func TestMessage_HasToolCalls(t *testing.T) {
	if memory.AssistantMessage("done").HasToolCalls() {
		t.Fatal("plain assistant message reports tool calls")
	}
	if !memory.AssistantMessage("", call("a", "x")).HasToolCalls() {
		t.Fatal("assistant with calls reports none")
	}
	if (memory.Message{Role: memory.RoleUser, ToolCalls: []memory.ToolCall{call("a", "x")}}).HasToolCalls() {
		t.Fatal("user message must never report tool calls")
	}
}
