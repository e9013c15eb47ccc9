package windowing_test

import (
	"encoding/json"

	"github.com/petasbytes/toolgraph/internal/windowing"
	"github.com/petasbytes/toolgraph/memory"
)

// User message constructor
func U(text string) memory.Message { return memory.UserMessage(text) }

// Assistant message constructor
func A(text string, calls ...memory.ToolCall) memory.Message {
	return memory.AssistantMessage(text, calls...)
}

// Tool call constructor; args may be empty.
func C(id, name, args string) memory.ToolCall {
	return memory.ToolCall{ID: id, Name: name, Arguments: json.RawMessage(args)}
}

// Tool result constructor
func R(id, text string) memory.Message { return memory.ToolResultMessage(id, "t", text, false) }

// Failed tool result constructor
func RErr(id, text string) memory.Message { return memory.ToolResultMessage(id, "t", text, true) }

// groupsEqual is a small utility used by grouping tests.
func groupsEqual(got, want []windowing.Group) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
