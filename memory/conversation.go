package memory

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Role tags a Message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCall is a single "call this tool" request issued by the assistant.
type ToolCall struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
}

// Args decodes Arguments as a JSON object. Empty arguments yield an empty map.
func (c ToolCall) Args() (map[string]any, error) {
	out := map[string]any{}
	if len(c.Arguments) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(c.Arguments, &out); err != nil {
		return nil, fmt.Errorf("tool call %s: arguments are not a JSON object: %w", c.ID, err)
	}
	return out, nil
}

// Message is one entry of the conversation. Which fields are meaningful depends on Role:
//   - user: Text
//   - assistant: Text, ToolCalls
//   - tool: CallID, ToolName, Text, IsError
type Message struct {
	Role      Role       `json:"role"`
	Text      string     `json:"text,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	CallID    string     `json:"call_id,omitempty"`
	ToolName  string     `json:"tool_name,omitempty"`
	IsError   bool       `json:"is_error,omitempty"`
}

func UserMessage(text string) Message {
	return Message{Role: RoleUser, Text: text}
}

func AssistantMessage(text string, calls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Text: text, ToolCalls: calls}
}

func ToolResultMessage(callID, toolName, text string, isError bool) Message {
	return Message{Role: RoleTool, CallID: callID, ToolName: toolName, Text: text, IsError: isError}
}

// HasToolCalls reports whether m is an assistant message requesting tools.
func (m Message) HasToolCalls() bool {
	return m.Role == RoleAssistant && len(m.ToolCalls) > 0
}

var (
	ErrUnknownRole         = errors.New("memory: unknown message role")
	ErrEmptyCallID         = errors.New("memory: tool message without call id")
	ErrOrphanToolResult    = errors.New("memory: tool result does not answer the preceding assistant message")
	ErrDuplicateToolResult = errors.New("memory: tool call already answered")
)

// Conversation is the append-only message history of a run.
// Messages are never removed or mutated after Append.
type Conversation struct {
	msgs []Message
}

// NewConversation returns a conversation seeded with msgs (validated in order).
func NewConversation(seed ...Message) (*Conversation, error) {
	c := &Conversation{}
	for _, m := range seed {
		if err := c.Append(m); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// Append adds m to the end of the conversation. Tool results must answer a call of the
// nearest preceding assistant message, with only other tool results in between.
func (c *Conversation) Append(m Message) error {
	switch m.Role {
	case RoleUser, RoleAssistant:
	case RoleTool:
		if m.CallID == "" {
			return ErrEmptyCallID
		}
		if err := c.checkLinkage(m.CallID); err != nil {
			return err
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnknownRole, m.Role)
	}
	m.ToolCalls = append([]ToolCall(nil), m.ToolCalls...)
	c.msgs = append(c.msgs, m)
	return nil
}

func (c *Conversation) checkLinkage(callID string) error {
	answered := map[string]struct{}{}
	for i := len(c.msgs) - 1; i >= 0; i-- {
		prev := c.msgs[i]
		if prev.Role == RoleTool {
			answered[prev.CallID] = struct{}{}
			continue
		}
		if prev.Role != RoleAssistant {
			break
		}
		for _, tc := range prev.ToolCalls {
			if tc.ID != callID {
				continue
			}
			if _, dup := answered[callID]; dup {
				return fmt.Errorf("%w: %s", ErrDuplicateToolResult, callID)
			}
			return nil
		}
		break
	}
	return fmt.Errorf("%w: %s", ErrOrphanToolResult, callID)
}

// Messages returns a copy of the history, oldest first.
func (c *Conversation) Messages() []Message {
	out := make([]Message, len(c.msgs))
	copy(out, c.msgs)
	return out
}

func (c *Conversation) Len() int { return len(c.msgs) }

// Last returns the newest message, if any.
func (c *Conversation) Last() (Message, bool) {
	if len(c.msgs) == 0 {
		return Message{}, false
	}
	return c.msgs[len(c.msgs)-1], true
}

// PendingCalls returns the tool calls of the newest assistant message that have
// no result yet, in request order.
func (c *Conversation) PendingCalls() []ToolCall {
	answered := map[string]struct{}{}
	for i := len(c.msgs) - 1; i >= 0; i-- {
		m := c.msgs[i]
		if m.Role == RoleTool {
			answered[m.CallID] = struct{}{}
			continue
		}
		if m.Role != RoleAssistant {
			return nil
		}
		var pending []ToolCall
		for _, tc := range m.ToolCalls {
			if _, ok := answered[tc.ID]; !ok {
				pending = append(pending, tc)
			}
		}
		return pending
	}
	return nil
}
