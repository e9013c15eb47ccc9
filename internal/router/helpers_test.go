package router_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"testing"

	"github.com/petasbytes/toolgraph/internal/router"
	"github.com/petasbytes/toolgraph/memory"
	"github.com/petasbytes/toolgraph/tools"
)

type step func(msgs []memory.Message) (memory.Message, error)

// scriptedModel replays steps in order and records what each Generate saw.
// Once the script is exhausted it answers with plain text.
type scriptedModel struct {
	mu    sync.Mutex
	steps []step
	seen  [][]memory.Message
	defs  []string
}

func (m *scriptedModel) Generate(ctx context.Context, msgs []memory.Message, defs []tools.ToolDefinition) (memory.Message, error) {
	if err := ctx.Err(); err != nil {
		return memory.Message{}, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seen = append(m.seen, msgs)
	if m.defs == nil {
		for _, d := range defs {
			m.defs = append(m.defs, d.Name)
		}
	}
	i := len(m.seen) - 1
	if i >= len(m.steps) {
		return memory.AssistantMessage("done"), nil
	}
	return m.steps[i](msgs)
}

func (m *scriptedModel) generations() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.seen)
}

func reply(text string, calls ...memory.ToolCall) step {
	return func([]memory.Message) (memory.Message, error) {
		return memory.AssistantMessage(text, calls...), nil
	}
}

func call(id, name string, args any) memory.ToolCall {
	b, err := json.Marshal(args)
	if err != nil {
		panic(err)
	}
	return memory.ToolCall{ID: id, Name: name, Arguments: b}
}

type queryInput struct {
	Query string `json:"query"`
}

// echoTool answers "<name>:<query>".
func echoTool(name string) tools.ToolDefinition {
	return tools.NewTool(name, "echo "+name, func(_ context.Context, in queryInput) tools.Result {
		return tools.Success(fmt.Sprintf("%s:%s", name, in.Query))
	})
}

func newRegistry(t testing.TB, defs ...tools.ToolDefinition) *tools.Registry {
	t.Helper()
	reg, err := tools.NewRegistry(defs...)
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	return reg
}

func toolResults(msgs []memory.Message) []memory.Message {
	var out []memory.Message
	for _, m := range msgs {
		if m.Role == memory.RoleTool {
			out = append(out, m)
		}
	}
	return out
}

func newRouter(model router.Inference, reg *tools.Registry, mutate ...func(*router.Options)) *router.Router {
	opts := router.Options{MaxCycles: 10, ToolConcurrency: 1, ProviderName: "fake"}
	for _, fn := range mutate {
		fn(&opts)
	}
	return router.New(model, reg, opts)
}

func readRaw(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read events: %v", err)
	}
	return string(b)
}

func readLines(t *testing.T, path string) []map[string]any {
	t.Helper()
	var out []map[string]any
	s := bufio.NewScanner(bytes.NewReader([]byte(readRaw(t, path))))
	for s.Scan() {
		var m map[string]any
		if err := json.Unmarshal(s.Bytes(), &m); err != nil {
			t.Fatalf("invalid JSON line %q: %v", s.Text(), err)
		}
		out = append(out, m)
	}
	return out
}
