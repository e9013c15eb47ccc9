package windowing

import (
	"unicode/utf8"

	"github.com/petasbytes/toolgraph/memory"
)

// TokenCounter estimates input-token cost for messages or groups.
type TokenCounter interface {
	CountMessage(m memory.Message) int
	CountGroup(g Group, all []memory.Message) int
}

// HeuristicCounter is the default deterministic estimator.
// Rules:
// - every message: rune count of Text plus a fixed overhead
// - every tool call: rune count of name and raw arguments plus the same overhead
type HeuristicCounter struct{}

// Fixed per-block overhead for deterministic counts; changing this requires updating the guard test.
const blockOverhead = 4

func (HeuristicCounter) CountMessage(m memory.Message) int {
	total := utf8.RuneCountInString(m.Text) + blockOverhead
	for _, tc := range m.ToolCalls {
		total += utf8.RuneCountInString(tc.Name) + utf8.RuneCount(tc.Arguments) + blockOverhead
	}
	return total
}

func (h HeuristicCounter) CountGroup(g Group, all []memory.Message) int {
	total := 0
	for i := g.Start; i < g.End && i < len(all); i++ {
		total += h.CountMessage(all[i])
	}
	return total
}
