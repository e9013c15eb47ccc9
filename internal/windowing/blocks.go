package windowing

import (
	"fmt"
	"os"

	"github.com/petasbytes/toolgraph/memory"
)

// GroupKind denotes the atomic unit type when preparing a send window.
type GroupKind int

const (
	GroupSingleton GroupKind = iota
	GroupExchange
)

// Group describes a contiguous span of messages [Start, End) in the original slice.
type Group struct {
	Kind  GroupKind
	Start int // inclusive index into msgs
	End   int // exclusive index into msgs
}

// GroupBlocks groups messages into atomic units that keep tool exchanges whole.
// Invariants:
// - An exchange is an assistant message with tool calls followed by the tool
// result messages that answer it, with nothing in between.
// - Completeness: every call id must be answered exactly once and no result may
// answer a call outside the assistant message.
// - Error results count the same as successful ones.
// Anything else becomes a singleton.
func GroupBlocks(msgs []memory.Message) []Group {
	groups := make([]Group, 0, len(msgs))
	for i := 0; i < len(msgs); {
		m := msgs[i]
		if m.HasToolCalls() {
			end := i + 1
			for end < len(msgs) && msgs[end].Role == memory.RoleTool {
				end++
			}
			if end == i+1 {
				vlogf("exclude exchange: reason=no_results idx=%d", i)
			} else if reason := exchangeMismatch(m, msgs[i+1:end]); reason != "" {
				vlogf("exclude exchange: reason=%s idx=%d", reason, i)
			} else {
				groups = append(groups, Group{Kind: GroupExchange, Start: i, End: end})
				i = end
				continue
			}
		}
		groups = append(groups, Group{Kind: GroupSingleton, Start: i, End: i + 1})
		i++
	}
	return groups
}

// exchangeMismatch returns why results do not exactly answer the calls of asst,
// or "" when they do.
func exchangeMismatch(asst memory.Message, results []memory.Message) string {
	want := make(map[string]struct{}, len(asst.ToolCalls))
	for _, tc := range asst.ToolCalls {
		want[tc.ID] = struct{}{}
	}
	seen := make(map[string]struct{}, len(results))
	for _, r := range results {
		if _, ok := want[r.CallID]; !ok {
			return "extra_results"
		}
		if _, dup := seen[r.CallID]; dup {
			return "duplicate_results"
		}
		seen[r.CallID] = struct{}{}
	}
	if len(seen) != len(want) {
		return "missing_results"
	}
	return ""
}

// minimal verbose logging when AGT_VERBOSE_WINDOW_LOGS=1
var verbose = os.Getenv("AGT_VERBOSE_WINDOW_LOGS") == "1"

func vlogf(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[windowing] "+format+"\n", args...)
	}
}
