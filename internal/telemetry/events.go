package telemetry

import (
	"context"
	"time"

	"github.com/petasbytes/toolgraph/internal/metrics"
)

// TurnStarted records the shape of the user input, never the text itself.
func (e *Emitter) TurnStarted(ctx context.Context, input string) {
	if !e.Enabled() {
		return
	}
	turnID, _ := TurnIDFromContext(ctx)
	s := metrics.Measure(input)
	e.Emit("turn_started", map[string]any{
		"turn_id": turnID,
		"input": map[string]any{
			"bytes": s.Bytes,
			"runes": s.Runes,
			"words": s.Words,
			"lines": s.Lines,
		},
	})
}

// WindowPrepared records the send window chosen for one Generate step.
func (e *Emitter) WindowPrepared(ctx context.Context, budget, total, included, skipped int, overBudgetNewest bool) {
	turnID, _ := TurnIDFromContext(ctx)
	e.Emit("window_prepared", map[string]any{
		"turn_id":            turnID,
		"budget":             budget,
		"total_estimated":    total,
		"included_groups":    included,
		"skipped_groups":     skipped,
		"over_budget_newest": overBudgetNewest,
	})
}

// Generated records one Generate step.
func (e *Emitter) Generated(ctx context.Context, provider string, toolCalls int, took time.Duration, err error) {
	turnID, _ := TurnIDFromContext(ctx)
	fields := map[string]any{
		"turn_id":     turnID,
		"provider":    provider,
		"tool_calls":  toolCalls,
		"duration_ms": took.Milliseconds(),
		"error":       nil,
	}
	if err != nil {
		// Provider errors may echo request bodies; keep the event generic.
		fields["error"] = "inference error"
	}
	e.Emit("generate", fields)
}

// ToolExecuted records one tool invocation. errCode is empty on success.
func (e *Emitter) ToolExecuted(ctx context.Context, name string, took time.Duration, inputSize, outputSize int, errCode string) {
	turnID, _ := TurnIDFromContext(ctx)
	fields := map[string]any{
		"turn_id":     turnID,
		"tool_name":   name,
		"duration_ms": took.Milliseconds(),
		"input_size":  inputSize,
		"output_size": outputSize,
		"error":       nil,
	}
	if errCode != "" {
		fields["error"] = errCode
	}
	e.Emit("tool_exec", fields)
}

// TurnFinished records how a turn ended: "done", "turn_limit", "canceled" or "error".
func (e *Emitter) TurnFinished(ctx context.Context, outcome string, cycles int) {
	turnID, _ := TurnIDFromContext(ctx)
	e.Emit("turn_finished", map[string]any{
		"turn_id": turnID,
		"outcome": outcome,
		"cycles":  cycles,
	})
}
