package router

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/mark3labs/flyt"

	"github.com/petasbytes/toolgraph/memory"
	"github.com/petasbytes/toolgraph/tools"
)

// executeAll runs calls and returns their results in request order.
func (r *Router) executeAll(ctx context.Context, calls []memory.ToolCall) []memory.Message {
	results := make([]memory.Message, len(calls))
	if r.opts.ToolConcurrency <= 1 || len(calls) <= 1 {
		for i, call := range calls {
			results[i] = r.execCall(ctx, call)
		}
		return results
	}

	pool := flyt.NewWorkerPool(min(r.opts.ToolConcurrency, len(calls)))
	defer pool.Close()
	for i, call := range calls {
		pool.Submit(func() {
			results[i] = r.execCall(ctx, call)
		})
	}
	pool.Wait()
	return results
}

// execCall never fails: every outcome is encoded in the returned tool message.
func (r *Router) execCall(ctx context.Context, call memory.ToolCall) memory.Message {
	start := time.Now()

	var res tools.Result
	if def, ok := r.registry.Lookup(call.Name); ok {
		res = r.invoke(ctx, def, call.Arguments)
	} else {
		res = tools.Failure(tools.ErrUnknownTool, "tool %q is not recognized", call.Name)
	}

	content := res.Content()
	r.opts.Events.ToolExecuted(ctx, call.Name, time.Since(start), len(call.Arguments), len(content), string(res.Code()))
	return memory.ToolResultMessage(call.ID, call.Name, content, !res.OK())
}

// invoke runs the handler under ToolTimeout and converts panics into failures.
// A handler that ignores its context is abandoned when the deadline passes.
func (r *Router) invoke(ctx context.Context, def tools.ToolDefinition, args json.RawMessage) tools.Result {
	if r.opts.ToolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.ToolTimeout)
		defer cancel()
	}

	done := make(chan tools.Result, 1)
	go func() {
		defer func() {
			if p := recover(); p != nil {
				done <- tools.Failure(tools.ErrPanic, "tool %s panicked: %v", def.Name, p)
			}
		}()
		done <- def.Function(ctx, args)
	}()

	select {
	case res := <-done:
		return res
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return tools.Failure(tools.ErrTimeout, "tool %s did not finish within %s", def.Name, r.opts.ToolTimeout)
		}
		return tools.Failure(tools.ErrCanceled, "tool %s canceled", def.Name)
	}
}
