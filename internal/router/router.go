package router

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/flyt"

	"github.com/petasbytes/toolgraph/internal/config"
	"github.com/petasbytes/toolgraph/internal/telemetry"
	"github.com/petasbytes/toolgraph/internal/windowing"
	"github.com/petasbytes/toolgraph/memory"
	"github.com/petasbytes/toolgraph/tools"
)

// Inference produces the next assistant message for a conversation.
type Inference interface {
	Generate(ctx context.Context, msgs []memory.Message, defs []tools.ToolDefinition) (memory.Message, error)
}

// Graph actions.
const (
	actionTools    flyt.Action = "tools"
	actionGenerate flyt.Action = "generate"
	actionDone     flyt.Action = "done"
)

// Shared store keys.
const (
	keyConversation = "conversation"
	keyCycles       = "cycles"
	keyGenerations  = "generations"
)

type Options struct {
	// MaxCycles caps execute steps per turn; 0 means no cap.
	MaxCycles       int
	ToolConcurrency int

	InferenceTimeout time.Duration
	ToolTimeout      time.Duration

	// TokenBudget bounds the send window per Generate; 0 sends everything.
	TokenBudget int

	// ProviderName labels generate events and inference errors.
	ProviderName string
	Events       *telemetry.Emitter
}

func OptionsFromConfig(cfg config.Config, events *telemetry.Emitter) Options {
	return Options{
		MaxCycles:        cfg.MaxCycles,
		ToolConcurrency:  cfg.ToolConcurrency,
		InferenceTimeout: cfg.InferenceTimeout,
		ToolTimeout:      cfg.ToolTimeout,
		TokenBudget:      cfg.TokenBudget,
		ProviderName:     cfg.Provider,
		Events:           events,
	}
}

type Router struct {
	model    Inference
	registry *tools.Registry
	opts     Options
}

func New(model Inference, registry *tools.Registry, opts Options) *Router {
	if opts.ToolConcurrency < 1 {
		opts.ToolConcurrency = 1
	}
	return &Router{model: model, registry: registry, opts: opts}
}

// Outcome summarizes a finished (or stopped) turn.
type Outcome struct {
	// Reply is the last assistant message, empty if none was produced.
	Reply       memory.Message
	Generations int
	Cycles      int
}

// RunTurn appends userText to conv and drives generate/execute until the model
// answers without tool calls. Errors: *InferenceError, ErrTurnLimitExceeded,
// ErrWindowOverBudget, or the context error when ctx is done.
func (r *Router) RunTurn(ctx context.Context, conv *memory.Conversation, userText string) (Outcome, error) {
	if err := conv.Append(memory.UserMessage(userText)); err != nil {
		return Outcome{}, err
	}
	return r.Run(ctx, conv)
}

// Run drives the graph over conv as it stands.
func (r *Router) Run(ctx context.Context, conv *memory.Conversation) (Outcome, error) {
	ctx, _ = telemetry.EnsureTurnID(ctx)
	if last, ok := conv.Last(); ok && last.Role == memory.RoleUser {
		r.opts.Events.TurnStarted(ctx, last.Text)
	}

	shared := flyt.NewSharedStore()
	shared.Set(keyConversation, conv)
	shared.Set(keyCycles, 0)
	shared.Set(keyGenerations, 0)

	err := r.flow().Run(ctx, shared)

	out := Outcome{
		Generations: intFrom(shared, keyGenerations),
		Cycles:      intFrom(shared, keyCycles),
	}
	if last, ok := lastAssistant(conv); ok {
		out.Reply = last
	}

	var infErr *InferenceError
	switch {
	case err == nil:
		r.opts.Events.TurnFinished(ctx, "done", out.Cycles)
		return out, nil
	case errors.Is(err, ErrTurnLimitExceeded):
		r.opts.Events.TurnFinished(ctx, "turn_limit", out.Cycles)
		return out, ErrTurnLimitExceeded
	case ctx.Err() != nil:
		r.opts.Events.TurnFinished(ctx, "canceled", out.Cycles)
		return out, ctx.Err()
	case errors.As(err, &infErr):
		r.opts.Events.TurnFinished(ctx, "error", out.Cycles)
		return out, infErr
	default:
		r.opts.Events.TurnFinished(ctx, "error", out.Cycles)
		return out, err
	}
}

// flow builds fresh nodes per run; flyt nodes are not shared between executions.
func (r *Router) flow() *flyt.Flow {
	generate := flyt.NewNode(
		flyt.WithPrepFunc(func(ctx context.Context, shared *flyt.SharedStore) (any, error) {
			return r.sendWindow(ctx, conversationFrom(shared).Messages())
		}),
		flyt.WithExecFunc(func(ctx context.Context, prep any) (any, error) {
			return r.generate(ctx, prep.([]memory.Message))
		}),
		flyt.WithPostFunc(r.postGenerate),
	)
	execute := flyt.NewNode(
		flyt.WithPrepFunc(func(ctx context.Context, shared *flyt.SharedStore) (any, error) {
			return conversationFrom(shared).PendingCalls(), nil
		}),
		flyt.WithExecFunc(func(ctx context.Context, prep any) (any, error) {
			return r.executeAll(ctx, prep.([]memory.ToolCall)), nil
		}),
		flyt.WithPostFunc(func(ctx context.Context, shared *flyt.SharedStore, _, exec any) (flyt.Action, error) {
			conv := conversationFrom(shared)
			for _, m := range exec.([]memory.Message) {
				if err := conv.Append(m); err != nil {
					return "", err
				}
			}
			shared.Set(keyCycles, intFrom(shared, keyCycles)+1)
			return actionGenerate, nil
		}),
	)

	f := flyt.NewFlow(generate)
	f.Connect(generate, actionTools, execute)
	f.Connect(execute, actionGenerate, generate)
	return f
}

func (r *Router) sendWindow(ctx context.Context, msgs []memory.Message) ([]memory.Message, error) {
	if r.opts.TokenBudget <= 0 {
		return msgs, nil
	}
	window, stats := windowing.PrepareSendWindow(msgs, r.opts.TokenBudget, windowing.HeuristicCounter{})
	r.opts.Events.WindowPrepared(ctx, stats.Budget, stats.Total, stats.IncludedGroups, stats.SkippedGroups, stats.OverBudgetNewest)
	if len(window) == 0 {
		return nil, ErrWindowOverBudget
	}
	return window, nil
}

func (r *Router) generate(ctx context.Context, msgs []memory.Message) (memory.Message, error) {
	if r.opts.InferenceTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.InferenceTimeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := r.model.Generate(ctx, msgs, r.registry.Definitions())
	r.opts.Events.Generated(ctx, r.opts.ProviderName, len(reply.ToolCalls), time.Since(start), err)
	if err != nil {
		return memory.Message{}, &InferenceError{Provider: r.opts.ProviderName, Err: err}
	}
	reply.Role = memory.RoleAssistant
	if err := normalizeCalls(&reply); err != nil {
		return memory.Message{}, &InferenceError{Provider: r.opts.ProviderName, Err: err}
	}
	return reply, nil
}

// normalizeCalls mints IDs for calls that arrived without one and rejects a
// reply that reuses an ID, before anything is stored or executed.
func normalizeCalls(reply *memory.Message) error {
	if len(reply.ToolCalls) == 0 {
		return nil
	}
	calls := make([]memory.ToolCall, len(reply.ToolCalls))
	seen := make(map[string]struct{}, len(calls))
	for i, tc := range reply.ToolCalls {
		if tc.ID == "" {
			tc.ID = "call_" + uuid.NewString()
		}
		if _, dup := seen[tc.ID]; dup {
			return fmt.Errorf("%w: %q", ErrDuplicateCallID, tc.ID)
		}
		seen[tc.ID] = struct{}{}
		calls[i] = tc
	}
	reply.ToolCalls = calls
	return nil
}

func (r *Router) postGenerate(ctx context.Context, shared *flyt.SharedStore, _, exec any) (flyt.Action, error) {
	reply := exec.(memory.Message)
	conv := conversationFrom(shared)
	if err := conv.Append(reply); err != nil {
		return "", err
	}
	shared.Set(keyGenerations, intFrom(shared, keyGenerations)+1)

	if !reply.HasToolCalls() {
		return actionDone, nil
	}
	if r.opts.MaxCycles > 0 && intFrom(shared, keyCycles) >= r.opts.MaxCycles {
		msg := fmt.Sprintf("Error: turn limit of %d tool cycles reached; call not executed", r.opts.MaxCycles)
		for _, call := range reply.ToolCalls {
			if err := conv.Append(memory.ToolResultMessage(call.ID, call.Name, msg, true)); err != nil {
				return "", err
			}
		}
		return "", ErrTurnLimitExceeded
	}
	return actionTools, nil
}

func conversationFrom(shared *flyt.SharedStore) *memory.Conversation {
	v, _ := shared.Get(keyConversation)
	return v.(*memory.Conversation)
}

func intFrom(shared *flyt.SharedStore, key string) int {
	v, _ := shared.Get(key)
	n, _ := v.(int)
	return n
}

func lastAssistant(conv *memory.Conversation) (memory.Message, bool) {
	msgs := conv.Messages()
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].Role == memory.RoleAssistant {
			return msgs[i], true
		}
		if msgs[i].Role == memory.RoleUser {
			break
		}
	}
	return memory.Message{}, false
}
