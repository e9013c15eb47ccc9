package router

import (
	"errors"
	"fmt"
)

// ErrTurnLimitExceeded ends a turn whose model keeps requesting tools past MaxCycles.
// The conversation stays valid: the unexecuted calls are answered with error results.
var ErrTurnLimitExceeded = errors.New("turn limit exceeded")

// ErrWindowOverBudget means no send window starting at a user message fits
// TokenBudget. Raise the budget or lower the tool output caps.
var ErrWindowOverBudget = errors.New("newest conversation group exceeds token budget")

// ErrDuplicateCallID rejects a model reply whose tool calls share an ID.
var ErrDuplicateCallID = errors.New("model reply reuses a tool call id")

// InferenceError is a failed Generate step. It is fatal to the turn only.
type InferenceError struct {
	Provider string
	Err      error
}

func (e *InferenceError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("inference failed: %v", e.Err)
	}
	return fmt.Sprintf("inference failed (%s): %v", e.Provider, e.Err)
}

func (e *InferenceError) Unwrap() error { return e.Err }
