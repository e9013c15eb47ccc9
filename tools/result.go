package tools

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrorCode classifies a tool failure.
type ErrorCode string

const (
	ErrInvalidArgs   ErrorCode = "ERR_INVALID_ARGS"
	ErrInvalidURL    ErrorCode = "ERR_INVALID_URL"
	ErrDeniedURL     ErrorCode = "ERR_DENIED_URL"
	ErrUpstream      ErrorCode = "ERR_UPSTREAM"
	ErrNetwork       ErrorCode = "ERR_NETWORK"
	ErrTimeout       ErrorCode = "ERR_TIMEOUT"
	ErrCanceled      ErrorCode = "ERR_CANCELED"
	ErrNotConfigured ErrorCode = "ERR_NOT_CONFIGURED"
	ErrUnknownTool   ErrorCode = "ERR_UNKNOWN_TOOL"
	ErrPanic         ErrorCode = "ERR_PANIC"
)

// ToolError is the failure half of a Result.
type ToolError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Result is what every tool returns: text on success, or a ToolError.
// A failed Result may still carry Text when the tool has a fixed error phrasing
// (fetch tools prefix theirs with "Error fetching URL:").
type Result struct {
	Text string
	Err  *ToolError
}

func Success(text string) Result {
	return Result{Text: text}
}

func Failure(code ErrorCode, format string, args ...any) Result {
	return Result{Err: &ToolError{Code: code, Message: fmt.Sprintf(format, args...)}}
}

func (r Result) OK() bool { return r.Err == nil }

// Content is the text handed back to the model.
func (r Result) Content() string {
	if r.Err == nil || r.Text != "" {
		return r.Text
	}
	return "Error " + r.Err.Error()
}

// Code returns the failure code, or "" on success.
func (r Result) Code() ErrorCode {
	if r.Err == nil {
		return ""
	}
	return r.Err.Code
}

// classify maps an error from an upstream request onto an ErrorCode.
func classify(err error) ErrorCode {
	var (
		netErr    net.Error
		statusErr *StatusError
	)
	switch {
	case errors.As(err, &statusErr):
		return ErrUpstream
	case errors.Is(err, context.DeadlineExceeded):
		return ErrTimeout
	case errors.Is(err, context.Canceled):
		return ErrCanceled
	case errors.As(err, &netErr) && netErr.Timeout():
		return ErrTimeout
	default:
		return ErrNetwork
	}
}
