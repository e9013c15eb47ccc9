package tools

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// ToolDefinition describes one tool: what the model sees (name, description,
// input schema) and the handler invoked with the raw JSON arguments.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
	Function    func(ctx context.Context, input json.RawMessage) Result
}

// GenerateSchema derives an inline JSON Schema from the struct T.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}

// NewTool builds a ToolDefinition whose handler receives arguments already
// decoded into T. Undecodable arguments yield an ERR_INVALID_ARGS failure.
func NewTool[T any](name, description string, fn func(ctx context.Context, in T) Result) ToolDefinition {
	return ToolDefinition{
		Name:        name,
		Description: description,
		InputSchema: GenerateSchema[T](),
		Function: func(ctx context.Context, input json.RawMessage) Result {
			var in T
			if len(bytes.TrimSpace(input)) > 0 {
				if err := json.Unmarshal(input, &in); err != nil {
					return Failure(ErrInvalidArgs, "arguments for %s: %v", name, err)
				}
			}
			return fn(ctx, in)
		},
	}
}
