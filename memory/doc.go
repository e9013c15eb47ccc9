// Package memory holds the in-memory conversation state of a run.
//
// Model:
//   - Messages are user text, assistant text with ordered tool calls, or tool results.
//   - The history is append-only; nothing is persisted past process exit.
//   - A tool result must answer a call of the immediately preceding assistant message.
package memory
