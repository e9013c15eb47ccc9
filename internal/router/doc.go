// Package router runs one user turn as a two-node graph over the conversation.
//
//	generate --tools--> execute --generate--> generate ... (no tool calls) -> done
//
// Invariants:
//   - generate and execute never overlap; the conversation has a single writer.
//   - execute appends exactly one tool result per requested call, in request order,
//     even when the calls themselves run concurrently.
//   - tool failures, panics, timeouts and unknown tool names become error results;
//     only inference failures, cancellation and the cycle cap end a turn early.
//   - a reply is checked before it is stored: missing call ids are minted and a
//     reused id fails the step as an inference error.
package router
