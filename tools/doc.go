// Package tools defines tool contracts and implementations.
//
// Includes:
//   - ToolDefinition: name, description, JSON input schema, handler.
//   - GenerateSchema[T](), NewTool[T](): typed inputs decoded before the handler runs.
//   - Result: Success(text) or Failure(code, detail); handlers never return Go errors.
//   - Web tools: knowledge_lookup, fetch_article, extract_links, medium_search,
//     web_search, paper_search.
//   - record_result: appends [timestamp, answer] to a Google Sheet.
//   - Registry: name lookup in registration order.
package tools
