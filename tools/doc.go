// Package tools defines tool contracts, the web_search tool, and the Executor
// that runs tool calls on behalf of the chat core.
//
// Includes:
//   - ToolDefinition: name, description, JSON input schema, handler.
//   - GenerateSchema[T](): derive JSON Schema from Go structs.
//   - web_search: one Tavily query per call, flattened to text.
//   - Executor: never returns an error; failures become text results.
package tools
