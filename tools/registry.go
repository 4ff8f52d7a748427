package tools

// Registry returns all tool definitions wired for the chat client.
func Registry(s Searcher) []ToolDefinition {
	return []ToolDefinition{NewWebSearchDefinition(s)}
}
