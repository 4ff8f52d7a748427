// Package llm defines the provider-neutral surface the chat core talks to.
//
// A Provider opens one Stream per request. Streams are finite and not
// restartable; each yields StreamEvents that are either a text delta or a
// complete tool call.
//
// Flow:
//
//	user(text) -> assistant(text..., tool_call) -> user(tool_result) -> assistant(text)
package llm
