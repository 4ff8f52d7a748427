package llm

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/invopop/jsonschema"
)

// ErrProviderUnavailable is returned when a provider cannot be reached.
var ErrProviderUnavailable = errors.New("llm: provider unavailable")

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// ToolCall is a model request to run a named tool. Arguments is the raw JSON
// object the model produced.
type ToolCall struct {
	ID        string
	Name      string
	Arguments json.RawMessage
}

// ToolResult carries the textual outcome of a ToolCall back to the model.
type ToolResult struct {
	CallID  string
	Content string
	IsError bool
}

// Message is one entry of the history sent to a provider. Assistant messages
// may carry tool calls; the user message that follows carries their results.
type Message struct {
	Role        Role
	Text        string
	ToolCalls   []ToolCall
	ToolResults []ToolResult
}

// ToolSpec declares a tool to the model.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  *jsonschema.Schema
}

// Request is a single streaming chat request.
type Request struct {
	Model     string
	Messages  []Message
	Tools     []ToolSpec
	MaxTokens int
}

// Provider is the model-provider capability injected into the chat core.
type Provider interface {
	// Name identifies the backend for logs and telemetry.
	Name() string
	// Connect verifies the provider can be reached.
	Connect(ctx context.Context) error
	// StreamChat opens a new event stream for req.
	StreamChat(ctx context.Context, req Request) (Stream, error)
}
