package tools

import (
	"context"
	"encoding/json"
	"time"

	"github.com/invopop/jsonschema"

	"github.com/petasbytes/streamchat/internal/llm"
)

// Config carries per-send tool settings.
type Config struct {
	// APIKey is the search credential; empty means search is unavailable.
	APIKey string
	// Timeout bounds a single tool execution; zero means no extra bound.
	Timeout time.Duration
}

// Enabled reports whether tools should be declared to the model.
func (c Config) Enabled() bool { return c.APIKey != "" }

// ToolFunc executes a tool with raw JSON arguments.
type ToolFunc func(ctx context.Context, cfg Config, input json.RawMessage) (string, error)

type ToolDefinition struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
	Function    ToolFunc
}

// Spec returns the provider-neutral declaration of d.
func (d ToolDefinition) Spec() llm.ToolSpec {
	return llm.ToolSpec{Name: d.Name, Description: d.Description, Parameters: d.InputSchema}
}

// Specs declares every definition in defs.
func Specs(defs []ToolDefinition) []llm.ToolSpec {
	out := make([]llm.ToolSpec, 0, len(defs))
	for _, d := range defs {
		out = append(out, d.Spec())
	}
	return out
}

// GenerateSchema reflects T into an inline JSON schema object.
func GenerateSchema[T any]() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	return reflector.Reflect(v)
}
