package tools_test

import (
	"encoding/json"
	"testing"

	"github.com/petasbytes/streamchat/tools"
)

func TestRegistry_ToolNames(t *testing.T) {
	defs := tools.Registry(&fakeSearcher{})
	if len(defs) != 1 {
		t.Fatalf("unexpected number of tools: got %d want 1", len(defs))
	}
	if defs[0].Name != tools.WebSearchName {
		t.Fatalf("unexpected tool in registry: %q", defs[0].Name)
	}
}

func TestWebSearchSchema_RequiresQuery(t *testing.T) {
	b, err := json.Marshal(tools.WebSearchInputSchema)
	if err != nil {
		t.Fatalf("marshal schema: %v", err)
	}
	var s struct {
		Type       string                    `json:"type"`
		Properties map[string]map[string]any `json:"properties"`
		Required   []string                  `json:"required"`
	}
	if err := json.Unmarshal(b, &s); err != nil {
		t.Fatalf("unmarshal schema: %v", err)
	}
	if s.Type != "object" {
		t.Fatalf("schema type: got %q", s.Type)
	}
	if s.Properties["query"]["type"] != "string" {
		t.Fatalf("query property: %#v", s.Properties["query"])
	}
	if len(s.Required) != 1 || s.Required[0] != "query" {
		t.Fatalf("required: %v", s.Required)
	}
}

func TestSpecs_MirrorDefinitions(t *testing.T) {
	specs := tools.Specs(tools.Registry(&fakeSearcher{}))
	if len(specs) != 1 || specs[0].Name != tools.WebSearchName || specs[0].Parameters == nil {
		t.Fatalf("unexpected specs: %+v", specs)
	}
}
