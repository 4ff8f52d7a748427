package windowing_test

import (
	"encoding/json"

	"github.com/petasbytes/streamchat/internal/llm"
	"github.com/petasbytes/streamchat/internal/windowing"
)

func User(text string) llm.Message {
	return llm.Message{Role: llm.RoleUser, Text: text}
}

func Asst(text string) llm.Message {
	return llm.Message{Role: llm.RoleAssistant, Text: text}
}

// AsstCalls is an assistant message requesting the given call ids.
func AsstCalls(ids ...string) llm.Message {
	m := llm.Message{Role: llm.RoleAssistant}
	for _, id := range ids {
		m.ToolCalls = append(m.ToolCalls, llm.ToolCall{ID: id, Name: "web_search"})
	}
	return m
}

// Results is a user message carrying results for ids, each with content s.
func Results(s string, ids ...string) llm.Message {
	m := llm.Message{Role: llm.RoleUser}
	for _, id := range ids {
		m.ToolResults = append(m.ToolResults, llm.ToolResult{CallID: id, Content: s})
	}
	return m
}

func args(v any) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}

// groupsEqual is a small utility used by grouping tests.
func groupsEqual(got, want []windowing.Group) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
