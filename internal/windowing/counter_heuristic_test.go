package windowing_test

import (
	"testing"

	"github.com/petasbytes/streamchat/internal/llm"
	"github.com/petasbytes/streamchat/internal/windowing"
)

func TestHeuristicCounter_Text_CountsRunes(t *testing.T) {
	h := windowing.HeuristicCounter{}
	if got := h.CountMessage(User("héllo")); got != 5+4 {
		t.Fatalf("got=%d want=9", got)
	}
	if got := h.CountMessage(User("")); got != 0 {
		t.Fatalf("empty text should cost nothing, got=%d", got)
	}
}

func TestHeuristicCounter_ToolBlocks(t *testing.T) {
	h := windowing.HeuristicCounter{}

	call := llm.Message{Role: llm.RoleAssistant, ToolCalls: []llm.ToolCall{
		{ID: "a", Name: "web_search", Arguments: args(map[string]string{"query": "x"})},
	}}
	// {"query":"x"} = 13 runes
	if got := h.CountMessage(call); got != 13+4 {
		t.Fatalf("tool call cost: got=%d want=17", got)
	}

	res := Results("Sunny", "a", "b")
	if got := h.CountMessage(res); got != 2*(5+4) {
		t.Fatalf("tool results cost: got=%d want=18", got)
	}
}

func TestHeuristicCounter_GroupSumsMessages(t *testing.T) {
	h := windowing.HeuristicCounter{}
	msgs := []llm.Message{AsstCalls("a"), Results("r", "a")}
	g := windowing.Group{Kind: windowing.GroupPair, Start: 0, End: 2}
	if got, want := h.CountGroup(g, msgs), h.CountMessage(msgs[0])+h.CountMessage(msgs[1]); got != want {
		t.Fatalf("group cost: got=%d want=%d", got, want)
	}
}
