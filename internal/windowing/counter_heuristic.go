package windowing

import (
	"unicode/utf8"

	"github.com/petasbytes/streamchat/internal/llm"
)

// TokenCounter estimates input-token cost for messages or groups.
type TokenCounter interface {
	CountMessage(m llm.Message) int
	CountGroup(g Group, all []llm.Message) int
}

// HeuristicCounter is the default deterministic estimator.
// Rules:
// - text: rune count plus a per-block overhead
// - each tool result: rune count of its content plus overhead
// - each tool call: overhead plus rune count of its arguments
type HeuristicCounter struct{}

// Fixed per-block overhead for deterministic counts; changing this requires updating the guard test.
const blockOverhead = 4

func (HeuristicCounter) CountMessage(m llm.Message) int {
	total := 0
	if m.Text != "" {
		total += utf8.RuneCountInString(m.Text) + blockOverhead
	}
	for _, c := range m.ToolCalls {
		total += utf8.RuneCount(c.Arguments) + blockOverhead
	}
	for _, r := range m.ToolResults {
		total += utf8.RuneCountInString(r.Content) + blockOverhead
	}
	return total
}

func (h HeuristicCounter) CountGroup(g Group, all []llm.Message) int {
	total := 0
	for i := g.Start; i < g.End && i < len(all); i++ {
		total += h.CountMessage(all[i])
	}
	return total
}
