// Package windowing trims request history to a token budget without
// splitting a tool call from its result.
package windowing

import (
	"fmt"
	"os"

	"github.com/petasbytes/streamchat/internal/llm"
)

// GroupKind denotes the atomic unit type when preparing a send window.
type GroupKind int

const (
	GroupSingleton GroupKind = iota
	GroupPair
)

// Group describes a contiguous span of messages [Start, End) in the original slice.
type Group struct {
	Kind  GroupKind
	Start int // inclusive index into msgs
	End   int // exclusive index into msgs
}

// GroupBlocks groups messages into atomic units that preserve tool-call pairs.
// Invariants:
// - A pair is exactly two adjacent messages: assistant(tool calls) then user(tool results).
// - Every call id in the assistant message has a result in the user message,
// and the user message has no results for unknown ids.
// - Error results are treated the same for grouping.
func GroupBlocks(msgs []llm.Message) []Group {
	groups := make([]Group, 0, len(msgs))
	for i := 0; i < len(msgs); {
		m := msgs[i]
		if m.Role == llm.RoleAssistant && len(m.ToolCalls) > 0 {
			callIDs := collectCallIDs(m)
			if i+1 < len(msgs) && msgs[i+1].Role == llm.RoleUser {
				resultIDs := collectResultIDs(msgs[i+1])
				if coversAll(resultIDs, callIDs) && coversAll(callIDs, resultIDs) {
					groups = append(groups, Group{Kind: GroupPair, Start: i, End: i + 2})
					i += 2
					continue
				}
				reason := "missing_results"
				if coversAll(resultIDs, callIDs) {
					reason = "extra_results"
				}
				vlogf("exclude pair: reason=%s idx=%d", reason, i)
			} else {
				vlogf("exclude pair: reason=not_followed_by_user idx=%d", i)
			}
		}
		groups = append(groups, Group{Kind: GroupSingleton, Start: i, End: i + 1})
		i++
	}
	return groups
}

func collectCallIDs(m llm.Message) map[string]struct{} {
	ids := make(map[string]struct{}, len(m.ToolCalls))
	for _, c := range m.ToolCalls {
		if c.ID != "" {
			ids[c.ID] = struct{}{}
		}
	}
	return ids
}

func collectResultIDs(m llm.Message) map[string]struct{} {
	ids := make(map[string]struct{}, len(m.ToolResults))
	for _, r := range m.ToolResults {
		if r.CallID != "" {
			ids[r.CallID] = struct{}{}
		}
	}
	return ids
}

// coversAll checks that every id in required is present in have.
func coversAll(have, required map[string]struct{}) bool {
	for id := range required {
		if _, ok := have[id]; !ok {
			return false
		}
	}
	return true
}

// minimal verbose logging when CHAT_VERBOSE_WINDOW_LOGS=1
var verbose = os.Getenv("CHAT_VERBOSE_WINDOW_LOGS") == "1"

func vlogf(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[windowing] "+format+"\n", args...)
	}
}
