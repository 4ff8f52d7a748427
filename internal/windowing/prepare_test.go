package windowing_test

import (
	"testing"

	"github.com/petasbytes/streamchat/internal/llm"
	"github.com/petasbytes/streamchat/internal/windowing"
)

func TestPrepareSendWindow_EmptyMsgs(t *testing.T) {
	window, stats := windowing.PrepareSendWindow(nil, 123, windowing.HeuristicCounter{})
	if window != nil || stats.Budget != 123 || stats.Total != 0 || stats.OverBudgetNewest {
		t.Fatalf("unexpected result: window=%v stats=%+v", window, stats)
	}
}

func TestPrepareSendWindow_AllFit(t *testing.T) {
	// oldest(6+4) + mid(3+4) + new(3+4) = 24
	msgs := []llm.Message{User("oldest"), Asst("mid"), User("new")}
	window, stats := windowing.PrepareSendWindow(msgs, 24, windowing.HeuristicCounter{})

	if stats.IncludedGroups != 3 || stats.SkippedGroups != 0 || stats.Total != 24 || stats.OverBudgetNewest {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(window) != 3 || window[0].Text != "oldest" {
		t.Fatalf("unexpected window: %+v", window)
	}
}

func TestPrepareSendWindow_DropsOldest(t *testing.T) {
	// a(5) bbbb(8) cc(6): budget 14 keeps the newest two.
	msgs := []llm.Message{User("a"), Asst("bbbb"), User("cc")}
	window, stats := windowing.PrepareSendWindow(msgs, 14, windowing.HeuristicCounter{})

	if stats.IncludedGroups != 2 || stats.SkippedGroups != 1 || stats.Total != 14 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if len(window) != 2 || window[0].Text != "bbbb" || window[1].Text != "cc" {
		t.Fatalf("unexpected window: %+v", window)
	}
}

func TestPrepareSendWindow_PairIsNeverSplit(t *testing.T) {
	// user q(1+4=5), pair: call(args "" => 0+4) + result "rr"(2+4) = 10
	msgs := []llm.Message{User("q"), AsstCalls("t1"), Results("rr", "t1")}

	// Budget 12 fits the pair but not the user message too; the pair is kept whole.
	window, stats := windowing.PrepareSendWindow(msgs, 12, windowing.HeuristicCounter{})
	if len(window) != 2 || stats.IncludedGroups != 1 {
		t.Fatalf("unexpected window=%+v stats=%+v", window, stats)
	}
	if window[0].Role != llm.RoleAssistant || len(window[0].ToolCalls) != 1 || len(window[1].ToolResults) != 1 {
		t.Fatalf("pair was split: %+v", window)
	}

	// Budget 9 cannot fit the pair at all.
	window, stats = windowing.PrepareSendWindow(msgs, 9, windowing.HeuristicCounter{})
	if window != nil || !stats.OverBudgetNewest {
		t.Fatalf("expected over-budget newest; window=%+v stats=%+v", window, stats)
	}
}

func TestPrepareSendWindow_NoCapacityBudget(t *testing.T) {
	window, stats := windowing.PrepareSendWindow([]llm.Message{User("x")}, 0, windowing.HeuristicCounter{})
	if len(window) != 0 || !stats.OverBudgetNewest || stats.SkippedGroups != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}
