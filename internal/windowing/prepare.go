package windowing

import "github.com/petasbytes/streamchat/internal/llm"

// Stats summarizes the result of window preparation.
//
// Fields:
// - Total: estimated tokens for included groups only.
// - Budget: the input token budget used.
// - IncludedGroups: number of groups included.
// - SkippedGroups: total groups minus IncludedGroups.
// - OverBudgetNewest: true when the newest single group alone exceeds Budget.
type Stats struct {
	Total            int
	Budget           int
	IncludedGroups   int
	SkippedGroups    int
	OverBudgetNewest bool
}

// PrepareSendWindow returns a subslice of msgs (oldest→newest) that fits within
// budget using the TokenCounter, without splitting groups.
//
// Rules:
// - Include whole groups scanning newest→oldest while total ≤ budget.
// - If the newest group alone exceeds budget, return an empty window and set OverBudgetNewest.
// - If budget ≤ 0, return an empty window (OverBudgetNewest set when any groups exist).
func PrepareSendWindow(msgs []llm.Message, budget int, c TokenCounter) ([]llm.Message, Stats) {
	if len(msgs) == 0 {
		return nil, Stats{Budget: budget}
	}

	groups := GroupBlocks(msgs)

	if budget <= 0 {
		return nil, Stats{Budget: budget, SkippedGroups: len(groups), OverBudgetNewest: true}
	}

	total := 0
	included := 0
	startIdx := len(groups)

	for gi := len(groups) - 1; gi >= 0; gi-- {
		cost := c.CountGroup(groups[gi], msgs)
		if included == 0 && cost > budget {
			vlogf("reason=over_budget_newest_group budget=%d cost=%d", budget, cost)
			return nil, Stats{Budget: budget, SkippedGroups: len(groups), OverBudgetNewest: true}
		}
		if total+cost > budget {
			break
		}
		total += cost
		included++
		startIdx = gi
	}

	return msgs[groups[startIdx].Start:], Stats{
		Total:          total,
		Budget:         budget,
		IncludedGroups: included,
		SkippedGroups:  len(groups) - included,
	}
}
