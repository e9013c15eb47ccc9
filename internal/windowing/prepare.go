// Package windowing selects the newest slice of a conversation that fits an
// input-token budget without splitting tool exchanges.
package windowing

import "github.com/petasbytes/toolgraph/memory"

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
// - The window opens on a user message; older leading groups that do not are dropped.
// - If the newest group alone exceeds budget, return an empty window and set OverBudgetNewest.
// - If budget ≤ 0, return an empty window (OverBudgetNewest set when any groups exist).
func PrepareSendWindow(msgs []memory.Message, budget int, c TokenCounter) ([]memory.Message, Stats) {
	if len(msgs) == 0 {
		return nil, Stats{Budget: budget}
	}

	groups := GroupBlocks(msgs)

	if budget <= 0 {
		return nil, Stats{Budget: budget, SkippedGroups: len(groups), OverBudgetNewest: true}
	}

	costs := make([]int, len(groups))
	for i, g := range groups {
		costs[i] = c.CountGroup(g, msgs)
	}

	total := 0
	startIdx := len(groups) // exclusive sentinel; lowered as groups are included
	for gi := len(groups) - 1; gi >= 0; gi-- {
		if startIdx == len(groups) && costs[gi] > budget {
			vlogf("reason=over_budget_newest_group budget=%d cost=%d", budget, costs[gi])
			return nil, Stats{Budget: budget, SkippedGroups: len(groups), OverBudgetNewest: true}
		}
		if total+costs[gi] > budget {
			break
		}
		total += costs[gi]
		startIdx = gi
	}

	for startIdx < len(groups) && msgs[groups[startIdx].Start].Role != memory.RoleUser {
		vlogf("reason=drop_leading_non_user idx=%d", groups[startIdx].Start)
		total -= costs[startIdx]
		startIdx++
	}

	included := len(groups) - startIdx
	if included == 0 {
		return nil, Stats{Budget: budget, SkippedGroups: len(groups)}
	}
	return msgs[groups[startIdx].Start:], Stats{
		Total:          total,
		Budget:         budget,
		IncludedGroups: included,
		SkippedGroups:  len(groups) - included,
	}
}
