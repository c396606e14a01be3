package metrics

import "fintrack/internal/core"

// BudgetLine compares a category's spending with its target. A category
// without a target reports a zero budget.
type BudgetLine struct {
	Category  string     `json:"category"`
	Spent     core.Money `json:"spent"`
	Budget    core.Money `json:"budget"`
	Remaining core.Money `json:"remaining"`
	Percent   float64    `json:"percentage"`
	Over      bool       `json:"overBudget"`
}

// CompareBudgets produces one line per category with spending, in the order
// of totals. Categories that only have a budget are not listed.
func CompareBudgets(totals []CategoryTotal, budgets core.Budgets) []BudgetLine {
	out := make([]BudgetLine, 0, len(totals))
	for _, ct := range totals {
		out = append(out, compare(ct.Category, ct.Amount, budgets[ct.Category]))
	}
	return out
}

func compare(category string, spent, budget core.Money) BudgetLine {
	remaining := budget.Sub(spent)
	l := BudgetLine{
		Category:  category,
		Spent:     spent,
		Budget:    budget,
		Remaining: remaining,
		Over:      remaining.IsNegative(),
	}
	if budget.IsPositive() {
		l.Percent = spent.PercentOf(budget)
	}
	return l
}
