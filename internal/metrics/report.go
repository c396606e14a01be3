package metrics

import (
	"time"

	"fintrack/internal/core"
)

// TopCategoriesLimit caps the top-categories list of the insights report.
const TopCategoriesLimit = 5

type (
	Dashboard struct {
		Version    uint64          `json:"version"`
		Totals     Totals          `json:"totals"`
		Categories []CategoryTotal `json:"categories"`
		Monthly    []SeriesPoint   `json:"monthly"`
		Budgets    []BudgetLine    `json:"budgets"`
	}

	SavingsProgress struct {
		ID       int64      `json:"id"`
		Name     string     `json:"name"`
		Progress float64    `json:"progress"`
		Current  core.Money `json:"current"`
		Target   core.Money `json:"target"`
	}

	Insights struct {
		Version       uint64            `json:"version"`
		Window        Window            `json:"timeRange"`
		Category      string            `json:"category"`
		Cutoff        core.Date         `json:"cutoff"`
		Trends        []SeriesPoint     `json:"spendingTrends"`
		Weekly        []SeriesPoint     `json:"weeklySpending"`
		Categories    []BudgetLine      `json:"categoryInsights"`
		TopCategories []BudgetLine      `json:"topCategories"`
		Health        HealthScore       `json:"health"`
		Savings       []SavingsProgress `json:"savingsProgress"`
		Available     []string          `json:"availableCategories"`
	}

	GoalsReport struct {
		Version uint64         `json:"version"`
		Goals   []GoalProgress `json:"goals"`
		Saved   core.Money     `json:"totalSaved"`
		Target  core.Money     `json:"totalTarget"`
	}
)

// BuildDashboard summarizes the whole ledger.
func BuildDashboard(s core.Snapshot) Dashboard {
	totals := CategoryTotals(s.Transactions)
	return Dashboard{
		Version:    s.Version,
		Totals:     Summarize(s.Transactions),
		Categories: totals,
		Monthly:    MonthlySeries(s.Transactions, ShortMonth),
		Budgets:    CompareBudgets(totals, s.Budgets),
	}
}

// BuildInsights reports on the expenses inside f at now. The health score
// covers the whole ledger except budget adherence, which follows the
// filtered category comparison.
func BuildInsights(s core.Snapshot, f Filter, now time.Time) Insights {
	if f.Window == "" {
		f.Window = DefaultWindow
	}
	if f.Category == "" {
		f.Category = AllCategories
	}
	filtered := f.Apply(s.Expenses(), now)
	lines := CompareBudgets(CategoryTotals(filtered), s.Budgets)
	top := lines
	if len(top) > TopCategoriesLimit {
		top = top[:TopCategoriesLimit]
	}
	return Insights{
		Version:       s.Version,
		Window:        f.Window,
		Category:      f.Category,
		Cutoff:        f.Window.Cutoff(now),
		Trends:        MonthlySeries(filtered, MonthYear),
		Weekly:        WeeklySeries(filtered),
		Categories:    lines,
		TopCategories: top,
		Health:        Health(s, lines, now),
		Savings:       savingsProgress(s.Goals),
		Available:     Categories(s.Transactions),
	}
}

// BuildGoalsReport tracks every goal at now.
func BuildGoalsReport(s core.Snapshot, now time.Time) GoalsReport {
	r := GoalsReport{Version: s.Version, Goals: TrackAll(s.Goals, now)}
	for _, g := range s.Goals {
		r.Saved = r.Saved.Add(g.CurrentAmount)
		r.Target = r.Target.Add(g.TargetAmount)
	}
	return r
}

func savingsProgress(goals []core.SavingsGoal) []SavingsProgress {
	out := make([]SavingsProgress, 0, len(goals))
	for _, g := range goals {
		out = append(out, SavingsProgress{
			ID:       g.ID,
			Name:     g.Title,
			Progress: Progress(g),
			Current:  g.CurrentAmount,
			Target:   g.TargetAmount,
		})
	}
	return out
}
