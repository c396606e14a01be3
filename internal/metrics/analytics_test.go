package metrics

import (
	"testing"
	"time"

	"fintrack/internal/core"
)

func TestCompareBudgets(t *testing.T) {
	txs := []core.Transaction{
		expense(1, "50", "Food", core.NewDate(2025, 1, 1)),
		expense(2, "30", "Shopping", core.NewDate(2025, 1, 2)),
		expense(3, "120", "Housing", core.NewDate(2025, 1, 3)),
	}
	budgets := core.Budgets{"Food": money("100"), "Housing": money("100"), "Education": money("40")}
	lines := CompareBudgets(CategoryTotals(txs), budgets)
	if len(lines) != 3 {
		t.Fatalf("only categories with spending are listed, got %d lines", len(lines))
	}
	byCat := map[string]BudgetLine{}
	for _, l := range lines {
		byCat[l.Category] = l
		if !l.Remaining.Equal(l.Budget.Sub(l.Spent)) {
			t.Fatalf("%s: remaining %s != budget - spent", l.Category, l.Remaining)
		}
		if l.Over != l.Spent.GreaterThan(l.Budget) {
			t.Fatalf("%s: over flag mismatch", l.Category)
		}
	}

	food := byCat["Food"]
	if !food.Spent.Equal(money("50")) || !food.Budget.Equal(money("100")) || !food.Remaining.Equal(money("50")) || food.Percent != 50 {
		t.Fatalf("unexpected food line %+v", food)
	}
	shop := byCat["Shopping"]
	if !shop.Budget.IsZero() || shop.Percent != 0 || !shop.Over {
		t.Fatalf("unbudgeted category should report zero budget and be over, got %+v", shop)
	}
	if !byCat["Housing"].Over {
		t.Fatalf("expected housing over budget")
	}
}

func TestPortfolio(t *testing.T) {
	mk := func(id int64, typ core.InvestmentType, shares, buy, cur string) core.Investment {
		inv := core.Investment{ID: id, Name: "h", Type: typ, Shares: core.MustParseQuantity(shares),
			PurchasePrice: money(buy), CurrentPrice: money(cur), PurchaseDate: core.NewDate(2024, 1, 1)}
		inv.Recompute()
		return inv
	}
	single := mk(1, core.TypeStocks, "10", "5", "8")
	if !single.TotalInvested.Equal(money("50")) || !single.CurrentValue.Equal(money("80")) {
		t.Fatalf("unexpected totals %s/%s", single.TotalInvested, single.CurrentValue)
	}
	p := Portfolio([]core.Investment{single})
	if !p.GainLoss.Equal(money("30")) || p.GainLossPercent != 60 {
		t.Fatalf("expected gain 30 (60%%), got %s (%v%%)", p.GainLoss, p.GainLossPercent)
	}

	holdings := []core.Investment{
		mk(1, core.TypeStocks, "10", "5", "8"),
		mk(2, core.TypeBonds, "1", "100", "90"),
		mk(3, core.TypeETFs, "2", "10", "30"),
		mk(4, core.TypeStocks, "1", "10", "11"),
		mk(5, core.TypeCryptocurrency, "1", "10", "12"),
		mk(6, core.TypeOther, "1", "10", "10"),
	}
	p = Portfolio(holdings)
	if len(p.TopPerformers) != TopPerformersLimit {
		t.Fatalf("expected %d performers, got %d", TopPerformersLimit, len(p.TopPerformers))
	}
	if p.TopPerformers[0].ID != 3 || p.TopPerformers[1].ID != 1 {
		t.Fatalf("unexpected ranking %+v", p.TopPerformers)
	}
	for i := 1; i < len(p.TopPerformers); i++ {
		if p.TopPerformers[i].GainLossPercent > p.TopPerformers[i-1].GainLossPercent {
			t.Fatalf("performers not sorted descending")
		}
	}
	if p.Allocation[0].Type != core.TypeStocks || !p.Allocation[0].Value.Equal(money("91")) {
		t.Fatalf("unexpected first allocation %+v", p.Allocation[0])
	}

	empty := Portfolio(nil)
	if empty.GainLossPercent != 0 || len(empty.TopPerformers) != 0 {
		t.Fatalf("expected zero portfolio, got %+v", empty)
	}
}

func TestGoalTracking(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	goal := core.SavingsGoal{
		ID: 1, Title: "Car", TargetAmount: money("1000"), CurrentAmount: money("250"),
		CreatedDate: now, TargetDate: now.AddDate(0, 0, 90),
	}
	p := Track(goal, now)
	if p.Progress != 25 {
		t.Fatalf("expected progress 25, got %v", p.Progress)
	}
	if p.DaysLeft != 90 || p.MonthsLeft != 3 || p.Status != StatusOnTrack {
		t.Fatalf("unexpected schedule %+v", p)
	}
	if !p.MonthlyTarget.Equal(money("250")) {
		t.Fatalf("expected monthly target 250, got %s", p.MonthlyTarget)
	}

	goal.CurrentAmount = goal.CurrentAmount.Add(money("800"))
	p = Track(goal, now)
	if p.Progress != 100 || p.Status != StatusCompleted || !p.MonthlyTarget.IsZero() {
		t.Fatalf("expected completed goal, got %+v", p)
	}

	cases := []struct {
		days int
		want GoalStatus
	}{
		{-1, StatusOverdue},
		{0, StatusUrgent},
		{29, StatusUrgent},
		{30, StatusOnTrack},
	}
	for _, tc := range cases {
		g := core.SavingsGoal{TargetAmount: money("100"), TargetDate: now.AddDate(0, 0, tc.days)}
		if got := Track(g, now).Status; got != tc.want {
			t.Fatalf("%d days: expected %s, got %s", tc.days, tc.want, got)
		}
	}
}

func TestProgressIsMonotonicAndCapped(t *testing.T) {
	prev := -1.0
	for _, c := range []string{"0", "1", "499.99", "1000", "5000"} {
		p := Progress(core.SavingsGoal{TargetAmount: money("1000"), CurrentAmount: money(c)})
		if p < prev || p > 100 {
			t.Fatalf("progress %v after %v for %s", p, prev, c)
		}
		prev = p
	}
	if p := Progress(core.SavingsGoal{CurrentAmount: money("0.5")}); p != 50 {
		t.Fatalf("zero target should divide by 1, got %v", p)
	}
}

func TestHealthScore(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	if h := Health(core.Snapshot{}, nil, now); h.Score != DefaultHealthScore || !h.Insufficient {
		t.Fatalf("expected default score for empty ledger, got %+v", h)
	}

	onlyIncome := core.Snapshot{Transactions: []core.Transaction{income(1, "10", "Salary", core.NewDate(2025, 1, 1))}}
	if h := Health(onlyIncome, nil, now); h.Score != DefaultHealthScore {
		t.Fatalf("expected default score without expenses, got %v", h.Score)
	}

	// 600 spent over 60 days: 2 months, 300 a month, 1800 needed for six months.
	s := core.Snapshot{
		Transactions: []core.Transaction{
			expense(1, "400", "Food", core.NewDate(2024, 12, 31)),
			expense(2, "200", "Housing", core.NewDate(2025, 2, 1)),
		},
		Goals:       []core.SavingsGoal{{CurrentAmount: money("900")}},
		Investments: []core.Investment{{CurrentValue: money("150")}},
	}
	h := Health(s, ledgerLines(s), now)
	if h.EmergencyFund != 20 || h.Investments != 15 || h.Adherence != 15 {
		t.Fatalf("unexpected parts %+v", h)
	}
	if h.Score != 50 {
		t.Fatalf("expected 50, got %v", h.Score)
	}

	s.Budgets = core.Budgets{"Food": money("500"), "Housing": money("100"), "Education": money("50"), "Gifts": money("0")}
	h = Health(s, ledgerLines(s), now)
	if h.Adherence != 15 {
		t.Fatalf("expected 1 of 2 budgeted categories with spending on track, got %v", h.Adherence)
	}

	// Housing has a budget but no spending, so only the overspent Food counts.
	s.Budgets = core.Budgets{"Food": money("100"), "Housing": money("1000")}
	s.Transactions = s.Transactions[:1]
	if h = Health(s, ledgerLines(s), now); h.Adherence != 0 {
		t.Fatalf("budgets without spending must not count as on track, got %v", h.Adherence)
	}
	s.Transactions = []core.Transaction{
		expense(1, "400", "Food", core.NewDate(2024, 12, 31)),
		expense(2, "200", "Housing", core.NewDate(2025, 2, 1)),
	}

	s.Goals[0].CurrentAmount = money("100000")
	s.Investments[0].CurrentValue = money("100000")
	s.Budgets = core.Budgets{"Food": money("1000")}
	h = Health(s, ledgerLines(s), now)
	if h.Score != 100 {
		t.Fatalf("expected full score, got %+v", h)
	}
}

func TestMonthsSpanned(t *testing.T) {
	now := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		from core.Date
		want int
	}{
		{core.NewDate(2025, 3, 1), 1},
		{core.NewDate(2025, 2, 28), 1},
		{core.NewDate(2025, 1, 30), 1},
		{core.NewDate(2025, 1, 29), 2},
		{core.NewDate(2025, 4, 1), 1},
	}
	for _, tc := range cases {
		if got := MonthsSpanned(tc.from, now); got != tc.want {
			t.Fatalf("%s: expected %d, got %d", tc.from, tc.want, got)
		}
	}
}

func TestBuildInsights(t *testing.T) {
	now := time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)
	s := core.Snapshot{
		Version: 4,
		Transactions: []core.Transaction{
			expense(1, "10", "Food", core.NewDate(2025, 3, 1)),
			expense(2, "20", "Food", core.NewDate(2024, 1, 1)),
			income(3, "500", "Salary", core.NewDate(2025, 3, 1)),
		},
		Budgets: core.Budgets{"Food": money("40")},
		Goals:   []core.SavingsGoal{{ID: 9, Title: "Trip", TargetAmount: money("200"), CurrentAmount: money("50")}},
	}
	in := BuildInsights(s, Filter{}, now)
	if in.Window != DefaultWindow || in.Category != AllCategories {
		t.Fatalf("expected default filters, got %q %q", in.Window, in.Category)
	}
	if len(in.Trends) != 1 || in.Trends[0].Label != "Mar 2025" {
		t.Fatalf("unexpected trends %+v", in.Trends)
	}
	if len(in.Categories) != 1 || in.Categories[0].Percent != 25 {
		t.Fatalf("unexpected category insights %+v", in.Categories)
	}
	if len(in.Savings) != 1 || in.Savings[0].Progress != 25 {
		t.Fatalf("unexpected savings %+v", in.Savings)
	}
	if len(in.Available) != 2 {
		t.Fatalf("expected Food and Salary, got %v", in.Available)
	}
}

func TestBuildDashboard(t *testing.T) {
	s := core.Snapshot{
		Transactions: []core.Transaction{expense(1, "50", "Food", core.NewDate(2025, 1, 1))},
		Budgets:      core.Budgets{"Food": money("100")},
	}
	d := BuildDashboard(s)
	if len(d.Categories) != 1 || !d.Categories[0].Amount.Equal(money("50")) {
		t.Fatalf("unexpected categories %+v", d.Categories)
	}
	l := d.Budgets[0]
	if !l.Spent.Equal(money("50")) || !l.Budget.Equal(money("100")) || !l.Remaining.Equal(money("50")) {
		t.Fatalf("unexpected budget line %+v", l)
	}
}

func ledgerLines(s core.Snapshot) []BudgetLine {
	return CompareBudgets(CategoryTotals(s.Expenses()), s.Budgets)
}

func TestInsightsAdherenceFollowsFilter(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	s := core.Snapshot{
		Transactions: []core.Transaction{
			expense(1, "500", "Food", core.NewDate(2025, 3, 1)),
			expense(2, "50", "Housing", core.NewDate(2025, 3, 2)),
		},
		Budgets: core.Budgets{"Food": money("100"), "Housing": money("1000")},
	}

	all := BuildInsights(s, Filter{Window: Window1Month}, now)
	if all.Health.Adherence != 15 {
		t.Fatalf("expected 1 of 2 on track, got %v", all.Health.Adherence)
	}
	housing := BuildInsights(s, Filter{Window: Window1Month, Category: "Housing"}, now)
	if housing.Health.Adherence != 30 {
		t.Fatalf("expected the filtered category to be on track, got %v", housing.Health.Adherence)
	}
}
