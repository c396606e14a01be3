package metrics

import (
	"testing"
	"time"

	"fintrack/internal/core"
)

func expense(id int64, amount, category string, d core.Date) core.Transaction {
	return core.Transaction{ID: id, Kind: core.KindExpense, Amount: core.MustParseMoney(amount), Description: "e", Category: category, Date: d}
}

func income(id int64, amount, category string, d core.Date) core.Transaction {
	return core.Transaction{ID: id, Kind: core.KindIncome, Amount: core.MustParseMoney(amount), Description: "i", Category: category, Date: d}
}

func money(s string) core.Money { return core.MustParseMoney(s) }

func sampleTransactions() []core.Transaction {
	return []core.Transaction{
		expense(1, "50", "Food", core.NewDate(2025, 1, 5)),
		expense(2, "20.5", "Food", core.NewDate(2025, 2, 10)),
		expense(3, "100", "Housing", core.NewDate(2025, 2, 1)),
		income(4, "1000", "Salary", core.NewDate(2025, 2, 1)),
		expense(5, "9.5", "Entertainment", core.NewDate(2024, 12, 30)),
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize(sampleTransactions())
	if !s.Expenses.Equal(money("180")) {
		t.Fatalf("expected expenses 180, got %s", s.Expenses)
	}
	if !s.Income.Equal(money("1000")) {
		t.Fatalf("expected income 1000, got %s", s.Income)
	}
	if !s.Net.Equal(money("820")) {
		t.Fatalf("expected net 820, got %s", s.Net)
	}
	if s.IncomeCount+s.ExpenseCount != 5 {
		t.Fatalf("every transaction must land on one side, got %d+%d", s.IncomeCount, s.ExpenseCount)
	}
}

func TestCategoryTotalsSumToExpenses(t *testing.T) {
	txs := sampleTransactions()
	totals := CategoryTotals(txs)
	var sum core.Money
	for _, ct := range totals {
		sum = sum.Add(ct.Amount)
	}
	if !sum.Equal(Summarize(txs).Expenses) {
		t.Fatalf("category totals %s do not add up to expenses %s", sum, Summarize(txs).Expenses)
	}
	want := []string{"Housing", "Food", "Entertainment"}
	for i, c := range want {
		if totals[i].Category != c {
			t.Fatalf("position %d: expected %s, got %s", i, c, totals[i].Category)
		}
	}
}

func TestEmptyInputYieldsEmptySeries(t *testing.T) {
	if got := CategoryTotals(nil); len(got) != 0 {
		t.Fatalf("expected no totals, got %v", got)
	}
	if got := MonthlySeries(nil, MonthYear); len(got) != 0 {
		t.Fatalf("expected empty monthly series, got %v", got)
	}
	if got := WeeklySeries(nil); len(got) != 0 {
		t.Fatalf("expected empty weekly series, got %v", got)
	}
}

func TestMonthlySeries(t *testing.T) {
	cases := []struct {
		style  LabelStyle
		labels []string
	}{
		{ShortMonth, []string{"Dec", "Jan", "Feb"}},
		{MonthYear, []string{"Dec 2024", "Jan 2025", "Feb 2025"}},
	}
	for _, tc := range cases {
		got := MonthlySeries(sampleTransactions(), tc.style)
		if len(got) != len(tc.labels) {
			t.Fatalf("expected %d buckets, got %d", len(tc.labels), len(got))
		}
		for i, l := range tc.labels {
			if got[i].Label != l {
				t.Fatalf("bucket %d: expected %q, got %q", i, l, got[i].Label)
			}
		}
		if !got[2].Amount.Equal(money("120.5")) {
			t.Fatalf("expected February total 120.5, got %s", got[2].Amount)
		}
	}
}

func TestWeeklySeriesStartsOnSunday(t *testing.T) {
	txs := []core.Transaction{
		expense(1, "10", "Food", core.NewDate(2025, 3, 5)), // Wednesday
		expense(2, "5", "Food", core.NewDate(2025, 3, 2)),  // Sunday
		expense(3, "7", "Food", core.NewDate(2025, 3, 9)),  // next Sunday
	}
	got := WeeklySeries(txs)
	if len(got) != 2 {
		t.Fatalf("expected 2 weeks, got %d", len(got))
	}
	if got[0].Start.String() != "2025-03-02" || got[0].Label != "Mar 2" || !got[0].Amount.Equal(money("15")) {
		t.Fatalf("unexpected first week %+v", got[0])
	}
	if got[1].Start.String() != "2025-03-09" {
		t.Fatalf("unexpected second week %+v", got[1])
	}
}

func TestFilterWindowAndCategory(t *testing.T) {
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	txs := []core.Transaction{
		expense(1, "1", "Food", core.NewDate(2025, 2, 15)),   // exactly at the 1 month cutoff
		expense(2, "1", "Food", core.NewDate(2025, 2, 14)),   // one day before
		expense(3, "1", "Housing", core.NewDate(2025, 3, 1)), // other category
	}
	cases := []struct {
		name string
		f    Filter
		want []int64
	}{
		{"one month all", Filter{Window: Window1Month, Category: AllCategories}, []int64{1, 3}},
		{"one month food", Filter{Window: Window1Month, Category: "Food"}, []int64{1}},
		{"three months", Filter{Window: Window3Months}, []int64{1, 2, 3}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := tc.f.Apply(txs, now)
			if len(got) != len(tc.want) {
				t.Fatalf("expected %v, got %d transactions", tc.want, len(got))
			}
			for i, id := range tc.want {
				if got[i].ID != id {
					t.Fatalf("expected id %d at %d, got %d", id, i, got[i].ID)
				}
			}
		})
	}
}

func TestParseWindow(t *testing.T) {
	if w, err := ParseWindow(""); err != nil || w != DefaultWindow {
		t.Fatalf("expected default window, got %q %v", w, err)
	}
	if w, err := ParseWindow("12months"); err != nil || w.Months() != 12 {
		t.Fatalf("expected 12 months, got %q %v", w, err)
	}
	if _, err := ParseWindow("2weeks"); err == nil {
		t.Fatalf("expected error for unknown window")
	}
}
