// Package metrics derives reports from ledger snapshots.
//
// Every function here is pure: it reads its arguments, never mutates them, and
// takes the current time explicitly where the result depends on it.
package metrics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"fintrack/internal/core"
)

type (
	// Totals is the income/expense split of a transaction set.
	Totals struct {
		Income       core.Money `json:"income"`
		Expenses     core.Money `json:"expenses"`
		Net          core.Money `json:"net"`
		IncomeCount  int        `json:"incomeCount"`
		ExpenseCount int        `json:"expenseCount"`
	}

	CategoryTotal struct {
		Category string     `json:"category"`
		Amount   core.Money `json:"amount"`
	}

	// SeriesPoint is one bucket of a time series. Start is the first day of
	// the bucket and orders the series.
	SeriesPoint struct {
		Label  string     `json:"label"`
		Start  core.Date  `json:"start"`
		Amount core.Money `json:"amount"`
	}

	LabelStyle int
)

const (
	// ShortMonth labels buckets "Jan".
	ShortMonth LabelStyle = iota
	// MonthYear labels buckets "Jan 2025".
	MonthYear
)

// Window is a lookback period for insights.
type Window string

const (
	Window1Month   Window = "1month"
	Window3Months  Window = "3months"
	Window6Months  Window = "6months"
	Window12Months Window = "12months"
)

// DefaultWindow is used when no window is requested.
const DefaultWindow = Window6Months

// AllCategories disables the category filter.
const AllCategories = "all"

// ParseWindow validates a window name; "" yields DefaultWindow.
func ParseWindow(s string) (Window, error) {
	w := Window(strings.TrimSpace(s))
	if w == "" {
		return DefaultWindow, nil
	}
	if w.Months() == 0 {
		return "", fmt.Errorf("unknown time range %q", s)
	}
	return w, nil
}

// Months returns the window length, or 0 for an unknown window.
func (w Window) Months() int {
	switch w {
	case Window1Month:
		return 1
	case Window3Months:
		return 3
	case Window6Months:
		return 6
	case Window12Months:
		return 12
	}
	return 0
}

// Cutoff is the first day included in the window ending at now.
func (w Window) Cutoff(now time.Time) core.Date {
	return core.DateOf(now.AddDate(0, -w.Months(), 0))
}

// Filter restricts a transaction set to a window and optionally a category.
type Filter struct {
	Window   Window
	Category string
}

func (f Filter) categoryMatches(c string) bool {
	return f.Category == "" || f.Category == AllCategories || f.Category == c
}

// Apply returns the transactions dated on or after the window cutoff that
// match the category. An empty window keeps every date.
func (f Filter) Apply(txs []core.Transaction, now time.Time) []core.Transaction {
	var cutoff core.Date
	if f.Window.Months() > 0 {
		cutoff = f.Window.Cutoff(now)
	}
	out := make([]core.Transaction, 0, len(txs))
	for _, t := range txs {
		if !cutoff.IsZero() && t.Date.Before(cutoff.Time) {
			continue
		}
		if !f.categoryMatches(t.Category) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// Summarize splits a transaction set into income and expense totals. Every
// transaction lands in exactly one side.
func Summarize(txs []core.Transaction) Totals {
	var s Totals
	for _, t := range txs {
		if !t.Amount.IsPositive() {
			continue
		}
		switch t.Kind {
		case core.KindExpense:
			s.Expenses = s.Expenses.Add(t.Amount)
			s.ExpenseCount++
		case core.KindIncome:
			s.Income = s.Income.Add(t.Amount)
			s.IncomeCount++
		}
	}
	s.Net = s.Income.Sub(s.Expenses)
	return s
}

// CategoryTotals sums expenses per category, largest first.
func CategoryTotals(txs []core.Transaction) []CategoryTotal {
	sums := map[string]core.Money{}
	for _, t := range txs {
		if !t.IsExpense() || !t.Amount.IsPositive() {
			continue
		}
		sums[t.Category] = sums[t.Category].Add(t.Amount)
	}
	out := make([]CategoryTotal, 0, len(sums))
	for c, v := range sums {
		out = append(out, CategoryTotal{Category: c, Amount: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Amount.Cmp(out[j].Amount); c != 0 {
			return c > 0
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// MonthlySeries sums expenses per calendar month, oldest first.
func MonthlySeries(txs []core.Transaction, style LabelStyle) []SeriesPoint {
	return bucket(txs, func(d core.Date) core.Date {
		return core.NewDate(d.Year(), int(d.Month()), 1)
	}, func(start core.Date) string {
		if style == MonthYear {
			return start.Format("Jan 2006")
		}
		return start.Format("Jan")
	})
}

// WeeklySeries sums expenses per week, weeks starting on Sunday, oldest first.
func WeeklySeries(txs []core.Transaction) []SeriesPoint {
	return bucket(txs, func(d core.Date) core.Date {
		return core.Date{Time: d.AddDate(0, 0, -int(d.Weekday()))}
	}, func(start core.Date) string {
		return start.Format("Jan 2")
	})
}

func bucket(txs []core.Transaction, key func(core.Date) core.Date, label func(core.Date) string) []SeriesPoint {
	points := map[string]*SeriesPoint{}
	for _, t := range txs {
		if !t.IsExpense() || !t.Amount.IsPositive() || t.Date.IsZero() {
			continue
		}
		start := key(t.Date)
		p, ok := points[start.String()]
		if !ok {
			p = &SeriesPoint{Label: label(start), Start: start}
			points[start.String()] = p
		}
		p.Amount = p.Amount.Add(t.Amount)
	}
	out := make([]SeriesPoint, 0, len(points))
	for _, p := range points {
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Start.Before(out[j].Start.Time) })
	return out
}

// Categories lists the distinct categories used by the transactions, sorted.
func Categories(txs []core.Transaction) []string {
	seen := map[string]struct{}{}
	for _, t := range txs {
		seen[t.Category] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for c := range seen {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}
