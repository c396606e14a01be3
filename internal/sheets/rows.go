package sheets

import (
	"sort"
	"strconv"

	"fintrack/internal/core"
	"fintrack/internal/metrics"
)

var (
	TransactionHeader = []any{"Date", "Kind", "Description", "Category", "Amount"}
	BudgetHeader      = []any{"Category", "Budget", "Spent", "Remaining", "Used %"}
)

// TransactionRows renders the transactions tab: a header followed by one row
// per transaction, oldest first, with signed amounts.
func TransactionRows(s core.Snapshot) [][]any {
	txs := append([]core.Transaction(nil), s.Transactions...)
	sort.SliceStable(txs, func(i, j int) bool {
		if !txs[i].Date.Equal(txs[j].Date.Time) {
			return txs[i].Date.Before(txs[j].Date.Time)
		}
		return txs[i].ID < txs[j].ID
	})

	rows := make([][]any, 0, len(txs)+1)
	rows = append(rows, TransactionHeader)
	for _, t := range txs {
		rows = append(rows, []any{t.Date.String(), string(t.Kind), t.Description, t.Category, t.Signed().String()})
	}
	return rows
}

// BudgetRows renders the budgets tab: every category with a budget set and
// its all-time spending against it.
func BudgetRows(s core.Snapshot) [][]any {
	spent := map[string]core.Money{}
	for _, ct := range metrics.CategoryTotals(s.Expenses()) {
		spent[ct.Category] = ct.Amount
	}

	cats := make([]string, 0, len(s.Budgets))
	for c := range s.Budgets {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	rows := make([][]any, 0, len(cats)+1)
	rows = append(rows, BudgetHeader)
	for _, c := range cats {
		budget := s.Budgets[c]
		used := spent[c]
		rows = append(rows, []any{
			c,
			budget.String(),
			used.String(),
			budget.Sub(used).String(),
			strconv.FormatFloat(used.PercentOf(budget), 'f', 1, 64),
		})
	}
	return rows
}
