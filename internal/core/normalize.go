package core

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Normalization is the one place malformed numeric fields are dealt with.
// Everything past it (store, metrics, exporters) may assume finite, correctly
// signed values.

// Normalize trims text fields, defaults an empty category to Other and
// validates the result.
func (t Transaction) Normalize() (Transaction, error) {
	t.Description = strings.TrimSpace(t.Description)
	t.Category = strings.TrimSpace(t.Category)
	if t.Category == "" {
		t.Category = OtherCategory
	}
	if err := t.Validate(); err != nil {
		return Transaction{}, err
	}
	return t, nil
}

// Normalize trims text fields, derives a missing target date and validates.
func (g SavingsGoal) Normalize() (SavingsGoal, error) {
	g.Title = strings.TrimSpace(g.Title)
	g.Description = strings.TrimSpace(g.Description)
	if g.TargetDate.IsZero() && g.Period.Months() > 0 {
		g.TargetDate = g.Period.TargetFrom(g.CreatedDate)
	}
	if err := g.Validate(); err != nil {
		return SavingsGoal{}, err
	}
	return g, nil
}

// Normalize coerces an unknown type to Other, recomputes the totals and
// validates.
func (i Investment) Normalize() (Investment, error) {
	i.Name = strings.TrimSpace(i.Name)
	if !i.Type.Valid() {
		i.Type = TypeOther
	}
	i.Recompute()
	if err := i.Validate(); err != nil {
		return Investment{}, err
	}
	return i, nil
}

// DecodeTransactions decodes a JSON array of transactions. Elements that do
// not decode or validate are skipped and counted; only a value that is not an
// array is an error.
func DecodeTransactions(raw json.RawMessage) ([]Transaction, int, error) {
	items, err := splitArray(raw)
	if err != nil {
		return nil, 0, fmt.Errorf("decode transactions: %w", err)
	}
	out := make([]Transaction, 0, len(items))
	dropped := 0
	for _, it := range items {
		var t Transaction
		if err := json.Unmarshal(it, &t); err != nil {
			dropped++
			continue
		}
		n, err := t.Normalize()
		if err != nil {
			dropped++
			continue
		}
		out = append(out, n)
	}
	return out, dropped, nil
}

// DecodeGoals decodes a JSON array of savings goals, skipping bad elements.
func DecodeGoals(raw json.RawMessage) ([]SavingsGoal, int, error) {
	items, err := splitArray(raw)
	if err != nil {
		return nil, 0, fmt.Errorf("decode savings goals: %w", err)
	}
	out := make([]SavingsGoal, 0, len(items))
	dropped := 0
	for _, it := range items {
		var g SavingsGoal
		if err := json.Unmarshal(it, &g); err != nil {
			dropped++
			continue
		}
		n, err := g.Normalize()
		if err != nil {
			dropped++
			continue
		}
		out = append(out, n)
	}
	return out, dropped, nil
}

// DecodeInvestments decodes a JSON array of holdings, skipping bad elements.
func DecodeInvestments(raw json.RawMessage) ([]Investment, int, error) {
	items, err := splitArray(raw)
	if err != nil {
		return nil, 0, fmt.Errorf("decode investments: %w", err)
	}
	out := make([]Investment, 0, len(items))
	dropped := 0
	for _, it := range items {
		var i Investment
		if err := json.Unmarshal(it, &i); err != nil {
			dropped++
			continue
		}
		n, err := i.Normalize()
		if err != nil {
			dropped++
			continue
		}
		out = append(out, n)
	}
	return out, dropped, nil
}

// DecodeBudgets decodes a category → amount object. Unparsable or negative
// targets are skipped.
func DecodeBudgets(raw json.RawMessage) (Budgets, int, error) {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, 0, fmt.Errorf("decode budgets: %w", err)
	}
	out := make(Budgets, len(m))
	dropped := 0
	for c, v := range m {
		c = strings.TrimSpace(c)
		var amount Money
		if c == "" || isNull(v) || json.Unmarshal(v, &amount) != nil || amount.IsNegative() {
			dropped++
			continue
		}
		out[c] = amount
	}
	return out, dropped, nil
}

func splitArray(raw json.RawMessage) ([]json.RawMessage, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, err
	}
	return items, nil
}
