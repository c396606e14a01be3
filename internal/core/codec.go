package core

import (
	"encoding/json"
	"time"
)

// Wire forms. Field names follow the export document so stored values,
// exports and API payloads share one shape.
type (
	transactionJSON struct {
		ID          int64  `json:"id"`
		Amount      Money  `json:"amount"`
		Kind        Kind   `json:"kind,omitempty"`
		Description string `json:"description"`
		Category    string `json:"category"`
		Date        Date   `json:"date"`
	}

	goalJSON struct {
		ID            int64      `json:"id"`
		Title         string     `json:"title"`
		TargetAmount  Money      `json:"targetAmount"`
		CurrentAmount Money      `json:"currentAmount"`
		Period        GoalPeriod `json:"period,omitempty"`
		TargetDate    time.Time  `json:"targetDate"`
		CreatedDate   time.Time  `json:"createdDate"`
		Description   string     `json:"description,omitempty"`
	}

	investmentJSON struct {
		ID            int64          `json:"id"`
		Name          string         `json:"name"`
		Type          InvestmentType `json:"type"`
		Shares        Quantity       `json:"shares"`
		PurchasePrice Money          `json:"purchasePrice"`
		CurrentPrice  Money          `json:"currentPrice"`
		PurchaseDate  Date           `json:"purchaseDate"`
		TotalInvested Money          `json:"totalInvested"`
		CurrentValue  Money          `json:"currentValue"`
	}
)

// MarshalJSON writes the signed amount: positive for expenses, negative for
// income. The kind is repeated for readers that do not know the convention.
func (t Transaction) MarshalJSON() ([]byte, error) {
	return json.Marshal(transactionJSON{
		ID:          t.ID,
		Amount:      t.Signed(),
		Kind:        t.Kind,
		Description: t.Description,
		Category:    t.Category,
		Date:        t.Date,
	})
}

// UnmarshalJSON derives the kind from the sign of the amount. A zero or
// unparsable amount is an error.
func (t *Transaction) UnmarshalJSON(b []byte) error {
	var w transactionJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	out := Transaction{
		ID:          w.ID,
		Description: w.Description,
		Category:    w.Category,
		Date:        w.Date,
	}
	if err := out.FromSigned(w.Amount); err != nil {
		return err
	}
	*t = out
	return nil
}

func (g SavingsGoal) MarshalJSON() ([]byte, error) {
	return json.Marshal(goalJSON(g))
}

// UnmarshalJSON fills a missing target date from the period and creation date.
func (g *SavingsGoal) UnmarshalJSON(b []byte) error {
	var w goalJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	if w.TargetDate.IsZero() && !w.CreatedDate.IsZero() && w.Period.Months() > 0 {
		w.TargetDate = w.Period.TargetFrom(w.CreatedDate)
	}
	*g = SavingsGoal(w)
	return nil
}

func (i Investment) MarshalJSON() ([]byte, error) {
	return json.Marshal(investmentJSON(i))
}

// UnmarshalJSON ignores the stored totals and recomputes them from shares
// and prices.
func (i *Investment) UnmarshalJSON(b []byte) error {
	var w investmentJSON
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	out := Investment(w)
	out.Recompute()
	*i = out
	return nil
}
