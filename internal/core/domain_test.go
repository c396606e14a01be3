package core

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
)

func TestDateValidate(t *testing.T) {
	cases := []struct {
		d  Date
		ok bool
	}{
		{NewDate(2025, 1, 1), true},
		{NewDate(2025, 12, 31), true},
		{Date{Time: time.Time{}}, false}, // zero time
	}
	for i, tc := range cases {
		err := tc.d.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestParseDateAcceptsTimestamps(t *testing.T) {
	d, err := ParseDate("2025-03-04T22:10:00.000Z")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2025-03-04" {
		t.Fatalf("expected 2025-03-04, got %s", d)
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		Kind:        KindExpense,
		Amount:      MoneyFromInt(10),
		Description: "ok",
		Category:    "Food",
		Date:        NewDate(2025, 1, 1),
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Kind: "", Amount: MoneyFromInt(1), Description: "a", Category: "Food", Date: NewDate(2025, 1, 1)},
		{Kind: KindExpense, Amount: Money{}, Description: "a", Category: "Food", Date: NewDate(2025, 1, 1)},
		{Kind: KindExpense, Amount: MoneyFromInt(-1), Description: "a", Category: "Food", Date: NewDate(2025, 1, 1)},
		{Kind: KindExpense, Amount: MoneyFromInt(1), Description: "  ", Category: "Food", Date: NewDate(2025, 1, 1)},
		{Kind: KindExpense, Amount: MoneyFromInt(1), Description: strings.Repeat("x", 201), Category: "Food", Date: NewDate(2025, 1, 1)},
		{Kind: KindExpense, Amount: MoneyFromInt(1), Description: "a", Category: "Food"},
	}
	for i, tx := range bads {
		err := tx.Validate()
		if err == nil {
			t.Fatalf("case %d expected error", i)
		}
		if !errors.Is(err, ErrValidation) {
			t.Fatalf("case %d expected ErrValidation, got %v", i, err)
		}
	}
}

func TestTransactionSignedJSON(t *testing.T) {
	in := `{"id":7,"amount":"-1200","description":"pay","category":"Salary","date":"2025-02-01"}`
	var tx Transaction
	if err := json.Unmarshal([]byte(in), &tx); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if tx.Kind != KindIncome || !tx.Amount.Equal(MoneyFromInt(1200)) {
		t.Fatalf("expected income of 1200, got %s %s", tx.Kind, tx.Amount)
	}

	b, err := json.Marshal(tx)
	if err != nil {
		t.Fatal(err)
	}
	var back map[string]any
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if back["amount"] != float64(-1200) {
		t.Fatalf("expected signed amount -1200, got %v", back["amount"])
	}

	if err := json.Unmarshal([]byte(`{"amount":0,"description":"x","date":"2025-01-01"}`), &tx); err == nil {
		t.Fatalf("expected error for zero amount")
	}
}

func TestInvestmentTotalsAreRecomputed(t *testing.T) {
	in := `{"id":1,"name":"ACME","type":"Stocks","shares":10,"purchasePrice":5,"currentPrice":8,
		"purchaseDate":"2024-01-01","totalInvested":999,"currentValue":1}`
	var inv Investment
	if err := json.Unmarshal([]byte(in), &inv); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if !inv.TotalInvested.Equal(MoneyFromInt(50)) || !inv.CurrentValue.Equal(MoneyFromInt(80)) {
		t.Fatalf("expected 50/80, got %s/%s", inv.TotalInvested, inv.CurrentValue)
	}
	if !inv.GainLoss().Equal(MoneyFromInt(30)) {
		t.Fatalf("expected gain 30, got %s", inv.GainLoss())
	}
}

func TestGoalPeriodTarget(t *testing.T) {
	created := time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	cases := map[GoalPeriod]time.Time{
		Period6Months: time.Date(2025, 7, 15, 10, 0, 0, 0, time.UTC),
		Period1Year:   time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC),
		Period5Years:  time.Date(2030, 1, 15, 10, 0, 0, 0, time.UTC),
	}
	for p, want := range cases {
		if got := p.TargetFrom(created); !got.Equal(want) {
			t.Fatalf("%s: expected %v, got %v", p, want, got)
		}
	}
}

func TestDecodeTransactionsDropsMalformed(t *testing.T) {
	raw := json.RawMessage(`[
		{"id":1,"amount":"50","description":"lunch","category":"Food","date":"2025-01-02"},
		{"id":2,"amount":"abc","description":"bad","category":"Food","date":"2025-01-02"},
		{"id":3,"amount":"20","description":"","category":"Food","date":"2025-01-02"},
		{"id":4,"amount":12,"description":"misc","date":"2025-01-03"}
	]`)
	txs, dropped, err := DecodeTransactions(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 2 || dropped != 2 {
		t.Fatalf("expected 2 kept and 2 dropped, got %d and %d", len(txs), dropped)
	}
	if txs[1].Category != OtherCategory {
		t.Fatalf("expected empty category to default to Other, got %q", txs[1].Category)
	}

	if _, _, err := DecodeTransactions(json.RawMessage(`{"not":"an array"}`)); err == nil {
		t.Fatalf("expected error for non-array")
	}
}

func TestDecodeBudgetsSkipsNegative(t *testing.T) {
	b, dropped, err := DecodeBudgets(json.RawMessage(`{"Food":100,"Housing":"-5","Fun":"x","Travel":0}`))
	if err != nil {
		t.Fatal(err)
	}
	if dropped != 2 || len(b) != 2 {
		t.Fatalf("expected 2 kept and 2 dropped, got %v (dropped %d)", b, dropped)
	}
}
