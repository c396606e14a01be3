// Package exchange reads and writes the backup document:
//
//	{"transactions": [...], "budgets": {...}, "savingsGoals": [...],
//	 "investments": [...], "exportDate": "...", "version": "1.0"}
package exchange

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/store"
)

// FormatVersion is written into every export.
const FormatVersion = "1.0"

var (
	ErrMalformed = errors.New("malformed import document")
	ErrEmpty     = errors.New("import document contains no known collection")
)

// Document is the export form of a snapshot.
type Document struct {
	Transactions []core.Transaction `json:"transactions"`
	Budgets      core.Budgets       `json:"budgets"`
	SavingsGoals []core.SavingsGoal `json:"savingsGoals"`
	Investments  []core.Investment  `json:"investments"`
	ExportDate   time.Time          `json:"exportDate"`
	Version      string             `json:"version"`
}

// NewDocument builds the export of s taken at now.
func NewDocument(s core.Snapshot, now time.Time) Document {
	d := Document{
		Transactions: s.Transactions,
		Budgets:      s.Budgets,
		SavingsGoals: s.Goals,
		Investments:  s.Investments,
		ExportDate:   now.UTC(),
		Version:      FormatVersion,
	}
	if d.Transactions == nil {
		d.Transactions = []core.Transaction{}
	}
	if d.Budgets == nil {
		d.Budgets = core.Budgets{}
	}
	if d.SavingsGoals == nil {
		d.SavingsGoals = []core.SavingsGoal{}
	}
	if d.Investments == nil {
		d.Investments = []core.Investment{}
	}
	return d
}

// Export writes s as an indented backup document.
func Export(w io.Writer, s core.Snapshot, now time.Time) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(NewDocument(s, now)); err != nil {
		return fmt.Errorf("encode export: %w", err)
	}
	return nil
}

// Result describes a parsed import.
type Result struct {
	Partial store.Partial
	// Keys lists the collections present in the document.
	Keys    []string
	Dropped int
}

// Parse decodes a possibly partial backup document. A top-level key that is
// present and not null replaces its collection; absent keys are left alone.
// A document that is not valid JSON, or whose collections have the wrong
// shape, is rejected as a whole.
func Parse(r io.Reader) (Result, error) {
	body, err := io.ReadAll(r)
	if err != nil {
		return Result{}, fmt.Errorf("read import: %w", err)
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(body, &top); err != nil {
		return Result{}, fmt.Errorf("%w: %w", ErrMalformed, err)
	}

	var res Result
	present := func(key string) (json.RawMessage, bool) {
		raw, ok := top[key]
		if !ok || bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return nil, false
		}
		res.Keys = append(res.Keys, key)
		return raw, true
	}

	if raw, ok := present("transactions"); ok {
		txs, n, err := core.DecodeTransactions(raw)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		res.Partial.Transactions, res.Dropped = txs, res.Dropped+n
	}
	if raw, ok := present("budgets"); ok {
		b, n, err := core.DecodeBudgets(raw)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		res.Partial.Budgets, res.Dropped = b, res.Dropped+n
	}
	if raw, ok := present("savingsGoals"); ok {
		goals, n, err := core.DecodeGoals(raw)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		res.Partial.Goals, res.Dropped = goals, res.Dropped+n
	}
	if raw, ok := present("investments"); ok {
		invs, n, err := core.DecodeInvestments(raw)
		if err != nil {
			return Result{}, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		res.Partial.Investments, res.Dropped = invs, res.Dropped+n
	}
	if len(res.Keys) == 0 {
		return Result{}, ErrEmpty
	}
	return res, nil
}

// Stats mirrors the data overview: collection counts and the size of the
// serialized collections.
type Stats struct {
	Transactions int     `json:"totalTransactions"`
	Budgets      int     `json:"totalBudgets"`
	Goals        int     `json:"totalGoals"`
	Investments  int     `json:"totalInvestments"`
	Bytes        int     `json:"bytes"`
	SizeKB       float64 `json:"sizeInKB"`
}

// ComputeStats counts s and measures its JSON encoding.
func ComputeStats(s core.Snapshot) (Stats, error) {
	d := NewDocument(s, time.Time{})
	raw, err := json.Marshal(struct {
		Transactions []core.Transaction `json:"transactions"`
		Budgets      core.Budgets       `json:"budgets"`
		SavingsGoals []core.SavingsGoal `json:"savingsGoals"`
		Investments  []core.Investment  `json:"investments"`
	}{d.Transactions, d.Budgets, d.SavingsGoals, d.Investments})
	if err != nil {
		return Stats{}, fmt.Errorf("encode stats: %w", err)
	}
	return Stats{
		Transactions: len(s.Transactions),
		Budgets:      len(s.Budgets),
		Goals:        len(s.Goals),
		Investments:  len(s.Investments),
		Bytes:        len(raw),
		SizeKB:       float64(len(raw)*100/1024) / 100,
	}, nil
}
