// Package adapters connects the entity store to a key/value backend.
package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Keys under which the collections are stored.
const (
	KeyTransactions = "transactions"
	KeyBudgets      = "budgets"
	KeyGoals        = "savingsGoals"
	KeyInvestments  = "investments"

	// KeyVersion holds the ledger version of the last save.
	KeyVersion = "ledgerVersion"
)

// AllKeys lists every collection key in a stable order.
var AllKeys = []string{KeyTransactions, KeyBudgets, KeyGoals, KeyInvestments}

// Persistence serializes values as JSON into a storage.KV.
type Persistence struct {
	kv storage.KV
}

func NewPersistence(kv storage.KV) *Persistence {
	return &Persistence{kv: kv}
}

// Load decodes the value stored under key into dst. When nothing is stored
// dst keeps whatever default the caller put there and found is false.
func (p *Persistence) Load(ctx context.Context, key string, dst any) (bool, error) {
	raw, ok, err := p.kv.Get(ctx, key)
	if err != nil {
		return false, fmt.Errorf("load %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("decode %s: %w", key, err)
	}
	return true, nil
}

// Save writes value as JSON under key.
func (p *Persistence) Save(ctx context.Context, key string, value any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := p.kv.Put(ctx, key, raw); err != nil {
		return fmt.Errorf("save %s: %w", key, err)
	}
	return nil
}

// LoadSnapshot reads all four collections. Missing keys yield empty
// collections. Malformed elements are dropped and logged; a stored value that
// is not valid JSON for its key fails the whole load.
func (p *Persistence) LoadSnapshot(ctx context.Context) (core.Snapshot, error) {
	var s core.Snapshot
	raws := make(map[string]json.RawMessage, len(AllKeys))
	for _, key := range AllKeys {
		var raw json.RawMessage
		found, err := p.Load(ctx, key, &raw)
		if err != nil {
			return core.Snapshot{}, err
		}
		if found && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			raws[key] = raw
		}
	}

	var dropped int
	if raw, ok := raws[KeyTransactions]; ok {
		txs, n, err := core.DecodeTransactions(raw)
		if err != nil {
			return core.Snapshot{}, err
		}
		s.Transactions, dropped = txs, dropped+n
	}
	if raw, ok := raws[KeyBudgets]; ok {
		b, n, err := core.DecodeBudgets(raw)
		if err != nil {
			return core.Snapshot{}, err
		}
		s.Budgets, dropped = b, dropped+n
	}
	if raw, ok := raws[KeyGoals]; ok {
		goals, n, err := core.DecodeGoals(raw)
		if err != nil {
			return core.Snapshot{}, err
		}
		s.Goals, dropped = goals, dropped+n
	}
	if raw, ok := raws[KeyInvestments]; ok {
		invs, n, err := core.DecodeInvestments(raw)
		if err != nil {
			return core.Snapshot{}, err
		}
		s.Investments, dropped = invs, dropped+n
	}
	if _, err := p.Load(ctx, KeyVersion, &s.Version); err != nil {
		slog.WarnContext(ctx, "Ignoring unreadable ledger version", "error", err)
		s.Version = 0
	}
	if dropped > 0 {
		slog.WarnContext(ctx, "Dropped malformed records while loading", "dropped", dropped)
	}
	if s.Budgets == nil {
		s.Budgets = core.Budgets{}
	}
	return s, nil
}

// SaveCollections writes the collections named by keys from s, followed by
// the ledger version. Every key is attempted; the first error is returned.
func (p *Persistence) SaveCollections(ctx context.Context, s core.Snapshot, keys ...string) error {
	var first error
	for _, key := range keys {
		var value any
		switch key {
		case KeyTransactions:
			value = nonNil(s.Transactions)
		case KeyBudgets:
			value = s.Budgets
			if s.Budgets == nil {
				value = core.Budgets{}
			}
		case KeyGoals:
			value = nonNil(s.Goals)
		case KeyInvestments:
			value = nonNil(s.Investments)
		default:
			return fmt.Errorf("unknown collection key %q", key)
		}
		if err := p.Save(ctx, key, value); err != nil && first == nil {
			first = err
		}
	}
	if s.Version > 0 {
		if err := p.Save(ctx, KeyVersion, s.Version); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Size reports the stored byte count when the backend supports it.
func (p *Persistence) Size(ctx context.Context) (int64, bool, error) {
	sz, ok := p.kv.(storage.Sizer)
	if !ok {
		return 0, false, nil
	}
	n, err := sz.Size(ctx)
	return n, err == nil, err
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
