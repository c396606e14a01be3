package memory

import (
	"context"
	"sync"

	"fintrack/internal/core"
	ports "fintrack/internal/sheets"
)

// Store is an in-process mirror that keeps the rendered tabs. It backs the
// worker when no spreadsheet is configured.
type Store struct {
	mu           sync.Mutex
	transactions [][]any
	budgets      [][]any
	version      uint64
	writes       int
}

var _ ports.LedgerWriter = (*Store)(nil)

func New() *Store {
	return &Store{}
}

// ReplaceLedger renders s and replaces both tabs.
func (s *Store) ReplaceLedger(ctx context.Context, snap core.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	txs := ports.TransactionRows(snap)
	budgets := ports.BudgetRows(snap)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions, s.budgets = txs, budgets
	s.version = snap.Version
	s.writes++
	return nil
}

// Tabs returns copies of the last written transaction and budget tabs.
func (s *Store) Tabs() (transactions, budgets [][]any) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]any(nil), s.transactions...), append([][]any(nil), s.budgets...)
}

// Version returns the snapshot version of the last write.
func (s *Store) Version() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.version
}

// Writes counts ReplaceLedger calls that succeeded.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
