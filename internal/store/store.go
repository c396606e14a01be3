// Package store holds the ledger in memory. It is the only owner of the four
// collections; everything else works on snapshots.
package store

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"fintrack/internal/core"
)

var ErrNotFound = errors.New("not found")

// Store is safe for concurrent use. Every successful mutation bumps Version.
type Store struct {
	mu      sync.RWMutex
	version uint64
	ids     *core.IDGenerator
	now     func() time.Time

	transactions []core.Transaction
	budgets      core.Budgets
	goals        []core.SavingsGoal
	investments  []core.Investment
}

type Option func(*Store)

// WithClock sets the clock used for ids and goal dates.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

func New(opts ...Option) *Store {
	s := &Store{now: time.Now, budgets: core.Budgets{}}
	for _, o := range opts {
		o(s)
	}
	s.ids = core.NewIDGenerator(s.now)
	return s
}

// Version identifies the current state; it changes on every mutation.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns a deep copy of the current state.
func (s *Store) Snapshot() core.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return core.Snapshot{
		Version:      s.version,
		Transactions: clone(s.transactions),
		Budgets:      s.budgets.Clone(),
		Goals:        clone(s.goals),
		Investments:  clone(s.investments),
	}
}

func (s *Store) Transactions() []core.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.transactions)
}

func (s *Store) Budgets() core.Budgets {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.budgets.Clone()
}

func (s *Store) Goals() []core.SavingsGoal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.goals)
}

func (s *Store) Investments() []core.Investment {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clone(s.investments)
}

// AddTransaction normalizes t, assigns it a fresh id and appends it.
func (s *Store) AddTransaction(t core.Transaction) (core.Transaction, error) {
	t, err := t.Normalize()
	if err != nil {
		return core.Transaction{}, err
	}
	if !core.IsCategory(t.Kind, t.Category) {
		return core.Transaction{}, fmt.Errorf("%w: %w: %q is not a %s category", core.ErrValidation, core.ErrInvalidCategory, t.Category, t.Kind)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	t.ID = s.ids.Next()
	s.transactions = append(s.transactions, t)
	s.version++
	return t, nil
}

func (s *Store) DeleteTransaction(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, ok := remove(s.transactions, func(t core.Transaction) bool { return t.ID == id })
	if !ok {
		return fmt.Errorf("transaction %d: %w", id, ErrNotFound)
	}
	s.transactions = out
	s.version++
	return nil
}

// SetBudget upserts the target for category.
func (s *Store) SetBudget(category string, amount core.Money) error {
	b := core.Budgets{category: amount}
	if err := b.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.budgets[category] = amount
	s.version++
	return nil
}

// AddGoal creates a goal starting at zero with its deadline derived from the
// period.
func (s *Store) AddGoal(title string, target core.Money, period core.GoalPeriod, description string) (core.SavingsGoal, error) {
	if period.Months() == 0 {
		return core.SavingsGoal{}, fmt.Errorf("%w: %w: %q", core.ErrValidation, core.ErrInvalidPeriod, period)
	}
	created := s.now().UTC()
	g, err := core.SavingsGoal{
		Title:        title,
		TargetAmount: target,
		Period:       period,
		CreatedDate:  created,
		TargetDate:   period.TargetFrom(created),
		Description:  description,
	}.Normalize()
	if err != nil {
		return core.SavingsGoal{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	g.ID = s.ids.Next()
	s.goals = append(s.goals, g)
	s.version++
	return g, nil
}

// Contribute adds delta to a goal's saved amount. delta must not be negative;
// there is no cap at the target.
func (s *Store) Contribute(id int64, delta core.Money) (core.SavingsGoal, error) {
	if delta.IsNegative() {
		return core.SavingsGoal{}, fmt.Errorf("%w: contribution: %w", core.ErrValidation, core.ErrInvalidAmount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.goals {
		if s.goals[i].ID == id {
			s.goals[i].CurrentAmount = s.goals[i].CurrentAmount.Add(delta)
			s.version++
			return s.goals[i], nil
		}
	}
	return core.SavingsGoal{}, fmt.Errorf("savings goal %d: %w", id, ErrNotFound)
}

func (s *Store) DeleteGoal(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, ok := remove(s.goals, func(g core.SavingsGoal) bool { return g.ID == id })
	if !ok {
		return fmt.Errorf("savings goal %d: %w", id, ErrNotFound)
	}
	s.goals = out
	s.version++
	return nil
}

// AddInvestment stores a new holding with freshly computed totals.
func (s *Store) AddInvestment(inv core.Investment) (core.Investment, error) {
	inv, err := normalizeInvestment(inv)
	if err != nil {
		return core.Investment{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	inv.ID = s.ids.Next()
	s.investments = append(s.investments, inv)
	s.version++
	return inv, nil
}

// UpdateInvestment replaces every field of the holding with id.
func (s *Store) UpdateInvestment(id int64, inv core.Investment) (core.Investment, error) {
	inv, err := normalizeInvestment(inv)
	if err != nil {
		return core.Investment{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.investments {
		if s.investments[i].ID == id {
			inv.ID = id
			s.investments[i] = inv
			s.version++
			return inv, nil
		}
	}
	return core.Investment{}, fmt.Errorf("investment %d: %w", id, ErrNotFound)
}

func (s *Store) DeleteInvestment(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	out, ok := remove(s.investments, func(i core.Investment) bool { return i.ID == id })
	if !ok {
		return fmt.Errorf("investment %d: %w", id, ErrNotFound)
	}
	s.investments = out
	s.version++
	return nil
}

// Partial carries whole collections to swap in. A nil field leaves the
// current collection untouched; a non-nil empty one clears it.
type Partial struct {
	Transactions []core.Transaction
	Budgets      core.Budgets
	Goals        []core.SavingsGoal
	Investments  []core.Investment
}

// Empty reports whether p would change nothing.
func (p Partial) Empty() bool {
	return p.Transactions == nil && p.Budgets == nil && p.Goals == nil && p.Investments == nil
}

// Replace swaps in the collections present in p. Values are expected to be
// normalized already. Entities without an id get a fresh one and later ids
// stay above every id seen.
func (s *Store) Replace(p Partial) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p.Transactions != nil {
		s.transactions = clone(p.Transactions)
		s.assignIDs(len(s.transactions), func(i int) *int64 { return &s.transactions[i].ID })
	}
	if p.Budgets != nil {
		s.budgets = p.Budgets.Clone()
	}
	if p.Goals != nil {
		s.goals = clone(p.Goals)
		s.assignIDs(len(s.goals), func(i int) *int64 { return &s.goals[i].ID })
	}
	if p.Investments != nil {
		s.investments = clone(p.Investments)
		s.assignIDs(len(s.investments), func(i int) *int64 { return &s.investments[i].ID })
		for i := range s.investments {
			s.investments[i].Recompute()
		}
	}
	s.version++
}

// Restore replaces the whole state with snap, typically at startup, and
// adopts its version when that is ahead.
func (s *Store) Restore(snap core.Snapshot) {
	budgets := snap.Budgets
	if budgets == nil {
		budgets = core.Budgets{}
	}
	s.Replace(Partial{
		Transactions: nonNil(snap.Transactions),
		Budgets:      budgets,
		Goals:        nonNil(snap.Goals),
		Investments:  nonNil(snap.Investments),
	})

	// Versions keep increasing across restarts.
	s.mu.Lock()
	s.version = max(s.version, snap.Version)
	s.mu.Unlock()
}

// Clear empties every collection.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transactions = nil
	s.budgets = core.Budgets{}
	s.goals = nil
	s.investments = nil
	s.version++
}

// assignIDs keeps the first occurrence of each positive id and hands out a
// new id to missing and repeated ones, so a collection never holds two
// records with the same id. Called with mu held.
func (s *Store) assignIDs(n int, id func(i int) *int64) {
	for i := 0; i < n; i++ {
		if v := *id(i); v > 0 {
			s.ids.Observe(v)
		}
	}
	seen := make(map[int64]struct{}, n)
	for i := 0; i < n; i++ {
		p := id(i)
		if _, dup := seen[*p]; *p <= 0 || dup {
			*p = s.ids.Next()
		}
		seen[*p] = struct{}{}
	}
}

func normalizeInvestment(inv core.Investment) (core.Investment, error) {
	if !inv.Type.Valid() {
		return core.Investment{}, fmt.Errorf("%w: %w: %q", core.ErrValidation, core.ErrInvalidType, inv.Type)
	}
	return inv.Normalize()
}

func clone[T any](s []T) []T {
	if s == nil {
		return nil
	}
	out := make([]T, len(s))
	copy(out, s)
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func remove[T any](s []T, match func(T) bool) ([]T, bool) {
	for i, v := range s {
		if match(v) {
			out := make([]T, 0, len(s)-1)
			out = append(out, s[:i]...)
			return append(out, s[i+1:]...), true
		}
	}
	return s, false
}
