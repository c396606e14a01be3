package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"fintrack/internal/adapters"
	"fintrack/internal/amqp"
	"fintrack/internal/core"
	"fintrack/internal/exchange"
	"fintrack/internal/storage"
	"fintrack/internal/store"
)

// Publisher announces ledger changes to other processes.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, entity, op string, version uint64) error
}

type NotificationType string

const (
	NotifySuccess NotificationType = "success"
	NotifyWarning NotificationType = "warning"
	NotifyError   NotificationType = "error"
)

// Notification is the transient message shown after an operation.
type Notification struct {
	Type    NotificationType `json:"type"`
	Message string           `json:"message"`
}

func success(format string, args ...any) Notification {
	return Notification{Type: NotifySuccess, Message: fmt.Sprintf(format, args...)}
}

// ErrorNotification turns an operation error into a message for the user.
func ErrorNotification(err error) Notification {
	switch {
	case errors.Is(err, core.ErrValidation):
		return Notification{Type: NotifyError, Message: strings.TrimPrefix(err.Error(), core.ErrValidation.Error()+": ")}
	case errors.Is(err, store.ErrNotFound):
		return Notification{Type: NotifyError, Message: "Item not found"}
	case errors.Is(err, exchange.ErrEmpty):
		return Notification{Type: NotifyError, Message: "Import file contains no data"}
	case errors.Is(err, exchange.ErrMalformed):
		return Notification{Type: NotifyError, Message: "Import file is not a valid backup"}
	}
	return Notification{Type: NotifyError, Message: "Operation failed"}
}

// FinanceService orchestrates ledger operations across the in-memory store,
// persistence and change events. Memory is the source of truth: persistence
// and publishing failures are reported, never rolled back.
type FinanceService struct {
	store       *store.Store
	persistence *adapters.Persistence
	publisher   Publisher
	currency    string
	now         func() time.Time

	// commitMu orders snapshot-and-save so an older snapshot never
	// overwrites a newer one.
	commitMu sync.Mutex
}

type Option func(*FinanceService)

// WithPublisher enables change events.
func WithPublisher(p Publisher) Option {
	return func(s *FinanceService) { s.publisher = p }
}

// WithCurrency sets the ISO code used in notification amounts.
func WithCurrency(code string) Option {
	return func(s *FinanceService) { s.currency = code }
}

func WithClock(now func() time.Time) Option {
	return func(s *FinanceService) { s.now = now }
}

func NewFinanceService(st *store.Store, p *adapters.Persistence, opts ...Option) *FinanceService {
	s := &FinanceService{
		store:       st,
		persistence: p,
		currency:    "USD",
		now:         time.Now,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// Load restores the persisted ledger into the store.
func (s *FinanceService) Load(ctx context.Context) error {
	if s.persistence == nil {
		return nil
	}
	snap, err := s.persistence.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	s.store.Restore(snap)
	slog.InfoContext(ctx, "Ledger loaded",
		"transactions", len(snap.Transactions),
		"budgets", len(snap.Budgets),
		"goals", len(snap.Goals),
		"investments", len(snap.Investments))
	return nil
}

// Snapshot returns the current ledger.
func (s *FinanceService) Snapshot() core.Snapshot { return s.store.Snapshot() }

func (s *FinanceService) Version() uint64 { return s.store.Version() }

func (s *FinanceService) Currency() string { return s.currency }

func (s *FinanceService) Now() time.Time { return s.now() }

func (s *FinanceService) AddTransaction(ctx context.Context, tx core.Transaction) (core.Transaction, Notification, error) {
	tx, err := s.store.AddTransaction(tx)
	if err != nil {
		return core.Transaction{}, ErrorNotification(err), err
	}
	n := success("%s of %s added", kindLabel(tx.Kind), tx.Amount.Format(s.currency))
	return tx, s.commit(ctx, n, amqp.EntityTransactions, amqp.OpCreate, adapters.KeyTransactions), nil
}

func (s *FinanceService) DeleteTransaction(ctx context.Context, id int64) (Notification, error) {
	if err := s.store.DeleteTransaction(id); err != nil {
		return ErrorNotification(err), err
	}
	return s.commit(ctx, success("Transaction deleted"), amqp.EntityTransactions, amqp.OpDelete, adapters.KeyTransactions), nil
}

func (s *FinanceService) SetBudget(ctx context.Context, category string, amount core.Money) (Notification, error) {
	if err := s.store.SetBudget(category, amount); err != nil {
		return ErrorNotification(err), err
	}
	n := success("Budget for %s set to %s", strings.TrimSpace(category), amount.Format(s.currency))
	return s.commit(ctx, n, amqp.EntityBudgets, amqp.OpUpdate, adapters.KeyBudgets), nil
}

func (s *FinanceService) AddGoal(ctx context.Context, title string, target core.Money, period core.GoalPeriod, description string) (core.SavingsGoal, Notification, error) {
	g, err := s.store.AddGoal(title, target, period, description)
	if err != nil {
		return core.SavingsGoal{}, ErrorNotification(err), err
	}
	n := success("Goal %q created", g.Title)
	return g, s.commit(ctx, n, amqp.EntityGoals, amqp.OpCreate, adapters.KeyGoals), nil
}

func (s *FinanceService) Contribute(ctx context.Context, id int64, delta core.Money) (core.SavingsGoal, Notification, error) {
	g, err := s.store.Contribute(id, delta)
	if err != nil {
		return core.SavingsGoal{}, ErrorNotification(err), err
	}
	n := success("Added %s to %q", delta.Format(s.currency), g.Title)
	return g, s.commit(ctx, n, amqp.EntityGoals, amqp.OpUpdate, adapters.KeyGoals), nil
}

func (s *FinanceService) DeleteGoal(ctx context.Context, id int64) (Notification, error) {
	if err := s.store.DeleteGoal(id); err != nil {
		return ErrorNotification(err), err
	}
	return s.commit(ctx, success("Goal deleted"), amqp.EntityGoals, amqp.OpDelete, adapters.KeyGoals), nil
}

func (s *FinanceService) AddInvestment(ctx context.Context, inv core.Investment) (core.Investment, Notification, error) {
	inv, err := s.store.AddInvestment(inv)
	if err != nil {
		return core.Investment{}, ErrorNotification(err), err
	}
	n := success("Investment %q added", inv.Name)
	return inv, s.commit(ctx, n, amqp.EntityInvestments, amqp.OpCreate, adapters.KeyInvestments), nil
}

func (s *FinanceService) UpdateInvestment(ctx context.Context, id int64, inv core.Investment) (core.Investment, Notification, error) {
	inv, err := s.store.UpdateInvestment(id, inv)
	if err != nil {
		return core.Investment{}, ErrorNotification(err), err
	}
	n := success("Investment %q updated", inv.Name)
	return inv, s.commit(ctx, n, amqp.EntityInvestments, amqp.OpUpdate, adapters.KeyInvestments), nil
}

func (s *FinanceService) DeleteInvestment(ctx context.Context, id int64) (Notification, error) {
	if err := s.store.DeleteInvestment(id); err != nil {
		return ErrorNotification(err), err
	}
	return s.commit(ctx, success("Investment deleted"), amqp.EntityInvestments, amqp.OpDelete, adapters.KeyInvestments), nil
}

// Export writes the backup document for the current ledger.
func (s *FinanceService) Export(w io.Writer) error {
	return exchange.Export(w, s.store.Snapshot(), s.now())
}

// Import applies a possibly partial backup document. A malformed document
// changes nothing.
func (s *FinanceService) Import(ctx context.Context, r io.Reader) (exchange.Result, Notification, error) {
	res, err := exchange.Parse(r)
	if err != nil {
		slog.WarnContext(ctx, "Import rejected", "error", err)
		return exchange.Result{}, ErrorNotification(err), err
	}
	s.store.Replace(res.Partial)

	n := success("Imported %s", strings.Join(res.Keys, ", "))
	if res.Dropped > 0 {
		n = Notification{Type: NotifyWarning, Message: fmt.Sprintf("Imported %s, skipped %d invalid records", strings.Join(res.Keys, ", "), res.Dropped)}
	}
	return res, s.commit(ctx, n, amqp.EntityAll, amqp.OpImport, res.Keys...), nil
}

// ClearAll empties every collection.
func (s *FinanceService) ClearAll(ctx context.Context) Notification {
	s.store.Clear()
	return s.commit(ctx, success("All data cleared"), amqp.EntityAll, amqp.OpClear, adapters.AllKeys...)
}

// Stats reports collection counts and the serialized size of the ledger.
func (s *FinanceService) Stats() (exchange.Stats, error) {
	return exchange.ComputeStats(s.store.Snapshot())
}

const commitTimeout = 10 * time.Second

// commit persists the named collections from the current state and announces
// the change. A persistence failure downgrades n to a warning.
func (s *FinanceService) commit(ctx context.Context, n Notification, entity, op string, keys ...string) Notification {
	// The mutation already happened; a caller that goes away must not leave
	// the stored copy behind.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), commitTimeout)
	defer cancel()

	s.commitMu.Lock()
	snap := s.store.Snapshot()
	var saveErr error
	if s.persistence != nil {
		saveErr = s.persistence.SaveCollections(ctx, snap, keys...)
	}
	s.commitMu.Unlock()

	if s.persistence != nil {
		if err := saveErr; err != nil {
			slog.WarnContext(ctx, "Failed to persist ledger",
				"entity", entity,
				"op", op,
				"version", snap.Version,
				"error", err)
			n = Notification{Type: NotifyWarning, Message: n.Message + "; " + persistenceWarning(err)}
		}
	}

	if s.publisher != nil {
		if err := s.publisher.PublishLedgerChanged(ctx, entity, op, snap.Version); err != nil {
			// The mirror catches up on its next periodic resync.
			slog.ErrorContext(ctx, "Failed to publish ledger change",
				"entity", entity,
				"op", op,
				"version", snap.Version,
				"error", err)
		}
	}

	return n
}

func persistenceWarning(err error) string {
	switch {
	case errors.Is(err, storage.ErrFull):
		return "storage is full, changes are kept until restart only"
	case errors.Is(err, storage.ErrUnavailable):
		return "storage is unavailable, changes are kept until restart only"
	}
	return "changes could not be saved"
}

func kindLabel(k core.Kind) string {
	if k == core.KindIncome {
		return "Income"
	}
	return "Expense"
}
