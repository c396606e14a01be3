package adapters

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

func sampleSnapshot() core.Snapshot {
	inv := core.Investment{ID: 3, Name: "ACME", Type: core.TypeStocks, Shares: core.MustParseQuantity("10"),
		PurchasePrice: core.MustParseMoney("5"), CurrentPrice: core.MustParseMoney("8"), PurchaseDate: core.NewDate(2024, 5, 1)}
	inv.Recompute()
	return core.Snapshot{
		Transactions: []core.Transaction{
			{ID: 1, Kind: core.KindExpense, Amount: core.MustParseMoney("50"), Description: "groceries", Category: "Food", Date: core.NewDate(2025, 1, 2)},
			{ID: 2, Kind: core.KindIncome, Amount: core.MustParseMoney("1200"), Description: "salary", Category: "Salary", Date: core.NewDate(2025, 1, 1)},
		},
		Budgets: core.Budgets{"Food": core.MustParseMoney("100")},
		Goals: []core.SavingsGoal{{ID: 4, Title: "Trip", TargetAmount: core.MustParseMoney("1000"),
			CurrentAmount: core.MustParseMoney("250"), Period: core.Period1Year}},
		Investments: []core.Investment{inv},
	}
}

func TestPersistenceRoundTrip(t *testing.T) {
	backends := map[string]storage.KV{
		"memory": storage.NewMemoryKV(0),
	}
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "fintrack.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	defer repo.Close()
	backends["sqlite"] = repo

	for name, kv := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			p := NewPersistence(kv)
			in := sampleSnapshot()
			in.Version = 9
			in.Goals[0].CreatedDate = core.NewDate(2025, 1, 1).Time
			in.Goals[0].TargetDate = core.Period1Year.TargetFrom(in.Goals[0].CreatedDate)

			if err := p.SaveCollections(ctx, in, AllKeys...); err != nil {
				t.Fatalf("save: %v", err)
			}
			out, err := p.LoadSnapshot(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if out.Version != 9 {
				t.Fatalf("expected version 9, got %d", out.Version)
			}
			if len(out.Transactions) != 2 || out.Transactions[1].Kind != core.KindIncome {
				t.Fatalf("unexpected transactions %+v", out.Transactions)
			}
			if !out.Budgets["Food"].Equal(core.MustParseMoney("100")) {
				t.Fatalf("unexpected budgets %v", out.Budgets)
			}
			if len(out.Goals) != 1 || !out.Goals[0].CurrentAmount.Equal(core.MustParseMoney("250")) {
				t.Fatalf("unexpected goals %+v", out.Goals)
			}
			if len(out.Investments) != 1 || !out.Investments[0].CurrentValue.Equal(core.MustParseMoney("80")) {
				t.Fatalf("unexpected investments %+v", out.Investments)
			}

			// Saving what was loaded stores the same bytes again.
			if err := p.SaveCollections(ctx, out, AllKeys...); err != nil {
				t.Fatalf("resave: %v", err)
			}
			again, err := p.LoadSnapshot(ctx)
			if err != nil || len(again.Transactions) != len(out.Transactions) {
				t.Fatalf("second load differs: %v", err)
			}
		})
	}
}

func TestLoadWithDefaults(t *testing.T) {
	p := NewPersistence(storage.NewMemoryKV(0))
	s, err := p.LoadSnapshot(context.Background())
	if err != nil {
		t.Fatalf("load empty: %v", err)
	}
	if len(s.Transactions) != 0 || s.Budgets == nil {
		t.Fatalf("expected empty collections, got %+v", s)
	}

	dst := []int{42}
	found, err := p.Load(context.Background(), "missing", &dst)
	if err != nil || found || dst[0] != 42 {
		t.Fatalf("expected default to be kept, got %v found=%v err=%v", dst, found, err)
	}
}

func TestLoadDropsMalformedRecords(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV(0)
	kv.Put(ctx, KeyTransactions, []byte(`[{"id":1,"amount":"x","description":"a","date":"2025-01-01"},
		{"id":2,"amount":"10","description":"b","category":"Food","date":"2025-01-01"}]`))
	s, err := NewPersistence(kv).LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(s.Transactions) != 1 || s.Transactions[0].ID != 2 {
		t.Fatalf("expected only the valid transaction, got %+v", s.Transactions)
	}
}

func TestSaveSurfacesCapacityErrors(t *testing.T) {
	p := NewPersistence(storage.NewMemoryKV(16))
	err := p.SaveCollections(context.Background(), sampleSnapshot(), KeyTransactions)
	if !errors.Is(err, storage.ErrFull) {
		t.Fatalf("expected ErrFull, got %v", err)
	}
}

func TestLoadDropsOutOfRangeAmounts(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewMemoryKV(0)
	kv.Put(ctx, KeyTransactions, []byte(`[{"id":1,"amount":"1e400","description":"a","category":"Food","date":"2025-01-01"},
		{"id":2,"amount":"10","description":"b","category":"Food","date":"2025-01-01"}]`))
	kv.Put(ctx, KeyBudgets, []byte(`{"Food":1e400,"Housing":"900"}`))
	s, err := NewPersistence(kv).LoadSnapshot(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(s.Transactions) != 1 || s.Transactions[0].ID != 2 {
		t.Fatalf("expected only the in-range transaction, got %+v", s.Transactions)
	}
	if _, ok := s.Budgets["Food"]; ok || len(s.Budgets) != 1 {
		t.Fatalf("expected the out of range budget to be dropped, got %+v", s.Budgets)
	}
}
