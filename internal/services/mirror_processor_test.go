package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"fintrack/internal/adapters"
	"fintrack/internal/core"
	"fintrack/internal/sheets/memory"
	"fintrack/internal/storage"
)

type flakyMirror struct {
	*memory.Store
	failures atomic.Int32
}

func (f *flakyMirror) ReplaceLedger(ctx context.Context, s core.Snapshot) error {
	if f.failures.Add(-1) >= 0 {
		return errors.New("quota exceeded")
	}
	return f.Store.ReplaceLedger(ctx, s)
}

func newMirrorFixture(t *testing.T) (*storage.SQLiteRepository, *adapters.Persistence) {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "fintrack.db"))
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	p := adapters.NewPersistence(repo)
	snap := core.Snapshot{
		Version: 5,
		Transactions: []core.Transaction{
			{ID: 1, Kind: core.KindExpense, Amount: core.MustParseMoney("30"), Description: "books", Category: "Education", Date: core.NewDate(2025, 2, 3)},
		},
		Budgets: core.Budgets{"Education": core.MustParseMoney("50")},
	}
	if err := p.SaveCollections(context.Background(), snap, adapters.AllKeys...); err != nil {
		t.Fatalf("seed: %v", err)
	}
	return repo, p
}

func testMirrorConfig() MirrorProcessorConfig {
	cfg := DefaultMirrorProcessorConfig()
	cfg.RetryDelay = time.Millisecond
	cfg.ResyncInterval = time.Hour
	return cfg
}

func TestMirrorProcessor_Sync(t *testing.T) {
	ctx := context.Background()
	repo, p := newMirrorFixture(t)
	mirror := memory.New()
	proc := NewMirrorProcessor(p, repo, mirror, testMirrorConfig())

	if err := proc.Sync(ctx, 5); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	txs, budgets := mirror.Tabs()
	if len(txs) != 2 || len(budgets) != 2 || mirror.Version() != 5 {
		t.Fatalf("unexpected mirror contents %v %v v%d", txs, budgets, mirror.Version())
	}
	state, ok, err := repo.LastMirrored(ctx, "sheets")
	if err != nil || !ok || state.Version != 5 {
		t.Fatalf("expected mirror state at 5, got %+v ok=%v err=%v", state, ok, err)
	}

	// Stale and duplicate events are skipped.
	if err := proc.Sync(ctx, 4); err != nil {
		t.Fatalf("Sync stale: %v", err)
	}
	if mirror.Writes() != 1 {
		t.Fatalf("stale events must not rewrite the mirror, got %d writes", mirror.Writes())
	}

	// Version 0 forces a resync.
	if err := proc.Sync(ctx, 0); err != nil {
		t.Fatalf("Sync forced: %v", err)
	}
	if mirror.Writes() != 2 {
		t.Fatalf("expected forced rewrite, got %d writes", mirror.Writes())
	}
}

func TestMirrorProcessor_RetriesThenRecordsError(t *testing.T) {
	ctx := context.Background()
	repo, p := newMirrorFixture(t)

	mirror := &flakyMirror{Store: memory.New()}
	mirror.failures.Store(2)
	proc := NewMirrorProcessor(p, repo, mirror, testMirrorConfig())
	if err := proc.Sync(ctx, 6); err != nil {
		t.Fatalf("expected success on the third attempt: %v", err)
	}

	mirror.failures.Store(10)
	err := proc.Sync(ctx, 7)
	if err == nil {
		t.Fatal("expected failure after retries")
	}
	state, _, _ := repo.LastMirrored(ctx, "sheets")
	if state.LastError == "" || state.Version != 6 {
		t.Fatalf("expected recorded error with version kept at 6, got %+v", state)
	}
}

func TestMirrorProcessor_Lifecycle(t *testing.T) {
	repo, p := newMirrorFixture(t)
	mirror := memory.New()
	proc := NewMirrorProcessor(p, repo, mirror, testMirrorConfig())

	if proc.IsRunning() {
		t.Fatal("processor should not be running initially")
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := proc.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := proc.Start(ctx); err == nil {
		t.Fatal("starting twice should fail")
	}

	deadline := time.Now().Add(2 * time.Second)
	for mirror.Writes() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if mirror.Writes() == 0 {
		t.Fatal("expected a startup sync")
	}

	stopCtx, stopCancel := context.WithTimeout(context.Background(), time.Second)
	defer stopCancel()
	if err := proc.Stop(stopCtx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	if proc.IsRunning() {
		t.Fatal("processor should be stopped")
	}
}

func TestMirrorProcessor_ConcurrentStop(t *testing.T) {
	repo, p := newMirrorFixture(t)
	proc := NewMirrorProcessor(p, repo, memory.New(), testMirrorConfig())
	if err := proc.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := proc.Stop(ctx); err != nil {
				t.Errorf("Stop: %v", err)
			}
		}()
	}
	wg.Wait()
	if proc.IsRunning() {
		t.Fatal("processor should be stopped")
	}

	// A stopped processor can be started again.
	if err := proc.Start(context.Background()); err != nil {
		t.Fatalf("restart: %v", err)
	}
	if err := proc.Stop(ctx); err != nil {
		t.Fatalf("Stop after restart: %v", err)
	}
}
