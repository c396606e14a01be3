package storage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "db", "fintrack.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepositoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, ok, err := repo.Get(ctx, "transactions"); err != nil || ok {
		t.Fatalf("expected missing key, got ok=%v err=%v", ok, err)
	}

	if err := repo.Put(ctx, "transactions", []byte(`[1]`)); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := repo.Put(ctx, "transactions", []byte(`[1,2]`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	v, ok, err := repo.Get(ctx, "transactions")
	if err != nil || !ok || string(v) != `[1,2]` {
		t.Fatalf("expected [1,2], got %q ok=%v err=%v", v, ok, err)
	}

	size, err := repo.Size(ctx)
	if err != nil || size != 5 {
		t.Fatalf("expected size 5, got %d (%v)", size, err)
	}

	if err := repo.Delete(ctx, "transactions"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := repo.Get(ctx, "transactions"); ok {
		t.Fatalf("expected key to be deleted")
	}
}

func TestSQLiteRepositoryMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fintrack.db")
	for i := 0; i < 2; i++ {
		repo, err := NewSQLiteRepository(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		repo.Close()
	}
}

func TestSQLiteRepositoryFull(t *testing.T) {
	ctx := context.Background()
	repo, err := OpenSQLiteRepository(filepath.Join(t.TempDir(), "small.db"), Options{MaxPages: 8})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer repo.Close()

	big := []byte(strings.Repeat("x", 64*1024))
	err = repo.Put(ctx, "transactions", big)
	if !errors.Is(err, ErrFull) {
		t.Fatalf("expected ErrFull, got %v", err)
	}
}

func TestMirrorState(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	if _, ok, err := repo.LastMirrored(ctx, "sheets"); err != nil || ok {
		t.Fatalf("expected no state, got ok=%v err=%v", ok, err)
	}
	if err := repo.MarkMirrored(ctx, "sheets", 7); err != nil {
		t.Fatalf("mark: %v", err)
	}
	if err := repo.MarkMirrorError(ctx, "sheets", errors.New("quota exceeded")); err != nil {
		t.Fatalf("mark error: %v", err)
	}
	s, ok, err := repo.LastMirrored(ctx, "sheets")
	if err != nil || !ok {
		t.Fatalf("expected state, got ok=%v err=%v", ok, err)
	}
	if s.Version != 7 || s.LastError != "quota exceeded" {
		t.Fatalf("unexpected state %+v", s)
	}
}

func TestMemoryKVQuota(t *testing.T) {
	ctx := context.Background()
	kv := NewMemoryKV(10)

	if err := kv.Put(ctx, "a", []byte("12345")); err != nil {
		t.Fatalf("put: %v", err)
	}
	if err := kv.Put(ctx, "b", []byte("123456")); !errors.Is(err, ErrFull) {
		t.Fatalf("expected ErrFull, got %v", err)
	}
	// Replacing a value only counts the difference.
	if err := kv.Put(ctx, "a", []byte("1234567890")); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if n, _ := kv.Size(ctx); n != 10 {
		t.Fatalf("expected 10 bytes used, got %d", n)
	}

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	if err := kv.Put(cancelled, "c", nil); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}
