package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// SQLiteRepository stores values in the kv_store table and remembers which
// ledger version each mirror target last received.
type SQLiteRepository struct {
	db *sql.DB
}

// Options tunes a repository. MaxPages caps the database size through
// PRAGMA max_page_count; zero leaves SQLite's default.
type Options struct {
	MaxPages int
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	return OpenSQLiteRepository(dbPath, Options{})
}

func OpenSQLiteRepository(dbPath string, opts Options) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// PRAGMAs are per connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy timeout: %w", err)
	}
	if opts.MaxPages > 0 {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA max_page_count = %d", opts.MaxPages)); err != nil {
			db.Close()
			return nil, fmt.Errorf("set max page count: %w", err)
		}
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return classify(err)
	}
	return nil
}

func (r *SQLiteRepository) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value string
	err := r.db.QueryRowContext(ctx, `SELECT value FROM kv_store WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %q: %w", key, classify(err))
	}
	return []byte(value), true, nil
}

func (r *SQLiteRepository) Put(ctx context.Context, key string, value []byte) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO kv_store (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, string(value), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("put %q: %w", key, classify(err))
	}

	slog.DebugContext(ctx, "Value saved to SQLite", "key", key, "bytes", len(value))
	return nil
}

func (r *SQLiteRepository) Delete(ctx context.Context, key string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kv_store WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete %q: %w", key, classify(err))
	}
	return nil
}

// Size returns the number of bytes held in values.
func (r *SQLiteRepository) Size(ctx context.Context) (int64, error) {
	var n sql.NullInt64
	if err := r.db.QueryRowContext(ctx, `SELECT SUM(LENGTH(value)) FROM kv_store`).Scan(&n); err != nil {
		return 0, fmt.Errorf("size: %w", classify(err))
	}
	return n.Int64, nil
}

// MirrorState is the last ledger version delivered to a mirror target.
type MirrorState struct {
	Target     string
	Version    uint64
	MirroredAt time.Time
	LastError  string
}

// LastMirrored returns the state recorded for target. ok is false when the
// target has never been mirrored.
func (r *SQLiteRepository) LastMirrored(ctx context.Context, target string) (MirrorState, bool, error) {
	var (
		s       MirrorState
		at      string
		lastErr sql.NullString
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT target, version, mirrored_at, last_error FROM mirror_state WHERE target = ?`, target).
		Scan(&s.Target, &s.Version, &at, &lastErr)
	if errors.Is(err, sql.ErrNoRows) {
		return MirrorState{}, false, nil
	}
	if err != nil {
		return MirrorState{}, false, fmt.Errorf("read mirror state: %w", classify(err))
	}
	s.MirroredAt, _ = time.Parse(time.RFC3339Nano, at)
	s.LastError = lastErr.String
	return s, true, nil
}

// MarkMirrored records a successful delivery of version to target.
func (r *SQLiteRepository) MarkMirrored(ctx context.Context, target string, version uint64) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO mirror_state (target, version, mirrored_at, last_error) VALUES (?, ?, ?, NULL)
		ON CONFLICT(target) DO UPDATE SET version = excluded.version, mirrored_at = excluded.mirrored_at, last_error = NULL`,
		target, version, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("mark mirrored: %w", classify(err))
	}
	return nil
}

// MarkMirrorError keeps the last delivered version and stores the failure.
func (r *SQLiteRepository) MarkMirrorError(ctx context.Context, target string, cause error) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO mirror_state (target, version, mirrored_at, last_error) VALUES (?, 0, ?, ?)
		ON CONFLICT(target) DO UPDATE SET last_error = excluded.last_error`,
		target, time.Now().UTC().Format(time.RFC3339Nano), cause.Error())
	if err != nil {
		return fmt.Errorf("mark mirror error: %w", classify(err))
	}
	return nil
}

// classify maps SQLite result codes onto ErrFull and ErrUnavailable while
// keeping the driver error in the chain.
func classify(err error) error {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return err
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_FULL:
		return fmt.Errorf("%w: %w", ErrFull, err)
	case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_CANTOPEN,
		sqlite3.SQLITE_READONLY, sqlite3.SQLITE_IOERR:
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	return err
}
