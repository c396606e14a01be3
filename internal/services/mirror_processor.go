package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// SnapshotLoader reads the persisted ledger.
type SnapshotLoader interface {
	LoadSnapshot(ctx context.Context) (core.Snapshot, error)
}

// MirrorStateStore records how far each mirror target has been brought up.
type MirrorStateStore interface {
	LastMirrored(ctx context.Context, target string) (storage.MirrorState, bool, error)
	MarkMirrored(ctx context.Context, target string, version uint64) error
	MarkMirrorError(ctx context.Context, target string, cause error) error
}

// MirrorProcessorConfig holds configuration for the mirror processor
type MirrorProcessorConfig struct {
	// Target names the mirror in the state table (default: "sheets")
	Target string

	// ResyncInterval is how often the mirror is rewritten regardless of
	// change events (default: 5m)
	ResyncInterval time.Duration

	// MaxRetries is the number of attempts per sync before giving up (default: 3)
	MaxRetries int

	// RetryDelay is the pause before the first retry; it doubles per attempt (default: 1s)
	RetryDelay time.Duration
}

// DefaultMirrorProcessorConfig returns sensible defaults
func DefaultMirrorProcessorConfig() MirrorProcessorConfig {
	return MirrorProcessorConfig{
		Target:         "sheets",
		ResyncInterval: 5 * time.Minute,
		MaxRetries:     3,
		RetryDelay:     time.Second,
	}
}

// MirrorProcessor rewrites an external mirror from the persisted ledger,
// either on demand or periodically.
type MirrorProcessor struct {
	loader SnapshotLoader
	state  MirrorStateStore
	mirror sheets.LedgerWriter
	config MirrorProcessorConfig

	// syncMu serializes mirror writes.
	syncMu sync.Mutex

	// Lifecycle management
	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewMirrorProcessor(loader SnapshotLoader, state MirrorStateStore, mirror sheets.LedgerWriter, config MirrorProcessorConfig) *MirrorProcessor {
	return &MirrorProcessor{
		loader: loader,
		state:  state,
		mirror: mirror,
		config: config,
	}
}

// Start begins the periodic resync loop. Returns an error if already running.
func (p *MirrorProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return fmt.Errorf("mirror processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})
	stop, done := p.stopCh, p.doneCh
	p.mu.Unlock()

	go p.runLoop(ctx, stop, done)

	slog.InfoContext(ctx, "Mirror processor started",
		"target", p.config.Target,
		"resync_interval", p.config.ResyncInterval)

	return nil
}

// Stop gracefully stops the processor and waits for completion.
func (p *MirrorProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = false
	close(p.stopCh)
	done := p.doneCh
	p.mu.Unlock()

	select {
	case <-done:
		slog.InfoContext(ctx, "Mirror processor stopped gracefully")
	case <-ctx.Done():
		slog.WarnContext(ctx, "Mirror processor stop timed out")
		return ctx.Err()
	}
	return nil
}

// IsRunning returns whether the processor is currently running
func (p *MirrorProcessor) IsRunning() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.running
}

func (p *MirrorProcessor) runLoop(ctx context.Context, stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.config.ResyncInterval)
	defer ticker.Stop()

	// Catch up immediately on startup
	if err := p.Sync(ctx, 0); err != nil {
		slog.ErrorContext(ctx, "Startup mirror sync failed", "error", err)
	}

	for {
		select {
		case <-stop:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := p.Sync(ctx, 0); err != nil {
				slog.ErrorContext(ctx, "Periodic mirror sync failed", "error", err)
			}
		}
	}
}

// Sync rewrites the mirror from the persisted ledger. A positive version that
// is not newer than the last mirrored one is skipped; version 0 forces a
// resync. Failures are retried with backoff and recorded in the state store.
func (p *MirrorProcessor) Sync(ctx context.Context, version uint64) error {
	p.syncMu.Lock()
	defer p.syncMu.Unlock()

	last, found, err := p.state.LastMirrored(ctx, p.config.Target)
	if err != nil {
		return fmt.Errorf("read mirror state: %w", err)
	}
	if version > 0 && found && last.Version >= version {
		slog.DebugContext(ctx, "Mirror already up to date",
			"target", p.config.Target,
			"version", version,
			"mirrored", last.Version)
		return nil
	}
	if version == 0 {
		version = last.Version
	}

	var syncErr error
	attempts := max(1, p.config.MaxRetries)
	delay := p.config.RetryDelay
retry:
	for attempt := 1; attempt <= attempts; attempt++ {
		if syncErr = p.syncOnce(ctx, version); syncErr == nil {
			return nil
		}
		slog.WarnContext(ctx, "Mirror sync failed",
			"target", p.config.Target,
			"version", version,
			"attempt", attempt,
			"error", syncErr)
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			syncErr = ctx.Err()
			break retry
		case <-time.After(delay):
			delay *= 2
		}
	}

	if err := p.state.MarkMirrorError(ctx, p.config.Target, syncErr); err != nil {
		slog.ErrorContext(ctx, "Failed to record mirror error",
			"target", p.config.Target, "error", err)
	}
	return fmt.Errorf("mirror version %d: %w", version, syncErr)
}

func (p *MirrorProcessor) syncOnce(ctx context.Context, version uint64) error {
	snap, err := p.loader.LoadSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	// The persisted version wins when the event lags behind storage.
	snap.Version = max(snap.Version, version)

	if err := p.mirror.ReplaceLedger(ctx, snap); err != nil {
		return fmt.Errorf("replace mirror: %w", err)
	}

	if err := p.state.MarkMirrored(ctx, p.config.Target, snap.Version); err != nil {
		// The mirror is correct; the next sync rewrites it again.
		slog.WarnContext(ctx, "Failed to record mirror state",
			"target", p.config.Target, "version", snap.Version, "error", err)
	}

	slog.InfoContext(ctx, "Ledger mirrored",
		"target", p.config.Target,
		"version", snap.Version,
		"transactions", len(snap.Transactions),
		"budgets", len(snap.Budgets))
	return nil
}
