// Package worker keeps external mirrors in step with the persisted ledger.
package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"fintrack/internal/amqp"
)

// Consumer delivers ledger change messages until ctx is done.
type Consumer interface {
	ConsumeLedgerChanged(ctx context.Context, handler func(context.Context, *amqp.LedgerChangedMessage) error) error
}

// Mirror is the processor the worker drives.
type Mirror interface {
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
	Sync(ctx context.Context, version uint64) error
}

const stopTimeout = 10 * time.Second

// MirrorWorker syncs the mirror on every change message and keeps the
// periodic resync running as a backup for lost messages.
type MirrorWorker struct {
	mirror Mirror
}

func NewMirrorWorker(mirror Mirror) *MirrorWorker {
	return &MirrorWorker{mirror: mirror}
}

// HandleLedgerChanged processes a single change message. An error makes the
// consumer requeue the message.
func (w *MirrorWorker) HandleLedgerChanged(ctx context.Context, msg *amqp.LedgerChangedMessage) error {
	slog.InfoContext(ctx, "Processing ledger change",
		"id", msg.ID,
		"entity", msg.Entity,
		"op", msg.Op,
		"version", msg.Version)

	version := msg.Version
	if msg.Op == amqp.OpResync {
		version = 0
	}
	if err := w.mirror.Sync(ctx, version); err != nil {
		return fmt.Errorf("sync mirror: %w", err)
	}
	return nil
}

// Run starts the periodic resync and, when consumer is not nil, consumes
// change messages. It returns when ctx is cancelled or consumption fails.
func (w *MirrorWorker) Run(ctx context.Context, consumer Consumer) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := w.mirror.Start(gctx); err != nil {
			return err
		}
		<-gctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), stopTimeout)
		defer cancel()
		return w.mirror.Stop(stopCtx)
	})

	if consumer != nil {
		g.Go(func() error {
			return consumer.ConsumeLedgerChanged(gctx, w.HandleLedgerChanged)
		})
	} else {
		slog.InfoContext(ctx, "No message consumer configured, relying on periodic resync")
	}

	err := g.Wait()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return nil
	}
	return err
}
