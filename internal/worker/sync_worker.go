package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"spendlog/internal/amqp"
	"spendlog/internal/core"

	"golang.org/x/sync/errgroup"
)

// SnapshotLoader reads the primary state written by the tracker.
type SnapshotLoader interface {
	Load(ctx context.Context) (core.Snapshot, error)
}

// Rebuilder replaces the analytics projection.
type Rebuilder interface {
	Rebuild(ctx context.Context, expenses map[string]map[string]float64, categories map[string][]string) (int, error)
}

// ChangeConsumer delivers change notifications until ctx is done.
type ChangeConsumer interface {
	ConsumeChanges(ctx context.Context, handler func(context.Context, *amqp.ChangeMessage) error) error
}

// SyncWorker keeps the persistent analytics database in step with the
// JSON snapshot, both on change notifications and on a fixed interval.
type SyncWorker struct {
	loader   SnapshotLoader
	rebuild  Rebuilder
	consumer ChangeConsumer
	interval time.Duration
}

// NewSyncWorker builds a worker. consumer may be nil, in which case only
// the periodic refresh runs.
func NewSyncWorker(loader SnapshotLoader, rebuild Rebuilder, consumer ChangeConsumer, interval time.Duration) *SyncWorker {
	return &SyncWorker{
		loader:   loader,
		rebuild:  rebuild,
		consumer: consumer,
		interval: interval,
	}
}

// Refresh reloads the snapshot and rebuilds the projection.
func (w *SyncWorker) Refresh(ctx context.Context) (int, error) {
	snap, err := w.loader.Load(ctx)
	if err != nil {
		return 0, fmt.Errorf("load snapshot: %w", err)
	}
	n, err := w.rebuild.Rebuild(ctx, snap.Expenses, snap.Categories)
	if err != nil {
		return 0, fmt.Errorf("rebuild analytics: %w", err)
	}
	return n, nil
}

// HandleChange processes one change notification.
func (w *SyncWorker) HandleChange(ctx context.Context, msg *amqp.ChangeMessage) error {
	slog.InfoContext(ctx, "Processing change message",
		"id", msg.ID,
		"operation", msg.Operation,
		"month", msg.Month,
		"name", msg.Name,
		"category", msg.Category)

	n, err := w.Refresh(ctx)
	if err != nil {
		return err
	}

	slog.InfoContext(ctx, "Analytics refreshed after change", "id", msg.ID, "records", n)
	return nil
}

// Run rebuilds once, then keeps refreshing on every tick and on every
// consumed message until ctx is cancelled.
func (w *SyncWorker) Run(ctx context.Context) error {
	if n, err := w.Refresh(ctx); err != nil {
		slog.ErrorContext(ctx, "Initial analytics rebuild failed", "error", err)
	} else {
		slog.InfoContext(ctx, "Initial analytics rebuild completed", "records", n)
	}

	g, ctx := errgroup.WithContext(ctx)

	if w.interval > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(w.interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-ticker.C:
					if n, err := w.Refresh(ctx); err != nil {
						slog.ErrorContext(ctx, "Periodic analytics rebuild failed", "error", err)
					} else {
						slog.DebugContext(ctx, "Periodic analytics rebuild completed", "records", n)
					}
				}
			}
		})
	}

	if w.consumer != nil {
		g.Go(func() error {
			err := w.consumer.ConsumeChanges(ctx, w.HandleChange)
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		})
	}

	if err := g.Wait(); err != nil {
		return fmt.Errorf("sync worker: %w", err)
	}
	slog.InfoContext(ctx, "Sync worker stopped")
	return nil
}
