package worker

import (
	"context"

	"ledger-service/internal/broker"
	"ledger-service/internal/models"
	"ledger-service/internal/service"
	"ledger-service/internal/store"
	"ledger-service/internal/util"

	"go.uber.org/zap"
)

// SnapshotWorker consumes ledger change events and keeps the redis
// snapshot cache and stock mirror in step with the database. It is the
// only writer of snapshots, so the cache converges even when events
// arrive faster than refreshes run.
type SnapshotWorker struct {
	consumer  *broker.Consumer
	snapshots *service.SnapshotService
	stock     *service.StockService
	logger    *zap.Logger
	cancel    context.CancelFunc
	done      chan struct{}
}

// NewSnapshotWorker creates a new snapshot worker
func NewSnapshotWorker(consumer *broker.Consumer, snapshots *service.SnapshotService, stock *service.StockService) *SnapshotWorker {
	return &SnapshotWorker{
		consumer:  consumer,
		snapshots: snapshots,
		stock:     stock,
		logger:    util.GetLogger(),
		done:      make(chan struct{}),
	}
}

// Start begins consuming in a background goroutine.
func (w *SnapshotWorker) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)

	handler := broker.NewEventHandler()
	handler.OnLedgerChanged(w.handleLedgerChanged)

	go func() {
		defer close(w.done)
		if err := w.consumer.StartConsuming(ctx, handler.HandleMessage); err != nil && ctx.Err() == nil {
			w.logger.Error("Snapshot worker stopped unexpectedly", zap.Error(err))
		}
	}()

	w.logger.Info("Snapshot worker started")
}

// Stop cancels the consume loop and waits for it to drain.
func (w *SnapshotWorker) Stop() {
	if w.cancel != nil {
		w.cancel()
	}
	<-w.done
	if err := w.consumer.Close(); err != nil {
		w.logger.Error("Failed to close consumer", zap.Error(err))
	}
	w.logger.Info("Snapshot worker stopped")
}

// handleLedgerChanged refreshes the changed collection's snapshot. A
// refresh error propagates so the message is redelivered rather than
// leaving the cache stale.
func (w *SnapshotWorker) handleLedgerChanged(ctx context.Context, event *models.LedgerChangedEvent) error {
	scope := store.Scope{TenantID: event.TenantID, TestMode: event.TestMode}

	w.logger.Debug("Ledger change received",
		zap.String("collection", event.Collection),
		zap.String("record_id", event.RecordID),
		zap.String("action", event.Action))

	if err := w.snapshots.Refresh(ctx, scope, event.Collection); err != nil {
		w.logger.Error("Snapshot refresh failed",
			zap.String("collection", event.Collection),
			zap.Error(err))
		return err
	}

	// Product changes can move stock; resync the mirror so the guard
	// fast path stays honest.
	if event.Collection == models.CollectionProducts {
		if err := w.stock.SyncStockToRedis(ctx, scope); err != nil {
			w.logger.Warn("Stock mirror resync failed", zap.Error(err))
		}
	}

	return nil
}
