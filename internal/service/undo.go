package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ledger-service/internal/models"
	"ledger-service/internal/store"
	"ledger-service/internal/util"

	"go.uber.org/zap"
)

// DeleteStore is the persistence surface the delete coordinator needs.
type DeleteStore interface {
	SoftDeleteRecord(ctx context.Context, scope store.Scope, collection, id string) error
	RestoreRecord(ctx context.Context, scope store.Scope, collection, id string) error
}

// DeleteEffects are the reconciliation side effects tied to a delete.
// Apply runs before the record is marked deleted (e.g. restoring stock
// for a sale); Reverse runs on undo and must exactly invert Apply.
type DeleteEffects struct {
	Apply   func(ctx context.Context) error
	Reverse func(ctx context.Context) error
}

type pendingDelete struct {
	collection string
	timer      *time.Timer
	reverse    func(ctx context.Context) error
}

// DeleteCoordinator runs the soft-delete state machine:
//
//	ACTIVE -> PENDING_DELETE -> DELETED
//
// with PENDING_DELETE -> ACTIVE (undo) as the only back edge, open
// until the window elapses. Ownership of a pending entry is claimed by
// removing it from the map under the mutex, so undo and expiry can
// never both act on the same delete.
type DeleteCoordinator struct {
	store     DeleteStore
	publisher Publisher
	logger    *zap.Logger
	window    time.Duration

	mu      sync.Mutex
	pending map[string]*pendingDelete
}

// NewDeleteCoordinator creates a delete coordinator with the given undo
// window.
func NewDeleteCoordinator(store DeleteStore, publisher Publisher, window time.Duration) *DeleteCoordinator {
	return &DeleteCoordinator{
		store:     store,
		publisher: publisher,
		logger:    util.GetLogger(),
		window:    window,
		pending:   make(map[string]*pendingDelete),
	}
}

func pendingKey(scope store.Scope, collection, id string) string {
	return scope.Key() + "/" + collection + "/" + id
}

// IsPending reports whether a record has an open undo window.
func (d *DeleteCoordinator) IsPending(scope store.Scope, collection, id string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[pendingKey(scope, collection, id)]
	return ok
}

// Delete applies the side effects, soft-deletes the record and opens
// the undo window. A second delete while one is pending is a caller
// error.
func (d *DeleteCoordinator) Delete(ctx context.Context, scope store.Scope, collection, id string, effects DeleteEffects) error {
	key := pendingKey(scope, collection, id)

	entry := &pendingDelete{collection: collection, reverse: effects.Reverse}
	d.mu.Lock()
	if _, ok := d.pending[key]; ok {
		d.mu.Unlock()
		return ErrDeletePending
	}
	d.pending[key] = entry
	d.mu.Unlock()

	abort := func() {
		d.mu.Lock()
		delete(d.pending, key)
		d.mu.Unlock()
	}

	if effects.Apply != nil {
		if err := effects.Apply(ctx); err != nil {
			abort()
			return fmt.Errorf("failed to apply delete side effects: %w", err)
		}
	}

	if err := d.store.SoftDeleteRecord(ctx, scope, collection, id); err != nil {
		// The side effects already landed; invert them so a failed
		// delete leaves derived state where it started.
		if effects.Reverse != nil {
			if rerr := effects.Reverse(ctx); rerr != nil {
				d.logger.Error("Failed to reverse side effects after delete failure",
					zap.String("collection", collection),
					zap.String("record_id", id),
					zap.Error(rerr))
			}
		}
		abort()
		return err
	}

	entry.timer = time.AfterFunc(d.window, func() {
		d.expire(key, collection, id)
	})

	util.DeletesStagedTotal.WithLabelValues(collection).Inc()
	d.logger.Info("Delete staged",
		zap.String("collection", collection),
		zap.String("record_id", id),
		zap.Duration("undo_window", d.window))
	publishChange(ctx, d.publisher, d.logger, scope, collection, id, models.ChangeActionDeleted)

	return nil
}

// Undo cancels a pending delete: reverses the side effects and clears
// the soft-delete flag. Fails once the window has elapsed.
func (d *DeleteCoordinator) Undo(ctx context.Context, scope store.Scope, collection, id string) error {
	key := pendingKey(scope, collection, id)

	d.mu.Lock()
	entry, ok := d.pending[key]
	if !ok {
		d.mu.Unlock()
		return ErrUndoExpired
	}
	delete(d.pending, key)
	d.mu.Unlock()

	if entry.timer != nil {
		entry.timer.Stop()
	}

	if entry.reverse != nil {
		if err := entry.reverse(ctx); err != nil {
			return fmt.Errorf("failed to reverse delete side effects: %w", err)
		}
	}

	if err := d.store.RestoreRecord(ctx, scope, collection, id); err != nil {
		return err
	}

	util.DeletesUndoneTotal.WithLabelValues(collection).Inc()
	d.logger.Info("Delete undone",
		zap.String("collection", collection),
		zap.String("record_id", id))
	publishChange(ctx, d.publisher, d.logger, scope, collection, id, models.ChangeActionRestored)

	return nil
}

// expire fires when the undo window lapses. The record stays
// soft-deleted; only the pending bookkeeping is dropped.
func (d *DeleteCoordinator) expire(key, collection, id string) {
	d.mu.Lock()
	_, ok := d.pending[key]
	if !ok {
		// Undo claimed it first.
		d.mu.Unlock()
		return
	}
	delete(d.pending, key)
	d.mu.Unlock()

	util.DeletesFinalizedTotal.WithLabelValues(collection).Inc()
	d.logger.Info("Delete finalized, undo window elapsed",
		zap.String("collection", collection),
		zap.String("record_id", id))
}
