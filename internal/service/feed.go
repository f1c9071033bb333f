package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ledger-service/internal/models"
	"ledger-service/internal/redisclient"
	"ledger-service/internal/store"
	"ledger-service/internal/util"

	"go.uber.org/zap"
)

// SnapshotStore is the persistence surface the feed needs: the live
// list per collection.
type SnapshotStore interface {
	ListProducts(ctx context.Context, scope store.Scope) ([]models.Product, error)
	ListSales(ctx context.Context, scope store.Scope) ([]models.Sale, error)
	ListExpenses(ctx context.Context, scope store.Scope) ([]models.Expense, error)
	ListCustomers(ctx context.Context, scope store.Scope) ([]models.Customer, error)
}

// SnapshotService serves the subscription feed: a full snapshot of a
// collection per read, cached in redis and refreshed on every change
// event. Consecutive changes coalesce naturally because each refresh
// replaces the whole value.
type SnapshotService struct {
	store  SnapshotStore
	redis  *redisclient.Client
	logger *zap.Logger
}

// NewSnapshotService creates a new snapshot service. redis may be nil,
// in which case every read goes straight to the database.
func NewSnapshotService(store SnapshotStore, redis *redisclient.Client) *SnapshotService {
	return &SnapshotService{
		store:  store,
		redis:  redis,
		logger: util.GetLogger(),
	}
}

func (sn *SnapshotService) load(ctx context.Context, scope store.Scope, collection string) ([]byte, error) {
	var (
		payload interface{}
		err     error
	)
	switch collection {
	case models.CollectionProducts:
		payload, err = sn.store.ListProducts(ctx, scope)
	case models.CollectionSales:
		payload, err = sn.store.ListSales(ctx, scope)
	case models.CollectionExpenses:
		payload, err = sn.store.ListExpenses(ctx, scope)
	case models.CollectionCustomers:
		payload, err = sn.store.ListCustomers(ctx, scope)
	default:
		return nil, fmt.Errorf("unknown collection: %s", collection)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s snapshot: %w", collection, err)
	}
	return json.Marshal(payload)
}

// Refresh rebuilds the cached snapshot for one collection from the
// database. Called by the worker on every change event.
func (sn *SnapshotService) Refresh(ctx context.Context, scope store.Scope, collection string) error {
	if sn.redis == nil {
		return nil
	}

	start := time.Now()
	payload, err := sn.load(ctx, scope, collection)
	if err != nil {
		return err
	}

	if err := sn.redis.SetSnapshot(ctx, scope.Key(), collection, payload); err != nil {
		return fmt.Errorf("failed to cache %s snapshot: %w", collection, err)
	}

	util.SnapshotRefreshLatency.WithLabelValues(collection).Observe(time.Since(start).Seconds())
	sn.logger.Debug("Snapshot refreshed",
		zap.String("collection", collection),
		zap.String("scope", scope.Key()),
		zap.Int("bytes", len(payload)))
	return nil
}

// Snapshot serves the full current state of a collection. The cached
// copy is preferred; a miss falls back to the database and repopulates
// the cache best-effort.
func (sn *SnapshotService) Snapshot(ctx context.Context, scope store.Scope, collection string) ([]byte, error) {
	ctx, span := util.StartSpan(ctx, "SnapshotService.Snapshot")
	defer span.End()

	if sn.redis != nil {
		payload, found, err := sn.redis.GetSnapshot(ctx, scope.Key(), collection)
		if err != nil {
			sn.logger.Warn("Snapshot cache read failed, falling back to DB",
				zap.String("collection", collection),
				zap.Error(err))
		} else if found {
			return payload, nil
		}
	}

	payload, err := sn.load(ctx, scope, collection)
	if err != nil {
		return nil, err
	}

	if sn.redis != nil {
		if err := sn.redis.SetSnapshot(ctx, scope.Key(), collection, payload); err != nil {
			sn.logger.Warn("Failed to repopulate snapshot cache",
				zap.String("collection", collection),
				zap.Error(err))
		}
	}
	return payload, nil
}
