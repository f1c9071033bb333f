package service

import (
	"context"
	"errors"
	"fmt"

	"ledger-service/internal/models"
	"ledger-service/internal/redisclient"
	"ledger-service/internal/store"
	"ledger-service/internal/util"

	"go.uber.org/zap"
)

// StockStore is the persistence surface stock reconciliation needs.
type StockStore interface {
	GetProduct(ctx context.Context, scope store.Scope, id string) (*models.Product, error)
	AdjustStock(ctx context.Context, scope store.Scope, productID string, delta int) (int, error)
	ListProducts(ctx context.Context, scope store.Scope) ([]models.Product, error)
}

// StockService keeps product stock consistent with sales history. The
// database is canonical; the redis mirror is a best-effort fast path,
// resynced by the snapshot worker on every product change.
type StockService struct {
	store     StockStore
	redis     *redisclient.Client
	publisher Publisher
	logger    *zap.Logger
}

// NewStockService creates a new stock service. redis may be nil, in
// which case the mirror is skipped entirely.
func NewStockService(store StockStore, redis *redisclient.Client, publisher Publisher) *StockService {
	return &StockService{
		store:     store,
		redis:     redis,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// Deduct subtracts a sale's quantity from product stock. Called after
// the sale write as the second, dependent write of the pair.
func (ss *StockService) Deduct(ctx context.Context, scope store.Scope, productID string, quantity int) error {
	return ss.apply(ctx, scope, productID, -quantity, false)
}

// Restore adds a deleted sale's quantity back to product stock. A
// missing product is tolerated: the sale record dangles, the delete
// still proceeds.
func (ss *StockService) Restore(ctx context.Context, scope store.Scope, productID string, quantity int) error {
	return ss.apply(ctx, scope, productID, quantity, true)
}

// Rededuct re-subtracts the quantity when a sale deletion is undone.
// No sufficiency check: the sale already existed, so the books must
// balance even if stock was edited in between.
func (ss *StockService) Rededuct(ctx context.Context, scope store.Scope, productID string, quantity int) error {
	return ss.apply(ctx, scope, productID, -quantity, true)
}

func (ss *StockService) apply(ctx context.Context, scope store.Scope, productID string, delta int, tolerateMissing bool) error {
	ctx, span := util.StartSpan(ctx, "StockService.apply")
	defer span.End()

	newQuantity, err := ss.store.AdjustStock(ctx, scope, productID, delta)
	if err != nil {
		if tolerateMissing && errors.Is(err, store.ErrNotFound) {
			util.DanglingReferencesTotal.Inc()
			ss.logger.Warn("Stock adjustment skipped: product no longer exists",
				zap.String("product_id", productID),
				zap.Int("delta", delta))
			return nil
		}
		return fmt.Errorf("failed to adjust stock for product %s: %w", productID, err)
	}

	direction := "restore"
	if delta < 0 {
		direction = "deduct"
	}
	util.StockAdjustmentsTotal.WithLabelValues(direction).Inc()

	if newQuantity < 0 {
		util.NegativeStockTotal.Inc()
		ss.logger.Warn("Stock went negative (oversell signal)",
			zap.String("product_id", productID),
			zap.Int("quantity", newQuantity))
	}

	ss.mirror(ctx, scope, productID, delta)
	publishChange(ctx, ss.publisher, ss.logger, scope, models.CollectionProducts, productID, models.ChangeActionUpdated)
	return nil
}

// mirror applies the delta to redis. Failures only degrade the fast
// path, so they are logged and dropped.
func (ss *StockService) mirror(ctx context.Context, scope store.Scope, productID string, delta int) {
	if ss.redis == nil {
		return
	}
	if _, _, err := ss.redis.AdjustStock(ctx, scope.Key(), productID, delta); err != nil {
		ss.logger.Warn("Failed to mirror stock adjustment to redis",
			zap.String("product_id", productID),
			zap.Error(err))
	}
}

// MirrorSaysInsufficient consults the redis fast path before the
// database is read. Only a confident "not enough" short-circuits; a
// cold or unreachable mirror defers to the canonical check.
func (ss *StockService) MirrorSaysInsufficient(ctx context.Context, scope store.Scope, productID string, quantity int) bool {
	if ss.redis == nil {
		return false
	}
	sufficient, mirrored, err := ss.redis.GuardStock(ctx, scope.Key(), productID, quantity)
	if err != nil {
		ss.logger.Warn("Redis stock guard failed, falling back to DB",
			zap.String("product_id", productID),
			zap.Error(err))
		return false
	}
	return mirrored && !sufficient
}

// SyncStockToRedis seeds the mirror from the canonical product rows.
func (ss *StockService) SyncStockToRedis(ctx context.Context, scope store.Scope) error {
	if ss.redis == nil {
		return nil
	}

	products, err := ss.store.ListProducts(ctx, scope)
	if err != nil {
		return fmt.Errorf("failed to list products: %w", err)
	}

	for i := range products {
		p := &products[i]
		if err := ss.redis.InitStock(ctx, scope.Key(), p.ID, p.StockQuantity); err != nil {
			ss.logger.Error("Failed to init redis stock mirror",
				zap.String("product_id", p.ID),
				zap.Error(err))
		}
	}

	ss.logger.Info("Stock mirror synced", zap.Int("count", len(products)))
	return nil
}
