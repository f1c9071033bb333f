package service

import (
	"context"
	"fmt"

	"ledger-service/internal/models"
	"ledger-service/internal/store"
	"ledger-service/internal/util"

	"go.uber.org/zap"
)

// SalesStore is the persistence surface the sale pipeline needs.
type SalesStore interface {
	GetProduct(ctx context.Context, scope store.Scope, id string) (*models.Product, error)
	CreateSale(ctx context.Context, scope store.Scope, sale *models.Sale) error
	GetSale(ctx context.Context, scope store.Scope, id string) (*models.Sale, error)
	ListSales(ctx context.Context, scope store.Scope) ([]models.Sale, error)
}

// SalesService runs the sale write pipeline: identity resolution,
// payment computation, the sale write, then the dependent stock write.
type SalesService struct {
	store     SalesStore
	stock     *StockService
	customers *CustomerService
	deletes   *DeleteCoordinator
	publisher Publisher
	logger    *zap.Logger
}

// NewSalesService creates a new sales service
func NewSalesService(
	store SalesStore,
	stock *StockService,
	customers *CustomerService,
	deletes *DeleteCoordinator,
	publisher Publisher,
) *SalesService {
	return &SalesService{
		store:     store,
		stock:     stock,
		customers: customers,
		deletes:   deletes,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// RecordSaleRequest is a sale submission.
type RecordSaleRequest struct {
	ProductID     string  `json:"productId" binding:"required"`
	QuantitySold  int     `json:"quantitySold" binding:"required"`
	PaymentStatus string  `json:"paymentStatus" binding:"required"`
	PaymentMode   string  `json:"paymentMode"`
	CustomerID    string  `json:"customerId"`
	CustomerName  string  `json:"customerName"`
	CustomerPhone string  `json:"customerPhone"`
	AmountPaid    float64 `json:"amountPaid"`
}

// RecordSale validates and commits a sale. All rejections happen before
// any write. The sale insert and the stock deduction are two sequential
// writes: if the process dies between them the sale exists with stock
// not yet adjusted, and the books catch up on the next reconciliation
// pass rather than by a compensating transaction.
func (s *SalesService) RecordSale(ctx context.Context, scope store.Scope, req *RecordSaleRequest) (*models.Sale, error) {
	ctx, span := util.StartSpan(ctx, "SalesService.RecordSale")
	defer span.End()

	if req.QuantitySold <= 0 {
		util.SalesRejectedTotal.WithLabelValues("invalid_quantity").Inc()
		return nil, ErrInvalidQuantity
	}

	if s.stock.MirrorSaysInsufficient(ctx, scope, req.ProductID, req.QuantitySold) {
		util.SalesRejectedTotal.WithLabelValues("insufficient_stock").Inc()
		return nil, ErrInsufficientStock
	}

	product, err := s.store.GetProduct(ctx, scope, req.ProductID)
	if err != nil {
		util.SalesRejectedTotal.WithLabelValues("product_not_found").Inc()
		return nil, err
	}
	if product.IsDeleted {
		util.SalesRejectedTotal.WithLabelValues("product_not_found").Inc()
		return nil, fmt.Errorf("product %s: %w", req.ProductID, store.ErrNotFound)
	}

	if req.QuantitySold > product.StockQuantity {
		util.SalesRejectedTotal.WithLabelValues("insufficient_stock").Inc()
		return nil, ErrInsufficientStock
	}

	totalAmount := product.SellingPrice * float64(req.QuantitySold)

	status := normalizeStatus(req.PaymentStatus)
	amountPaid, amountDue, err := ComputeSalePayment(totalAmount, status, req.AmountPaid)
	if err != nil {
		util.SalesRejectedTotal.WithLabelValues("invalid_payment").Inc()
		return nil, err
	}

	resolution, err := s.customers.Resolve(ctx, scope, ResolveInput{
		CustomerID: req.CustomerID,
		Name:       req.CustomerName,
		Phone:      req.CustomerPhone,
	})
	if err != nil {
		util.SalesRejectedTotal.WithLabelValues("customer_resolution").Inc()
		return nil, err
	}

	profitPerUnit := product.SellingPrice - product.CostPrice
	totalProfit := profitPerUnit * float64(req.QuantitySold)
	profitMargin := 0.0
	if totalAmount > 0 {
		profitMargin = totalProfit / totalAmount * 100
	}

	sale := &models.Sale{
		ProductID:          product.ID,
		ProductName:        product.ProductName,
		QuantitySold:       req.QuantitySold,
		SellingPriceAtTime: product.SellingPrice,
		TotalAmount:        totalAmount,
		PaymentStatus:      status,
		PaymentMode:        req.PaymentMode,
		CustomerName:       resolution.CustomerName,
		AmountPaid:         amountPaid,
		AmountDue:          amountDue,
		CostPrice:          product.CostPrice,
		ProfitPerUnit:      profitPerUnit,
		TotalProfit:        totalProfit,
		ProfitMargin:       profitMargin,
	}
	if resolution.CustomerID != "" {
		id := resolution.CustomerID
		sale.CustomerID = &id
	}

	if err := s.store.CreateSale(ctx, scope, sale); err != nil {
		util.SalesRejectedTotal.WithLabelValues("store_write").Inc()
		return nil, fmt.Errorf("failed to create sale: %w", err)
	}

	util.SalesRecordedTotal.Inc()
	s.logger.Info("Sale recorded",
		zap.String("sale_id", sale.ID),
		zap.String("product_id", product.ID),
		zap.Int("quantity", req.QuantitySold),
		zap.Float64("total", totalAmount))
	publishChange(ctx, s.publisher, s.logger, scope, models.CollectionSales, sale.ID, models.ChangeActionCreated)

	// Second write of the pair, deliberately sequential and not atomic
	// with the sale insert.
	if err := s.stock.Deduct(ctx, scope, product.ID, req.QuantitySold); err != nil {
		s.logger.Error("Sale committed but stock deduction failed",
			zap.String("sale_id", sale.ID),
			zap.String("product_id", product.ID),
			zap.Error(err))
		return nil, fmt.Errorf("sale %s committed but stock deduction failed: %w", sale.ID, err)
	}

	if s.publisher != nil {
		event := &models.SaleRecordedEvent{
			BaseEvent:     newBaseEvent(models.EventTypeSaleRecorded),
			TenantID:      scope.TenantID,
			SaleID:        sale.ID,
			ProductID:     product.ID,
			QuantitySold:  req.QuantitySold,
			TotalAmount:   totalAmount,
			PaymentStatus: status,
			TestMode:      scope.TestMode,
		}
		if err := s.publisher.PublishSaleRecorded(ctx, event); err != nil {
			s.logger.Error("Failed to publish SaleRecorded event", zap.Error(err))
		}
	}

	return sale, nil
}

// GetSale retrieves a sale by id.
func (s *SalesService) GetSale(ctx context.Context, scope store.Scope, id string) (*models.Sale, error) {
	return s.store.GetSale(ctx, scope, id)
}

// ListSales returns live sales, newest first.
func (s *SalesService) ListSales(ctx context.Context, scope store.Scope) ([]models.Sale, error) {
	return s.store.ListSales(ctx, scope)
}

// DeleteSale stages a sale deletion: stock is restored immediately, the
// record is soft-deleted, and an undo window opens. Undoing re-deducts
// the stock and clears the flag.
func (s *SalesService) DeleteSale(ctx context.Context, scope store.Scope, id string) error {
	ctx, span := util.StartSpan(ctx, "SalesService.DeleteSale")
	defer span.End()

	if s.deletes.IsPending(scope, models.CollectionSales, id) {
		return ErrDeletePending
	}

	sale, err := s.store.GetSale(ctx, scope, id)
	if err != nil {
		return err
	}
	if sale.IsDeleted {
		return fmt.Errorf("sale %s: %w", id, store.ErrNotFound)
	}

	productID := sale.ProductID
	quantity := sale.QuantitySold
	effects := DeleteEffects{
		Apply: func(ctx context.Context) error {
			return s.stock.Restore(ctx, scope, productID, quantity)
		},
		Reverse: func(ctx context.Context) error {
			return s.stock.Rededuct(ctx, scope, productID, quantity)
		},
	}

	return s.deletes.Delete(ctx, scope, models.CollectionSales, id, effects)
}

// UndoDeleteSale reverts a pending sale deletion within the undo
// window.
func (s *SalesService) UndoDeleteSale(ctx context.Context, scope store.Scope, id string) error {
	return s.deletes.Undo(ctx, scope, models.CollectionSales, id)
}
