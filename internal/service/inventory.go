package service

import (
	"context"
	"fmt"

	"ledger-service/internal/models"
	"ledger-service/internal/store"
	"ledger-service/internal/util"

	"go.uber.org/zap"
)

// ProductStore is the persistence surface the product catalog needs.
type ProductStore interface {
	CreateProduct(ctx context.Context, scope store.Scope, p *models.Product) error
	GetProduct(ctx context.Context, scope store.Scope, id string) (*models.Product, error)
	ListProducts(ctx context.Context, scope store.Scope) ([]models.Product, error)
	UpdateProduct(ctx context.Context, scope store.Scope, p *models.Product) error
}

// ProductService manages the product catalog. Stock movements are not
// handled here; they belong to StockService.
type ProductService struct {
	store     ProductStore
	stock     *StockService
	deletes   *DeleteCoordinator
	publisher Publisher
	logger    *zap.Logger
}

// NewProductService creates a new product service
func NewProductService(store ProductStore, stock *StockService, deletes *DeleteCoordinator, publisher Publisher) *ProductService {
	return &ProductService{
		store:     store,
		stock:     stock,
		deletes:   deletes,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// CreateProductRequest is a product submission. StockQuantity here is
// the opening stock; afterwards the field only moves through sales.
type CreateProductRequest struct {
	ProductName       string  `json:"productName" binding:"required"`
	CostPrice         float64 `json:"costPrice"`
	SellingPrice      float64 `json:"sellingPrice" binding:"required"`
	StockQuantity     int     `json:"stockQuantity"`
	MinimumStockLevel int     `json:"minimumStockLevel"`
	SupplierName      string  `json:"supplierName"`
}

// Create adds a product to the catalog and seeds its redis stock mirror.
func (p *ProductService) Create(ctx context.Context, scope store.Scope, req *CreateProductRequest) (*models.Product, error) {
	ctx, span := util.StartSpan(ctx, "ProductService.Create")
	defer span.End()

	product := &models.Product{
		ProductName:       req.ProductName,
		CostPrice:         req.CostPrice,
		SellingPrice:      req.SellingPrice,
		StockQuantity:     req.StockQuantity,
		MinimumStockLevel: req.MinimumStockLevel,
		SupplierName:      req.SupplierName,
	}
	if err := p.store.CreateProduct(ctx, scope, product); err != nil {
		return nil, err
	}

	if p.stock != nil && p.stock.redis != nil {
		if err := p.stock.redis.InitStock(ctx, scope.Key(), product.ID, product.StockQuantity); err != nil {
			p.logger.Warn("Failed to seed redis stock mirror for new product",
				zap.String("product_id", product.ID),
				zap.Error(err))
		}
	}

	p.logger.Info("Product created",
		zap.String("product_id", product.ID),
		zap.String("name", product.ProductName))
	publishChange(ctx, p.publisher, p.logger, scope, models.CollectionProducts, product.ID, models.ChangeActionCreated)
	return product, nil
}

// Get retrieves a live product by id.
func (p *ProductService) Get(ctx context.Context, scope store.Scope, id string) (*models.Product, error) {
	product, err := p.store.GetProduct(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if product.IsDeleted {
		return nil, fmt.Errorf("product %s: %w", id, store.ErrNotFound)
	}
	return product, nil
}

// List returns live products, newest first.
func (p *ProductService) List(ctx context.Context, scope store.Scope) ([]models.Product, error) {
	return p.store.ListProducts(ctx, scope)
}

// Update patches the product's catalog fields. Stock quantity is never
// writable here.
func (p *ProductService) Update(ctx context.Context, scope store.Scope, id string, req *CreateProductRequest) (*models.Product, error) {
	product, err := p.store.GetProduct(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	if product.IsDeleted {
		return nil, fmt.Errorf("product %s: %w", id, store.ErrNotFound)
	}

	product.ProductName = req.ProductName
	product.CostPrice = req.CostPrice
	product.SellingPrice = req.SellingPrice
	product.MinimumStockLevel = req.MinimumStockLevel
	product.SupplierName = req.SupplierName

	if err := p.store.UpdateProduct(ctx, scope, product); err != nil {
		return nil, err
	}
	publishChange(ctx, p.publisher, p.logger, scope, models.CollectionProducts, id, models.ChangeActionUpdated)
	return product, nil
}

// Delete soft-deletes a product and opens the undo window. Sales that
// reference the product keep their captured name and prices; stock
// adjustments against it become tolerated no-ops while it is gone.
func (p *ProductService) Delete(ctx context.Context, scope store.Scope, id string) error {
	ctx, span := util.StartSpan(ctx, "ProductService.Delete")
	defer span.End()

	product, err := p.store.GetProduct(ctx, scope, id)
	if err != nil {
		return err
	}
	if product.IsDeleted {
		return fmt.Errorf("product %s: %w", id, store.ErrNotFound)
	}

	productID := product.ID
	effects := DeleteEffects{
		Apply: func(ctx context.Context) error {
			if p.stock != nil && p.stock.redis != nil {
				if err := p.stock.redis.DropStock(ctx, scope.Key(), productID); err != nil {
					p.logger.Warn("Failed to drop redis stock mirror",
						zap.String("product_id", productID),
						zap.Error(err))
				}
			}
			return nil
		},
		Reverse: func(ctx context.Context) error {
			if p.stock != nil && p.stock.redis != nil {
				if err := p.stock.redis.InitStock(ctx, scope.Key(), productID, product.StockQuantity); err != nil {
					p.logger.Warn("Failed to reseed redis stock mirror on undo",
						zap.String("product_id", productID),
						zap.Error(err))
				}
			}
			return nil
		},
	}

	return p.deletes.Delete(ctx, scope, models.CollectionProducts, id, effects)
}

// UndoDelete reverts a pending product deletion within the undo window.
func (p *ProductService) UndoDelete(ctx context.Context, scope store.Scope, id string) error {
	return p.deletes.Undo(ctx, scope, models.CollectionProducts, id)
}
