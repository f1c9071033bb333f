package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"ledger-service/internal/models"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist in the scoped
// collection. Callers that tolerate dangling references check for it
// with errors.Is.
var ErrNotFound = errors.New("record not found")

// Scope selects the tenant namespace for every query. TestMode routes
// products, sales and expenses to the parallel test_ tables; customers
// are shared between modes.
type Scope struct {
	TenantID string
	TestMode bool
}

// Key returns a stable identifier for the scope, used for cache keys
// and pending-delete bookkeeping.
func (sc Scope) Key() string {
	if sc.TestMode {
		return sc.TenantID + ":test"
	}
	return sc.TenantID
}

var knownCollections = map[string]bool{
	models.CollectionProducts:  true,
	models.CollectionSales:     true,
	models.CollectionExpenses:  true,
	models.CollectionCustomers: true,
}

// Table resolves a collection name to the physical table for this scope.
// Collection names are interpolated into SQL, so anything outside the
// known set is rejected.
func (sc Scope) Table(collection string) (string, error) {
	if !knownCollections[collection] {
		return "", fmt.Errorf("unknown collection: %s", collection)
	}
	if sc.TestMode && collection != models.CollectionCustomers {
		return "test_" + collection, nil
	}
	return collection, nil
}

type Store struct {
	db *sqlx.DB
}

// NewStore creates a new database store
func NewStore(databaseURL string) (*Store, error) {
	db, err := sqlx.Connect("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

func newRecordID() string {
	return uuid.New().String()
}

// CreateProduct inserts a product, assigning id and timestamps.
func (s *Store) CreateProduct(ctx context.Context, scope Scope, p *models.Product) error {
	table, err := scope.Table(models.CollectionProducts)
	if err != nil {
		return err
	}

	p.ID = newRecordID()
	p.TenantID = scope.TenantID

	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, product_name, cost_price, selling_price,
			stock_quantity, minimum_stock_level, supplier_name)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at`, table)

	err = s.db.QueryRowxContext(ctx, query,
		p.ID, p.TenantID, p.ProductName, p.CostPrice, p.SellingPrice,
		p.StockQuantity, p.MinimumStockLevel, p.SupplierName,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create product: %w", err)
	}
	return nil
}

// GetProduct retrieves a product by id, including soft-deleted ones.
// The undo coordinator needs to see deleted records; list reads filter.
func (s *Store) GetProduct(ctx context.Context, scope Scope, id string) (*models.Product, error) {
	table, err := scope.Table(models.CollectionProducts)
	if err != nil {
		return nil, err
	}

	var p models.Product
	query := fmt.Sprintf("SELECT * FROM %s WHERE id = $1 AND tenant_id = $2", table)
	err = s.db.GetContext(ctx, &p, query, id, scope.TenantID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("product %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ListProducts returns live products, newest first.
func (s *Store) ListProducts(ctx context.Context, scope Scope) ([]models.Product, error) {
	table, err := scope.Table(models.CollectionProducts)
	if err != nil {
		return nil, err
	}

	var products []models.Product
	query := fmt.Sprintf(
		"SELECT * FROM %s WHERE tenant_id = $1 AND is_deleted = FALSE ORDER BY created_at DESC", table)
	err = s.db.SelectContext(ctx, &products, query, scope.TenantID)
	return products, err
}

// UpdateProduct patches the user-editable product fields. Stock is
// excluded on purpose: it only moves through AdjustStock.
func (s *Store) UpdateProduct(ctx context.Context, scope Scope, p *models.Product) error {
	table, err := scope.Table(models.CollectionProducts)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s SET product_name = $1, cost_price = $2, selling_price = $3,
			minimum_stock_level = $4, supplier_name = $5, updated_at = NOW()
		WHERE id = $6 AND tenant_id = $7`, table)

	res, err := s.db.ExecContext(ctx, query,
		p.ProductName, p.CostPrice, p.SellingPrice,
		p.MinimumStockLevel, p.SupplierName, p.ID, scope.TenantID)
	if err != nil {
		return fmt.Errorf("failed to update product: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("product %s: %w", p.ID, ErrNotFound)
	}
	return nil
}

// AdjustStock applies a stock delta and returns the resulting quantity.
// The delta is applied blindly; quantities can go negative when a sale
// is reversed after an out-of-band stock edit.
func (s *Store) AdjustStock(ctx context.Context, scope Scope, productID string, delta int) (int, error) {
	table, err := scope.Table(models.CollectionProducts)
	if err != nil {
		return 0, err
	}

	var quantity int
	query := fmt.Sprintf(`
		UPDATE %s SET stock_quantity = stock_quantity + $1, updated_at = NOW()
		WHERE id = $2 AND tenant_id = $3
		RETURNING stock_quantity`, table)

	err = s.db.QueryRowxContext(ctx, query, delta, productID, scope.TenantID).Scan(&quantity)
	if err == sql.ErrNoRows {
		return 0, fmt.Errorf("product %s: %w", productID, ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to adjust stock: %w", err)
	}
	return quantity, nil
}

// SoftDeleteRecord marks a record deleted without removing it, so the
// undo window can bring it back.
func (s *Store) SoftDeleteRecord(ctx context.Context, scope Scope, collection, id string) error {
	table, err := scope.Table(collection)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s SET is_deleted = TRUE, deleted_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2 AND is_deleted = FALSE`, table)

	res, err := s.db.ExecContext(ctx, query, id, scope.TenantID)
	if err != nil {
		return fmt.Errorf("failed to soft-delete %s record: %w", collection, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s %s: %w", collection, id, ErrNotFound)
	}
	return nil
}

// RestoreRecord clears the soft-delete flag.
func (s *Store) RestoreRecord(ctx context.Context, scope Scope, collection, id string) error {
	table, err := scope.Table(collection)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s SET is_deleted = FALSE, deleted_at = NULL, updated_at = NOW()
		WHERE id = $1 AND tenant_id = $2 AND is_deleted = TRUE`, table)

	res, err := s.db.ExecContext(ctx, query, id, scope.TenantID)
	if err != nil {
		return fmt.Errorf("failed to restore %s record: %w", collection, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%s %s: %w", collection, id, ErrNotFound)
	}
	return nil
}
