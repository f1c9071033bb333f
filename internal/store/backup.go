package store

import (
	"context"
	"fmt"

	"ledger-service/internal/models"
)

// Backup reads and writes whole collections. Soft-deleted rows are
// included so a restored ledger reconciles the same way the exported
// one did.

func (s *Store) DumpProducts(ctx context.Context, tenantID, table string) ([]models.Product, error) {
	var products []models.Product
	query := fmt.Sprintf("SELECT * FROM %s WHERE tenant_id = $1 ORDER BY created_at DESC", table)
	err := s.db.SelectContext(ctx, &products, query, tenantID)
	return products, err
}

func (s *Store) DumpSales(ctx context.Context, tenantID, table string) ([]models.Sale, error) {
	var sales []models.Sale
	query := fmt.Sprintf("SELECT * FROM %s WHERE tenant_id = $1 ORDER BY created_at DESC", table)
	err := s.db.SelectContext(ctx, &sales, query, tenantID)
	return sales, err
}

func (s *Store) DumpExpenses(ctx context.Context, tenantID, table string) ([]models.Expense, error) {
	var expenses []models.Expense
	query := fmt.Sprintf("SELECT * FROM %s WHERE tenant_id = $1 ORDER BY created_at DESC", table)
	err := s.db.SelectContext(ctx, &expenses, query, tenantID)
	return expenses, err
}

func (s *Store) DumpCustomers(ctx context.Context, tenantID string) ([]models.Customer, error) {
	var customers []models.Customer
	err := s.db.SelectContext(ctx, &customers,
		"SELECT * FROM customers WHERE tenant_id = $1 ORDER BY created_at DESC", tenantID)
	return customers, err
}

// ReplaceLedger wholesale-replaces a tenant's collections with the
// backup contents in one transaction. Record ids and timestamps come
// from the backup, not the server.
func (s *Store) ReplaceLedger(ctx context.Context, tenantID string,
	products []models.Product, sales []models.Sale,
	customers []models.Customer, expenses []models.Expense,
	testProducts []models.Product, testSales []models.Sale, testExpenses []models.Expense) error {

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	tables := []string{
		"products", "sales", "customers", "expenses",
		"test_products", "test_sales", "test_expenses",
	}
	for _, table := range tables {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE tenant_id = $1", table), tenantID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	insertProducts := func(table string, rows []models.Product) error {
		for i := range rows {
			p := rows[i]
			_, err := tx.ExecContext(ctx, fmt.Sprintf(`
				INSERT INTO %s (id, tenant_id, product_name, cost_price, selling_price,
					stock_quantity, minimum_stock_level, supplier_name,
					created_at, updated_at, is_deleted, deleted_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`, table),
				p.ID, tenantID, p.ProductName, p.CostPrice, p.SellingPrice,
				p.StockQuantity, p.MinimumStockLevel, p.SupplierName,
				p.CreatedAt, p.UpdatedAt, p.IsDeleted, p.DeletedAt)
			if err != nil {
				return fmt.Errorf("failed to restore %s row: %w", table, err)
			}
		}
		return nil
	}

	insertSales := func(table string, rows []models.Sale) error {
		for i := range rows {
			sale := rows[i]
			_, err := tx.ExecContext(ctx, fmt.Sprintf(`
				INSERT INTO %s (id, tenant_id, product_id, product_name, quantity_sold,
					selling_price_at_time, total_amount, payment_status, payment_mode,
					customer_id, customer_name, amount_paid, amount_due,
					cost_price, profit_per_unit, total_profit, profit_margin,
					created_at, updated_at, is_deleted, deleted_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
					$14, $15, $16, $17, $18, $19, $20, $21)`, table),
				sale.ID, tenantID, sale.ProductID, sale.ProductName, sale.QuantitySold,
				sale.SellingPriceAtTime, sale.TotalAmount, sale.PaymentStatus, sale.PaymentMode,
				sale.CustomerID, sale.CustomerName, sale.AmountPaid, sale.AmountDue,
				sale.CostPrice, sale.ProfitPerUnit, sale.TotalProfit, sale.ProfitMargin,
				sale.CreatedAt, sale.UpdatedAt, sale.IsDeleted, sale.DeletedAt)
			if err != nil {
				return fmt.Errorf("failed to restore %s row: %w", table, err)
			}
		}
		return nil
	}

	insertExpenses := func(table string, rows []models.Expense) error {
		for i := range rows {
			e := rows[i]
			_, err := tx.ExecContext(ctx, fmt.Sprintf(`
				INSERT INTO %s (id, tenant_id, category, amount, payment_mode, notes,
					linked_product_id, created_at, updated_at, is_deleted, deleted_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`, table),
				e.ID, tenantID, e.Category, e.Amount, e.PaymentMode, e.Notes,
				e.LinkedProductID, e.CreatedAt, e.UpdatedAt, e.IsDeleted, e.DeletedAt)
			if err != nil {
				return fmt.Errorf("failed to restore %s row: %w", table, err)
			}
		}
		return nil
	}

	if err := insertProducts("products", products); err != nil {
		return err
	}
	if err := insertProducts("test_products", testProducts); err != nil {
		return err
	}
	if err := insertSales("sales", sales); err != nil {
		return err
	}
	if err := insertSales("test_sales", testSales); err != nil {
		return err
	}
	if err := insertExpenses("expenses", expenses); err != nil {
		return err
	}
	if err := insertExpenses("test_expenses", testExpenses); err != nil {
		return err
	}
	for i := range customers {
		c := customers[i]
		_, err := tx.ExecContext(ctx, `
			INSERT INTO customers (id, tenant_id, name, phone,
				created_at, updated_at, is_deleted, deleted_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			c.ID, tenantID, c.Name, c.Phone, c.CreatedAt, c.UpdatedAt, c.IsDeleted, c.DeletedAt)
		if err != nil {
			return fmt.Errorf("failed to restore customers row: %w", err)
		}
	}

	return tx.Commit()
}

// ClearTestData drops everything in the tenant's test namespace.
func (s *Store) ClearTestData(ctx context.Context, tenantID string) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, table := range []string{"test_products", "test_sales", "test_expenses"} {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE tenant_id = $1", table), tenantID); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}
