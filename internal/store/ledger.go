package store

import (
	"context"
	"database/sql"
	"fmt"

	"ledger-service/internal/models"
)

// CreateSale inserts a sale with all payment and profit fields captured
// at sale time.
func (s *Store) CreateSale(ctx context.Context, scope Scope, sale *models.Sale) error {
	table, err := scope.Table(models.CollectionSales)
	if err != nil {
		return err
	}

	sale.ID = newRecordID()
	sale.TenantID = scope.TenantID

	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, product_id, product_name, quantity_sold,
			selling_price_at_time, total_amount, payment_status, payment_mode,
			customer_id, customer_name, amount_paid, amount_due,
			cost_price, profit_per_unit, total_profit, profit_margin)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING created_at, updated_at`, table)

	err = s.db.QueryRowxContext(ctx, query,
		sale.ID, sale.TenantID, sale.ProductID, sale.ProductName, sale.QuantitySold,
		sale.SellingPriceAtTime, sale.TotalAmount, sale.PaymentStatus, sale.PaymentMode,
		sale.CustomerID, sale.CustomerName, sale.AmountPaid, sale.AmountDue,
		sale.CostPrice, sale.ProfitPerUnit, sale.TotalProfit, sale.ProfitMargin,
	).Scan(&sale.CreatedAt, &sale.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create sale: %w", err)
	}
	return nil
}

// GetSale retrieves a sale by id, including soft-deleted ones.
func (s *Store) GetSale(ctx context.Context, scope Scope, id string) (*models.Sale, error) {
	table, err := scope.Table(models.CollectionSales)
	if err != nil {
		return nil, err
	}

	var sale models.Sale
	query := fmt.Sprintf("SELECT * FROM %s WHERE id = $1 AND tenant_id = $2", table)
	err = s.db.GetContext(ctx, &sale, query, id, scope.TenantID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("sale %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &sale, nil
}

// ListSales returns live sales, newest first.
func (s *Store) ListSales(ctx context.Context, scope Scope) ([]models.Sale, error) {
	table, err := scope.Table(models.CollectionSales)
	if err != nil {
		return nil, err
	}

	var sales []models.Sale
	query := fmt.Sprintf(
		"SELECT * FROM %s WHERE tenant_id = $1 AND is_deleted = FALSE ORDER BY created_at DESC", table)
	err = s.db.SelectContext(ctx, &sales, query, scope.TenantID)
	return sales, err
}

// ListSalesByCustomer returns a customer's live sales, newest first.
func (s *Store) ListSalesByCustomer(ctx context.Context, scope Scope, customerID string) ([]models.Sale, error) {
	table, err := scope.Table(models.CollectionSales)
	if err != nil {
		return nil, err
	}

	var sales []models.Sale
	query := fmt.Sprintf(`
		SELECT * FROM %s WHERE tenant_id = $1 AND customer_id = $2 AND is_deleted = FALSE
		ORDER BY created_at DESC`, table)
	err = s.db.SelectContext(ctx, &sales, query, scope.TenantID, customerID)
	return sales, err
}

// UpdateSalePayment persists the recomputed payment fields of a sale.
func (s *Store) UpdateSalePayment(ctx context.Context, scope Scope, id string, amountPaid, amountDue float64, status string) error {
	table, err := scope.Table(models.CollectionSales)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s SET amount_paid = $1, amount_due = $2, payment_status = $3, updated_at = NOW()
		WHERE id = $4 AND tenant_id = $5`, table)

	res, err := s.db.ExecContext(ctx, query, amountPaid, amountDue, status, id, scope.TenantID)
	if err != nil {
		return fmt.Errorf("failed to update sale payment: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("sale %s: %w", id, ErrNotFound)
	}
	return nil
}

// CreateExpense inserts an expense record.
func (s *Store) CreateExpense(ctx context.Context, scope Scope, e *models.Expense) error {
	table, err := scope.Table(models.CollectionExpenses)
	if err != nil {
		return err
	}

	e.ID = newRecordID()
	e.TenantID = scope.TenantID

	query := fmt.Sprintf(`
		INSERT INTO %s (id, tenant_id, category, amount, payment_mode, notes, linked_product_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING created_at, updated_at`, table)

	err = s.db.QueryRowxContext(ctx, query,
		e.ID, e.TenantID, e.Category, e.Amount, e.PaymentMode, e.Notes, e.LinkedProductID,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create expense: %w", err)
	}
	return nil
}

// ListExpenses returns live expenses, newest first.
func (s *Store) ListExpenses(ctx context.Context, scope Scope) ([]models.Expense, error) {
	table, err := scope.Table(models.CollectionExpenses)
	if err != nil {
		return nil, err
	}

	var expenses []models.Expense
	query := fmt.Sprintf(
		"SELECT * FROM %s WHERE tenant_id = $1 AND is_deleted = FALSE ORDER BY created_at DESC", table)
	err = s.db.SelectContext(ctx, &expenses, query, scope.TenantID)
	return expenses, err
}

// UpdateExpense patches the user-editable expense fields.
func (s *Store) UpdateExpense(ctx context.Context, scope Scope, e *models.Expense) error {
	table, err := scope.Table(models.CollectionExpenses)
	if err != nil {
		return err
	}

	query := fmt.Sprintf(`
		UPDATE %s SET category = $1, amount = $2, payment_mode = $3, notes = $4,
			linked_product_id = $5, updated_at = NOW()
		WHERE id = $6 AND tenant_id = $7`, table)

	res, err := s.db.ExecContext(ctx, query,
		e.Category, e.Amount, e.PaymentMode, e.Notes, e.LinkedProductID, e.ID, scope.TenantID)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %s: %w", e.ID, ErrNotFound)
	}
	return nil
}

// CreateCustomer inserts a customer record. Customers are never routed
// to the test namespace.
func (s *Store) CreateCustomer(ctx context.Context, scope Scope, c *models.Customer) error {
	c.ID = newRecordID()
	c.TenantID = scope.TenantID

	query := `
		INSERT INTO customers (id, tenant_id, name, phone)
		VALUES ($1, $2, $3, $4)
		RETURNING created_at, updated_at`

	err := s.db.QueryRowxContext(ctx, query, c.ID, c.TenantID, c.Name, c.Phone).
		Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create customer: %w", err)
	}
	return nil
}

// GetCustomer retrieves a customer by id.
func (s *Store) GetCustomer(ctx context.Context, scope Scope, id string) (*models.Customer, error) {
	var c models.Customer
	err := s.db.GetContext(ctx, &c,
		"SELECT * FROM customers WHERE id = $1 AND tenant_id = $2", id, scope.TenantID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("customer %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// ListCustomers returns live customers, newest first.
func (s *Store) ListCustomers(ctx context.Context, scope Scope) ([]models.Customer, error) {
	var customers []models.Customer
	err := s.db.SelectContext(ctx, &customers,
		"SELECT * FROM customers WHERE tenant_id = $1 AND is_deleted = FALSE ORDER BY created_at DESC",
		scope.TenantID)
	return customers, err
}

// UpdateCustomer patches the customer identity fields.
func (s *Store) UpdateCustomer(ctx context.Context, scope Scope, c *models.Customer) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE customers SET name = $1, phone = $2, updated_at = NOW() WHERE id = $3 AND tenant_id = $4",
		c.Name, c.Phone, c.ID, scope.TenantID)
	if err != nil {
		return fmt.Errorf("failed to update customer: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("customer %s: %w", c.ID, ErrNotFound)
	}
	return nil
}
