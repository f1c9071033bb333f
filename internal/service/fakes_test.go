package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"ledger-service/internal/models"
	"ledger-service/internal/store"
)

// fakeStore is an in-memory stand-in for store.Store, implementing the
// narrow interfaces the services consume.
type fakeStore struct {
	mu        sync.Mutex
	nextID    int
	products  map[string]*models.Product
	sales     map[string]*models.Sale
	saleOrder []string
	customers map[string]*models.Customer
	expenses  map[string]*models.Expense
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		products:  make(map[string]*models.Product),
		sales:     make(map[string]*models.Sale),
		customers: make(map[string]*models.Customer),
		expenses:  make(map[string]*models.Expense),
	}
}

func (f *fakeStore) newID() string {
	f.nextID++
	return fmt.Sprintf("id-%d", f.nextID)
}

func (f *fakeStore) addProduct(p models.Product) *models.Product {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == "" {
		p.ID = f.newID()
	}
	p.CreatedAt = time.Now()
	f.products[p.ID] = &p
	return &p
}

func (f *fakeStore) addSale(s models.Sale) *models.Sale {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s.ID == "" {
		s.ID = f.newID()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	f.sales[s.ID] = &s
	f.saleOrder = append(f.saleOrder, s.ID)
	return &s
}

func (f *fakeStore) addCustomer(c models.Customer) *models.Customer {
	f.mu.Lock()
	defer f.mu.Unlock()
	if c.ID == "" {
		c.ID = f.newID()
	}
	c.CreatedAt = time.Now()
	f.customers[c.ID] = &c
	return &c
}

func (f *fakeStore) CreateProduct(ctx context.Context, scope store.Scope, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = f.newID()
	p.CreatedAt = time.Now()
	cp := *p
	f.products[p.ID] = &cp
	return nil
}

func (f *fakeStore) GetProduct(ctx context.Context, scope store.Scope, id string) (*models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, store.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (f *fakeStore) ListProducts(ctx context.Context, scope store.Scope) ([]models.Product, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Product
	for _, p := range f.products {
		if !p.IsDeleted {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateProduct(ctx context.Context, scope store.Scope, p *models.Product) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.products[p.ID]
	if !ok {
		return fmt.Errorf("product %s: %w", p.ID, store.ErrNotFound)
	}
	existing.ProductName = p.ProductName
	existing.CostPrice = p.CostPrice
	existing.SellingPrice = p.SellingPrice
	existing.MinimumStockLevel = p.MinimumStockLevel
	existing.SupplierName = p.SupplierName
	return nil
}

func (f *fakeStore) AdjustStock(ctx context.Context, scope store.Scope, productID string, delta int) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.products[productID]
	if !ok {
		return 0, fmt.Errorf("product %s: %w", productID, store.ErrNotFound)
	}
	p.StockQuantity += delta
	return p.StockQuantity, nil
}

func (f *fakeStore) CreateSale(ctx context.Context, scope store.Scope, sale *models.Sale) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	sale.ID = f.newID()
	sale.CreatedAt = time.Now()
	cp := *sale
	f.sales[sale.ID] = &cp
	f.saleOrder = append(f.saleOrder, sale.ID)
	return nil
}

func (f *fakeStore) GetSale(ctx context.Context, scope store.Scope, id string) (*models.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sales[id]
	if !ok {
		return nil, fmt.Errorf("sale %s: %w", id, store.ErrNotFound)
	}
	cp := *s
	return &cp, nil
}

func (f *fakeStore) ListSales(ctx context.Context, scope store.Scope) ([]models.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Sale
	for _, id := range f.saleOrder {
		if s := f.sales[id]; !s.IsDeleted {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (f *fakeStore) ListSalesByCustomer(ctx context.Context, scope store.Scope, customerID string) ([]models.Sale, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Sale
	for _, id := range f.saleOrder {
		s := f.sales[id]
		if s.IsDeleted || s.CustomerID == nil || *s.CustomerID != customerID {
			continue
		}
		out = append(out, *s)
	}
	return out, nil
}

func (f *fakeStore) UpdateSalePayment(ctx context.Context, scope store.Scope, id string, amountPaid, amountDue float64, status string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.sales[id]
	if !ok {
		return fmt.Errorf("sale %s: %w", id, store.ErrNotFound)
	}
	s.AmountPaid = amountPaid
	s.AmountDue = amountDue
	s.PaymentStatus = status
	return nil
}

func (f *fakeStore) CreateCustomer(ctx context.Context, scope store.Scope, c *models.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	c.ID = f.newID()
	c.CreatedAt = time.Now()
	cp := *c
	f.customers[c.ID] = &cp
	return nil
}

func (f *fakeStore) GetCustomer(ctx context.Context, scope store.Scope, id string) (*models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.customers[id]
	if !ok {
		return nil, fmt.Errorf("customer %s: %w", id, store.ErrNotFound)
	}
	cp := *c
	return &cp, nil
}

func (f *fakeStore) ListCustomers(ctx context.Context, scope store.Scope) ([]models.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Customer
	for _, c := range f.customers {
		if !c.IsDeleted {
			out = append(out, *c)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateCustomer(ctx context.Context, scope store.Scope, c *models.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.customers[c.ID]
	if !ok {
		return fmt.Errorf("customer %s: %w", c.ID, store.ErrNotFound)
	}
	existing.Name = c.Name
	existing.Phone = c.Phone
	return nil
}

func (f *fakeStore) CreateExpense(ctx context.Context, scope store.Scope, e *models.Expense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e.ID = f.newID()
	e.CreatedAt = time.Now()
	cp := *e
	f.expenses[e.ID] = &cp
	return nil
}

func (f *fakeStore) ListExpenses(ctx context.Context, scope store.Scope) ([]models.Expense, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Expense
	for _, e := range f.expenses {
		if !e.IsDeleted {
			out = append(out, *e)
		}
	}
	return out, nil
}

func (f *fakeStore) UpdateExpense(ctx context.Context, scope store.Scope, e *models.Expense) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.expenses[e.ID]
	if !ok {
		return fmt.Errorf("expense %s: %w", e.ID, store.ErrNotFound)
	}
	existing.Category = e.Category
	existing.Amount = e.Amount
	existing.PaymentMode = e.PaymentMode
	existing.Notes = e.Notes
	existing.LinkedProductID = e.LinkedProductID
	return nil
}

func (f *fakeStore) SoftDeleteRecord(ctx context.Context, scope store.Scope, collection, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now()
	switch collection {
	case models.CollectionProducts:
		if p, ok := f.products[id]; ok && !p.IsDeleted {
			p.IsDeleted = true
			p.DeletedAt = &now
			return nil
		}
	case models.CollectionSales:
		if s, ok := f.sales[id]; ok && !s.IsDeleted {
			s.IsDeleted = true
			s.DeletedAt = &now
			return nil
		}
	case models.CollectionExpenses:
		if e, ok := f.expenses[id]; ok && !e.IsDeleted {
			e.IsDeleted = true
			e.DeletedAt = &now
			return nil
		}
	case models.CollectionCustomers:
		if c, ok := f.customers[id]; ok && !c.IsDeleted {
			c.IsDeleted = true
			c.DeletedAt = &now
			return nil
		}
	}
	return fmt.Errorf("%s %s: %w", collection, id, store.ErrNotFound)
}

func (f *fakeStore) RestoreRecord(ctx context.Context, scope store.Scope, collection, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch collection {
	case models.CollectionProducts:
		if p, ok := f.products[id]; ok && p.IsDeleted {
			p.IsDeleted = false
			p.DeletedAt = nil
			return nil
		}
	case models.CollectionSales:
		if s, ok := f.sales[id]; ok && s.IsDeleted {
			s.IsDeleted = false
			s.DeletedAt = nil
			return nil
		}
	case models.CollectionExpenses:
		if e, ok := f.expenses[id]; ok && e.IsDeleted {
			e.IsDeleted = false
			e.DeletedAt = nil
			return nil
		}
	case models.CollectionCustomers:
		if c, ok := f.customers[id]; ok && c.IsDeleted {
			c.IsDeleted = false
			c.DeletedAt = nil
			return nil
		}
	}
	return fmt.Errorf("%s %s: %w", collection, id, store.ErrNotFound)
}
