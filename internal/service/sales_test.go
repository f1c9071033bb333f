package service

import (
	"context"
	"testing"
	"time"

	"ledger-service/internal/models"
	"ledger-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSalesFixture() (*fakeStore, *SalesService) {
	fs := newFakeStore()
	stock := NewStockService(fs, nil, nil)
	customers := NewCustomerService(fs, nil, "+256")
	deletes := NewDeleteCoordinator(fs, nil, 50*time.Millisecond)
	sales := NewSalesService(fs, stock, customers, deletes, nil)
	return fs, sales
}

func TestRecordSalePaidDeductsStock(t *testing.T) {
	fs, sales := newSalesFixture()
	scope := store.Scope{TenantID: "t1"}
	product := fs.addProduct(models.Product{
		ProductName: "Sugar 1kg", CostPrice: 300, SellingPrice: 500, StockQuantity: 10,
	})

	sale, err := sales.RecordSale(context.Background(), scope, &RecordSaleRequest{
		ProductID:     product.ID,
		QuantitySold:  3,
		PaymentStatus: "Paid",
	})

	require.NoError(t, err)
	assert.Equal(t, 1500.0, sale.TotalAmount)
	assert.Equal(t, 1500.0, sale.AmountPaid)
	assert.Equal(t, 0.0, sale.AmountDue)
	assert.Equal(t, 500.0, sale.SellingPriceAtTime)
	assert.Equal(t, 200.0, sale.ProfitPerUnit)
	assert.Equal(t, 600.0, sale.TotalProfit)
	assert.Equal(t, 40.0, sale.ProfitMargin)

	p, err := fs.GetProduct(context.Background(), scope, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, p.StockQuantity)
}

func TestRecordSaleRejectsInvalidQuantity(t *testing.T) {
	fs, sales := newSalesFixture()
	scope := store.Scope{TenantID: "t1"}
	product := fs.addProduct(models.Product{SellingPrice: 500, StockQuantity: 10})

	for _, qty := range []int{0, -1} {
		_, err := sales.RecordSale(context.Background(), scope, &RecordSaleRequest{
			ProductID:     product.ID,
			QuantitySold:  qty,
			PaymentStatus: "Paid",
		})
		assert.ErrorIs(t, err, ErrInvalidQuantity, "quantity %d", qty)
	}

	p, _ := fs.GetProduct(context.Background(), scope, product.ID)
	assert.Equal(t, 10, p.StockQuantity)
}

func TestRecordSaleRejectsInsufficientStock(t *testing.T) {
	fs, sales := newSalesFixture()
	scope := store.Scope{TenantID: "t1"}
	product := fs.addProduct(models.Product{SellingPrice: 500, StockQuantity: 2})

	_, err := sales.RecordSale(context.Background(), scope, &RecordSaleRequest{
		ProductID:     product.ID,
		QuantitySold:  3,
		PaymentStatus: "Paid",
	})

	assert.ErrorIs(t, err, ErrInsufficientStock)

	// Rejection happens before any write.
	listed, _ := fs.ListSales(context.Background(), scope)
	assert.Empty(t, listed)
	p, _ := fs.GetProduct(context.Background(), scope, product.ID)
	assert.Equal(t, 2, p.StockQuantity)
}

func TestRecordSaleExactStockAllowed(t *testing.T) {
	fs, sales := newSalesFixture()
	scope := store.Scope{TenantID: "t1"}
	product := fs.addProduct(models.Product{SellingPrice: 500, StockQuantity: 3})

	_, err := sales.RecordSale(context.Background(), scope, &RecordSaleRequest{
		ProductID:     product.ID,
		QuantitySold:  3,
		PaymentStatus: "Unpaid",
	})

	require.NoError(t, err)
	p, _ := fs.GetProduct(context.Background(), scope, product.ID)
	assert.Equal(t, 0, p.StockQuantity)
}

func TestRecordSaleRejectsDeletedProduct(t *testing.T) {
	fs, sales := newSalesFixture()
	scope := store.Scope{TenantID: "t1"}
	product := fs.addProduct(models.Product{SellingPrice: 500, StockQuantity: 10, IsDeleted: true})

	_, err := sales.RecordSale(context.Background(), scope, &RecordSaleRequest{
		ProductID:     product.ID,
		QuantitySold:  1,
		PaymentStatus: "Paid",
	})

	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRecordSalePartialPayment(t *testing.T) {
	fs, sales := newSalesFixture()
	scope := store.Scope{TenantID: "t1"}
	product := fs.addProduct(models.Product{SellingPrice: 500, StockQuantity: 10})

	sale, err := sales.RecordSale(context.Background(), scope, &RecordSaleRequest{
		ProductID:     product.ID,
		QuantitySold:  2,
		PaymentStatus: "partial",
		AmountPaid:    400,
		CustomerName:  "Alice",
	})

	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPartial, sale.PaymentStatus)
	assert.Equal(t, 400.0, sale.AmountPaid)
	assert.Equal(t, 600.0, sale.AmountDue)
	require.NotNil(t, sale.CustomerID)

	// The auto-created customer now owes the balance.
	customers, _ := fs.ListCustomers(context.Background(), scope)
	require.Len(t, customers, 1)
	listed, _ := fs.ListSales(context.Background(), scope)
	assert.Equal(t, 600.0, CustomerBalance(*sale.CustomerID, listed))
}

func TestRecordSaleAnonymousWalkIn(t *testing.T) {
	fs, sales := newSalesFixture()
	scope := store.Scope{TenantID: "t1"}
	product := fs.addProduct(models.Product{SellingPrice: 500, StockQuantity: 10})

	sale, err := sales.RecordSale(context.Background(), scope, &RecordSaleRequest{
		ProductID:     product.ID,
		QuantitySold:  1,
		PaymentStatus: "Paid",
	})

	require.NoError(t, err)
	assert.Nil(t, sale.CustomerID)
	customers, _ := fs.ListCustomers(context.Background(), scope)
	assert.Empty(t, customers)
}

func TestDeleteSaleRestoresStock(t *testing.T) {
	fs, sales := newSalesFixture()
	scope := store.Scope{TenantID: "t1"}
	product := fs.addProduct(models.Product{SellingPrice: 500, StockQuantity: 10})

	sale, err := sales.RecordSale(context.Background(), scope, &RecordSaleRequest{
		ProductID:     product.ID,
		QuantitySold:  4,
		PaymentStatus: "Paid",
	})
	require.NoError(t, err)

	require.NoError(t, sales.DeleteSale(context.Background(), scope, sale.ID))

	p, _ := fs.GetProduct(context.Background(), scope, product.ID)
	assert.Equal(t, 10, p.StockQuantity)

	listed, _ := fs.ListSales(context.Background(), scope)
	assert.Empty(t, listed)
}

func TestUndoDeleteSaleRededucts(t *testing.T) {
	fs, sales := newSalesFixture()
	scope := store.Scope{TenantID: "t1"}
	product := fs.addProduct(models.Product{SellingPrice: 500, StockQuantity: 10})

	sale, err := sales.RecordSale(context.Background(), scope, &RecordSaleRequest{
		ProductID:     product.ID,
		QuantitySold:  4,
		PaymentStatus: "Paid",
	})
	require.NoError(t, err)

	require.NoError(t, sales.DeleteSale(context.Background(), scope, sale.ID))
	require.NoError(t, sales.UndoDeleteSale(context.Background(), scope, sale.ID))

	p, _ := fs.GetProduct(context.Background(), scope, product.ID)
	assert.Equal(t, 6, p.StockQuantity)

	listed, _ := fs.ListSales(context.Background(), scope)
	assert.Len(t, listed, 1)
}

func TestDeleteSaleToleratesMissingProduct(t *testing.T) {
	fs, sales := newSalesFixture()
	scope := store.Scope{TenantID: "t1"}

	// Sale references a product that no longer exists.
	sale := fs.addSale(models.Sale{ProductID: "gone", QuantitySold: 2, TotalAmount: 1000})

	err := sales.DeleteSale(context.Background(), scope, sale.ID)

	require.NoError(t, err)
	listed, _ := fs.ListSales(context.Background(), scope)
	assert.Empty(t, listed)
}
