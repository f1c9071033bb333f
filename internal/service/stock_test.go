package service

import (
	"context"
	"testing"

	"ledger-service/internal/models"
	"ledger-service/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeductFailsOnMissingProduct(t *testing.T) {
	fs := newFakeStore()
	ss := NewStockService(fs, nil, nil)

	err := ss.Deduct(context.Background(), store.Scope{TenantID: "t1"}, "missing", 2)

	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRestoreToleratesMissingProduct(t *testing.T) {
	fs := newFakeStore()
	ss := NewStockService(fs, nil, nil)

	err := ss.Restore(context.Background(), store.Scope{TenantID: "t1"}, "missing", 2)

	assert.NoError(t, err)
}

func TestRedeductCanDriveStockNegative(t *testing.T) {
	fs := newFakeStore()
	scope := store.Scope{TenantID: "t1"}
	product := fs.addProduct(models.Product{ProductName: "Sugar", StockQuantity: 1})

	ss := NewStockService(fs, nil, nil)

	// Undoing a 4-unit sale deletion after stock was edited down to 1.
	require.NoError(t, ss.Rededuct(context.Background(), scope, product.ID, 4))

	p, err := fs.GetProduct(context.Background(), scope, product.ID)
	require.NoError(t, err)
	assert.Equal(t, -3, p.StockQuantity)
}

func TestMirrorSaysInsufficientWithoutRedis(t *testing.T) {
	ss := NewStockService(newFakeStore(), nil, nil)

	// No mirror configured: never short-circuit, defer to the database.
	assert.False(t, ss.MirrorSaysInsufficient(context.Background(), store.Scope{TenantID: "t1"}, "p1", 100))
}

func TestDeductThenRestoreRoundTrips(t *testing.T) {
	fs := newFakeStore()
	scope := store.Scope{TenantID: "t1"}
	product := fs.addProduct(models.Product{ProductName: "Sugar", StockQuantity: 10})

	ss := NewStockService(fs, nil, nil)

	require.NoError(t, ss.Deduct(context.Background(), scope, product.ID, 6))
	p, _ := fs.GetProduct(context.Background(), scope, product.ID)
	assert.Equal(t, 4, p.StockQuantity)

	require.NoError(t, ss.Restore(context.Background(), scope, product.ID, 6))
	p, _ = fs.GetProduct(context.Background(), scope, product.ID)
	assert.Equal(t, 10, p.StockQuantity)
}
