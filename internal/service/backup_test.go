package service

import (
	"context"
	"encoding/json"
	"testing"

	"ledger-service/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeBackupStore records what a restore would write.
type fakeBackupStore struct {
	products  []models.Product
	sales     []models.Sale
	customers []models.Customer
	expenses  []models.Expense

	restored     bool
	cleared      bool
	restoredRows RestoreCounts
}

func (f *fakeBackupStore) DumpProducts(ctx context.Context, tenantID, table string) ([]models.Product, error) {
	if table == "products" {
		return f.products, nil
	}
	return nil, nil
}

func (f *fakeBackupStore) DumpSales(ctx context.Context, tenantID, table string) ([]models.Sale, error) {
	if table == "sales" {
		return f.sales, nil
	}
	return nil, nil
}

func (f *fakeBackupStore) DumpExpenses(ctx context.Context, tenantID, table string) ([]models.Expense, error) {
	if table == "expenses" {
		return f.expenses, nil
	}
	return nil, nil
}

func (f *fakeBackupStore) DumpCustomers(ctx context.Context, tenantID string) ([]models.Customer, error) {
	return f.customers, nil
}

func (f *fakeBackupStore) ReplaceLedger(ctx context.Context, tenantID string,
	products []models.Product, sales []models.Sale,
	customers []models.Customer, expenses []models.Expense,
	testProducts []models.Product, testSales []models.Sale, testExpenses []models.Expense) error {
	f.restored = true
	f.restoredRows = RestoreCounts{
		Products:  len(products),
		Sales:     len(sales),
		Customers: len(customers),
		Expenses:  len(expenses),
	}
	return nil
}

func (f *fakeBackupStore) ClearTestData(ctx context.Context, tenantID string) error {
	f.cleared = true
	return nil
}

func validBackupJSON(t *testing.T) []byte {
	t.Helper()
	file := BackupFile{
		Metadata: BackupMetadata{ExportVersion: "1.0", App: "ledger-service"},
		Data: BackupData{
			Products:  []models.Product{{ID: "p1", ProductName: "Sugar"}},
			Sales:     []models.Sale{{ID: "s1", ProductID: "p1", TotalAmount: 500}},
			Customers: []models.Customer{{ID: "c1", Name: "Alice"}},
			Expenses:  []models.Expense{{ID: "e1", Category: "Transport", Amount: 100}},
		},
	}
	raw, err := json.Marshal(file)
	require.NoError(t, err)
	return raw
}

func TestValidateBackupAccepts(t *testing.T) {
	assert.NoError(t, ValidateBackup(validBackupJSON(t)))
}

func TestValidateBackupAcceptsEmptyCollections(t *testing.T) {
	raw := []byte(`{"metadata":{},"data":{"products":[],"sales":[],"customers":[],"expenses":[]}}`)
	assert.NoError(t, ValidateBackup(raw))
}

func TestValidateBackupRejectsGarbage(t *testing.T) {
	assert.ErrorIs(t, ValidateBackup([]byte("not json")), ErrInvalidBackup)
	assert.ErrorIs(t, ValidateBackup([]byte(`[1,2,3]`)), ErrInvalidBackup)
}

func TestValidateBackupRejectsMissingSection(t *testing.T) {
	assert.ErrorIs(t, ValidateBackup([]byte(`{"metadata":{}}`)), ErrInvalidBackup)
}

func TestValidateBackupRejectsMissingCollection(t *testing.T) {
	raw := []byte(`{"data":{"products":[],"sales":[],"customers":[]}}`)
	assert.ErrorIs(t, ValidateBackup(raw), ErrInvalidBackup)
}

func TestValidateBackupRejectsNonArrayCollection(t *testing.T) {
	raw := []byte(`{"data":{"products":{},"sales":[],"customers":[],"expenses":[]}}`)
	assert.ErrorIs(t, ValidateBackup(raw), ErrInvalidBackup)
}

func TestValidateBackupRejectsRowsWithoutID(t *testing.T) {
	raw := []byte(`{"data":{"products":[{"productName":"Sugar"}],"sales":[],"customers":[],"expenses":[]}}`)
	assert.ErrorIs(t, ValidateBackup(raw), ErrInvalidBackup)
}

func TestRestoreReplacesLedger(t *testing.T) {
	fs := &fakeBackupStore{}
	bs := NewBackupService(fs, nil)

	counts, err := bs.Restore(context.Background(), "t1", validBackupJSON(t))

	require.NoError(t, err)
	assert.True(t, fs.restored)
	assert.Equal(t, RestoreCounts{Products: 1, Sales: 1, Customers: 1, Expenses: 1}, *counts)
	assert.Equal(t, fs.restoredRows, *counts)
}

func TestRestoreRejectsInvalidFileBeforeWriting(t *testing.T) {
	fs := &fakeBackupStore{}
	bs := NewBackupService(fs, nil)

	_, err := bs.Restore(context.Background(), "t1", []byte(`{"data":{}}`))

	assert.ErrorIs(t, err, ErrInvalidBackup)
	assert.False(t, fs.restored)
}

func TestExportRoundTripsThroughRestore(t *testing.T) {
	fs := &fakeBackupStore{
		products:  []models.Product{{ID: "p1", ProductName: "Sugar"}},
		sales:     []models.Sale{{ID: "s1", ProductID: "p1"}},
		customers: []models.Customer{{ID: "c1", Name: "Alice"}},
		expenses:  []models.Expense{{ID: "e1", Category: "Rent"}},
	}
	bs := NewBackupService(fs, nil)

	file, err := bs.Export(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, "1.0", file.Metadata.ExportVersion)
	assert.False(t, file.Metadata.ExportedAt.IsZero())

	raw, err := json.Marshal(file)
	require.NoError(t, err)

	counts, err := bs.Restore(context.Background(), "t1", raw)
	require.NoError(t, err)
	assert.Equal(t, RestoreCounts{Products: 1, Sales: 1, Customers: 1, Expenses: 1}, *counts)
}

func TestClearTestData(t *testing.T) {
	fs := &fakeBackupStore{}
	bs := NewBackupService(fs, nil)

	require.NoError(t, bs.ClearTestData(context.Background(), "t1"))
	assert.True(t, fs.cleared)
}
