package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ledger-service/internal/models"
	"ledger-service/internal/util"

	"go.uber.org/zap"
)

// BackupStore is the persistence surface export/restore needs.
type BackupStore interface {
	DumpProducts(ctx context.Context, tenantID, table string) ([]models.Product, error)
	DumpSales(ctx context.Context, tenantID, table string) ([]models.Sale, error)
	DumpExpenses(ctx context.Context, tenantID, table string) ([]models.Expense, error)
	DumpCustomers(ctx context.Context, tenantID string) ([]models.Customer, error)
	ReplaceLedger(ctx context.Context, tenantID string,
		products []models.Product, sales []models.Sale,
		customers []models.Customer, expenses []models.Expense,
		testProducts []models.Product, testSales []models.Sale, testExpenses []models.Expense) error
	ClearTestData(ctx context.Context, tenantID string) error
}

// BackupMetadata describes a backup file.
type BackupMetadata struct {
	ExportVersion string    `json:"exportVersion"`
	ExportedAt    time.Time `json:"exportedAt"`
	App           string    `json:"app"`
}

// BackupData holds every collection of a tenant, both modes. There is
// no test_customers key: customers are shared between modes.
type BackupData struct {
	Products     []models.Product  `json:"products"`
	Sales        []models.Sale     `json:"sales"`
	Customers    []models.Customer `json:"customers"`
	Expenses     []models.Expense  `json:"expenses"`
	TestProducts []models.Product  `json:"test_products"`
	TestSales    []models.Sale     `json:"test_sales"`
	TestExpenses []models.Expense  `json:"test_expenses"`
}

// BackupFile is the export format.
type BackupFile struct {
	Metadata BackupMetadata `json:"metadata"`
	Data     BackupData     `json:"data"`
}

const (
	backupExportVersion = "1.0"
	backupAppName       = "ledger-service"
)

// RestoreCounts reports how many rows each collection received.
type RestoreCounts struct {
	Products  int `json:"products"`
	Sales     int `json:"sales"`
	Customers int `json:"customers"`
	Expenses  int `json:"expenses"`
}

// BackupService exports and restores whole-tenant snapshots.
type BackupService struct {
	store     BackupStore
	publisher Publisher
	logger    *zap.Logger
}

// NewBackupService creates a new backup service
func NewBackupService(store BackupStore, publisher Publisher) *BackupService {
	return &BackupService{
		store:     store,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// Export dumps every collection, soft-deleted rows included, into a
// single backup file.
func (bs *BackupService) Export(ctx context.Context, tenantID string) (*BackupFile, error) {
	ctx, span := util.StartSpan(ctx, "BackupService.Export")
	defer span.End()

	file := &BackupFile{
		Metadata: BackupMetadata{
			ExportVersion: backupExportVersion,
			ExportedAt:    time.Now().UTC(),
			App:           backupAppName,
		},
	}

	var err error
	if file.Data.Products, err = bs.store.DumpProducts(ctx, tenantID, "products"); err != nil {
		return nil, fmt.Errorf("failed to dump products: %w", err)
	}
	if file.Data.Sales, err = bs.store.DumpSales(ctx, tenantID, "sales"); err != nil {
		return nil, fmt.Errorf("failed to dump sales: %w", err)
	}
	if file.Data.Customers, err = bs.store.DumpCustomers(ctx, tenantID); err != nil {
		return nil, fmt.Errorf("failed to dump customers: %w", err)
	}
	if file.Data.Expenses, err = bs.store.DumpExpenses(ctx, tenantID, "expenses"); err != nil {
		return nil, fmt.Errorf("failed to dump expenses: %w", err)
	}
	if file.Data.TestProducts, err = bs.store.DumpProducts(ctx, tenantID, "test_products"); err != nil {
		return nil, fmt.Errorf("failed to dump test products: %w", err)
	}
	if file.Data.TestSales, err = bs.store.DumpSales(ctx, tenantID, "test_sales"); err != nil {
		return nil, fmt.Errorf("failed to dump test sales: %w", err)
	}
	if file.Data.TestExpenses, err = bs.store.DumpExpenses(ctx, tenantID, "test_expenses"); err != nil {
		return nil, fmt.Errorf("failed to dump test expenses: %w", err)
	}

	util.BackupExportsTotal.Inc()
	bs.logger.Info("Backup exported",
		zap.String("tenant_id", tenantID),
		zap.Int("products", len(file.Data.Products)),
		zap.Int("sales", len(file.Data.Sales)),
		zap.Int("customers", len(file.Data.Customers)),
		zap.Int("expenses", len(file.Data.Expenses)))
	return file, nil
}

// backupEnvelope is the loosely-typed first parse of an uploaded file,
// used to validate its shape before committing to the typed decode.
type backupEnvelope struct {
	Metadata json.RawMessage            `json:"metadata"`
	Data     map[string]json.RawMessage `json:"data"`
}

// ValidateBackup checks a raw backup upload for structural sanity: the
// required collection keys must be present as arrays, and any non-empty
// array's first element must carry an id. Content beyond that is
// trusted; the restore is all-or-nothing anyway.
func ValidateBackup(raw []byte) error {
	var envelope backupEnvelope
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return fmt.Errorf("%w: not a JSON object: %v", ErrInvalidBackup, err)
	}
	if envelope.Data == nil {
		return fmt.Errorf("%w: missing data section", ErrInvalidBackup)
	}

	for _, key := range []string{"products", "sales", "customers", "expenses"} {
		raw, ok := envelope.Data[key]
		if !ok {
			return fmt.Errorf("%w: missing collection %q", ErrInvalidBackup, key)
		}

		var rows []map[string]json.RawMessage
		if err := json.Unmarshal(raw, &rows); err != nil {
			return fmt.Errorf("%w: collection %q is not an array", ErrInvalidBackup, key)
		}
		if len(rows) > 0 {
			if _, ok := rows[0]["id"]; !ok {
				return fmt.Errorf("%w: collection %q rows have no id", ErrInvalidBackup, key)
			}
		}
	}
	return nil
}

// Restore validates an uploaded backup and wholesale-replaces the
// tenant's ledger with its contents in one transaction.
func (bs *BackupService) Restore(ctx context.Context, tenantID string, raw []byte) (*RestoreCounts, error) {
	ctx, span := util.StartSpan(ctx, "BackupService.Restore")
	defer span.End()

	if err := ValidateBackup(raw); err != nil {
		util.BackupRestoresTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	var file BackupFile
	if err := json.Unmarshal(raw, &file); err != nil {
		util.BackupRestoresTotal.WithLabelValues("invalid").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidBackup, err)
	}

	err := bs.store.ReplaceLedger(ctx, tenantID,
		file.Data.Products, file.Data.Sales, file.Data.Customers, file.Data.Expenses,
		file.Data.TestProducts, file.Data.TestSales, file.Data.TestExpenses)
	if err != nil {
		util.BackupRestoresTotal.WithLabelValues("failed").Inc()
		return nil, fmt.Errorf("failed to restore ledger: %w", err)
	}

	util.BackupRestoresTotal.WithLabelValues("ok").Inc()
	counts := &RestoreCounts{
		Products:  len(file.Data.Products),
		Sales:     len(file.Data.Sales),
		Customers: len(file.Data.Customers),
		Expenses:  len(file.Data.Expenses),
	}
	bs.logger.Info("Backup restored",
		zap.String("tenant_id", tenantID),
		zap.Int("products", counts.Products),
		zap.Int("sales", counts.Sales),
		zap.Int("customers", counts.Customers),
		zap.Int("expenses", counts.Expenses))
	return counts, nil
}

// ClearTestData drops the tenant's test namespace.
func (bs *BackupService) ClearTestData(ctx context.Context, tenantID string) error {
	if err := bs.store.ClearTestData(ctx, tenantID); err != nil {
		return fmt.Errorf("failed to clear test data: %w", err)
	}
	bs.logger.Info("Test data cleared", zap.String("tenant_id", tenantID))
	return nil
}
