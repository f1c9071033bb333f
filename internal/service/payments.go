package service

import (
	"context"
	"fmt"
	"strings"

	"ledger-service/internal/models"
	"ledger-service/internal/store"
	"ledger-service/internal/util"

	"go.uber.org/zap"
)

// ComputeSalePayment splits a sale total into amountPaid/amountDue for
// the chosen payment status. Partial requires an amount strictly
// between zero and the total. The invariant amountPaid + amountDue ==
// totalAmount holds for every non-error return.
func ComputeSalePayment(totalAmount float64, status string, amountPaidInput float64) (amountPaid, amountDue float64, err error) {
	switch status {
	case models.PaymentStatusPaid:
		return totalAmount, 0, nil
	case models.PaymentStatusUnpaid:
		return 0, totalAmount, nil
	case models.PaymentStatusPartial:
		if amountPaidInput <= 0 || amountPaidInput >= totalAmount {
			return 0, 0, ErrInvalidPartialAmount
		}
		return amountPaidInput, totalAmount - amountPaidInput, nil
	default:
		return 0, 0, fmt.Errorf("unknown payment status: %q", status)
	}
}

// ApplySalePayment applies a payment to a copy of the sale and returns
// it. Every payment flow funnels through here so rounding and edge
// cases cannot diverge between entry points.
func ApplySalePayment(sale models.Sale, amount float64) (models.Sale, error) {
	if amount <= 0 || amount > sale.AmountDue {
		return sale, ErrOverpayment
	}

	sale.AmountPaid += amount
	sale.AmountDue = sale.TotalAmount - sale.AmountPaid
	if sale.AmountDue <= 0 {
		sale.AmountDue = 0
		sale.PaymentStatus = models.PaymentStatusPaid
	} else {
		sale.PaymentStatus = models.PaymentStatusPartial
	}
	return sale, nil
}

// CustomerBalance sums amountDue over the customer's sales. The input
// is expected to be live (non-deleted) records; soft-deleted sales are
// skipped defensively in case a caller passes an unfiltered dump.
func CustomerBalance(customerID string, sales []models.Sale) float64 {
	var balance float64
	for i := range sales {
		if sales[i].IsDeleted || sales[i].CustomerID == nil || *sales[i].CustomerID != customerID {
			continue
		}
		balance += sales[i].AmountDue
	}
	return balance
}

// CustomerDebtStatus derives the customer's debt status from scratch:
// CLEAR when nothing is owed, PARTIAL when any outstanding sale has a
// payment on it, OWING otherwise. Nothing is cached on the customer.
func CustomerDebtStatus(customerID string, sales []models.Sale) string {
	balance := CustomerBalance(customerID, sales)
	if balance <= 0 {
		return models.DebtStatusClear
	}
	for i := range sales {
		s := &sales[i]
		if s.IsDeleted || s.CustomerID == nil || *s.CustomerID != customerID {
			continue
		}
		if s.AmountDue > 0 && s.AmountPaid > 0 {
			return models.DebtStatusPartial
		}
	}
	return models.DebtStatusOwing
}

// PaymentStore is the persistence surface payment reconciliation needs.
type PaymentStore interface {
	GetSale(ctx context.Context, scope store.Scope, id string) (*models.Sale, error)
	UpdateSalePayment(ctx context.Context, scope store.Scope, id string, amountPaid, amountDue float64, status string) error
	ListSalesByCustomer(ctx context.Context, scope store.Scope, customerID string) ([]models.Sale, error)
}

// PaymentService applies payments to sales and aggregates per-customer
// balances.
type PaymentService struct {
	store     PaymentStore
	publisher Publisher
	logger    *zap.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(store PaymentStore, publisher Publisher) *PaymentService {
	return &PaymentService{
		store:     store,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// ApplyPayment validates and persists a payment against a sale. Used by
// both the record-payment action and the customer quick-payment flow.
func (ps *PaymentService) ApplyPayment(ctx context.Context, scope store.Scope, saleID string, amount float64) (*models.Sale, error) {
	ctx, span := util.StartSpan(ctx, "PaymentService.ApplyPayment")
	defer span.End()

	sale, err := ps.store.GetSale(ctx, scope, saleID)
	if err != nil {
		util.PaymentsRejectedTotal.WithLabelValues("not_found").Inc()
		return nil, err
	}
	if sale.IsDeleted {
		util.PaymentsRejectedTotal.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("sale %s: %w", saleID, store.ErrNotFound)
	}

	updated, err := ApplySalePayment(*sale, amount)
	if err != nil {
		util.PaymentsRejectedTotal.WithLabelValues("overpayment").Inc()
		return nil, err
	}

	if err := ps.store.UpdateSalePayment(ctx, scope, saleID,
		updated.AmountPaid, updated.AmountDue, updated.PaymentStatus); err != nil {
		util.PaymentsRejectedTotal.WithLabelValues("store_write").Inc()
		return nil, fmt.Errorf("failed to persist payment: %w", err)
	}

	util.PaymentsAppliedTotal.Inc()
	ps.logger.Info("Payment applied",
		zap.String("sale_id", saleID),
		zap.Float64("amount", amount),
		zap.String("new_status", updated.PaymentStatus))

	if ps.publisher != nil {
		event := &models.PaymentAppliedEvent{
			BaseEvent: newBaseEvent(models.EventTypePaymentApplied),
			TenantID:  scope.TenantID,
			SaleID:    saleID,
			Amount:    amount,
			NewStatus: updated.PaymentStatus,
			AmountDue: updated.AmountDue,
			TestMode:  scope.TestMode,
		}
		if err := ps.publisher.PublishPaymentApplied(ctx, event); err != nil {
			ps.logger.Error("Failed to publish PaymentApplied event", zap.Error(err))
		}
	}
	publishChange(ctx, ps.publisher, ps.logger, scope, models.CollectionSales, saleID, models.ChangeActionUpdated)

	return &updated, nil
}

// QuickPayment applies a payment from the customer view. The sale must
// belong to the customer; the payment itself goes through the same
// funnel as the sale-level flow.
func (ps *PaymentService) QuickPayment(ctx context.Context, scope store.Scope, customerID, saleID string, amount float64) (*models.Sale, error) {
	sale, err := ps.store.GetSale(ctx, scope, saleID)
	if err != nil {
		util.PaymentsRejectedTotal.WithLabelValues("not_found").Inc()
		return nil, err
	}
	if sale.CustomerID == nil || *sale.CustomerID != customerID {
		util.PaymentsRejectedTotal.WithLabelValues("not_found").Inc()
		return nil, fmt.Errorf("sale %s for customer %s: %w", saleID, customerID, store.ErrNotFound)
	}
	return ps.ApplyPayment(ctx, scope, saleID, amount)
}

// CustomerBalanceFor recomputes a customer's balance and debt status
// from their live sales.
func (ps *PaymentService) CustomerBalanceFor(ctx context.Context, scope store.Scope, customerID string) (float64, string, error) {
	sales, err := ps.store.ListSalesByCustomer(ctx, scope, customerID)
	if err != nil {
		return 0, "", fmt.Errorf("failed to list customer sales: %w", err)
	}
	return CustomerBalance(customerID, sales), CustomerDebtStatus(customerID, sales), nil
}

// normalizeStatus folds user input casing onto the canonical status
// constants so "paid" and "Paid" behave the same at the API boundary.
func normalizeStatus(status string) string {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "paid":
		return models.PaymentStatusPaid
	case "partial":
		return models.PaymentStatusPartial
	case "unpaid":
		return models.PaymentStatusUnpaid
	default:
		return status
	}
}
