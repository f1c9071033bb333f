package service

import (
	"context"

	"ledger-service/internal/models"
	"ledger-service/internal/store"
	"ledger-service/internal/util"

	"go.uber.org/zap"
)

// ExpenseStore is the persistence surface expense tracking needs.
type ExpenseStore interface {
	CreateExpense(ctx context.Context, scope store.Scope, e *models.Expense) error
	ListExpenses(ctx context.Context, scope store.Scope) ([]models.Expense, error)
	UpdateExpense(ctx context.Context, scope store.Scope, e *models.Expense) error
}

// ExpenseService manages expense entries. Expenses have no dependent
// state, so delete/undo carry no side effects beyond the flag.
type ExpenseService struct {
	store     ExpenseStore
	deletes   *DeleteCoordinator
	publisher Publisher
	logger    *zap.Logger
}

// NewExpenseService creates a new expense service
func NewExpenseService(store ExpenseStore, deletes *DeleteCoordinator, publisher Publisher) *ExpenseService {
	return &ExpenseService{
		store:     store,
		deletes:   deletes,
		publisher: publisher,
		logger:    util.GetLogger(),
	}
}

// ExpenseRequest is an expense submission, also used for updates.
type ExpenseRequest struct {
	Category        string  `json:"category" binding:"required"`
	Amount          float64 `json:"amount" binding:"required"`
	PaymentMode     string  `json:"paymentMode"`
	Notes           string  `json:"notes"`
	LinkedProductID string  `json:"linkedProductId"`
}

// Create records an expense.
func (es *ExpenseService) Create(ctx context.Context, scope store.Scope, req *ExpenseRequest) (*models.Expense, error) {
	expense := &models.Expense{
		Category:        req.Category,
		Amount:          req.Amount,
		PaymentMode:     req.PaymentMode,
		Notes:           req.Notes,
		LinkedProductID: req.LinkedProductID,
	}
	if err := es.store.CreateExpense(ctx, scope, expense); err != nil {
		return nil, err
	}

	es.logger.Info("Expense recorded",
		zap.String("expense_id", expense.ID),
		zap.String("category", expense.Category),
		zap.Float64("amount", expense.Amount))
	publishChange(ctx, es.publisher, es.logger, scope, models.CollectionExpenses, expense.ID, models.ChangeActionCreated)
	return expense, nil
}

// List returns live expenses, newest first.
func (es *ExpenseService) List(ctx context.Context, scope store.Scope) ([]models.Expense, error) {
	return es.store.ListExpenses(ctx, scope)
}

// Update patches an expense's fields.
func (es *ExpenseService) Update(ctx context.Context, scope store.Scope, id string, req *ExpenseRequest) (*models.Expense, error) {
	expense := &models.Expense{
		ID:              id,
		Category:        req.Category,
		Amount:          req.Amount,
		PaymentMode:     req.PaymentMode,
		Notes:           req.Notes,
		LinkedProductID: req.LinkedProductID,
	}
	if err := es.store.UpdateExpense(ctx, scope, expense); err != nil {
		return nil, err
	}
	publishChange(ctx, es.publisher, es.logger, scope, models.CollectionExpenses, id, models.ChangeActionUpdated)
	return expense, nil
}

// Delete soft-deletes an expense and opens the undo window.
func (es *ExpenseService) Delete(ctx context.Context, scope store.Scope, id string) error {
	return es.deletes.Delete(ctx, scope, models.CollectionExpenses, id, DeleteEffects{})
}

// UndoDelete reverts a pending expense deletion within the undo window.
func (es *ExpenseService) UndoDelete(ctx context.Context, scope store.Scope, id string) error {
	return es.deletes.Undo(ctx, scope, models.CollectionExpenses, id)
}
