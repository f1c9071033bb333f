package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ledger-service/internal/models"
	"ledger-service/internal/store"
	"ledger-service/internal/util"

	"go.uber.org/zap"
)

// CustomerStore is the persistence surface identity resolution and the
// customer views need.
type CustomerStore interface {
	ListCustomers(ctx context.Context, scope store.Scope) ([]models.Customer, error)
	GetCustomer(ctx context.Context, scope store.Scope, id string) (*models.Customer, error)
	CreateCustomer(ctx context.Context, scope store.Scope, c *models.Customer) error
	UpdateCustomer(ctx context.Context, scope store.Scope, c *models.Customer) error
	ListSales(ctx context.Context, scope store.Scope) ([]models.Sale, error)
	ListSalesByCustomer(ctx context.Context, scope store.Scope, customerID string) ([]models.Sale, error)
}

// CustomerService resolves free-text customer input at sale time and
// serves the derived customer views.
type CustomerService struct {
	store       CustomerStore
	publisher   Publisher
	countryCode string
	logger      *zap.Logger
}

// NewCustomerService creates a new customer service
func NewCustomerService(store CustomerStore, publisher Publisher, countryCode string) *CustomerService {
	return &CustomerService{
		store:       store,
		publisher:   publisher,
		countryCode: countryCode,
		logger:      util.GetLogger(),
	}
}

// ResolveInput is the customer portion of a sale submission.
type ResolveInput struct {
	CustomerID string
	Name       string
	Phone      string
}

// Resolution is the outcome of identity resolution. An empty CustomerID
// means an anonymous walk-in sale.
type Resolution struct {
	CustomerID   string
	CustomerName string
	Created      bool
}

// MatchCustomer finds the first existing customer with the exact phone,
// falling back to a case-insensitive exact name match. Phone wins over
// name because it is the more reliable dedup key.
func MatchCustomer(name, phone string, existing []models.Customer) *models.Customer {
	if phone != "" {
		for i := range existing {
			if existing[i].Phone == phone {
				return &existing[i]
			}
		}
	}
	if name != "" {
		for i := range existing {
			if strings.EqualFold(existing[i].Name, name) {
				return &existing[i]
			}
		}
	}
	return nil
}

// Resolve implements the sale-time dedup precedence: explicit selection
// beats phone match beats name match beats create beats anonymous.
func (cs *CustomerService) Resolve(ctx context.Context, scope store.Scope, input ResolveInput) (*Resolution, error) {
	ctx, span := util.StartSpan(ctx, "CustomerService.Resolve")
	defer span.End()

	if input.CustomerID != "" {
		util.CustomersMatchedTotal.WithLabelValues("explicit").Inc()
		name := input.Name
		if name == "" {
			if existing, err := cs.store.GetCustomer(ctx, scope, input.CustomerID); err == nil {
				name = existing.Name
			}
		}
		return &Resolution{CustomerID: input.CustomerID, CustomerName: name}, nil
	}

	name := strings.TrimSpace(input.Name)
	phone := strings.TrimSpace(input.Phone)
	if name == "" && phone == "" {
		return &Resolution{}, nil
	}

	existing, err := cs.store.ListCustomers(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	if match := MatchCustomer(name, phone, existing); match != nil {
		key := "name"
		if phone != "" && match.Phone == phone {
			key = "phone"
		}
		util.CustomersMatchedTotal.WithLabelValues(key).Inc()
		return &Resolution{CustomerID: match.ID, CustomerName: match.Name}, nil
	}

	if name == "" {
		// Phone only with no match: the sale stays anonymous rather
		// than creating a nameless customer.
		return &Resolution{}, nil
	}

	customer := &models.Customer{Name: name, Phone: phone}
	if err := cs.store.CreateCustomer(ctx, scope, customer); err != nil {
		return nil, fmt.Errorf("failed to create customer: %w", err)
	}

	util.CustomersCreatedTotal.Inc()
	cs.logger.Info("Customer created during sale",
		zap.String("customer_id", customer.ID),
		zap.String("name", name))
	publishChange(ctx, cs.publisher, cs.logger, scope, models.CollectionCustomers, customer.ID, models.ChangeActionCreated)

	return &Resolution{CustomerID: customer.ID, CustomerName: name, Created: true}, nil
}

// DisplayPhone renders a local phone number with the configured country
// code for API responses. Matching always uses the raw stored value.
func (cs *CustomerService) DisplayPhone(phone string) string {
	if cs.countryCode != "" && len(phone) > 1 && strings.HasPrefix(phone, "0") {
		return cs.countryCode + phone[1:]
	}
	return phone
}

// CustomerSummary is a customer with the derived debt fields attached.
type CustomerSummary struct {
	models.Customer
	PhoneDisplay string     `json:"phoneDisplay,omitempty"`
	Balance      float64    `json:"balance"`
	Status       string     `json:"status"`
	LastPurchase *time.Time `json:"lastPurchase,omitempty"`
}

// ListWithStats returns all live customers with balance, debt status
// and last purchase time, highest balance first, then most recent.
func (cs *CustomerService) ListWithStats(ctx context.Context, scope store.Scope) ([]CustomerSummary, error) {
	customers, err := cs.store.ListCustomers(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}
	sales, err := cs.store.ListSales(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}

	summaries := make([]CustomerSummary, 0, len(customers))
	for i := range customers {
		c := customers[i]
		summary := CustomerSummary{
			Customer:     c,
			PhoneDisplay: cs.DisplayPhone(c.Phone),
			Balance:      CustomerBalance(c.ID, sales),
			Status:       CustomerDebtStatus(c.ID, sales),
		}
		for j := range sales {
			s := &sales[j]
			if s.CustomerID == nil || *s.CustomerID != c.ID {
				continue
			}
			if summary.LastPurchase == nil || s.CreatedAt.After(*summary.LastPurchase) {
				t := s.CreatedAt
				summary.LastPurchase = &t
			}
		}
		summaries = append(summaries, summary)
	}

	sortCustomerSummaries(summaries)
	return summaries, nil
}

func sortCustomerSummaries(summaries []CustomerSummary) {
	for i := 1; i < len(summaries); i++ {
		for j := i; j > 0 && summaryLess(summaries[j], summaries[j-1]); j-- {
			summaries[j], summaries[j-1] = summaries[j-1], summaries[j]
		}
	}
}

func summaryLess(a, b CustomerSummary) bool {
	if a.Balance != b.Balance {
		return a.Balance > b.Balance
	}
	at, bt := time.Time{}, time.Time{}
	if a.LastPurchase != nil {
		at = *a.LastPurchase
	}
	if b.LastPurchase != nil {
		bt = *b.LastPurchase
	}
	return at.After(bt)
}

// CustomerDetail is the per-customer view: identity, purchase history
// and aggregate totals.
type CustomerDetail struct {
	Customer       models.Customer `json:"customer"`
	PhoneDisplay   string          `json:"phoneDisplay,omitempty"`
	Sales          []models.Sale   `json:"sales"`
	TotalPurchases float64         `json:"totalPurchases"`
	TotalDebt      float64         `json:"totalDebt"`
	Status         string          `json:"status"`
}

// Detail loads a customer with their live sale history and totals.
func (cs *CustomerService) Detail(ctx context.Context, scope store.Scope, id string) (*CustomerDetail, error) {
	customer, err := cs.store.GetCustomer(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	sales, err := cs.store.ListSalesByCustomer(ctx, scope, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list customer sales: %w", err)
	}

	detail := &CustomerDetail{
		Customer:     *customer,
		PhoneDisplay: cs.DisplayPhone(customer.Phone),
		Sales:        sales,
		Status:       CustomerDebtStatus(id, sales),
	}
	for i := range sales {
		detail.TotalPurchases += sales[i].TotalAmount
		detail.TotalDebt += sales[i].AmountDue
	}
	return detail, nil
}

// CreateCustomerRequest creates a customer directly, outside a sale.
type CreateCustomerRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
}

// Create adds a customer record.
func (cs *CustomerService) Create(ctx context.Context, scope store.Scope, req *CreateCustomerRequest) (*models.Customer, error) {
	customer := &models.Customer{
		Name:  strings.TrimSpace(req.Name),
		Phone: strings.TrimSpace(req.Phone),
	}
	if err := cs.store.CreateCustomer(ctx, scope, customer); err != nil {
		return nil, err
	}
	publishChange(ctx, cs.publisher, cs.logger, scope, models.CollectionCustomers, customer.ID, models.ChangeActionCreated)
	return customer, nil
}

// Update patches a customer's identity fields.
func (cs *CustomerService) Update(ctx context.Context, scope store.Scope, id string, req *CreateCustomerRequest) (*models.Customer, error) {
	customer, err := cs.store.GetCustomer(ctx, scope, id)
	if err != nil {
		return nil, err
	}

	customer.Name = strings.TrimSpace(req.Name)
	customer.Phone = strings.TrimSpace(req.Phone)
	if err := cs.store.UpdateCustomer(ctx, scope, customer); err != nil {
		return nil, err
	}
	publishChange(ctx, cs.publisher, cs.logger, scope, models.CollectionCustomers, id, models.ChangeActionUpdated)
	return customer, nil
}
