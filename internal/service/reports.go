package service

import (
	"context"
	"fmt"
	"time"

	"ledger-service/internal/models"
	"ledger-service/internal/store"
	"ledger-service/internal/util"

	"go.uber.org/zap"
)

// ReportStore is the persistence surface the dashboard needs.
type ReportStore interface {
	ListProducts(ctx context.Context, scope store.Scope) ([]models.Product, error)
	ListSales(ctx context.Context, scope store.Scope) ([]models.Sale, error)
	ListExpenses(ctx context.Context, scope store.Scope) ([]models.Expense, error)
	ListCustomers(ctx context.Context, scope store.Scope) ([]models.Customer, error)
}

// PeriodTotals aggregates money movement over one reporting window.
type PeriodTotals struct {
	Sales    float64 `json:"sales"`
	Expenses float64 `json:"expenses"`
	Net      float64 `json:"net"`
}

// StockAlert is a low or out-of-stock product on the dashboard.
type StockAlert struct {
	ProductID         string `json:"productId"`
	ProductName       string `json:"productName"`
	StockQuantity     int    `json:"stockQuantity"`
	MinimumStockLevel int    `json:"minimumStockLevel"`
}

// ProductVelocity classifies how fast a product has been moving.
type ProductVelocity struct {
	ProductID   string `json:"productId"`
	ProductName string `json:"productName"`
	UnitsSold   int    `json:"unitsSold"`
	Velocity    string `json:"velocity"`
}

// Dashboard is the aggregate business view, recomputed on every read.
type Dashboard struct {
	Today          PeriodTotals      `json:"today"`
	Week           PeriodTotals      `json:"week"`
	Month          PeriodTotals      `json:"month"`
	DebtTotal      float64           `json:"debtTotal"`
	OwingCustomers int               `json:"owingCustomers"`
	OutOfStock     []StockAlert      `json:"outOfStock"`
	LowStock       []StockAlert      `json:"lowStock"`
	Velocities     []ProductVelocity `json:"velocities"`
}

// Up to this many entries per stock shortlist.
const stockShortlistLimit = 5

// Units sold over the velocity window to qualify as FAST / STEADY.
const (
	velocityWindowDays  = 30
	velocityFastUnits   = 30
	velocitySteadyUnits = 5
)

// ReportService computes the dashboard aggregates from live records.
type ReportService struct {
	store  ReportStore
	logger *zap.Logger
	now    func() time.Time
}

// NewReportService creates a new report service
func NewReportService(store ReportStore) *ReportService {
	return &ReportService{
		store:  store,
		logger: util.GetLogger(),
		now:    time.Now,
	}
}

// startOfDay truncates t to midnight in its location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// startOfWeek returns the preceding Monday midnight. Sunday counts as
// the last day of the week, not the first.
func startOfWeek(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7
	return day.AddDate(0, 0, -offset)
}

// startOfMonth returns the first of the month, midnight.
func startOfMonth(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}

// VelocityClass maps units moved in the window onto a velocity label.
func VelocityClass(unitsSold int) string {
	switch {
	case unitsSold >= velocityFastUnits:
		return models.VelocityFast
	case unitsSold >= velocitySteadyUnits:
		return models.VelocitySteady
	default:
		return models.VelocitySlow
	}
}

// Dashboard recomputes the full aggregate view from live records. No
// totals are cached anywhere; four list reads and arithmetic.
func (rs *ReportService) Dashboard(ctx context.Context, scope store.Scope) (*Dashboard, error) {
	ctx, span := util.StartSpan(ctx, "ReportService.Dashboard")
	defer span.End()

	products, err := rs.store.ListProducts(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	sales, err := rs.store.ListSales(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list sales: %w", err)
	}
	expenses, err := rs.store.ListExpenses(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	customers, err := rs.store.ListCustomers(ctx, scope)
	if err != nil {
		return nil, fmt.Errorf("failed to list customers: %w", err)
	}

	now := rs.now()
	dayStart := startOfDay(now)
	weekStart := startOfWeek(now)
	monthStart := startOfMonth(now)
	velocityStart := now.AddDate(0, 0, -velocityWindowDays)

	d := &Dashboard{
		OutOfStock: []StockAlert{},
		LowStock:   []StockAlert{},
		Velocities: []ProductVelocity{},
	}

	unitsByProduct := make(map[string]int)
	for i := range sales {
		s := &sales[i]
		if !s.CreatedAt.Before(dayStart) {
			d.Today.Sales += s.TotalAmount
		}
		if !s.CreatedAt.Before(weekStart) {
			d.Week.Sales += s.TotalAmount
		}
		if !s.CreatedAt.Before(monthStart) {
			d.Month.Sales += s.TotalAmount
		}
		if !s.CreatedAt.Before(velocityStart) {
			unitsByProduct[s.ProductID] += s.QuantitySold
		}
		d.DebtTotal += s.AmountDue
	}

	for i := range expenses {
		e := &expenses[i]
		if !e.CreatedAt.Before(dayStart) {
			d.Today.Expenses += e.Amount
		}
		if !e.CreatedAt.Before(weekStart) {
			d.Week.Expenses += e.Amount
		}
		if !e.CreatedAt.Before(monthStart) {
			d.Month.Expenses += e.Amount
		}
	}

	d.Today.Net = d.Today.Sales - d.Today.Expenses
	d.Week.Net = d.Week.Sales - d.Week.Expenses
	d.Month.Net = d.Month.Sales - d.Month.Expenses

	for i := range customers {
		if CustomerBalance(customers[i].ID, sales) > 0 {
			d.OwingCustomers++
		}
	}

	for i := range products {
		p := &products[i]
		alert := StockAlert{
			ProductID:         p.ID,
			ProductName:       p.ProductName,
			StockQuantity:     p.StockQuantity,
			MinimumStockLevel: p.MinimumStockLevel,
		}
		switch {
		case p.StockQuantity <= 0:
			if len(d.OutOfStock) < stockShortlistLimit {
				d.OutOfStock = append(d.OutOfStock, alert)
			}
		case p.StockQuantity <= p.MinimumStockLevel:
			if len(d.LowStock) < stockShortlistLimit {
				d.LowStock = append(d.LowStock, alert)
			}
		}

		units := unitsByProduct[p.ID]
		d.Velocities = append(d.Velocities, ProductVelocity{
			ProductID:   p.ID,
			ProductName: p.ProductName,
			UnitsSold:   units,
			Velocity:    VelocityClass(units),
		})
	}

	rs.logger.Debug("Dashboard computed",
		zap.String("tenant_id", scope.TenantID),
		zap.Int("sales", len(sales)),
		zap.Int("products", len(products)))
	return d, nil
}
