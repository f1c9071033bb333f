package models

import "time"

// Collection names. Test mode routes products, sales and expenses to
// shadow "test_" tables; customers are shared between modes.
const (
	CollectionProducts  = "products"
	CollectionSales     = "sales"
	CollectionExpenses  = "expenses"
	CollectionCustomers = "customers"
)

// Product is an inventory item. StockQuantity is only ever mutated by
// stock reconciliation, never written directly by handlers.
type Product struct {
	ID                string     `db:"id" json:"id"`
	TenantID          string     `db:"tenant_id" json:"-"`
	ProductName       string     `db:"product_name" json:"productName"`
	CostPrice         float64    `db:"cost_price" json:"costPrice"`
	SellingPrice      float64    `db:"selling_price" json:"sellingPrice"`
	StockQuantity     int        `db:"stock_quantity" json:"stockQuantity"`
	MinimumStockLevel int        `db:"minimum_stock_level" json:"minimumStockLevel"`
	SupplierName      string     `db:"supplier_name" json:"supplierName,omitempty"`
	CreatedAt         time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt         time.Time  `db:"updated_at" json:"updatedAt"`
	IsDeleted         bool       `db:"is_deleted" json:"isDeleted"`
	DeletedAt         *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
}

// Sale records a point-of-sale transaction. Price and cost are captured
// at sale time so later product edits do not rewrite history. ProductID
// may dangle if the product is deleted afterwards.
type Sale struct {
	ID                 string     `db:"id" json:"id"`
	TenantID           string     `db:"tenant_id" json:"-"`
	ProductID          string     `db:"product_id" json:"productId"`
	ProductName        string     `db:"product_name" json:"productName"`
	QuantitySold       int        `db:"quantity_sold" json:"quantitySold"`
	SellingPriceAtTime float64    `db:"selling_price_at_time" json:"sellingPriceAtTime"`
	TotalAmount        float64    `db:"total_amount" json:"totalAmount"`
	PaymentStatus      string     `db:"payment_status" json:"paymentStatus"`
	PaymentMode        string     `db:"payment_mode" json:"paymentMode"`
	CustomerID         *string    `db:"customer_id" json:"customerId"`
	CustomerName       string     `db:"customer_name" json:"customerName,omitempty"`
	AmountPaid         float64    `db:"amount_paid" json:"amountPaid"`
	AmountDue          float64    `db:"amount_due" json:"amountDue"`
	CostPrice          float64    `db:"cost_price" json:"costPrice"`
	ProfitPerUnit      float64    `db:"profit_per_unit" json:"profitPerUnit"`
	TotalProfit        float64    `db:"total_profit" json:"totalProfit"`
	ProfitMargin       float64    `db:"profit_margin" json:"profitMargin"`
	CreatedAt          time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time  `db:"updated_at" json:"updatedAt"`
	IsDeleted          bool       `db:"is_deleted" json:"isDeleted"`
	DeletedAt          *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
}

// Expense is a business cost entry. LinkedProductID is informational,
// there is no referential enforcement against products.
type Expense struct {
	ID              string     `db:"id" json:"id"`
	TenantID        string     `db:"tenant_id" json:"-"`
	Category        string     `db:"category" json:"category"`
	Amount          float64    `db:"amount" json:"amount"`
	PaymentMode     string     `db:"payment_mode" json:"paymentMode"`
	Notes           string     `db:"notes" json:"notes,omitempty"`
	LinkedProductID string     `db:"linked_product_id" json:"linkedProductId,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
	IsDeleted       bool       `db:"is_deleted" json:"isDeleted"`
	DeletedAt       *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
}

// Customer carries only identity fields. Balance and debt status are
// derived from live sales on every read, never stored.
type Customer struct {
	ID        string     `db:"id" json:"id"`
	TenantID  string     `db:"tenant_id" json:"-"`
	Name      string     `db:"name" json:"name"`
	Phone     string     `db:"phone" json:"phone,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time  `db:"updated_at" json:"updatedAt"`
	IsDeleted bool       `db:"is_deleted" json:"isDeleted"`
	DeletedAt *time.Time `db:"deleted_at" json:"deletedAt,omitempty"`
}

// Sale payment statuses
const (
	PaymentStatusPaid    = "Paid"
	PaymentStatusPartial = "Partial"
	PaymentStatusUnpaid  = "Unpaid"
)

// Derived customer debt statuses
const (
	DebtStatusClear   = "CLEAR"
	DebtStatusOwing   = "OWING"
	DebtStatusPartial = "PARTIAL"
)

// Product velocity classes, derived from recent sale rate
const (
	VelocityFast   = "FAST"
	VelocitySteady = "STEADY"
	VelocitySlow   = "SLOW"
)
