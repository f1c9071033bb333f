package models

import "time"

// Event types
const (
	EventTypeLedgerChanged  = "LEDGER_CHANGED"
	EventTypeSaleRecorded   = "SALE_RECORDED"
	EventTypePaymentApplied = "PAYMENT_APPLIED"
)

// Change actions carried by LedgerChangedEvent
const (
	ChangeActionCreated  = "CREATED"
	ChangeActionUpdated  = "UPDATED"
	ChangeActionDeleted  = "DELETED"
	ChangeActionRestored = "RESTORED"
)

// BaseEvent contains common fields for all events
type BaseEvent struct {
	EventID   string    `json:"event_id"`
	EventType string    `json:"event_type"`
	Timestamp time.Time `json:"timestamp"`
}

// LedgerChangedEvent is published on every write to a ledger collection.
// Consumers rebuild the full collection snapshot on delivery rather than
// applying diffs, so multiple writes may coalesce into one refresh.
type LedgerChangedEvent struct {
	BaseEvent
	TenantID   string `json:"tenant_id"`
	Collection string `json:"collection"`
	RecordID   string `json:"record_id"`
	Action     string `json:"action"`
	TestMode   bool   `json:"test_mode"`
}

// SaleRecordedEvent is published after a sale and its stock deduction
// have both been written.
type SaleRecordedEvent struct {
	BaseEvent
	TenantID      string  `json:"tenant_id"`
	SaleID        string  `json:"sale_id"`
	ProductID     string  `json:"product_id"`
	QuantitySold  int     `json:"quantity_sold"`
	TotalAmount   float64 `json:"total_amount"`
	PaymentStatus string  `json:"payment_status"`
	TestMode      bool    `json:"test_mode"`
}

// PaymentAppliedEvent is published after a payment has been applied to a
// sale, whatever flow it originated from.
type PaymentAppliedEvent struct {
	BaseEvent
	TenantID  string  `json:"tenant_id"`
	SaleID    string  `json:"sale_id"`
	Amount    float64 `json:"amount"`
	NewStatus string  `json:"new_status"`
	AmountDue float64 `json:"amount_due"`
	TestMode  bool    `json:"test_mode"`
}
