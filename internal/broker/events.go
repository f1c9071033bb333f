package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"ledger-service/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing ledger domain events
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishLedgerChanged publishes a LedgerChanged event
func (ep *EventPublisher) PublishLedgerChanged(ctx context.Context, event *models.LedgerChangedEvent) error {
	key := fmt.Sprintf("%s-%s", event.Collection, event.RecordID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishSaleRecorded publishes a SaleRecorded event
func (ep *EventPublisher) PublishSaleRecorded(ctx context.Context, event *models.SaleRecordedEvent) error {
	key := fmt.Sprintf("sale-%s", event.SaleID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishPaymentApplied publishes a PaymentApplied event
func (ep *EventPublisher) PublishPaymentApplied(ctx context.Context, event *models.PaymentAppliedEvent) error {
	key := fmt.Sprintf("sale-%s", event.SaleID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming ledger events to registered callbacks
type EventHandler struct {
	onLedgerChanged func(context.Context, *models.LedgerChangedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnLedgerChanged registers a handler for LedgerChanged events
func (eh *EventHandler) OnLedgerChanged(handler func(context.Context, *models.LedgerChangedEvent) error) {
	eh.onLedgerChanged = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeLedgerChanged:
		if eh.onLedgerChanged != nil {
			var event models.LedgerChangedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal LedgerChanged event: %w", err)
			}
			return eh.onLedgerChanged(ctx, &event)
		}

	case models.EventTypeSaleRecorded, models.EventTypePaymentApplied:
		// Informational for downstream consumers; the snapshot worker
		// only reacts to collection changes.

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
