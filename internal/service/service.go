package service

import (
	"context"
	"time"

	"ledger-service/internal/models"
	"ledger-service/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Publisher is the one-way change feed the reconciliation services push
// to. Satisfied by broker.EventPublisher; nil disables publishing,
// which tests rely on.
type Publisher interface {
	PublishLedgerChanged(ctx context.Context, event *models.LedgerChangedEvent) error
	PublishSaleRecorded(ctx context.Context, event *models.SaleRecordedEvent) error
	PublishPaymentApplied(ctx context.Context, event *models.PaymentAppliedEvent) error
}

func newBaseEvent(eventType string) models.BaseEvent {
	return models.BaseEvent{
		EventID:   uuid.New().String(),
		EventType: eventType,
		Timestamp: time.Now(),
	}
}

// publishChange emits a LedgerChanged event. Publish failures are
// logged, never propagated: the write already happened and the snapshot
// worker will catch up on the next change.
func publishChange(ctx context.Context, publisher Publisher, logger *zap.Logger,
	scope store.Scope, collection, recordID, action string) {
	if publisher == nil {
		return
	}

	event := &models.LedgerChangedEvent{
		BaseEvent:  newBaseEvent(models.EventTypeLedgerChanged),
		TenantID:   scope.TenantID,
		Collection: collection,
		RecordID:   recordID,
		Action:     action,
		TestMode:   scope.TestMode,
	}

	if err := publisher.PublishLedgerChanged(ctx, event); err != nil {
		logger.Error("Failed to publish LedgerChanged event",
			zap.String("collection", collection),
			zap.String("record_id", recordID),
			zap.Error(err))
	}
}
