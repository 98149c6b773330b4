package services

import (
	"context"

	"mfn/internal/amqp"
	"mfn/internal/log"
)

// EventPublisher delivers ledger events to the message broker.
// *amqp.Client satisfies it.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event amqp.LedgerEvent) error
}

var _ EventPublisher = (*amqp.Client)(nil)

// publish sends event if a publisher is configured. Delivery failures are
// logged and never fail the ledger operation that produced the event.
func publish(ctx context.Context, publisher EventPublisher, logger *log.Logger, event amqp.LedgerEvent) {
	if publisher == nil {
		logger.WarnContext(ctx, "AMQP client not available, skipping ledger event",
			"event_type", event.Type)
		return
	}

	if err := publisher.PublishEvent(ctx, event); err != nil {
		logger.ErrorContext(ctx, "Failed to publish ledger event",
			"event_type", event.Type,
			log.FieldError, err)
	}
}
