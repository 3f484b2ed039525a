package outbox_poller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/property-report-ledger/internal/domain/outbox"
	"github.com/property-report-ledger/internal/domain/shared"
	"github.com/property-report-ledger/internal/platform/messaging/producers"
)

// EventPublisher delivers one outbox message to its downstream topic
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *outbox.Message) error
}

// KafkaEventPublisher routes outbox messages to topics by event type and marks
// them processed once the broker acknowledged the write
type KafkaEventPublisher struct {
	outboxRepo outbox.Repository
	routes     map[outbox.EventType]producers.MessagePublisher
	logger     *slog.Logger
}

func NewKafkaEventPublisher(
	outboxRepo outbox.Repository,
	generationProducer producers.MessagePublisher,
	notificationProducer producers.MessagePublisher,
	logger *slog.Logger,
) EventPublisher {
	return &KafkaEventPublisher{
		outboxRepo: outboxRepo,
		routes: map[outbox.EventType]producers.MessagePublisher{
			outbox.EventGenerationRequested: generationProducer,
			outbox.EventReportCompleted:     notificationProducer,
			outbox.EventReportFailed:        notificationProducer,
		},
		logger: logger,
	}
}

func (p *KafkaEventPublisher) PublishEvent(ctx context.Context, message *outbox.Message) error {
	logger := p.logger.With("outbox_id", message.ID, "event_type", string(message.EventType), "aggregate_id", message.AggregateID.String())

	producer, ok := p.routes[message.EventType]
	if !ok || producer == nil {
		logger.Error("No topic configured for outbox event type")
		if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusFailedToPublish); err != nil {
			logger.Error("Also failed to mark unroutable outbox message as FAILED_TO_PUBLISH", "update_error", err)
		}
		return fmt.Errorf("no route for outbox event type %q", message.EventType)
	}

	if err := producer.Publish(ctx, message.AggregateID.String(), json.RawMessage(message.Payload)); err != nil {
		return fmt.Errorf("failed to publish outbox message %d: %w", message.ID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED", "error", err)
		return fmt.Errorf("publish of %d OK, but failed to mark outbox message as PROCESSED: %w", message.ID, err)
	}

	logger.Info("Outbox message published and marked as PROCESSED")
	return nil
}
