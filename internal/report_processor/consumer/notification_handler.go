package consumer

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/property-report-ledger/internal/domain/shared"
	"github.com/property-report-ledger/internal/platform/messaging/producers"
)

// OutcomeNotifier delivers a report outcome to the account owner
type OutcomeNotifier interface {
	Notify(ctx context.Context, outcome *shared.ReportOutcome) error
}

// NotificationHandler consumes terminal report outcomes. Delivery failures are
// logged and the message is acknowledged.
type NotificationHandler struct {
	notifier OutcomeNotifier
	producer producers.DeadLetterPublisher
	logger   *slog.Logger
}

func NewNotificationHandler(logger *slog.Logger, notifier OutcomeNotifier, producer producers.DeadLetterPublisher) *NotificationHandler {
	return &NotificationHandler{
		notifier: notifier,
		producer: producer,
		logger:   logger,
	}
}

func (h *NotificationHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var outcome shared.ReportOutcome
	if err := json.Unmarshal(value, &outcome); err != nil {
		return parkMessage(ctx, h.logger, h.producer, key, value, "Failed to unmarshal report outcome", err)
	}

	logger := h.logger.With("report_id", outcome.ReportID.String(), "outcome", string(outcome.Outcome))
	if outcome.CorrelationID != "" {
		logger = logger.With("correlation_id", outcome.CorrelationID)
	}

	if err := h.notifier.Notify(ctx, &outcome); err != nil {
		logger.Warn("Report notification not delivered", "error", err)
		return nil
	}

	logger.Info("Report notification delivered")
	return nil
}
