package consumer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/property-report-ledger/internal/domain/shared"
	"github.com/property-report-ledger/internal/platform/messaging/producers"
	"github.com/property-report-ledger/internal/report_processor/service"
)

// GenerationRequestHandler hands generation requests from Kafka to the worker pool
type GenerationRequestHandler struct {
	generationService service.GenerationService
	producer          producers.DeadLetterPublisher
	logger            *slog.Logger
}

func NewGenerationRequestHandler(
	logger *slog.Logger,
	generationService service.GenerationService,
	producer producers.DeadLetterPublisher,
) *GenerationRequestHandler {
	return &GenerationRequestHandler{
		generationService: generationService,
		producer:          producer,
		logger:            logger,
	}
}

// HandleMessage returns nil once the request is queued; generation runs detached
func (h *GenerationRequestHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var request shared.GenerationRequest
	if err := json.Unmarshal(value, &request); err != nil {
		return parkMessage(ctx, h.logger, h.producer, key, value, "Failed to unmarshal generation request", err)
	}
	if request.ReportID == uuid.Nil {
		return parkMessage(ctx, h.logger, h.producer, key, value, "Generation request without report id", errors.New("missing report_id"))
	}

	logger := h.logger
	if request.CorrelationID != "" {
		logger = h.logger.With("correlation_id", request.CorrelationID)
	}
	logger.Info("Received generation request", "report_id", request.ReportID.String(), "account_id", request.AccountID.String())

	if err := h.generationService.Process(ctx, &request); err != nil {
		logger.Error("Failed to queue generation request", "report_id", request.ReportID.String(), "error", err)
		return fmt.Errorf("queueing report %s failed: %w", request.ReportID, err)
	}
	return nil
}

// parkMessage sends an unprocessable message to the DLQ. When that is not
// possible the original error is returned and the consumer skips the message.
func parkMessage(ctx context.Context, logger *slog.Logger, dlq producers.DeadLetterPublisher, key, value []byte, what string, cause error) error {
	logger.Error(what, "error", cause, "message_key", string(key))

	if dlq != nil {
		reason := fmt.Sprintf("%s: %s", what, cause.Error())
		dlqErr := dlq.PublishToDLQ(ctx, string(key), value, reason)
		if dlqErr == nil {
			logger.Info("Published unprocessable message to DLQ", "message_key", string(key), "reason", reason)
			return nil
		}
		logger.Error("Failed to publish message to DLQ", "dlq_error", dlqErr, "original_error", cause, "message_key", string(key))
	}
	return fmt.Errorf("%s: %w", what, cause)
}
