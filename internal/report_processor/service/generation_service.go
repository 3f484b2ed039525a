package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/property-report-ledger/internal/domain/report"
	"github.com/property-report-ledger/internal/domain/shared"
	"github.com/property-report-ledger/internal/generation"
)

// GenerationServiceImpl turns the outcome of the generator into exactly one
// terminal transition. Any error or panic from the generator becomes markFailed.
type GenerationServiceImpl struct {
	lifecycle ReportLifecycle
	generator generation.Generator
	logger    *slog.Logger
}

func NewGenerationService(lifecycle ReportLifecycle, generator generation.Generator, logger *slog.Logger) GenerationService {
	return &GenerationServiceImpl{
		lifecycle: lifecycle,
		generator: generator,
		logger:    logger,
	}
}

func (s *GenerationServiceImpl) Process(ctx context.Context, request *shared.GenerationRequest) error {
	logger := s.logger.With("report_id", request.ReportID.String())
	if request.CorrelationID != "" {
		logger = logger.With("correlation_id", request.CorrelationID)
	}

	rep, err := s.lifecycle.GetByID(ctx, request.ReportID)
	if err != nil {
		if errors.Is(err, report.ErrReportNotFound{}) {
			logger.Warn("Generation requested for unknown report, skipping")
			return nil
		}
		return fmt.Errorf("failed to load report %s: %w", request.ReportID, err)
	}
	if rep.Status != report.StatusProcessing {
		logger.Info("Report already terminal, skipping generation", "status", string(rep.Status))
		return nil
	}

	logger.Info("Generating report")
	location, genErr := s.generate(ctx, rep)
	if genErr != nil {
		reason := generation.FailureReason(genErr)
		logger.Warn("Report generation failed", "error", genErr, "reason", reason)
		_, err = s.lifecycle.MarkFailed(ctx, rep.ID, reason, request.CorrelationID)
	} else {
		_, err = s.lifecycle.MarkCompleted(ctx, rep.ID, location, request.CorrelationID)
	}

	if err != nil {
		if errors.Is(err, report.ErrInvalidTransition{}) {
			logger.Info("Report reached a terminal state elsewhere, ignoring", "error", err)
			return nil
		}
		logger.Error("Failed to record generation outcome", "error", err)
		return err
	}
	return nil
}

func (s *GenerationServiceImpl) generate(ctx context.Context, rep *report.Report) (location string, err error) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Generator panicked", "report_id", rep.ID.String(), "panic", r, "stack", string(debug.Stack()))
			err = fmt.Errorf("report generation crashed: %v", r)
		}
	}()
	return s.generator.Generate(ctx, rep)
}
