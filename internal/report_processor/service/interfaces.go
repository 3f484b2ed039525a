package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/property-report-ledger/internal/domain/report"
	"github.com/property-report-ledger/internal/domain/shared"
)

// GenerationService runs the generation step for a report in processing
type GenerationService interface {
	Process(ctx context.Context, request *shared.GenerationRequest) error
}

// ReportLifecycle is the part of the report state machine the processor drives
type ReportLifecycle interface {
	GetByID(ctx context.Context, reportID uuid.UUID) (*report.Report, error)
	MarkCompleted(ctx context.Context, reportID uuid.UUID, artifactLocation, correlationID string) (*report.Report, error)
	MarkFailed(ctx context.Context, reportID uuid.UUID, reason, correlationID string) (*report.Report, error)
	ListStuck(ctx context.Context, createdBefore time.Time, limit int) ([]*report.Report, error)
}
