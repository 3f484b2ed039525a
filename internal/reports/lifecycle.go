// Package reports drives a report from processing to a terminal state. Every
// transition commits together with its ledger effect and an outbox message,
// so downstream generation and notification only see committed state.
package reports

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/property-report-ledger/internal/credits"
	"github.com/property-report-ledger/internal/domain/ledger"
	"github.com/property-report-ledger/internal/domain/outbox"
	"github.com/property-report-ledger/internal/domain/report"
	"github.com/property-report-ledger/internal/domain/shared"
	"github.com/property-report-ledger/internal/platform/persistence"
)

// Reserver pays for a report and runs follow-up writes in the same transaction
type Reserver interface {
	ReserveWith(ctx context.Context, accountID, reportID uuid.UUID, description string, then credits.ReservedFunc) (*credits.ReservationToken, error)
}

// Compensator refunds a failed report at most once
type Compensator interface {
	CompensateTx(ctx context.Context, tx pgx.Tx, rep *report.Report) (*ledger.Entry, bool, error)
}

// Lifecycle is the report state machine
type Lifecycle struct {
	db           persistence.TxRunner
	reportRepo   report.Repository
	outboxRepo   outbox.Repository
	analysisRepo report.AnalysisRepository
	reserver     Reserver
	compensator  Compensator
	logger       *slog.Logger
}

func NewLifecycle(
	logger *slog.Logger,
	db persistence.TxRunner,
	reportRepo report.Repository,
	outboxRepo outbox.Repository,
	analysisRepo report.AnalysisRepository,
	reserver Reserver,
	compensator Compensator,
) *Lifecycle {
	return &Lifecycle{
		db:           db,
		reportRepo:   reportRepo,
		outboxRepo:   outboxRepo,
		analysisRepo: analysisRepo,
		reserver:     reserver,
		compensator:  compensator,
		logger:       logger,
	}
}

func (l *Lifecycle) loggerFor(correlationID string) *slog.Logger {
	if correlationID != "" {
		return l.logger.With("correlation_id", correlationID)
	}
	return l.logger
}

// CreateReport reserves one credit and creates the report in processing. The
// generation request is queued through the outbox in the same transaction, so
// it is dispatched only after the reservation commits.
func (l *Lifecycle) CreateReport(ctx context.Context, accountID uuid.UUID, input *report.InputParameters, correlationID string) (*report.Report, error) {
	logger := l.loggerFor(correlationID)

	if err := input.Validate(); err != nil {
		return nil, err
	}

	reportID := uuid.New()
	var created *report.Report

	_, err := l.reserver.ReserveWith(ctx, accountID, reportID, input.DebitDescription(),
		func(ctx context.Context, tx pgx.Tx, token *credits.ReservationToken) error {
			rep, err := report.NewReport(reportID, accountID, input, token.EntryID)
			if err != nil {
				return err
			}
			if err := l.reportRepo.WithTx(tx).Create(ctx, rep); err != nil {
				return err
			}

			msg, err := outbox.NewMessage(outbox.EventGenerationRequested, reportID, shared.GenerationRequest{
				ReportID:      reportID,
				AccountID:     accountID,
				CorrelationID: correlationID,
				RequestedAt:   rep.CreatedAt,
			})
			if err != nil {
				return fmt.Errorf("failed to build generation request: %w", err)
			}
			if err := l.outboxRepo.WithTx(tx).Create(ctx, msg); err != nil {
				return err
			}

			created = rep
			return nil
		})
	if err != nil {
		if errors.Is(err, ledger.ErrInsufficientCredits) {
			logger.Info("Report rejected, insufficient credits", "account_id", accountID.String())
		} else {
			logger.Error("Failed to create report", "account_id", accountID.String(), "error", err)
		}
		return nil, err
	}

	logger.Info("Report created", "report_id", reportID.String(), "account_id", accountID.String())
	return created, nil
}

// MarkCompleted moves a processing report to completed. A report in a terminal
// state yields ErrInvalidTransition and is left unchanged.
func (l *Lifecycle) MarkCompleted(ctx context.Context, reportID uuid.UUID, artifactLocation, correlationID string) (*report.Report, error) {
	var updated *report.Report
	err := l.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		reportRepoTx := l.reportRepo.WithTx(tx)
		rep, err := reportRepoTx.LockForUpdate(ctx, reportID)
		if err != nil {
			return err
		}
		if err := rep.Complete(artifactLocation); err != nil {
			return err
		}
		if err := reportRepoTx.Update(ctx, rep); err != nil {
			return err
		}
		if err := l.enqueueOutcome(ctx, tx, rep, correlationID); err != nil {
			return err
		}
		updated = rep
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.loggerFor(correlationID).Info("Report completed", "report_id", reportID.String(), "artifact_location", artifactLocation)
	return updated, nil
}

// MarkFailed moves a processing report to failed and refunds its credit in the
// same transaction. A report in a terminal state yields ErrInvalidTransition
// and no second refund.
func (l *Lifecycle) MarkFailed(ctx context.Context, reportID uuid.UUID, reason, correlationID string) (*report.Report, error) {
	var updated *report.Report
	err := l.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		reportRepoTx := l.reportRepo.WithTx(tx)
		rep, err := reportRepoTx.LockForUpdate(ctx, reportID)
		if err != nil {
			return err
		}
		if err := rep.Fail(reason); err != nil {
			return err
		}
		if err := reportRepoTx.Update(ctx, rep); err != nil {
			return err
		}
		if _, _, err := l.compensator.CompensateTx(ctx, tx, rep); err != nil {
			return fmt.Errorf("failed to refund report %s: %w", reportID, err)
		}
		if err := l.enqueueOutcome(ctx, tx, rep, correlationID); err != nil {
			return err
		}
		updated = rep
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.loggerFor(correlationID).Info("Report failed and refunded", "report_id", reportID.String(), "reason", reason)
	return updated, nil
}

func (l *Lifecycle) enqueueOutcome(ctx context.Context, tx pgx.Tx, rep *report.Report, correlationID string) error {
	outcome := shared.ReportOutcome{
		ReportID:      rep.ID,
		AccountID:     rep.AccountID,
		CorrelationID: correlationID,
		OccurredAt:    time.Now().UTC(),
	}
	if params, err := rep.Parameters(); err == nil {
		outcome.PropertyAddress = params.PropertyAddress
	}

	eventType := outbox.EventReportCompleted
	switch rep.Status {
	case report.StatusCompleted:
		outcome.Outcome = shared.OutcomeCompleted
		if rep.ArtifactLocation != nil {
			outcome.ArtifactLocation = *rep.ArtifactLocation
		}
	case report.StatusFailed:
		eventType = outbox.EventReportFailed
		outcome.Outcome = shared.OutcomeFailed
		if rep.FailureReason != nil {
			outcome.FailureReason = *rep.FailureReason
		}
	default:
		return fmt.Errorf("report %s is not terminal: %s", rep.ID, rep.Status)
	}

	msg, err := outbox.NewMessage(eventType, rep.ID, outcome)
	if err != nil {
		return fmt.Errorf("failed to build report outcome: %w", err)
	}
	return l.outboxRepo.WithTx(tx).Create(ctx, msg)
}
