package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/property-report-ledger/internal/domain/report"
	"github.com/property-report-ledger/internal/platform/persistence"
)

const reportColumns = `id, account_id, input_parameters, status, artifact_location, failure_reason, debit_entry_id, created_at, updated_at`

// ReportRepository implements report.Repository for PostgreSQL
type ReportRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewReportRepository creates a new PostgreSQL report repository
func NewReportRepository(logger *slog.Logger, db *persistence.PostgresDB) report.Repository {
	return &ReportRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *ReportRepository) WithTx(tx pgx.Tx) report.Repository {
	return &ReportRepository{
		querier: tx,
		logger:  r.logger,
	}
}

func (r *ReportRepository) Create(ctx context.Context, rep *report.Report) error {
	query := `
		INSERT INTO reports (` + reportColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.querier.Exec(ctx, query,
		rep.ID,
		rep.AccountID,
		rep.Input,
		rep.Status,
		rep.ArtifactLocation,
		rep.FailureReason,
		rep.DebitEntryID,
		rep.CreatedAt,
		rep.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create report", "report_id", rep.ID.String(), "error", err)
		return fmt.Errorf("failed to create report: %w", err)
	}

	return nil
}

func (r *ReportRepository) GetByID(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM reports
		WHERE id = $1
	`

	return r.getOne(ctx, "get report", id, query, id)
}

// GetForAccount filters on the owner in SQL so a foreign report looks exactly like a missing one
func (r *ReportRepository) GetForAccount(ctx context.Context, id, accountID uuid.UUID) (*report.Report, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM reports
		WHERE id = $1 AND account_id = $2
	`

	return r.getOne(ctx, "get report for account", id, query, id, accountID)
}

// LockForUpdate serializes transitions of one report
func (r *ReportRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM reports
		WHERE id = $1
		FOR UPDATE
	`

	return r.getOne(ctx, "lock report", id, query, id)
}

// Update writes the mutable lifecycle columns
func (r *ReportRepository) Update(ctx context.Context, rep *report.Report) error {
	query := `
		UPDATE reports
		SET status = $1, artifact_location = $2, failure_reason = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := r.querier.Exec(ctx, query,
		rep.Status,
		rep.ArtifactLocation,
		rep.FailureReason,
		rep.UpdatedAt,
		rep.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update report",
			"report_id", rep.ID.String(),
			"status", string(rep.Status),
			"error", err,
		)
		return fmt.Errorf("failed to update report: %w", err)
	}

	if result.RowsAffected() == 0 {
		return report.ErrReportNotFound{ReportID: rep.ID}
	}

	return nil
}

func (r *ReportRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*report.Report, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM reports
		WHERE account_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list reports", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	return r.collectReports(rows)
}

func (r *ReportRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM reports
		WHERE account_id = $1
	`

	var count int64
	if err := r.querier.QueryRow(ctx, query, accountID).Scan(&count); err != nil {
		r.logger.Error("Failed to count reports", "account_id", accountID.String(), "error", err)
		return 0, fmt.Errorf("failed to count reports: %w", err)
	}

	return count, nil
}

// ListStuck returns reports still processing that were created before the cutoff
func (r *ReportRepository) ListStuck(ctx context.Context, createdBefore time.Time, limit int) ([]*report.Report, error) {
	query := `
		SELECT ` + reportColumns + `
		FROM reports
		WHERE status = $1 AND created_at < $2
		ORDER BY created_at ASC
		LIMIT $3
	`

	rows, err := r.querier.Query(ctx, query, report.StatusProcessing, createdBefore, limit)
	if err != nil {
		r.logger.Error("Failed to list stuck reports", "error", err)
		return nil, fmt.Errorf("failed to list stuck reports: %w", err)
	}
	defer rows.Close()

	return r.collectReports(rows)
}

func (r *ReportRepository) getOne(ctx context.Context, op string, id uuid.UUID, query string, args ...interface{}) (*report.Report, error) {
	rep, err := scanReport(r.querier.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, report.ErrReportNotFound{ReportID: id}
		}
		r.logger.Error("Failed to "+op, "report_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	return rep, nil
}

func (r *ReportRepository) collectReports(rows pgx.Rows) ([]*report.Report, error) {
	reports := make([]*report.Report, 0)
	for rows.Next() {
		rep, err := scanReport(rows)
		if err != nil {
			r.logger.Error("Failed to scan report", "error", err)
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, rep)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over reports", "error", err)
		return nil, fmt.Errorf("error iterating over reports: %w", err)
	}

	return reports, nil
}

func scanReport(row pgx.Row) (*report.Report, error) {
	var rep report.Report
	err := row.Scan(
		&rep.ID,
		&rep.AccountID,
		&rep.Input,
		&rep.Status,
		&rep.ArtifactLocation,
		&rep.FailureReason,
		&rep.DebitEntryID,
		&rep.CreatedAt,
		&rep.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rep, nil
}
