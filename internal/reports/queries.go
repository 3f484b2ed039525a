package reports

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/property-report-ledger/internal/domain/report"
)

// GetReport returns ErrReportNotFound when accountID does not own the report
func (l *Lifecycle) GetReport(ctx context.Context, reportID, accountID uuid.UUID) (*report.Report, error) {
	return l.reportRepo.GetForAccount(ctx, reportID, accountID)
}

// ListReports returns a page of the account's reports, newest first, and the total count
func (l *Lifecycle) ListReports(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*report.Report, int64, error) {
	if limit <= 0 {
		return nil, 0, errors.New("limit must be greater than 0")
	}
	if offset < 0 {
		return nil, 0, errors.New("offset cannot be negative")
	}

	reports, err := l.reportRepo.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := l.reportRepo.CountByAccount(ctx, accountID)
	if err != nil {
		return nil, 0, err
	}
	return reports, total, nil
}

// GetAnalysis returns the generated analysis of a completed report owned by accountID
func (l *Lifecycle) GetAnalysis(ctx context.Context, reportID, accountID uuid.UUID) (*report.Analysis, error) {
	rep, err := l.reportRepo.GetForAccount(ctx, reportID, accountID)
	if err != nil {
		return nil, err
	}
	if rep.Status != report.StatusCompleted {
		return nil, report.ErrAnalysisNotFound{ReportID: reportID}
	}
	return l.analysisRepo.GetByReportID(ctx, reportID)
}

// ListStuck returns processing reports created before the cutoff, oldest first
func (l *Lifecycle) ListStuck(ctx context.Context, createdBefore time.Time, limit int) ([]*report.Report, error) {
	return l.reportRepo.ListStuck(ctx, createdBefore, limit)
}

// GetByID loads a report without an ownership check, for background workers
func (l *Lifecycle) GetByID(ctx context.Context, reportID uuid.UUID) (*report.Report, error) {
	return l.reportRepo.GetByID(ctx, reportID)
}
