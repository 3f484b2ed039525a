package report

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository manages report persistence
type Repository interface {
	Create(ctx context.Context, report *Report) error
	GetByID(ctx context.Context, id uuid.UUID) (*Report, error)
	// GetForAccount returns ErrReportNotFound when the report belongs to another account
	GetForAccount(ctx context.Context, id, accountID uuid.UUID) (*Report, error)
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Report, error)
	// Update persists status, artifact location and failure reason
	Update(ctx context.Context, report *Report) error
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Report, error)
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
	// ListStuck returns processing reports created before the cutoff, oldest first
	ListStuck(ctx context.Context, createdBefore time.Time, limit int) ([]*Report, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrReportNotFound indicates a missing report or one the caller does not own
type ErrReportNotFound struct {
	ReportID uuid.UUID
}

func (e ErrReportNotFound) Error() string {
	return "report not found: " + e.ReportID.String()
}

// Is implements the errors.Is interface for ErrReportNotFound
func (e ErrReportNotFound) Is(target error) bool {
	t, ok := target.(ErrReportNotFound)
	if !ok {
		return false
	}
	if t.ReportID == uuid.Nil {
		return true
	}
	return e.ReportID == t.ReportID
}

// ErrInvalidTransition indicates a transition out of a terminal state
type ErrInvalidTransition struct {
	ReportID uuid.UUID
	From     Status
	To       Status
}

func (e ErrInvalidTransition) Error() string {
	return "invalid transition for report " + e.ReportID.String() + ": " + string(e.From) + " -> " + string(e.To)
}

// Is implements the errors.Is interface for ErrInvalidTransition
func (e ErrInvalidTransition) Is(target error) bool {
	t, ok := target.(ErrInvalidTransition)
	if !ok {
		return false
	}
	if t.ReportID == uuid.Nil {
		return true
	}
	return e.ReportID == t.ReportID
}
