package report

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Analysis is the generated content of a completed report
type Analysis struct {
	ReportID    uuid.UUID `json:"report_id" bson:"report_id"`
	AccountID   uuid.UUID `json:"account_id" bson:"account_id"`
	Model       string    `json:"model" bson:"model"`
	Content     string    `json:"content" bson:"content"`
	GeneratedAt time.Time `json:"generated_at" bson:"generated_at"`
}

// AnalysisRepository stores generated analysis documents
type AnalysisRepository interface {
	Save(ctx context.Context, analysis *Analysis) error
	GetByReportID(ctx context.Context, reportID uuid.UUID) (*Analysis, error)
}

// ErrAnalysisNotFound indicates no analysis document exists for a report
type ErrAnalysisNotFound struct {
	ReportID uuid.UUID
}

func (e ErrAnalysisNotFound) Error() string {
	return "analysis not found for report: " + e.ReportID.String()
}

func (e ErrAnalysisNotFound) Is(target error) bool {
	t, ok := target.(ErrAnalysisNotFound)
	if !ok {
		return false
	}
	if t.ReportID == uuid.Nil {
		return true
	}
	return e.ReportID == t.ReportID
}
