package shared

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrInvalidOutcome = errors.New("invalid report outcome")

// GenerationRequest asks the processor to generate a report that is already in processing
type GenerationRequest struct {
	ReportID      uuid.UUID `json:"report_id"`
	AccountID     uuid.UUID `json:"account_id"`
	CorrelationID string    `json:"correlation_id,omitempty"`
	RequestedAt   time.Time `json:"requested_at"`
}

// Outcome is the terminal result of a report
type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeFailed    Outcome = "failed"
)

// ReportOutcome is published once a report reaches a terminal state
type ReportOutcome struct {
	ReportID         uuid.UUID `json:"report_id"`
	AccountID        uuid.UUID `json:"account_id"`
	Outcome          Outcome   `json:"outcome"`
	PropertyAddress  string    `json:"property_address,omitempty"`
	ArtifactLocation string    `json:"artifact_location,omitempty"`
	FailureReason    string    `json:"failure_reason,omitempty"`
	CorrelationID    string    `json:"correlation_id,omitempty"`
	OccurredAt       time.Time `json:"occurred_at"`
}

// Validate checks the fields a notifier relies on
func (o *ReportOutcome) Validate() error {
	if o.ReportID == uuid.Nil || o.AccountID == uuid.Nil {
		return errors.New("report outcome requires report_id and account_id")
	}
	if o.Outcome != OutcomeCompleted && o.Outcome != OutcomeFailed {
		return ErrInvalidOutcome
	}
	return nil
}
