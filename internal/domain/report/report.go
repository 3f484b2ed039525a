package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// Status is a report lifecycle state
type Status string

const (
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// MaxFailureReasonLength bounds the stored failure reason in bytes
const MaxFailureReasonLength = 500

var transitions = map[Status][]Status{
	StatusProcessing: {StatusCompleted, StatusFailed},
}

// IsTerminal reports whether no transition leaves s
func (s Status) IsTerminal() bool {
	return len(transitions[s]) == 0
}

// CanTransitionTo reports whether s may move to next
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Report is one paid report generation attempt
type Report struct {
	ID               uuid.UUID       `json:"id"`
	AccountID        uuid.UUID       `json:"account_id"`
	Input            json.RawMessage `json:"input_parameters"`
	Status           Status          `json:"status"`
	ArtifactLocation *string         `json:"artifact_location,omitempty"`
	FailureReason    *string         `json:"failure_reason,omitempty"`
	DebitEntryID     uuid.UUID       `json:"debit_entry_id"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}

// NewReport creates a report in processing, linked to the debit entry that paid for it.
// The id is chosen by the caller so the debit entry can reference it before the report row exists.
func NewReport(id, accountID uuid.UUID, input *InputParameters, debitEntryID uuid.UUID) (*Report, error) {
	payload, err := json.Marshal(input)
	if err != nil {
		return nil, fmt.Errorf("failed to encode input parameters: %w", err)
	}

	now := time.Now().UTC()
	return &Report{
		ID:           id,
		AccountID:    accountID,
		Input:        payload,
		Status:       StatusProcessing,
		DebitEntryID: debitEntryID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// Complete moves the report to completed with the artifact location
func (r *Report) Complete(artifactLocation string) error {
	if err := r.transition(StatusCompleted); err != nil {
		return err
	}
	r.ArtifactLocation = &artifactLocation
	return nil
}

// Fail moves the report to failed with a human readable reason. The reason is
// cleaned to valid UTF-8 and cut to MaxFailureReasonLength.
func (r *Report) Fail(reason string) error {
	if err := r.transition(StatusFailed); err != nil {
		return err
	}
	reason = cleanReason(reason)
	r.FailureReason = &reason
	return nil
}

func cleanReason(reason string) string {
	reason = strings.TrimSpace(strings.ToValidUTF8(reason, ""))
	if reason == "" {
		return "Report generation failed"
	}
	if len(reason) <= MaxFailureReasonLength {
		return reason
	}
	cut := MaxFailureReasonLength
	for cut > 0 && !utf8.RuneStart(reason[cut]) {
		cut--
	}
	return reason[:cut]
}

func (r *Report) transition(next Status) error {
	if !r.Status.CanTransitionTo(next) {
		return ErrInvalidTransition{ReportID: r.ID, From: r.Status, To: next}
	}
	r.Status = next
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// Parameters decodes the stored input payload
func (r *Report) Parameters() (*InputParameters, error) {
	var params InputParameters
	if err := json.Unmarshal(r.Input, &params); err != nil {
		return nil, fmt.Errorf("failed to decode input parameters for report %s: %w", r.ID, err)
	}
	return &params, nil
}

// OwnedBy reports whether accountID created the report
func (r *Report) OwnedBy(accountID uuid.UUID) bool {
	return r.AccountID == accountID
}
