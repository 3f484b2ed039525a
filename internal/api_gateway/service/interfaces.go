package service

import (
	"context"

	"github.com/google/uuid"
	"github.com/property-report-ledger/internal/domain/account"
	"github.com/property-report-ledger/internal/domain/ledger"
	"github.com/property-report-ledger/internal/domain/report"
)

// AccountService defines the interface for account and balance operations
type AccountService interface {
	// CreateAccount creates an account together with its welcome bonus
	// Returns ErrDuplicateEmail if an account with the same email exists
	CreateAccount(ctx context.Context, email, name string) (*account.Account, error)

	// GetAccount retrieves an account with its current balance
	// Returns ErrAccountNotFound if the account doesn't exist
	GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error)

	// GetLedger returns a page of ledger entries, newest first, and the total count
	GetLedger(ctx context.Context, id uuid.UUID, page, perPage int) ([]*ledger.Entry, int64, error)

	// ClaimFreeCredits grants the promotional bonus
	// Returns ErrFreeCreditLimitReached once the claim cap is used up
	ClaimFreeCredits(ctx context.Context, id uuid.UUID) (*ledger.Entry, error)
}

// ReportService defines the interface for report operations on behalf of an account
type ReportService interface {
	// CreateReport pays for and starts a report
	// Returns ErrInsufficientCredits if the balance is zero
	CreateReport(ctx context.Context, accountID uuid.UUID, input *report.InputParameters, correlationID string) (*report.Report, error)

	// GetReport returns ErrReportNotFound when the report belongs to another account
	GetReport(ctx context.Context, accountID, reportID uuid.UUID) (*report.Report, error)

	ListReports(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*report.Report, int64, error)

	// GetAnalysis returns the generated analysis of a completed report
	GetAnalysis(ctx context.Context, accountID, reportID uuid.UUID) (*report.Analysis, error)

	// OpenArtifact returns the rendered artifact of a completed report
	// Returns ErrReportNotReady while processing or after a failure
	OpenArtifact(ctx context.Context, accountID, reportID uuid.UUID) (*Artifact, error)
}

// PaymentService applies normalized payment processor events to the ledger
type PaymentService interface {
	// ApplyEvent returns ErrDuplicateEntry when the event was applied before
	ApplyEvent(ctx context.Context, event *PaymentEvent) (*PaymentResult, error)
}
