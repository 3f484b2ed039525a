package handler

import "encoding/json"

// CreateAccountRequest represents a request to create a new account
type CreateAccountRequest struct {
	Email string `json:"email" binding:"required,email"`
	Name  string `json:"name" binding:"required"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID               string `json:"id"`
	Email            string `json:"email"`
	Name             string `json:"name"`
	Balance          int64  `json:"balance"`
	SubscriptionTier string `json:"subscription_tier,omitempty"`
	CreatedAt        string `json:"created_at"`
	UpdatedAt        string `json:"updated_at"`
}

// LedgerEntryResponse represents one balance change in API responses
type LedgerEntryResponse struct {
	ID                string `json:"id"`
	Delta             int64  `json:"delta"`
	BalanceAfter      int64  `json:"balance_after"`
	Kind              string `json:"kind"`
	Description       string `json:"description"`
	RelatedReportID   string `json:"related_report_id,omitempty"`
	ExternalReference string `json:"external_reference,omitempty"`
	CreatedAt         string `json:"created_at"`
}

// LedgerResponse represents a page of ledger history
type LedgerResponse struct {
	Balance int64                 `json:"balance"`
	Entries []LedgerEntryResponse `json:"entries"`
}

// ReportResponse represents a report in API responses
type ReportResponse struct {
	ID               string          `json:"id"`
	Status           string          `json:"status"`
	InputParameters  json.RawMessage `json:"input_parameters"`
	ArtifactLocation string          `json:"artifact_location,omitempty"`
	FailureReason    string          `json:"failure_reason,omitempty"`
	CreatedAt        string          `json:"created_at"`
	UpdatedAt        string          `json:"updated_at"`
}

// ReportListResponse represents a list of reports in API responses
type ReportListResponse struct {
	Reports []ReportResponse `json:"reports"`
}

// AnalysisResponse represents the generated analysis of a completed report
type AnalysisResponse struct {
	ReportID    string `json:"report_id"`
	Model       string `json:"model"`
	Content     string `json:"content"`
	GeneratedAt string `json:"generated_at"`
}

// PaymentEventRequest is a normalized payment processor event
type PaymentEventRequest struct {
	Type           string `json:"type" binding:"required"`
	AccountID      string `json:"account_id" binding:"required,uuid"`
	Kind           string `json:"kind,omitempty"`
	Pack           string `json:"pack,omitempty"`
	Credits        int64  `json:"credits,omitempty" binding:"min=0,max=1000"`
	Plan           string `json:"plan,omitempty"`
	PaymentIntent  string `json:"payment_intent,omitempty"`
	SubscriptionID string `json:"subscription_id,omitempty"`
	InvoiceID      string `json:"invoice_id,omitempty"`
	BillingReason  string `json:"billing_reason,omitempty"`
}

// PaymentEventResponse reports what the webhook did with an event
type PaymentEventResponse struct {
	Status       string `json:"status"`
	Reason       string `json:"reason,omitempty"`
	EntryID      string `json:"entry_id,omitempty"`
	Credits      int64  `json:"credits,omitempty"`
	BalanceAfter int64  `json:"balance_after,omitempty"`
}

// PaginationParams represents pagination parameters for list endpoints
type PaginationParams struct {
	Page    int `form:"page,default=1" binding:"min=1,max=100000"`
	PerPage int `form:"per_page,default=10" binding:"min=1,max=100"`
}
