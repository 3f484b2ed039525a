package notification

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/property-report-ledger/internal/config"
	"github.com/property-report-ledger/internal/domain/account"
	"github.com/property-report-ledger/internal/domain/shared"
)

const (
	SubjectCompleted = "Your Property Analysis Report is Ready!"
	SubjectFailed    = "Issue with Your Property Analysis Report"
)

// AccountLookup resolves the recipient of a notification
type AccountLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error)
}

// Notifier turns report outcomes into emails
type Notifier struct {
	accounts   AccountLookup
	sender     EmailSender
	from       string
	appBaseURL string
	logger     *slog.Logger
}

func NewNotifier(logger *slog.Logger, accounts AccountLookup, sender EmailSender, cfg *config.NotificationConfig) *Notifier {
	return &Notifier{
		accounts:   accounts,
		sender:     sender,
		from:       cfg.FromAddress,
		appBaseURL: strings.TrimRight(cfg.AppBaseURL, "/"),
		logger:     logger,
	}
}

type emailData struct {
	Name            string
	Email           string
	PropertyAddress string
	ReportURL       string
	RetryURL        string
	FailureReason   string
}

var completedTemplate = template.Must(template.New("completed").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
<h2>Hello {{.Name}}!</h2>
<p>Your property analysis report for <strong>{{.PropertyAddress}}</strong> has been completed and is now ready for download.</p>
<p><a href="{{.ReportURL}}">View Your Report</a></p>
<p style="color: #999; font-size: 12px;">This email was sent to {{.Email}}</p>
</body>
</html>
`))

var failedTemplate = template.Must(template.New("failed").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
<h2>Hello {{.Name}},</h2>
<p>We encountered an issue while processing your property analysis report for <strong>{{.PropertyAddress}}</strong>.</p>
{{if .FailureReason}}<p>Details: {{.FailureReason}}</p>{{end}}
<p><strong>Good news:</strong> Your credit has been automatically refunded to your account.</p>
<p><a href="{{.RetryURL}}">Try Again</a></p>
<p style="color: #999; font-size: 12px;">This email was sent to {{.Email}}</p>
</body>
</html>
`))

// Notify emails the owner of the report about its outcome
func (n *Notifier) Notify(ctx context.Context, outcome *shared.ReportOutcome) error {
	if err := outcome.Validate(); err != nil {
		return err
	}

	acc, err := n.accounts.GetByID(ctx, outcome.AccountID)
	if err != nil {
		return fmt.Errorf("failed to load notification recipient: %w", err)
	}

	data := emailData{
		Name:            acc.Name,
		Email:           acc.Email,
		PropertyAddress: outcome.PropertyAddress,
		ReportURL:       n.appBaseURL + "/dashboard/reports/" + outcome.ReportID.String(),
		RetryURL:        n.appBaseURL + "/analyze",
		FailureReason:   outcome.FailureReason,
	}
	if data.Name == "" {
		data.Name = "there"
	}
	if data.PropertyAddress == "" {
		data.PropertyAddress = "your property"
	}

	subject, tmpl, text := SubjectCompleted, completedTemplate, completedText(data)
	if outcome.Outcome == shared.OutcomeFailed {
		subject, tmpl, text = SubjectFailed, failedTemplate, failedText(data)
	}

	var html bytes.Buffer
	if err := tmpl.Execute(&html, data); err != nil {
		return fmt.Errorf("failed to render email: %w", err)
	}

	return n.sender.Send(ctx, &Email{
		From:    n.from,
		To:      []string{acc.Email},
		Subject: subject,
		HTML:    html.String(),
		Text:    text,
	})
}

func completedText(d emailData) string {
	return fmt.Sprintf("Hello %s!\n\nYour property analysis report for %s has been completed and is now ready for download.\n\nView your report: %s\n",
		d.Name, d.PropertyAddress, d.ReportURL)
}

func failedText(d emailData) string {
	return fmt.Sprintf("Hello %s,\n\nWe encountered an issue while processing your property analysis report for %s.\n\nYour credit has been automatically refunded to your account.\n\nTry again: %s\n",
		d.Name, d.PropertyAddress, d.RetryURL)
}
