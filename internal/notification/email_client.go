// Package notification tells account owners that their report finished.
// Delivery is best effort: callers log errors and never roll anything back.
package notification

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/property-report-ledger/internal/config"
)

// Email is one outgoing message
type Email struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html,omitempty"`
	Text    string   `json:"text,omitempty"`
}

// EmailSender delivers an email
type EmailSender interface {
	Send(ctx context.Context, email *Email) error
}

// HTTPEmailClient posts messages to a Resend compatible email API
type HTTPEmailClient struct {
	httpClient *http.Client
	url        string
	apiKey     string
	logger     *slog.Logger
}

var _ EmailSender = (*HTTPEmailClient)(nil)

func NewHTTPEmailClient(logger *slog.Logger, cfg *config.NotificationConfig) *HTTPEmailClient {
	return &HTTPEmailClient{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		url:        cfg.EmailAPIURL,
		apiKey:     cfg.EmailAPIKey,
		logger:     logger,
	}
}

func (c *HTTPEmailClient) Send(ctx context.Context, email *Email) error {
	body, err := json.Marshal(email)
	if err != nil {
		return fmt.Errorf("failed to encode email: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("email api returned status %d: %s", resp.StatusCode, raw)
	}

	c.logger.Info("Email sent", "subject", email.Subject, "recipients", len(email.To))
	return nil
}

// LogSender only logs; used when email delivery is disabled
type LogSender struct {
	logger *slog.Logger
}

var _ EmailSender = (*LogSender)(nil)

func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(_ context.Context, email *Email) error {
	s.logger.Warn("Email delivery disabled, email not sent", "subject", email.Subject, "to", email.To)
	return nil
}

// NewEmailSender picks the HTTP client when delivery is enabled
func NewEmailSender(logger *slog.Logger, cfg *config.NotificationConfig) EmailSender {
	if !cfg.Enabled {
		return NewLogSender(logger)
	}
	return NewHTTPEmailClient(logger, cfg)
}
