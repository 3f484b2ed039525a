// Package generation produces the analysis behind a report: it asks an LLM for
// the analysis, stores the document and renders the downloadable artifact.
package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/property-report-ledger/internal/config"
)

var ErrEmptyCompletion = errors.New("llm returned no content")

// APIError is a non-2xx answer from the LLM endpoint
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("llm api error: status %d: %s", e.StatusCode, e.Body)
}

// Completer turns a system and user prompt into text
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
	Model() string
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// LLMClient calls an OpenAI compatible chat completions endpoint
type LLMClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	model      string
	logger     *slog.Logger
}

var _ Completer = (*LLMClient)(nil)

func NewLLMClient(logger *slog.Logger, cfg *config.GenerationConfig) *LLMClient {
	return &LLMClient{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    strings.TrimRight(cfg.LLMBaseURL, "/"),
		apiKey:     cfg.LLMAPIKey,
		model:      cfg.LLMModel,
		logger:     logger,
	}
}

func (c *LLMClient) Model() string {
	return c.model
}

func (c *LLMClient) Complete(ctx context.Context, system, user string) (string, error) {
	body, err := json.Marshal(chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: 0.2,
		MaxTokens:   4000,
	})
	if err != nil {
		return "", fmt.Errorf("failed to encode llm request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to build llm request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("LLM request failed", "model", c.model, "error", err)
		return "", fmt.Errorf("failed to call llm: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("failed to read llm response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Body: truncate(string(raw), 512)}
		c.logger.Error("LLM returned error status", "model", c.model, "status", resp.StatusCode, "body", apiErr.Body)
		return "", apiErr
	}

	var decoded chatResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("failed to decode llm response: %w", err)
	}
	if len(decoded.Choices) == 0 || strings.TrimSpace(decoded.Choices[0].Message.Content) == "" {
		return "", ErrEmptyCompletion
	}

	return decoded.Choices[0].Message.Content, nil
}

// truncate drops invalid UTF-8 and cuts s to at most n bytes on a rune boundary
func truncate(s string, n int) string {
	s = strings.ToValidUTF8(s, "")
	if len(s) <= n {
		return s
	}
	cut := n
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
