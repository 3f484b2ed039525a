package watchdog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/property-report-ledger/internal/config"
	"github.com/property-report-ledger/internal/domain/report"
)

// TimeoutReason is recorded on reports the watchdog gives up on
const TimeoutReason = "generation timed out"

// StuckReports is the part of the report lifecycle the watchdog needs
type StuckReports interface {
	ListStuck(ctx context.Context, createdBefore time.Time, limit int) ([]*report.Report, error)
	MarkFailed(ctx context.Context, reportID uuid.UUID, reason, correlationID string) (*report.Report, error)
}

// Watchdog fails reports that stayed in processing longer than the timeout.
// MarkFailed refunds them, so a crashed generation never keeps the credit.
type Watchdog struct {
	reports   StuckReports
	logger    *slog.Logger
	interval  time.Duration
	timeout   time.Duration
	batchSize int
	now       func() time.Time
}

func NewWatchdog(cfg *config.WatchdogConfig, reports StuckReports, logger *slog.Logger) *Watchdog {
	return &Watchdog{
		reports:   reports,
		logger:    logger,
		interval:  cfg.Interval,
		timeout:   cfg.ProcessingTimeout,
		batchSize: cfg.BatchSize,
		now:       time.Now,
	}
}

// Start sweeps on every tick until the context is canceled
func (w *Watchdog) Start(ctx context.Context) {
	w.logger.Info("Starting stuck report watchdog",
		"interval", w.interval.String(),
		"processing_timeout", w.timeout.String(),
		"batch_size", w.batchSize,
	)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Watchdog stopping due to context cancellation.")
			return
		case <-ticker.C:
			if _, err := w.Sweep(ctx); err != nil {
				w.logger.Error("Stuck report sweep failed", "error", err)
			}
		}
	}
}

// Sweep fails one batch of stuck reports and returns how many it failed
func (w *Watchdog) Sweep(ctx context.Context) (int, error) {
	cutoff := w.now().Add(-w.timeout)
	stuck, err := w.reports.ListStuck(ctx, cutoff, w.batchSize)
	if err != nil {
		return 0, fmt.Errorf("failed to list stuck reports: %w", err)
	}

	failed := 0
	for _, rep := range stuck {
		logger := w.logger.With("report_id", rep.ID.String(), "account_id", rep.AccountID.String())
		if _, err := w.reports.MarkFailed(ctx, rep.ID, TimeoutReason, ""); err != nil {
			if errors.Is(err, report.ErrInvalidTransition{}) {
				logger.Info("Report reached a terminal state before the watchdog")
				continue
			}
			logger.Error("Failed to fail stuck report", "error", err)
			continue
		}
		failed++
		logger.Warn("Stuck report failed and refunded", "created_at", rep.CreatedAt)
	}

	return failed, nil
}
