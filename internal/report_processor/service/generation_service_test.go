package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"

	"github.com/property-report-ledger/internal/domain/report"
	"github.com/property-report-ledger/internal/domain/shared"
	"github.com/property-report-ledger/internal/generation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerationService_Process(t *testing.T) {
	ctx := context.Background()
	logger := slog.Default()

	tests := []struct {
		name        string
		setupMocks  func(lc *MockLifecycle, gen *MockGenerator, rep *report.Report)
		expectError bool
	}{
		{
			name: "success marks completed",
			setupMocks: func(lc *MockLifecycle, gen *MockGenerator, rep *report.Report) {
				lc.On("GetByID", ctx, rep.ID).Return(rep, nil).Once()
				gen.On("Generate", ctx, rep).Return("/uploads/report.html", nil).Once()
				lc.On("MarkCompleted", ctx, rep.ID, "/uploads/report.html", "corr-1").Return(rep, nil).Once()
			},
		},
		{
			name: "generator error marks failed with reason",
			setupMocks: func(lc *MockLifecycle, gen *MockGenerator, rep *report.Report) {
				lc.On("GetByID", ctx, rep.ID).Return(rep, nil).Once()
				gen.On("Generate", ctx, rep).Return("", &generation.StageError{Stage: generation.StageArtifact, Err: errors.New("disk full")}).Once()
				lc.On("MarkFailed", ctx, rep.ID, "Report generation failed while storing artifact", "corr-1").Return(rep, nil).Once()
			},
		},
		{
			name: "upstream error body stays out of the reason",
			setupMocks: func(lc *MockLifecycle, gen *MockGenerator, rep *report.Report) {
				lc.On("GetByID", ctx, rep.ID).Return(rep, nil).Once()
				upstream := &generation.APIError{StatusCode: 502, Body: "<html>bad gateway é</html>"}
				gen.On("Generate", ctx, rep).Return("", &generation.StageError{Stage: generation.StageAnalysis, Err: upstream}).Once()
				lc.On("MarkFailed", ctx, rep.ID, "Analysis generation failed (status 502)", "corr-1").Return(rep, nil).Once()
			},
		},
		{
			name: "generator panic marks failed",
			setupMocks: func(lc *MockLifecycle, gen *MockGenerator, rep *report.Report) {
				lc.On("GetByID", ctx, rep.ID).Return(rep, nil).Once()
				gen.On("Generate", ctx, rep).Panic("nil map").Once()
				lc.On("MarkFailed", ctx, rep.ID, "Report generation failed", "corr-1").Return(rep, nil).Once()
			},
		},
		{
			name: "terminal report is skipped",
			setupMocks: func(lc *MockLifecycle, gen *MockGenerator, rep *report.Report) {
				_ = rep.Complete("/uploads/done.html")
				lc.On("GetByID", ctx, rep.ID).Return(rep, nil).Once()
			},
		},
		{
			name: "unknown report is skipped",
			setupMocks: func(lc *MockLifecycle, gen *MockGenerator, rep *report.Report) {
				lc.On("GetByID", ctx, rep.ID).Return(nil, report.ErrReportNotFound{ReportID: rep.ID}).Once()
			},
		},
		{
			name: "invalid transition is a no-op",
			setupMocks: func(lc *MockLifecycle, gen *MockGenerator, rep *report.Report) {
				lc.On("GetByID", ctx, rep.ID).Return(rep, nil).Once()
				gen.On("Generate", ctx, rep).Return("/uploads/late.html", nil).Once()
				lc.On("MarkCompleted", ctx, rep.ID, "/uploads/late.html", "corr-1").
					Return(nil, report.ErrInvalidTransition{ReportID: rep.ID, From: report.StatusFailed, To: report.StatusCompleted}).Once()
			},
		},
		{
			name: "storage error while recording outcome is returned",
			setupMocks: func(lc *MockLifecycle, gen *MockGenerator, rep *report.Report) {
				lc.On("GetByID", ctx, rep.ID).Return(rep, nil).Once()
				gen.On("Generate", ctx, rep).Return("/uploads/report.html", nil).Once()
				lc.On("MarkCompleted", ctx, rep.ID, "/uploads/report.html", "corr-1").Return(nil, errors.New("connection reset")).Once()
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lc := new(MockLifecycle)
			gen := new(MockGenerator)
			rep := newProcessingReport()
			tt.setupMocks(lc, gen, rep)

			svc := NewGenerationService(lc, gen, logger)
			err := svc.Process(ctx, &shared.GenerationRequest{ReportID: rep.ID, AccountID: rep.AccountID, CorrelationID: "corr-1"})

			if tt.expectError {
				require.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			lc.AssertExpectations(t)
			gen.AssertExpectations(t)
		})
	}
}
