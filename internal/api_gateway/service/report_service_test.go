package service

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"math"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/property-report-ledger/internal/domain/ledger"
	"github.com/property-report-ledger/internal/domain/report"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestReportServiceImpl(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()
	reportID := uuid.New()

	t.Run("CreateReportPassesCorrelationID", func(t *testing.T) {
		ops := new(MockReportOperations)
		input := &report.InputParameters{PropertyAddress: "7 Mill Lane, York"}
		ops.On("CreateReport", ctx, accountID, input, "corr-9").Return(nil, ledger.ErrInsufficientCredits).Once()

		_, err := NewReportService(ops, new(MockArtifactSource)).CreateReport(ctx, accountID, input, "corr-9")

		assert.ErrorIs(t, err, ledger.ErrInsufficientCredits)
		ops.AssertExpectations(t)
	})

	t.Run("GetReportChecksOwner", func(t *testing.T) {
		ops := new(MockReportOperations)
		ops.On("GetReport", ctx, reportID, accountID).Return(nil, report.ErrReportNotFound{ReportID: reportID}).Once()

		_, err := NewReportService(ops, new(MockArtifactSource)).GetReport(ctx, accountID, reportID)

		assert.ErrorIs(t, err, report.ErrReportNotFound{})
	})

	t.Run("ListReportsUsesOffset", func(t *testing.T) {
		ops := new(MockReportOperations)
		reports := []*report.Report{{ID: reportID, AccountID: accountID}}
		ops.On("ListReports", ctx, accountID, 10, 10).Return(reports, int64(11), nil).Once()

		got, total, err := NewReportService(ops, new(MockArtifactSource)).ListReports(ctx, accountID, 2, 10)

		require.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, int64(11), total)
	})

	t.Run("GetAnalysis", func(t *testing.T) {
		ops := new(MockReportOperations)
		analysis := &report.Analysis{ReportID: reportID, Content: "## Summary"}
		ops.On("GetAnalysis", ctx, reportID, accountID).Return(analysis, nil).Once()

		got, err := NewReportService(ops, new(MockArtifactSource)).GetAnalysis(ctx, accountID, reportID)

		require.NoError(t, err)
		assert.Equal(t, "## Summary", got.Content)
	})

	t.Run("ListReportsRejectsHugePage", func(t *testing.T) {
		ops := new(MockReportOperations)

		_, _, err := NewReportService(ops, new(MockArtifactSource)).ListReports(ctx, accountID, math.MaxInt/10, 100)

		assert.ErrorIs(t, err, ErrInvalidPage)
		ops.AssertNotCalled(t, "ListReports", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestReportServiceImpl_OpenArtifact(t *testing.T) {
	ctx := context.Background()
	accountID := uuid.New()
	reportID := uuid.New()

	tests := []struct {
		name      string
		report    *report.Report
		reportErr error
		openErr   error
		wantErr   error
		wantOpen  bool
	}{
		{
			name:     "completed report",
			report:   &report.Report{ID: reportID, AccountID: accountID, Status: report.StatusCompleted},
			wantOpen: true,
		},
		{
			name:      "report owned by another account",
			reportErr: report.ErrReportNotFound{ReportID: reportID},
			wantErr:   report.ErrReportNotFound{},
		},
		{
			name:    "report still processing",
			report:  &report.Report{ID: reportID, AccountID: accountID, Status: report.StatusProcessing},
			wantErr: ErrReportNotReady,
		},
		{
			name:    "failed report",
			report:  &report.Report{ID: reportID, AccountID: accountID, Status: report.StatusFailed},
			wantErr: ErrReportNotReady,
		},
		{
			name:     "artifact missing on disk",
			report:   &report.Report{ID: reportID, AccountID: accountID, Status: report.StatusCompleted},
			openErr:  fmt.Errorf("failed to open artifact: %w", fs.ErrNotExist),
			wantErr:  ErrArtifactNotFound,
			wantOpen: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ops := new(MockReportOperations)
			artifacts := new(MockArtifactSource)
			if tt.report != nil {
				ops.On("GetReport", ctx, reportID, accountID).Return(tt.report, nil).Once()
			} else {
				ops.On("GetReport", ctx, reportID, accountID).Return(nil, tt.reportErr).Once()
			}
			if tt.wantOpen {
				if tt.openErr != nil {
					artifacts.On("Open", ctx, reportID).Return(nil, int64(0), tt.openErr).Once()
				} else {
					artifacts.On("Open", ctx, reportID).Return(io.NopCloser(strings.NewReader("<html></html>")), int64(13), nil).Once()
				}
			}

			got, err := NewReportService(ops, artifacts).OpenArtifact(ctx, accountID, reportID)

			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
			} else {
				require.NoError(t, err)
				defer got.Content.Close()
				assert.Equal(t, "report-"+reportID.String()+".html", got.Name)
				assert.Equal(t, int64(13), got.Size)
			}
			if !tt.wantOpen {
				artifacts.AssertNotCalled(t, "Open", mock.Anything, mock.Anything)
			}
			ops.AssertExpectations(t)
			artifacts.AssertExpectations(t)
		})
	}
}
