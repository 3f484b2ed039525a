package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/google/uuid"
	"github.com/property-report-ledger/internal/domain/report"
)

var (
	// ErrReportNotReady is returned for artifacts of reports that have not completed
	ErrReportNotReady = errors.New("report is not completed")

	// ErrArtifactNotFound means a completed report has no stored artifact
	ErrArtifactNotFound = errors.New("report artifact not found")
)

// MaxPage bounds the 1-based page so the derived offset cannot overflow
const MaxPage = 100_000

// ReportOperations is the inbound side of the report lifecycle
type ReportOperations interface {
	CreateReport(ctx context.Context, accountID uuid.UUID, input *report.InputParameters, correlationID string) (*report.Report, error)
	GetReport(ctx context.Context, reportID, accountID uuid.UUID) (*report.Report, error)
	ListReports(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*report.Report, int64, error)
	GetAnalysis(ctx context.Context, reportID, accountID uuid.UUID) (*report.Analysis, error)
}

// ArtifactSource reads rendered report artifacts
type ArtifactSource interface {
	Open(ctx context.Context, reportID uuid.UUID) (io.ReadCloser, int64, error)
}

// Artifact is an open rendered report. The caller closes Content.
type Artifact struct {
	Name    string
	Size    int64
	Content io.ReadCloser
}

// ReportServiceImpl implements the ReportService interface
type ReportServiceImpl struct {
	lifecycle ReportOperations
	artifacts ArtifactSource
}

var _ ReportService = (*ReportServiceImpl)(nil)

// NewReportService creates a new report service
func NewReportService(lifecycle ReportOperations, artifacts ArtifactSource) ReportService {
	return &ReportServiceImpl{lifecycle: lifecycle, artifacts: artifacts}
}

func (s *ReportServiceImpl) CreateReport(ctx context.Context, accountID uuid.UUID, input *report.InputParameters, correlationID string) (*report.Report, error) {
	return s.lifecycle.CreateReport(ctx, accountID, input, correlationID)
}

func (s *ReportServiceImpl) GetReport(ctx context.Context, accountID, reportID uuid.UUID) (*report.Report, error) {
	return s.lifecycle.GetReport(ctx, reportID, accountID)
}

// ListReports converts a 1-based page into an offset
func (s *ReportServiceImpl) ListReports(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*report.Report, int64, error) {
	offset, err := pageOffset(page, perPage)
	if err != nil {
		return nil, 0, err
	}
	return s.lifecycle.ListReports(ctx, accountID, perPage, offset)
}

func (s *ReportServiceImpl) GetAnalysis(ctx context.Context, accountID, reportID uuid.UUID) (*report.Analysis, error) {
	return s.lifecycle.GetAnalysis(ctx, reportID, accountID)
}

// OpenArtifact checks ownership before touching the artifact store
func (s *ReportServiceImpl) OpenArtifact(ctx context.Context, accountID, reportID uuid.UUID) (*Artifact, error) {
	rep, err := s.lifecycle.GetReport(ctx, reportID, accountID)
	if err != nil {
		return nil, err
	}
	if rep.Status != report.StatusCompleted {
		return nil, fmt.Errorf("%w: status %s", ErrReportNotReady, rep.Status)
	}

	content, size, err := s.artifacts.Open(ctx, reportID)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %v", ErrArtifactNotFound, err)
		}
		return nil, err
	}

	return &Artifact{
		Name:    "report-" + reportID.String() + ".html",
		Size:    size,
		Content: content,
	}, nil
}
