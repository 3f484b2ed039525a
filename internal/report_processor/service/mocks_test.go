package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/property-report-ledger/internal/domain/report"
	"github.com/property-report-ledger/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

type MockLifecycle struct {
	mock.Mock
}

func (m *MockLifecycle) GetByID(ctx context.Context, reportID uuid.UUID) (*report.Report, error) {
	args := m.Called(ctx, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Report), args.Error(1)
}

func (m *MockLifecycle) MarkCompleted(ctx context.Context, reportID uuid.UUID, artifactLocation, correlationID string) (*report.Report, error) {
	args := m.Called(ctx, reportID, artifactLocation, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Report), args.Error(1)
}

func (m *MockLifecycle) MarkFailed(ctx context.Context, reportID uuid.UUID, reason, correlationID string) (*report.Report, error) {
	args := m.Called(ctx, reportID, reason, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Report), args.Error(1)
}

func (m *MockLifecycle) ListStuck(ctx context.Context, createdBefore time.Time, limit int) ([]*report.Report, error) {
	args := m.Called(ctx, createdBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*report.Report), args.Error(1)
}

type MockGenerator struct {
	mock.Mock
}

func (m *MockGenerator) Generate(ctx context.Context, rep *report.Report) (string, error) {
	args := m.Called(ctx, rep)
	return args.String(0), args.Error(1)
}

type MockGenerationService struct {
	mock.Mock
}

func (m *MockGenerationService) Process(ctx context.Context, request *shared.GenerationRequest) error {
	args := m.Called(ctx, request)
	return args.Error(0)
}

func newProcessingReport() *report.Report {
	rep, _ := report.NewReport(uuid.New(), uuid.New(), &report.InputParameters{
		PropertyAddress:  "44 Canal Street, Manchester",
		PropertyPostcode: "M1 3WD",
		PurchasePrice:    600000,
		PropertyType:     "office",
		CurrentCondition: "operational",
		ReportType:       report.ReportTypeBasic,
	}, uuid.New())
	return rep
}
