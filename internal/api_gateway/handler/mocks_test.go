package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/property-report-ledger/internal/api_gateway/middleware"
	"github.com/property-report-ledger/internal/api_gateway/service"
	"github.com/property-report-ledger/internal/domain/account"
	"github.com/property-report-ledger/internal/domain/ledger"
	"github.com/property-report-ledger/internal/domain/report"
	"github.com/stretchr/testify/mock"
)

type MockAccountService struct {
	mock.Mock
}

func (m *MockAccountService) CreateAccount(ctx context.Context, email, name string) (*account.Account, error) {
	args := m.Called(ctx, email, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountService) GetLedger(ctx context.Context, id uuid.UUID, page, perPage int) ([]*ledger.Entry, int64, error) {
	args := m.Called(ctx, id, page, perPage)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*ledger.Entry), args.Get(1).(int64), args.Error(2)
}

func (m *MockAccountService) ClaimFreeCredits(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

type MockReportService struct {
	mock.Mock
}

func (m *MockReportService) CreateReport(ctx context.Context, accountID uuid.UUID, input *report.InputParameters, correlationID string) (*report.Report, error) {
	args := m.Called(ctx, accountID, input, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Report), args.Error(1)
}

func (m *MockReportService) GetReport(ctx context.Context, accountID, reportID uuid.UUID) (*report.Report, error) {
	args := m.Called(ctx, accountID, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Report), args.Error(1)
}

func (m *MockReportService) ListReports(ctx context.Context, accountID uuid.UUID, page, perPage int) ([]*report.Report, int64, error) {
	args := m.Called(ctx, accountID, page, perPage)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*report.Report), args.Get(1).(int64), args.Error(2)
}

func (m *MockReportService) GetAnalysis(ctx context.Context, accountID, reportID uuid.UUID) (*report.Analysis, error) {
	args := m.Called(ctx, accountID, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Analysis), args.Error(1)
}

func (m *MockReportService) OpenArtifact(ctx context.Context, accountID, reportID uuid.UUID) (*service.Artifact, error) {
	args := m.Called(ctx, accountID, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.Artifact), args.Error(1)
}

type MockPaymentService struct {
	mock.Mock
}

func (m *MockPaymentService) ApplyEvent(ctx context.Context, event *service.PaymentEvent) (*service.PaymentResult, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PaymentResult), args.Error(1)
}

var (
	_ service.AccountService = (*MockAccountService)(nil)
	_ service.ReportService  = (*MockReportService)(nil)
	_ service.PaymentService = (*MockPaymentService)(nil)
)

func setupTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(middleware.CorrelationID())
	return r
}

// setupAccountRouter mounts routes behind the account middleware
func setupAccountRouter() (*gin.Engine, *gin.RouterGroup) {
	r := setupTestRouter()
	return r, r.Group("", middleware.AccountID())
}
