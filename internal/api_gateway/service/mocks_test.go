package service

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/property-report-ledger/internal/domain/account"
	"github.com/property-report-ledger/internal/domain/ledger"
	"github.com/property-report-ledger/internal/domain/report"
	"github.com/stretchr/testify/mock"
)

type MockAccountRepository struct {
	mock.Mock
}

func (m *MockAccountRepository) Create(ctx context.Context, acc *account.Account) error {
	args := m.Called(ctx, acc)
	return args.Error(0)
}

func (m *MockAccountRepository) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) UpdateBalance(ctx context.Context, id uuid.UUID, balance int64) error {
	args := m.Called(ctx, id, balance)
	return args.Error(0)
}

func (m *MockAccountRepository) UpdateSubscriptionTier(ctx context.Context, id uuid.UUID, tier *string) error {
	args := m.Called(ctx, id, tier)
	return args.Error(0)
}

func (m *MockAccountRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockAccountRepository) WithTx(tx pgx.Tx) account.Repository {
	args := m.Called(tx)
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).(account.Repository)
}

type MockProvisioner struct {
	mock.Mock
}

func (m *MockProvisioner) ProvisionAccount(ctx context.Context, email, name string) (*account.Account, error) {
	args := m.Called(ctx, email, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*account.Account), args.Error(1)
}

func (m *MockProvisioner) ClaimFreeCredits(ctx context.Context, accountID uuid.UUID) (*ledger.Entry, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

type MockLedgerReader struct {
	mock.Mock
}

func (m *MockLedgerReader) History(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*ledger.Entry, int64, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*ledger.Entry), args.Get(1).(int64), args.Error(2)
}

type MockReportOperations struct {
	mock.Mock
}

func (m *MockReportOperations) CreateReport(ctx context.Context, accountID uuid.UUID, input *report.InputParameters, correlationID string) (*report.Report, error) {
	args := m.Called(ctx, accountID, input, correlationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Report), args.Error(1)
}

func (m *MockReportOperations) GetReport(ctx context.Context, reportID, accountID uuid.UUID) (*report.Report, error) {
	args := m.Called(ctx, reportID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Report), args.Error(1)
}

func (m *MockReportOperations) ListReports(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*report.Report, int64, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]*report.Report), args.Get(1).(int64), args.Error(2)
}

func (m *MockReportOperations) GetAnalysis(ctx context.Context, reportID, accountID uuid.UUID) (*report.Analysis, error) {
	args := m.Called(ctx, reportID, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Analysis), args.Error(1)
}

type MockArtifactSource struct {
	mock.Mock
}

func (m *MockArtifactSource) Open(ctx context.Context, reportID uuid.UUID) (io.ReadCloser, int64, error) {
	args := m.Called(ctx, reportID)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(int64), args.Error(2)
}

type MockGranter struct {
	mock.Mock
}

func (m *MockGranter) GrantPurchase(ctx context.Context, accountID uuid.UUID, credits int64, reference string) (*ledger.Entry, error) {
	args := m.Called(ctx, accountID, credits, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockGranter) StartSubscription(ctx context.Context, accountID uuid.UUID, plan, reference string) (*ledger.Entry, error) {
	args := m.Called(ctx, accountID, plan, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockGranter) RenewSubscription(ctx context.Context, accountID uuid.UUID, reference string) (*ledger.Entry, error) {
	args := m.Called(ctx, accountID, reference)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.Entry), args.Error(1)
}

func (m *MockGranter) CancelSubscription(ctx context.Context, accountID uuid.UUID) error {
	args := m.Called(ctx, accountID)
	return args.Error(0)
}
