package reports

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/property-report-ledger/internal/credits"
	"github.com/property-report-ledger/internal/domain/ledger"
	"github.com/property-report-ledger/internal/domain/outbox"
	"github.com/property-report-ledger/internal/domain/report"
	"github.com/property-report-ledger/internal/domain/shared"
	"github.com/stretchr/testify/mock"
)

type MockReportRepo struct {
	mock.Mock
}

func (m *MockReportRepo) Create(ctx context.Context, rep *report.Report) error {
	args := m.Called(ctx, rep)
	return args.Error(0)
}

func (m *MockReportRepo) GetByID(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Report), args.Error(1)
}

func (m *MockReportRepo) GetForAccount(ctx context.Context, id, accountID uuid.UUID) (*report.Report, error) {
	args := m.Called(ctx, id, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Report), args.Error(1)
}

func (m *MockReportRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (*report.Report, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Report), args.Error(1)
}

func (m *MockReportRepo) Update(ctx context.Context, rep *report.Report) error {
	args := m.Called(ctx, rep)
	return args.Error(0)
}

func (m *MockReportRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*report.Report, error) {
	args := m.Called(ctx, accountID, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*report.Report), args.Error(1)
}

func (m *MockReportRepo) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	args := m.Called(ctx, accountID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockReportRepo) ListStuck(ctx context.Context, createdBefore time.Time, limit int) ([]*report.Report, error) {
	args := m.Called(ctx, createdBefore, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*report.Report), args.Error(1)
}

func (m *MockReportRepo) WithTx(tx pgx.Tx) report.Repository {
	return m
}

type MockOutboxRepo struct {
	mock.Mock
}

func (m *MockOutboxRepo) Create(ctx context.Context, message *outbox.Message) error {
	args := m.Called(ctx, message)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetPending(ctx context.Context, limit int) ([]*outbox.Message, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) UpdateStatus(ctx context.Context, id int64, status shared.OutboxStatus) error {
	args := m.Called(ctx, id, status)
	return args.Error(0)
}

func (m *MockOutboxRepo) IncrementAttempts(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOutboxRepo) GetByEventID(ctx context.Context, eventID uuid.UUID) (*outbox.Message, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*outbox.Message), args.Error(1)
}

func (m *MockOutboxRepo) WithTx(tx pgx.Tx) outbox.Repository {
	return m
}

type MockAnalysisRepo struct {
	mock.Mock
}

func (m *MockAnalysisRepo) Save(ctx context.Context, analysis *report.Analysis) error {
	args := m.Called(ctx, analysis)
	return args.Error(0)
}

func (m *MockAnalysisRepo) GetByReportID(ctx context.Context, reportID uuid.UUID) (*report.Analysis, error) {
	args := m.Called(ctx, reportID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*report.Analysis), args.Error(1)
}

type MockCompensator struct {
	mock.Mock
}

func (m *MockCompensator) CompensateTx(ctx context.Context, tx pgx.Tx, rep *report.Report) (*ledger.Entry, bool, error) {
	args := m.Called(ctx, tx, rep)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*ledger.Entry), args.Bool(1), args.Error(2)
}

// fakeReserver debits nothing; it hands a token to the follow-up and reports its error
type fakeReserver struct {
	err         error
	calls       int
	description string
	token       *credits.ReservationToken
}

func (f *fakeReserver) ReserveWith(ctx context.Context, accountID, reportID uuid.UUID, description string, then credits.ReservedFunc) (*credits.ReservationToken, error) {
	f.calls++
	f.description = description
	if f.err != nil {
		return nil, f.err
	}
	token := &credits.ReservationToken{EntryID: uuid.New(), AccountID: accountID, ReportID: reportID}
	if then != nil {
		if err := then(ctx, nil, token); err != nil {
			return nil, err
		}
	}
	f.token = token
	return token, nil
}

// fakeTxRunner runs fn without a real transaction
type fakeTxRunner struct{}

func (fakeTxRunner) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	return fn(nil)
}

type lifecycleFixture struct {
	lifecycle   *Lifecycle
	reports     *MockReportRepo
	outbox      *MockOutboxRepo
	analyses    *MockAnalysisRepo
	reserver    *fakeReserver
	compensator *MockCompensator
}

func newLifecycleFixture() *lifecycleFixture {
	f := &lifecycleFixture{
		reports:     new(MockReportRepo),
		outbox:      new(MockOutboxRepo),
		analyses:    new(MockAnalysisRepo),
		reserver:    &fakeReserver{},
		compensator: new(MockCompensator),
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.lifecycle = NewLifecycle(logger, fakeTxRunner{}, f.reports, f.outbox, f.analyses, f.reserver, f.compensator)
	return f
}

func validInput() *report.InputParameters {
	return &report.InputParameters{
		PropertyAddress:  "7 Mill Lane, York",
		PropertyPostcode: "YO1 7HH",
		PurchasePrice:    320000,
		PropertyType:     "commercial",
		CurrentCondition: "vacant",
		ReportType:       report.ReportTypeProfessional,
	}
}

func processingReport(accountID uuid.UUID) *report.Report {
	rep, _ := report.NewReport(uuid.New(), accountID, validInput(), uuid.New())
	return rep
}
