package service

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/property-report-ledger/internal/domain/account"
	"github.com/property-report-ledger/internal/domain/ledger"
)

// Provisioner creates accounts and grants promotional credits
type Provisioner interface {
	ProvisionAccount(ctx context.Context, email, name string) (*account.Account, error)
	ClaimFreeCredits(ctx context.Context, accountID uuid.UUID) (*ledger.Entry, error)
}

// LedgerReader reads the committed ledger
type LedgerReader interface {
	History(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*ledger.Entry, int64, error)
}

// AccountServiceImpl implements the AccountService interface
type AccountServiceImpl struct {
	accountRepo account.Repository
	provisioner Provisioner
	ledger      LedgerReader
}

var _ AccountService = (*AccountServiceImpl)(nil)

// NewAccountService creates a new account service
func NewAccountService(accountRepo account.Repository, provisioner Provisioner, ledger LedgerReader) AccountService {
	return &AccountServiceImpl{
		accountRepo: accountRepo,
		provisioner: provisioner,
		ledger:      ledger,
	}
}

// CreateAccount checks for a duplicate email before provisioning
func (s *AccountServiceImpl) CreateAccount(ctx context.Context, email, name string) (*account.Account, error) {
	existing, err := s.accountRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, account.ErrDuplicateEmail{Email: existing.Email}
	}

	return s.provisioner.ProvisionAccount(ctx, email, name)
}

// GetAccount retrieves an account by its ID, returns ErrAccountNotFound if not found
func (s *AccountServiceImpl) GetAccount(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return s.accountRepo.GetByID(ctx, id)
}

func (s *AccountServiceImpl) GetLedger(ctx context.Context, id uuid.UUID, page, perPage int) ([]*ledger.Entry, int64, error) {
	offset, err := pageOffset(page, perPage)
	if err != nil {
		return nil, 0, err
	}
	return s.ledger.History(ctx, id, perPage, offset)
}

func (s *AccountServiceImpl) ClaimFreeCredits(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	return s.provisioner.ClaimFreeCredits(ctx, id)
}
