// Package credits implements the credit ledger: appends that keep the
// materialized balance and the entry log in step, reservations that pay for
// reports, refunds for failed reports and promotional or paid grants.
package credits

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/property-report-ledger/internal/domain/account"
	"github.com/property-report-ledger/internal/domain/ledger"
	"github.com/property-report-ledger/internal/platform/persistence"
)

// AppendRequest describes one balance change
type AppendRequest struct {
	AccountID         uuid.UUID
	Delta             int64
	Kind              ledger.Kind
	Description       string
	RelatedReportID   *uuid.UUID
	ExternalReference string
}

// LedgerStore owns every write to an account balance
type LedgerStore struct {
	db          persistence.TxRunner
	accountRepo account.Repository
	ledgerRepo  ledger.Repository
	logger      *slog.Logger
}

func NewLedgerStore(logger *slog.Logger, db persistence.TxRunner, accountRepo account.Repository, ledgerRepo ledger.Repository) *LedgerStore {
	return &LedgerStore{
		db:          db,
		accountRepo: accountRepo,
		ledgerRepo:  ledgerRepo,
		logger:      logger,
	}
}

// Append records req in its own transaction
func (s *LedgerStore) Append(ctx context.Context, req AppendRequest) (*ledger.Entry, error) {
	var entry *ledger.Entry
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		var err error
		entry, err = s.AppendTx(ctx, tx, req)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// AppendTx locks the account row and records req inside tx
func (s *LedgerStore) AppendTx(ctx context.Context, tx pgx.Tx, req AppendRequest) (*ledger.Entry, error) {
	acc, err := s.lockAccount(ctx, tx, req.AccountID)
	if err != nil {
		return nil, err
	}
	return s.appendLocked(ctx, tx, acc, req)
}

func (s *LedgerStore) lockAccount(ctx context.Context, tx pgx.Tx, accountID uuid.UUID) (*account.Account, error) {
	acc, err := s.accountRepo.WithTx(tx).LockForUpdate(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			return nil, err
		}
		s.logger.Error("Failed to lock account", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to lock account %s: %w", accountID, err)
	}
	return acc, nil
}

// appendLocked writes the entry and the new balance. acc must be row locked by tx.
func (s *LedgerStore) appendLocked(ctx context.Context, tx pgx.Tx, acc *account.Account, req AppendRequest) (*ledger.Entry, error) {
	entry, err := ledger.NewEntry(acc.ID, acc.Balance, req.Delta, req.Kind, req.Description, req.RelatedReportID)
	if err != nil {
		if errors.Is(err, ledger.ErrInvariantViolation) {
			s.logger.Error("Ledger invariant violation rejected",
				"account_id", acc.ID.String(),
				"balance", acc.Balance,
				"delta", req.Delta,
				"kind", string(req.Kind),
			)
		}
		return nil, err
	}
	entry.WithExternalReference(req.ExternalReference)

	if err := s.ledgerRepo.WithTx(tx).Create(ctx, entry); err != nil {
		return nil, err
	}
	if err := s.accountRepo.WithTx(tx).UpdateBalance(ctx, acc.ID, entry.BalanceAfter); err != nil {
		return nil, err
	}
	acc.Balance = entry.BalanceAfter

	s.logger.Info("Ledger entry appended",
		"entry_id", entry.ID.String(),
		"account_id", acc.ID.String(),
		"kind", string(entry.Kind),
		"delta", entry.Delta,
		"balance_after", entry.BalanceAfter,
	)
	return entry, nil
}

// GetBalance returns the committed materialized balance
func (s *LedgerStore) GetBalance(ctx context.Context, accountID uuid.UUID) (int64, error) {
	acc, err := s.accountRepo.GetByID(ctx, accountID)
	if err != nil {
		return 0, err
	}
	return acc.Balance, nil
}

// History returns a page of entries newest first and the total entry count
func (s *LedgerStore) History(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*ledger.Entry, int64, error) {
	if limit <= 0 {
		return nil, 0, errors.New("limit must be greater than 0")
	}
	if offset < 0 {
		return nil, 0, errors.New("offset cannot be negative")
	}

	if _, err := s.accountRepo.GetByID(ctx, accountID); err != nil {
		return nil, 0, err
	}

	entries, err := s.ledgerRepo.ListByAccount(ctx, accountID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.ledgerRepo.CountByAccount(ctx, accountID)
	if err != nil {
		return nil, 0, err
	}
	return entries, total, nil
}

// EntriesForReport returns the debit and any refund for a report, oldest first
func (s *LedgerStore) EntriesForReport(ctx context.Context, reportID uuid.UUID) ([]*ledger.Entry, error) {
	return s.ledgerRepo.ListByReport(ctx, reportID)
}
