package credits

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/property-report-ledger/internal/domain/ledger"
	"github.com/property-report-ledger/internal/platform/locking"
	"github.com/property-report-ledger/internal/platform/persistence"
)

// ReservationToken identifies the debit entry that paid for one report
type ReservationToken struct {
	EntryID      uuid.UUID
	AccountID    uuid.UUID
	ReportID     uuid.UUID
	BalanceAfter int64
}

// ReservedFunc runs inside the reservation transaction
type ReservedFunc func(ctx context.Context, tx pgx.Tx, token *ReservationToken) error

// Reserver takes one credit per report. Reservations for one account are
// serialized by the account row lock; the optional distributed lock sheds
// concurrent attempts before they queue on the database.
type Reserver struct {
	db     persistence.TxRunner
	store  *LedgerStore
	locker locking.AccountLocker
	logger *slog.Logger
}

func NewReserver(logger *slog.Logger, db persistence.TxRunner, store *LedgerStore, locker locking.AccountLocker) *Reserver {
	if locker == nil {
		locker = locking.NoopLocker{}
	}
	return &Reserver{
		db:     db,
		store:  store,
		locker: locker,
		logger: logger,
	}
}

// Reserve debits one credit in its own transaction
func (r *Reserver) Reserve(ctx context.Context, accountID, reportID uuid.UUID, description string) (*ReservationToken, error) {
	return r.ReserveWith(ctx, accountID, reportID, description, nil)
}

// ReserveWith debits one credit and runs then in the same transaction, so the
// debit commits only together with whatever then writes.
func (r *Reserver) ReserveWith(ctx context.Context, accountID, reportID uuid.UUID, description string, then ReservedFunc) (*ReservationToken, error) {
	var token *ReservationToken
	err := r.locker.WithAccountLock(ctx, accountID, func(ctx context.Context) error {
		return r.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
			var err error
			token, err = r.ReserveTx(ctx, tx, accountID, reportID, description)
			if err != nil {
				return err
			}
			if then != nil {
				return then(ctx, tx, token)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return token, nil
}

// ReserveTx fails with ErrInsufficientCredits, leaving the account untouched, when the balance is below one
func (r *Reserver) ReserveTx(ctx context.Context, tx pgx.Tx, accountID, reportID uuid.UUID, description string) (*ReservationToken, error) {
	acc, err := r.store.lockAccount(ctx, tx, accountID)
	if err != nil {
		return nil, err
	}

	if !acc.HasCredits(1) {
		r.logger.Info("Reservation rejected, insufficient credits", "account_id", accountID.String(), "balance", acc.Balance)
		return nil, ledger.ErrInsufficientCredits
	}

	entry, err := r.store.appendLocked(ctx, tx, acc, AppendRequest{
		AccountID:       accountID,
		Delta:           -1,
		Kind:            ledger.KindUsed,
		Description:     description,
		RelatedReportID: &reportID,
	})
	if err != nil {
		return nil, err
	}

	return &ReservationToken{
		EntryID:      entry.ID,
		AccountID:    accountID,
		ReportID:     reportID,
		BalanceAfter: entry.BalanceAfter,
	}, nil
}
