package credits

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/property-report-ledger/internal/domain/account"
	"github.com/property-report-ledger/internal/domain/ledger"
	"github.com/property-report-ledger/internal/platform/persistence"
)

// memState is an in-memory stand-in for the accounts and ledger_entries tables.
// Transactions are serialized and rolled back on error, which is enough to
// model the account row lock.
type memState struct {
	txMu sync.Mutex

	mu       sync.Mutex
	accounts map[uuid.UUID]account.Account
	entries  []ledger.Entry

	createErr error
}

func newMemState() *memState {
	return &memState{accounts: make(map[uuid.UUID]account.Account)}
}

func (s *memState) ExecuteTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	accounts := make(map[uuid.UUID]account.Account, len(s.accounts))
	for k, v := range s.accounts {
		accounts[k] = v
	}
	entries := append([]ledger.Entry(nil), s.entries...)
	s.mu.Unlock()

	if err := fn(nil); err != nil {
		s.mu.Lock()
		s.accounts = accounts
		s.entries = entries
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *memState) seedAccount(balance int64) uuid.UUID {
	acc, _ := account.NewAccount(uuid.NewString()+"@example.com", "Test User")
	acc.Balance = balance
	s.mu.Lock()
	s.accounts[acc.ID] = *acc
	s.mu.Unlock()
	return acc.ID
}

func (s *memState) balance(id uuid.UUID) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.accounts[id].Balance
}

// entriesFor returns the account's entries oldest first
func (s *memState) entriesFor(id uuid.UUID) []*ledger.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*ledger.Entry
	for i := range s.entries {
		if s.entries[i].AccountID == id {
			e := s.entries[i]
			out = append(out, &e)
		}
	}
	return out
}

var _ persistence.TxRunner = (*memState)(nil)

type memAccountRepo struct{ s *memState }

func (r memAccountRepo) Create(ctx context.Context, acc *account.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.accounts {
		if existing.Email == acc.Email {
			return account.ErrDuplicateEmail{Email: acc.Email}
		}
	}
	r.s.accounts[acc.ID] = *acc
	return nil
}

func (r memAccountRepo) GetByID(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	acc, ok := r.s.accounts[id]
	if !ok {
		return nil, account.ErrAccountNotFound{AccountID: id}
	}
	return &acc, nil
}

func (r memAccountRepo) GetByEmail(ctx context.Context, email string) (*account.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, acc := range r.s.accounts {
		if acc.Email == email {
			a := acc
			return &a, nil
		}
	}
	return nil, account.ErrAccountNotFound{}
}

func (r memAccountRepo) UpdateBalance(ctx context.Context, id uuid.UUID, balance int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	acc, ok := r.s.accounts[id]
	if !ok {
		return account.ErrAccountNotFound{AccountID: id}
	}
	acc.Balance = balance
	r.s.accounts[id] = acc
	return nil
}

func (r memAccountRepo) UpdateSubscriptionTier(ctx context.Context, id uuid.UUID, tier *string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	acc, ok := r.s.accounts[id]
	if !ok {
		return account.ErrAccountNotFound{AccountID: id}
	}
	acc.SubscriptionTier = tier
	r.s.accounts[id] = acc
	return nil
}

func (r memAccountRepo) LockForUpdate(ctx context.Context, id uuid.UUID) (*account.Account, error) {
	return r.GetByID(ctx, id)
}

func (r memAccountRepo) WithTx(tx pgx.Tx) account.Repository { return r }

type memLedgerRepo struct{ s *memState }

func (r memLedgerRepo) Create(ctx context.Context, entry *ledger.Entry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.createErr != nil {
		return r.s.createErr
	}
	for _, e := range r.s.entries {
		if entry.ExternalReference != nil && e.ExternalReference != nil &&
			e.AccountID == entry.AccountID && *e.ExternalReference == *entry.ExternalReference {
			return ledger.ErrDuplicateEntry{AccountID: entry.AccountID, Reference: *entry.ExternalReference}
		}
		if entry.Kind == ledger.KindRefund && e.Kind == ledger.KindRefund &&
			entry.RelatedReportID != nil && e.RelatedReportID != nil && *e.RelatedReportID == *entry.RelatedReportID {
			return ledger.ErrDuplicateEntry{AccountID: entry.AccountID, Reference: "refund:" + entry.RelatedReportID.String()}
		}
	}
	r.s.entries = append(r.s.entries, *entry)
	return nil
}

func (r memLedgerRepo) GetByID(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, e := range r.s.entries {
		if e.ID == id {
			found := e
			return &found, nil
		}
	}
	return nil, ledger.ErrEntryNotFound{EntryID: id}
}

func (r memLedgerRepo) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*ledger.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var newestFirst []*ledger.Entry
	for i := len(r.s.entries) - 1; i >= 0; i-- {
		if r.s.entries[i].AccountID == accountID {
			e := r.s.entries[i]
			newestFirst = append(newestFirst, &e)
		}
	}
	if offset >= len(newestFirst) {
		return []*ledger.Entry{}, nil
	}
	end := offset + limit
	if end > len(newestFirst) {
		end = len(newestFirst)
	}
	return newestFirst[offset:end], nil
}

func (r memLedgerRepo) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for _, e := range r.s.entries {
		if e.AccountID == accountID {
			n++
		}
	}
	return n, nil
}

func (r memLedgerRepo) ListByReport(ctx context.Context, reportID uuid.UUID) ([]*ledger.Entry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []*ledger.Entry
	for _, e := range r.s.entries {
		if e.RelatedReportID != nil && *e.RelatedReportID == reportID {
			found := e
			out = append(out, &found)
		}
	}
	return out, nil
}

func (r memLedgerRepo) FindRefundForReport(ctx context.Context, reportID uuid.UUID) (*ledger.Entry, error) {
	entries, _ := r.ListByReport(ctx, reportID)
	for _, e := range entries {
		if e.Kind == ledger.KindRefund {
			return e, nil
		}
	}
	return nil, ledger.ErrEntryNotFound{}
}

func (r memLedgerRepo) CountByDescription(ctx context.Context, accountID uuid.UUID, kind ledger.Kind, description string) (int, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n := 0
	for _, e := range r.s.entries {
		if e.AccountID == accountID && e.Kind == kind && e.Description == description {
			n++
		}
	}
	return n, nil
}

func (r memLedgerRepo) WithTx(tx pgx.Tx) ledger.Repository { return r }

var (
	_ account.Repository = memAccountRepo{}
	_ ledger.Repository  = memLedgerRepo{}
)

// failingLocker never grants the lock
type failingLocker struct{ err error }

func (l failingLocker) WithAccountLock(ctx context.Context, _ uuid.UUID, _ func(ctx context.Context) error) error {
	return l.err
}

var errBoom = errors.New("boom")

func newDiscardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(s *memState) *LedgerStore {
	return NewLedgerStore(newDiscardLogger(), s, memAccountRepo{s}, memLedgerRepo{s})
}
