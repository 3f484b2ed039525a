package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Repository manages the append-only ledger. Entries are never updated or deleted.
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	// ListByAccount returns entries newest first
	ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*Entry, error)
	CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error)
	// ListByReport returns every entry that references the report, oldest first
	ListByReport(ctx context.Context, reportID uuid.UUID) ([]*Entry, error)
	FindRefundForReport(ctx context.Context, reportID uuid.UUID) (*Entry, error)
	CountByDescription(ctx context.Context, accountID uuid.UUID, kind Kind, description string) (int, error)
	WithTx(tx pgx.Tx) Repository
}

// ErrEntryNotFound indicates missing ledger entry
type ErrEntryNotFound struct {
	EntryID uuid.UUID
}

func (e ErrEntryNotFound) Error() string {
	return "ledger entry not found: " + e.EntryID.String()
}

// Is implements the errors.Is interface for ErrEntryNotFound
func (e ErrEntryNotFound) Is(target error) bool {
	t, ok := target.(ErrEntryNotFound)
	if !ok {
		return false
	}
	// If the target EntryID is empty, consider it a match for any ErrEntryNotFound
	if t.EntryID == uuid.Nil {
		return true
	}
	return e.EntryID == t.EntryID
}

// ErrDuplicateEntry indicates an external reference or refund was already recorded
type ErrDuplicateEntry struct {
	AccountID uuid.UUID
	Reference string
}

func (e ErrDuplicateEntry) Error() string {
	return "duplicate ledger entry for account " + e.AccountID.String() + ": " + e.Reference
}

// Is implements the errors.Is interface for ErrDuplicateEntry
func (e ErrDuplicateEntry) Is(target error) bool {
	t, ok := target.(ErrDuplicateEntry)
	if !ok {
		return false
	}
	if t.AccountID == uuid.Nil {
		return true
	}
	return e.AccountID == t.AccountID && e.Reference == t.Reference
}
