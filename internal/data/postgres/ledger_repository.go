package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/property-report-ledger/internal/domain/ledger"
	"github.com/property-report-ledger/internal/platform/persistence"
)

const (
	entryColumns = `id, account_id, delta, balance_after, kind, description, related_report_id, external_reference, created_at`

	refundReportConstraint = "ledger_entries_refund_report_key"
)

// LedgerRepository implements ledger.Repository on the append-only ledger_entries table
type LedgerRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewLedgerRepository creates a new PostgreSQL ledger repository
func NewLedgerRepository(logger *slog.Logger, db *persistence.PostgresDB) ledger.Repository {
	return &LedgerRepository{
		querier: db.Pool(),
		logger:  logger,
	}
}

func (r *LedgerRepository) WithTx(tx pgx.Tx) ledger.Repository {
	return &LedgerRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create appends an entry. The database assigns created_at from the statement
// clock so entries written under the account lock are strictly ordered.
func (r *LedgerRepository) Create(ctx context.Context, entry *ledger.Entry) error {
	query := `
		INSERT INTO ledger_entries (id, account_id, delta, balance_after, kind, description, related_report_id, external_reference)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at
	`

	err := r.querier.QueryRow(ctx, query,
		entry.ID,
		entry.AccountID,
		entry.Delta,
		entry.BalanceAfter,
		entry.Kind,
		entry.Description,
		entry.RelatedReportID,
		entry.ExternalReference,
	).Scan(&entry.CreatedAt)
	if err != nil {
		if constraint, ok := persistence.UniqueViolation(err); ok {
			ref := constraint
			switch {
			case constraint == refundReportConstraint && entry.RelatedReportID != nil:
				ref = "refund:" + entry.RelatedReportID.String()
			case entry.ExternalReference != nil:
				ref = *entry.ExternalReference
			}
			return ledger.ErrDuplicateEntry{AccountID: entry.AccountID, Reference: ref}
		}
		r.logger.Error("Failed to create ledger entry",
			"entry_id", entry.ID.String(),
			"account_id", entry.AccountID.String(),
			"kind", string(entry.Kind),
			"error", err,
		)
		return fmt.Errorf("failed to create ledger entry: %w", err)
	}

	return nil
}

// GetByID retrieves a single entry
func (r *LedgerRepository) GetByID(ctx context.Context, id uuid.UUID) (*ledger.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE id = $1
	`

	entry, err := scanEntry(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrEntryNotFound{EntryID: id}
		}
		r.logger.Error("Failed to get ledger entry", "entry_id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get ledger entry: %w", err)
	}

	return entry, nil
}

// ListByAccount returns a page of the account history, newest first
func (r *LedgerRepository) ListByAccount(ctx context.Context, accountID uuid.UUID, limit, offset int) ([]*ledger.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE account_id = $1
		ORDER BY seq DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.querier.Query(ctx, query, accountID, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list ledger entries", "account_id", accountID.String(), "error", err)
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	return r.collectEntries(rows)
}

// CountByAccount counts every entry of the account
func (r *LedgerRepository) CountByAccount(ctx context.Context, accountID uuid.UUID) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM ledger_entries
		WHERE account_id = $1
	`

	var count int64
	if err := r.querier.QueryRow(ctx, query, accountID).Scan(&count); err != nil {
		r.logger.Error("Failed to count ledger entries", "account_id", accountID.String(), "error", err)
		return 0, fmt.Errorf("failed to count ledger entries: %w", err)
	}

	return count, nil
}

// ListByReport returns the debit and any refund for a report, oldest first
func (r *LedgerRepository) ListByReport(ctx context.Context, reportID uuid.UUID) ([]*ledger.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE related_report_id = $1
		ORDER BY seq ASC
	`

	rows, err := r.querier.Query(ctx, query, reportID)
	if err != nil {
		r.logger.Error("Failed to list ledger entries for report", "report_id", reportID.String(), "error", err)
		return nil, fmt.Errorf("failed to list ledger entries for report: %w", err)
	}
	defer rows.Close()

	return r.collectEntries(rows)
}

// FindRefundForReport returns ErrEntryNotFound when the report was never refunded
func (r *LedgerRepository) FindRefundForReport(ctx context.Context, reportID uuid.UUID) (*ledger.Entry, error) {
	query := `
		SELECT ` + entryColumns + `
		FROM ledger_entries
		WHERE related_report_id = $1 AND kind = $2
	`

	entry, err := scanEntry(r.querier.QueryRow(ctx, query, reportID, ledger.KindRefund))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ledger.ErrEntryNotFound{}
		}
		r.logger.Error("Failed to look up refund", "report_id", reportID.String(), "error", err)
		return nil, fmt.Errorf("failed to look up refund: %w", err)
	}

	return entry, nil
}

// CountByDescription counts entries of one kind and description, used for promotional caps
func (r *LedgerRepository) CountByDescription(ctx context.Context, accountID uuid.UUID, kind ledger.Kind, description string) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM ledger_entries
		WHERE account_id = $1 AND kind = $2 AND description = $3
	`

	var count int
	if err := r.querier.QueryRow(ctx, query, accountID, kind, description).Scan(&count); err != nil {
		r.logger.Error("Failed to count ledger entries by description", "account_id", accountID.String(), "error", err)
		return 0, fmt.Errorf("failed to count ledger entries by description: %w", err)
	}

	return count, nil
}

func (r *LedgerRepository) collectEntries(rows pgx.Rows) ([]*ledger.Entry, error) {
	entries := make([]*ledger.Entry, 0)
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			r.logger.Error("Failed to scan ledger entry", "error", err)
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating over ledger entries", "error", err)
		return nil, fmt.Errorf("error iterating over ledger entries: %w", err)
	}

	return entries, nil
}

func scanEntry(row pgx.Row) (*ledger.Entry, error) {
	var e ledger.Entry
	err := row.Scan(
		&e.ID,
		&e.AccountID,
		&e.Delta,
		&e.BalanceAfter,
		&e.Kind,
		&e.Description,
		&e.RelatedReportID,
		&e.ExternalReference,
		&e.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}
