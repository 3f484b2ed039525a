package credits

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/property-report-ledger/internal/domain/ledger"
	"github.com/property-report-ledger/internal/domain/report"
)

const defaultRefundDescription = "Refund for failed analysis"

// Compensator refunds the credit of a failed report exactly once
type Compensator struct {
	store  *LedgerStore
	logger *slog.Logger
}

func NewCompensator(logger *slog.Logger, store *LedgerStore) *Compensator {
	return &Compensator{
		store:  store,
		logger: logger,
	}
}

// CompensateTx appends the +1 refund for rep inside tx. When a refund already
// exists it is returned with refunded=false and nothing is written.
func (c *Compensator) CompensateTx(ctx context.Context, tx pgx.Tx, rep *report.Report) (entry *ledger.Entry, refunded bool, err error) {
	logger := c.logger.With("report_id", rep.ID.String(), "account_id", rep.AccountID.String())

	acc, err := c.store.lockAccount(ctx, tx, rep.AccountID)
	if err != nil {
		return nil, false, err
	}

	existing, err := c.store.ledgerRepo.WithTx(tx).FindRefundForReport(ctx, rep.ID)
	if err == nil {
		logger.Info("Report already refunded, skipping", "entry_id", existing.ID.String())
		return existing, false, nil
	}
	if !errors.Is(err, ledger.ErrEntryNotFound{}) {
		return nil, false, err
	}

	description := defaultRefundDescription
	if params, perr := rep.Parameters(); perr == nil {
		description = params.RefundDescription()
	} else {
		logger.Warn("Could not decode report input for refund description", "error", perr)
	}

	reportID := rep.ID
	entry, err = c.store.appendLocked(ctx, tx, acc, AppendRequest{
		AccountID:       rep.AccountID,
		Delta:           1,
		Kind:            ledger.KindRefund,
		Description:     description,
		RelatedReportID: &reportID,
	})
	if err != nil {
		return nil, false, err
	}

	logger.Info("Report credit refunded", "entry_id", entry.ID.String(), "balance_after", entry.BalanceAfter)
	return entry, true, nil
}
