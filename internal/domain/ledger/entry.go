package ledger

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a balance change
type Kind string

const (
	KindBonus        Kind = "bonus"
	KindPurchase     Kind = "purchase"
	KindSubscription Kind = "subscription"
	KindUsed         Kind = "used"
	KindRefund       Kind = "refund"
)

// IsValid reports whether k is one of the known entry kinds
func (k Kind) IsValid() bool {
	switch k {
	case KindBonus, KindPurchase, KindSubscription, KindUsed, KindRefund:
		return true
	}
	return false
}

var (
	// ErrInvariantViolation is returned when an append would drive a balance below zero.
	ErrInvariantViolation = errors.New("ledger invariant violation: balance cannot become negative")
	// ErrInsufficientCredits is returned when a reservation finds no spendable credit.
	ErrInsufficientCredits = errors.New("insufficient credits")
	// ErrFreeCreditLimitReached is returned once an account has used all free credit claims.
	ErrFreeCreditLimitReached = errors.New("free credit claim limit reached")
	// ErrBalanceOverflow is returned when an append would overflow the balance.
	ErrBalanceOverflow = errors.New("ledger balance overflow")
	// ErrBalanceLimitExceeded is returned when a grant would lift a balance above MaxGrantBalance.
	ErrBalanceLimitExceeded = errors.New("ledger balance limit exceeded")
	ErrInvalidKind          = errors.New("invalid ledger entry kind")
	ErrZeroDelta            = errors.New("ledger entry delta cannot be zero")
)

// MaxGrantBalance is the highest balance a credit grant may produce. Refunds are
// exempt: they only return debited credits, so a failed report is always paid back.
const MaxGrantBalance int64 = 1_000_000

// Entry is an immutable record of one balance change
type Entry struct {
	ID                uuid.UUID  `json:"id"`
	AccountID         uuid.UUID  `json:"account_id"`
	Delta             int64      `json:"delta"`
	BalanceAfter      int64      `json:"balance_after"`
	Kind              Kind       `json:"kind"`
	Description       string     `json:"description"`
	RelatedReportID   *uuid.UUID `json:"related_report_id,omitempty"`
	ExternalReference *string    `json:"external_reference,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}

// NewEntry builds the entry that moves currentBalance by delta.
// It fails with ErrInvariantViolation when the resulting balance is negative,
// ErrBalanceOverflow when it does not fit in an int64 and ErrBalanceLimitExceeded
// when a grant would go above MaxGrantBalance.
func NewEntry(accountID uuid.UUID, currentBalance, delta int64, kind Kind, description string, relatedReportID *uuid.UUID) (*Entry, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
	if delta == 0 {
		return nil, ErrZeroDelta
	}

	balanceAfter, ok := safeAdd(currentBalance, delta)
	if !ok {
		return nil, fmt.Errorf("%w: account %s balance %d delta %d", ErrBalanceOverflow, accountID, currentBalance, delta)
	}
	if delta > 0 && kind != KindRefund && balanceAfter > MaxGrantBalance {
		return nil, fmt.Errorf("%w: account %s balance %d delta %d limit %d", ErrBalanceLimitExceeded, accountID, currentBalance, delta, MaxGrantBalance)
	}
	if balanceAfter < 0 {
		return nil, fmt.Errorf("%w: account %s balance %d delta %d", ErrInvariantViolation, accountID, currentBalance, delta)
	}

	return &Entry{
		ID:              uuid.New(),
		AccountID:       accountID,
		Delta:           delta,
		BalanceAfter:    balanceAfter,
		Kind:            kind,
		Description:     description,
		RelatedReportID: relatedReportID,
		CreatedAt:       time.Now().UTC(),
	}, nil
}

func safeAdd(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}

// WithExternalReference tags the entry with an idempotency reference from an external system.
func (e *Entry) WithExternalReference(ref string) *Entry {
	if ref != "" {
		e.ExternalReference = &ref
	}
	return e
}

// Replay walks entries oldest first and checks that every BalanceAfter equals
// the running sum of deltas. It returns the final balance.
func Replay(entries []*Entry) (int64, error) {
	var balance int64
	for i, e := range entries {
		next, ok := safeAdd(balance, e.Delta)
		if !ok {
			return 0, fmt.Errorf("%w: entry %d (%s)", ErrBalanceOverflow, i, e.ID)
		}
		balance = next
		if balance < 0 {
			return 0, fmt.Errorf("%w: entry %d (%s) drops balance to %d", ErrInvariantViolation, i, e.ID, balance)
		}
		if e.BalanceAfter != balance {
			return 0, fmt.Errorf("entry %d (%s) records balance %d, replay gives %d", i, e.ID, e.BalanceAfter, balance)
		}
	}
	return balance, nil
}
