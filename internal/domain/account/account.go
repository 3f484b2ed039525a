package account

import (
	"errors"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Common errors
var (
	ErrEmptyEmail   = errors.New("email cannot be empty")
	ErrInvalidEmail = errors.New("email address is not valid")
	ErrEmptyName    = errors.New("name cannot be empty")
)

// Account is the billing subject that owns credits and reports.
// Balance is the materialized sum of the account's ledger entries and only
// changes through ledger appends.
type Account struct {
	ID               uuid.UUID `json:"id"`
	Email            string    `json:"email"`
	Name             string    `json:"name"`
	Balance          int64     `json:"balance"`
	SubscriptionTier *string   `json:"subscription_tier,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// NewAccount creates an account with a zero balance. Opening credits are
// granted through the ledger, never by seeding the balance.
func NewAccount(email, name string) (*Account, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" {
		return nil, ErrEmptyEmail
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, ErrInvalidEmail
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}

	now := time.Now().UTC()
	return &Account{
		ID:        uuid.New(),
		Email:     email,
		Name:      name,
		Balance:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// HasCredits reports whether the account can pay for n reports.
func (a *Account) HasCredits(n int64) bool {
	return a.Balance >= n
}

// Tier returns the subscription tier or an empty string when unsubscribed.
func (a *Account) Tier() string {
	if a.SubscriptionTier == nil {
		return ""
	}
	return *a.SubscriptionTier
}
