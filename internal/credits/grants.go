package credits

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/property-report-ledger/internal/config"
	"github.com/property-report-ledger/internal/domain/account"
	"github.com/property-report-ledger/internal/domain/ledger"
	"github.com/property-report-ledger/internal/platform/persistence"
)

const (
	WelcomeBonusDescription        = "Welcome bonus - 1 free analysis"
	FreeCreditDescription          = "Free credits - Enhanced AI with live property data"
	SubscriptionRenewalDescription = "Monthly subscription credits"

	// MaxCreditsPerEvent bounds a single purchase grant
	MaxCreditsPerEvent int64 = 1000
)

var (
	ErrUnknownPack    = errors.New("unknown credit pack")
	ErrUnknownPlan    = errors.New("unknown subscription plan")
	ErrNoSubscription = errors.New("account has no active subscription")
	ErrInvalidCredits = errors.New("credit amount must be between 1 and 1000")
)

// CreditPacks maps purchasable packs to the credits they grant
var CreditPacks = map[string]int64{
	"single": 1,
	"pack5":  5,
	"pack10": 10,
	"pack20": 20,
}

// PlanCredits maps subscription plans to their monthly credits
var PlanCredits = map[string]int64{
	"basic":      3,
	"pro":        10,
	"enterprise": 30,
}

// GrantService provisions accounts and records bonus, purchase and subscription credits
type GrantService struct {
	db          persistence.TxRunner
	store       *LedgerStore
	accountRepo account.Repository
	cfg         *config.CreditsConfig
	logger      *slog.Logger
}

func NewGrantService(logger *slog.Logger, db persistence.TxRunner, store *LedgerStore, accountRepo account.Repository, cfg *config.CreditsConfig) *GrantService {
	return &GrantService{
		db:          db,
		store:       store,
		accountRepo: accountRepo,
		cfg:         cfg,
		logger:      logger,
	}
}

// ProvisionAccount creates the account and its welcome bonus in one transaction
func (s *GrantService) ProvisionAccount(ctx context.Context, email, name string) (*account.Account, error) {
	acc, err := account.NewAccount(email, name)
	if err != nil {
		return nil, err
	}

	err = s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		if err := s.accountRepo.WithTx(tx).Create(ctx, acc); err != nil {
			return err
		}
		if s.cfg.WelcomeBonus <= 0 {
			return nil
		}
		entry, err := s.store.AppendTx(ctx, tx, AppendRequest{
			AccountID:   acc.ID,
			Delta:       s.cfg.WelcomeBonus,
			Kind:        ledger.KindBonus,
			Description: WelcomeBonusDescription,
		})
		if err != nil {
			return err
		}
		acc.Balance = entry.BalanceAfter
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Account provisioned", "account_id", acc.ID.String(), "balance", acc.Balance)
	return acc, nil
}

// ClaimFreeCredits grants the free credit bundle until the claim cap is reached
func (s *GrantService) ClaimFreeCredits(ctx context.Context, accountID uuid.UUID) (*ledger.Entry, error) {
	var entry *ledger.Entry
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		acc, err := s.store.lockAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}

		claims, err := s.store.ledgerRepo.WithTx(tx).CountByDescription(ctx, accountID, ledger.KindBonus, FreeCreditDescription)
		if err != nil {
			return err
		}
		if claims >= s.cfg.FreeCreditMaxClaims {
			s.logger.Info("Free credit claim rejected", "account_id", accountID.String(), "claims", claims)
			return ledger.ErrFreeCreditLimitReached
		}

		entry, err = s.store.appendLocked(ctx, tx, acc, AppendRequest{
			AccountID:   accountID,
			Delta:       s.cfg.FreeCreditGrant,
			Kind:        ledger.KindBonus,
			Description: FreeCreditDescription,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CreditsForPack resolves a pack name, falling back to an explicit amount
func CreditsForPack(pack string, explicit int64) (int64, error) {
	if explicit > MaxCreditsPerEvent {
		return 0, fmt.Errorf("%w: got %d", ErrInvalidCredits, explicit)
	}
	if explicit > 0 {
		return explicit, nil
	}
	credits, ok := CreditPacks[strings.ToLower(pack)]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPack, pack)
	}
	return credits, nil
}

// GrantPurchase records purchased credits. reference makes replays fail with ErrDuplicateEntry.
func (s *GrantService) GrantPurchase(ctx context.Context, accountID uuid.UUID, credits int64, reference string) (*ledger.Entry, error) {
	if credits <= 0 || credits > MaxCreditsPerEvent {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCredits, credits)
	}
	return s.store.Append(ctx, AppendRequest{
		AccountID:         accountID,
		Delta:             credits,
		Kind:              ledger.KindPurchase,
		Description:       fmt.Sprintf("Purchased %d credit(s)", credits),
		ExternalReference: reference,
	})
}

// StartSubscription sets the tier and grants the plan's first monthly credits
func (s *GrantService) StartSubscription(ctx context.Context, accountID uuid.UUID, plan, reference string) (*ledger.Entry, error) {
	plan = strings.ToLower(plan)
	credits, ok := PlanCredits[plan]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, plan)
	}

	var entry *ledger.Entry
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		acc, err := s.store.lockAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}
		if err := s.accountRepo.WithTx(tx).UpdateSubscriptionTier(ctx, accountID, &plan); err != nil {
			return err
		}
		entry, err = s.store.appendLocked(ctx, tx, acc, AppendRequest{
			AccountID:         accountID,
			Delta:             credits,
			Kind:              ledger.KindSubscription,
			Description:       fmt.Sprintf("%s subscription - monthly credits", plan),
			ExternalReference: reference,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Subscription started", "account_id", accountID.String(), "plan", plan)
	return entry, nil
}

// RenewSubscription grants the monthly credits of the account's current plan
func (s *GrantService) RenewSubscription(ctx context.Context, accountID uuid.UUID, reference string) (*ledger.Entry, error) {
	var entry *ledger.Entry
	err := s.db.ExecuteTx(ctx, func(tx pgx.Tx) error {
		acc, err := s.store.lockAccount(ctx, tx, accountID)
		if err != nil {
			return err
		}
		credits, ok := PlanCredits[acc.Tier()]
		if !ok {
			return ErrNoSubscription
		}
		entry, err = s.store.appendLocked(ctx, tx, acc, AppendRequest{
			AccountID:         accountID,
			Delta:             credits,
			Kind:              ledger.KindSubscription,
			Description:       SubscriptionRenewalDescription,
			ExternalReference: reference,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// CancelSubscription clears the tier. Credits already granted stay on the balance.
func (s *GrantService) CancelSubscription(ctx context.Context, accountID uuid.UUID) error {
	if err := s.accountRepo.UpdateSubscriptionTier(ctx, accountID, nil); err != nil {
		return err
	}
	s.logger.Info("Subscription cancelled", "account_id", accountID.String())
	return nil
}
