package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/property-report-ledger/internal/credits"
	"github.com/property-report-ledger/internal/domain/ledger"
)

// Payment event types accepted by the webhook
const (
	EventCheckoutCompleted       = "checkout.session.completed"
	EventInvoicePaymentSucceeded = "invoice.payment_succeeded"
	EventSubscriptionDeleted     = "customer.subscription.deleted"

	CheckoutKindCredits      = "credits"
	CheckoutKindSubscription = "subscription"

	BillingReasonSubscriptionCycle = "subscription_cycle"
)

var ErrUnsupportedEvent = errors.New("unsupported payment event")

// PaymentEvent is a payment processor event after signature verification
type PaymentEvent struct {
	Type           string
	AccountID      uuid.UUID
	Kind           string
	Pack           string
	Credits        int64
	Plan           string
	PaymentIntent  string
	SubscriptionID string
	InvoiceID      string
	BillingReason  string
}

// PaymentResult describes what an event changed. Ignored events carry no entry.
type PaymentResult struct {
	Entry   *ledger.Entry
	Ignored bool
	Reason  string
}

// Granter records paid credits
type Granter interface {
	GrantPurchase(ctx context.Context, accountID uuid.UUID, credits int64, reference string) (*ledger.Entry, error)
	StartSubscription(ctx context.Context, accountID uuid.UUID, plan, reference string) (*ledger.Entry, error)
	RenewSubscription(ctx context.Context, accountID uuid.UUID, reference string) (*ledger.Entry, error)
	CancelSubscription(ctx context.Context, accountID uuid.UUID) error
}

// PaymentServiceImpl implements the PaymentService interface
type PaymentServiceImpl struct {
	granter Granter
	logger  *slog.Logger
}

var _ PaymentService = (*PaymentServiceImpl)(nil)

func NewPaymentService(logger *slog.Logger, granter Granter) PaymentService {
	return &PaymentServiceImpl{
		granter: granter,
		logger:  logger,
	}
}

func (s *PaymentServiceImpl) ApplyEvent(ctx context.Context, event *PaymentEvent) (*PaymentResult, error) {
	logger := s.logger.With("event_type", event.Type, "account_id", event.AccountID.String())

	switch event.Type {
	case EventCheckoutCompleted:
		return s.applyCheckout(ctx, logger, event)

	case EventInvoicePaymentSucceeded:
		if event.BillingReason != BillingReasonSubscriptionCycle {
			logger.Info("Ignoring invoice that is not a renewal", "billing_reason", event.BillingReason)
			return &PaymentResult{Ignored: true, Reason: "not a subscription renewal"}, nil
		}
		if event.InvoiceID == "" {
			return nil, fmt.Errorf("%w: invoice id is required", ErrUnsupportedEvent)
		}
		entry, err := s.granter.RenewSubscription(ctx, event.AccountID, event.InvoiceID)
		if err != nil {
			return nil, err
		}
		logger.Info("Subscription renewed", "invoice_id", event.InvoiceID, "credits", entry.Delta)
		return &PaymentResult{Entry: entry}, nil

	case EventSubscriptionDeleted:
		if err := s.granter.CancelSubscription(ctx, event.AccountID); err != nil {
			return nil, err
		}
		return &PaymentResult{}, nil
	}

	logger.Info("Ignoring unhandled payment event")
	return &PaymentResult{Ignored: true, Reason: "unhandled event type"}, nil
}

func (s *PaymentServiceImpl) applyCheckout(ctx context.Context, logger *slog.Logger, event *PaymentEvent) (*PaymentResult, error) {
	switch event.Kind {
	case CheckoutKindCredits:
		if event.PaymentIntent == "" {
			return nil, fmt.Errorf("%w: payment intent is required", ErrUnsupportedEvent)
		}
		amount, err := credits.CreditsForPack(event.Pack, event.Credits)
		if err != nil {
			return nil, err
		}
		entry, err := s.granter.GrantPurchase(ctx, event.AccountID, amount, event.PaymentIntent)
		if err != nil {
			return nil, err
		}
		logger.Info("Credits purchased", "credits", amount, "payment_intent", event.PaymentIntent)
		return &PaymentResult{Entry: entry}, nil

	case CheckoutKindSubscription:
		if event.SubscriptionID == "" {
			return nil, fmt.Errorf("%w: subscription id is required", ErrUnsupportedEvent)
		}
		entry, err := s.granter.StartSubscription(ctx, event.AccountID, event.Plan, event.SubscriptionID)
		if err != nil {
			return nil, err
		}
		return &PaymentResult{Entry: entry}, nil
	}

	return nil, fmt.Errorf("%w: checkout kind %q", ErrUnsupportedEvent, event.Kind)
}
