package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/property-report-ledger/internal/api_gateway/service"
	"github.com/property-report-ledger/internal/credits"
	"github.com/property-report-ledger/internal/domain/account"
	"github.com/property-report-ledger/internal/domain/ledger"
)

const (
	paymentStatusApplied        = "applied"
	paymentStatusAlreadyApplied = "already_applied"
	paymentStatusIgnored        = "ignored"
)

// WebhookHandler receives payment events. Signature verification happens upstream.
type WebhookHandler struct {
	paymentService service.PaymentService
	logger         *slog.Logger
}

func NewWebhookHandler(logger *slog.Logger, paymentService service.PaymentService) *WebhookHandler {
	return &WebhookHandler{
		paymentService: paymentService,
		logger:         logger,
	}
}

// HandlePayment applies one payment event. Replays answer 200 with already_applied
// so the processor stops retrying.
func (h *WebhookHandler) HandlePayment(c *gin.Context) {
	var req PaymentEventRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid payment event", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	accountID, err := uuid.Parse(req.AccountID)
	if err != nil {
		RespondBadRequest(c, "Invalid account ID")
		return
	}

	logger := h.logger.With("event_type", req.Type, "account_id", accountID.String())
	result, err := h.paymentService.ApplyEvent(c.Request.Context(), &service.PaymentEvent{
		Type:           req.Type,
		AccountID:      accountID,
		Kind:           req.Kind,
		Pack:           req.Pack,
		Credits:        req.Credits,
		Plan:           req.Plan,
		PaymentIntent:  req.PaymentIntent,
		SubscriptionID: req.SubscriptionID,
		InvoiceID:      req.InvoiceID,
		BillingReason:  req.BillingReason,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrDuplicateEntry{}):
			logger.Info("Payment event already applied")
			RespondOK(c, PaymentEventResponse{Status: paymentStatusAlreadyApplied})
		case errors.Is(err, account.ErrAccountNotFound{}):
			RespondNotFound(c, "Account not found")
		case errors.Is(err, service.ErrUnsupportedEvent),
			errors.Is(err, credits.ErrUnknownPack),
			errors.Is(err, credits.ErrUnknownPlan),
			errors.Is(err, credits.ErrInvalidCredits),
			errors.Is(err, credits.ErrNoSubscription),
			errors.Is(err, ledger.ErrBalanceLimitExceeded),
			errors.Is(err, ledger.ErrBalanceOverflow):
			logger.Warn("Payment event rejected", "error", err)
			RespondWithError(c, http.StatusUnprocessableEntity, "UNPROCESSABLE_EVENT", err.Error())
		default:
			logger.Error("Failed to apply payment event", "error", err)
			RespondInternalError(c)
		}
		return
	}

	if result.Ignored {
		RespondOK(c, PaymentEventResponse{Status: paymentStatusIgnored, Reason: result.Reason})
		return
	}

	response := PaymentEventResponse{Status: paymentStatusApplied}
	if result.Entry != nil {
		response.EntryID = result.Entry.ID.String()
		response.Credits = result.Entry.Delta
		response.BalanceAfter = result.Entry.BalanceAfter
	}
	RespondOK(c, response)
}
