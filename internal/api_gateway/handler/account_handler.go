package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/property-report-ledger/internal/api_gateway/middleware"
	"github.com/property-report-ledger/internal/api_gateway/service"
	"github.com/property-report-ledger/internal/domain/account"
	"github.com/property-report-ledger/internal/domain/ledger"
)

// AccountHandler handles HTTP requests for accounts, balances and ledger history
type AccountHandler struct {
	accountService service.AccountService
	logger         *slog.Logger
}

// NewAccountHandler creates a new account handler
func NewAccountHandler(logger *slog.Logger, accountService service.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		logger:         logger,
	}
}

// Create provisions an account with its welcome bonus
func (h *AccountHandler) Create(c *gin.Context) {
	var req CreateAccountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	acc, err := h.accountService.CreateAccount(c.Request.Context(), req.Email, req.Name)
	if err != nil {
		var duplicateEmailErr account.ErrDuplicateEmail
		switch {
		case errors.As(err, &duplicateEmailErr):
			h.logger.Warn("Attempt to create account with duplicate email")
			RespondConflict(c, "Account with this email already exists")
		case errors.Is(err, account.ErrInvalidEmail), errors.Is(err, account.ErrEmptyEmail), errors.Is(err, account.ErrEmptyName):
			RespondBadRequest(c, err.Error())
		default:
			h.logger.Error("Failed to create account", "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, mapAccountToResponse(acc))
}

// GetMe returns the caller's account and balance
func (h *AccountHandler) GetMe(c *gin.Context) {
	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	acc, err := h.accountService.GetAccount(c.Request.Context(), accountID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to get account", "account_id", accountID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapAccountToResponse(acc))
}

// GetLedger returns the caller's ledger history, newest first
func (h *AccountHandler) GetLedger(c *gin.Context) {
	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	var pagination PaginationParams
	if err := c.ShouldBindQuery(&pagination); err != nil {
		RespondBadRequest(c, "Invalid pagination parameters: "+err.Error())
		return
	}

	ctx := c.Request.Context()
	acc, err := h.accountService.GetAccount(ctx, accountID)
	if err != nil {
		if errors.Is(err, account.ErrAccountNotFound{}) {
			RespondNotFound(c, "Account not found")
			return
		}
		h.logger.Error("Failed to get account", "account_id", accountID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	entries, total, err := h.accountService.GetLedger(ctx, accountID, pagination.Page, pagination.PerPage)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPage) {
			RespondBadRequest(c, "Invalid pagination parameters")
			return
		}
		h.logger.Error("Failed to get ledger history", "account_id", accountID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	response := LedgerResponse{
		Balance: acc.Balance,
		Entries: make([]LedgerEntryResponse, 0, len(entries)),
	}
	for _, entry := range entries {
		response.Entries = append(response.Entries, mapEntryToResponse(entry))
	}

	RespondWithPaginatedData(c, http.StatusOK, response, pagination.Page, pagination.PerPage, int(total))
}

// ClaimFreeCredits grants the promotional bonus until the claim cap is reached
func (h *AccountHandler) ClaimFreeCredits(c *gin.Context) {
	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}

	entry, err := h.accountService.ClaimFreeCredits(c.Request.Context(), accountID)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrFreeCreditLimitReached):
			RespondConflict(c, "Free credits have already been claimed")
		case errors.Is(err, account.ErrAccountNotFound{}):
			RespondNotFound(c, "Account not found")
		default:
			h.logger.Error("Failed to claim free credits", "account_id", accountID.String(), "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondCreated(c, mapEntryToResponse(entry))
}

func mapAccountToResponse(acc *account.Account) AccountResponse {
	return AccountResponse{
		ID:               acc.ID.String(),
		Email:            acc.Email,
		Name:             acc.Name,
		Balance:          acc.Balance,
		SubscriptionTier: acc.Tier(),
		CreatedAt:        acc.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        acc.UpdatedAt.Format(time.RFC3339),
	}
}

func mapEntryToResponse(entry *ledger.Entry) LedgerEntryResponse {
	response := LedgerEntryResponse{
		ID:           entry.ID.String(),
		Delta:        entry.Delta,
		BalanceAfter: entry.BalanceAfter,
		Kind:         string(entry.Kind),
		Description:  entry.Description,
		CreatedAt:    entry.CreatedAt.Format(time.RFC3339Nano),
	}
	if entry.RelatedReportID != nil {
		response.RelatedReportID = entry.RelatedReportID.String()
	}
	if entry.ExternalReference != nil {
		response.ExternalReference = *entry.ExternalReference
	}
	return response
}
