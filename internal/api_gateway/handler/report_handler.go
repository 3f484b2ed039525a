package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/property-report-ledger/internal/api_gateway/middleware"
	"github.com/property-report-ledger/internal/api_gateway/service"
	"github.com/property-report-ledger/internal/domain/account"
	"github.com/property-report-ledger/internal/domain/ledger"
	"github.com/property-report-ledger/internal/domain/report"
	"github.com/property-report-ledger/internal/platform/locking"
)

// ReportHandler handles HTTP requests for reports
type ReportHandler struct {
	reportService service.ReportService
	logger        *slog.Logger
}

func NewReportHandler(logger *slog.Logger, reportService service.ReportService) *ReportHandler {
	return &ReportHandler{
		reportService: reportService,
		logger:        logger,
	}
}

// Create reserves a credit and starts generation. The report is returned in
// processing with 202; generation finishes asynchronously.
func (h *ReportHandler) Create(c *gin.Context) {
	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return
	}
	correlationID := middleware.GetCorrelationID(c)
	logger := h.logger.With("correlation_id", correlationID, "account_id", accountID.String())

	var input report.InputParameters
	if err := c.ShouldBindJSON(&input); err != nil {
		logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}
	if err := input.Validate(); err != nil {
		RespondBadRequest(c, err.Error())
		return
	}

	rep, err := h.reportService.CreateReport(c.Request.Context(), accountID, &input, correlationID)
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrInsufficientCredits):
			logger.Info("Report rejected for insufficient credits")
			RespondPaymentRequired(c)
		case errors.Is(err, locking.ErrLockNotAcquired):
			logger.Warn("Concurrent report creation for account")
			RespondConflict(c, "Another report is being created for this account, please retry")
		case errors.Is(err, account.ErrAccountNotFound{}):
			RespondNotFound(c, "Account not found")
		default:
			logger.Error("Failed to create report", "error", err)
			RespondInternalError(c)
		}
		return
	}

	logger.Info("Report accepted", "report_id", rep.ID.String())
	RespondAccepted(c, mapReportToResponse(rep))
}

// GetByID returns a report owned by the caller, 404 otherwise
func (h *ReportHandler) GetByID(c *gin.Context) {
	accountID, reportID, ok := h.ownerAndReport(c)
	if !ok {
		return
	}

	rep, err := h.reportService.GetReport(c.Request.Context(), accountID, reportID)
	if err != nil {
		if errors.Is(err, report.ErrReportNotFound{}) {
			RespondNotFound(c, "Report not found")
			return
		}
		h.logger.Error("Failed to get report", "report_id", reportID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	RespondOK(c, mapReportToResponse(rep))
}

// List returns the caller's reports, newest first
func (h *ReportHandler) List(c *gin.Context) {
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

	reports, total, err := h.reportService.ListReports(c.Request.Context(), accountID, pagination.Page, pagination.PerPage)
	if err != nil {
		if errors.Is(err, service.ErrInvalidPage) {
			RespondBadRequest(c, "Invalid pagination parameters")
			return
		}
		h.logger.Error("Failed to list reports", "account_id", accountID.String(), "error", err)
		RespondInternalError(c)
		return
	}

	response := ReportListResponse{Reports: make([]ReportResponse, 0, len(reports))}
	for _, rep := range reports {
		response.Reports = append(response.Reports, mapReportToResponse(rep))
	}

	RespondWithPaginatedData(c, http.StatusOK, response, pagination.Page, pagination.PerPage, int(total))
}

// GetAnalysis returns the generated analysis of a completed report
func (h *ReportHandler) GetAnalysis(c *gin.Context) {
	accountID, reportID, ok := h.ownerAndReport(c)
	if !ok {
		return
	}

	analysis, err := h.reportService.GetAnalysis(c.Request.Context(), accountID, reportID)
	if err != nil {
		switch {
		case errors.Is(err, report.ErrReportNotFound{}):
			RespondNotFound(c, "Report not found")
		case errors.Is(err, report.ErrAnalysisNotFound{}):
			RespondNotFound(c, "Analysis not available for this report")
		default:
			h.logger.Error("Failed to get analysis", "report_id", reportID.String(), "error", err)
			RespondInternalError(c)
		}
		return
	}

	RespondOK(c, AnalysisResponse{
		ReportID:    analysis.ReportID.String(),
		Model:       analysis.Model,
		Content:     analysis.Content,
		GeneratedAt: analysis.GeneratedAt.Format(time.RFC3339),
	})
}

// Download streams the rendered artifact of a completed report owned by the caller
func (h *ReportHandler) Download(c *gin.Context) {
	accountID, reportID, ok := h.ownerAndReport(c)
	if !ok {
		return
	}

	artifact, err := h.reportService.OpenArtifact(c.Request.Context(), accountID, reportID)
	if err != nil {
		switch {
		case errors.Is(err, report.ErrReportNotFound{}):
			RespondNotFound(c, "Report not found")
		case errors.Is(err, service.ErrReportNotReady):
			RespondConflict(c, "Report is not ready for download")
		case errors.Is(err, service.ErrArtifactNotFound):
			h.logger.Warn("Completed report has no artifact", "report_id", reportID.String(), "error", err)
			RespondNotFound(c, "Report file not available")
		default:
			h.logger.Error("Failed to open report artifact", "report_id", reportID.String(), "error", err)
			RespondInternalError(c)
		}
		return
	}
	defer artifact.Content.Close()

	c.DataFromReader(http.StatusOK, artifact.Size, "text/html; charset=utf-8", artifact.Content, map[string]string{
		"Content-Disposition": `attachment; filename="` + artifact.Name + `"`,
	})
}

func (h *ReportHandler) ownerAndReport(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	accountID, ok := middleware.GetAccountID(c)
	if !ok {
		RespondUnauthorized(c, "")
		return uuid.Nil, uuid.Nil, false
	}

	idParam := c.Param("id")
	reportID, err := uuid.Parse(idParam)
	if err != nil {
		RespondBadRequest(c, "Invalid report ID")
		return uuid.Nil, uuid.Nil, false
	}
	return accountID, reportID, true
}

func mapReportToResponse(rep *report.Report) ReportResponse {
	response := ReportResponse{
		ID:              rep.ID.String(),
		Status:          string(rep.Status),
		InputParameters: rep.Input,
		CreatedAt:       rep.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       rep.UpdatedAt.Format(time.RFC3339),
	}
	if rep.ArtifactLocation != nil {
		response.ArtifactLocation = *rep.ArtifactLocation
	}
	if rep.FailureReason != nil {
		response.FailureReason = *rep.FailureReason
	}
	return response
}
