package api_gateway

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/property-report-ledger/internal/api_gateway/handler"
	"github.com/property-report-ledger/internal/api_gateway/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	accountHandler *handler.AccountHandler,
	reportHandler *handler.ReportHandler,
	webhookHandler *handler.WebhookHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		v1.POST("/accounts", accountHandler.Create)

		// Payment processor callbacks, verified upstream
		v1.POST("/webhooks/payments", webhookHandler.HandlePayment)

		// Caller-scoped operations
		authed := v1.Group("", middleware.AccountID())
		{
			me := authed.Group("/accounts/me")
			{
				me.GET("", accountHandler.GetMe)
				me.GET("/ledger", accountHandler.GetLedger)
				me.POST("/free-credits", accountHandler.ClaimFreeCredits)
			}

			reports := authed.Group("/reports")
			{
				reports.POST("", reportHandler.Create)
				reports.GET("", reportHandler.List)
				reports.GET("/:id", reportHandler.GetByID)
				reports.GET("/:id/analysis", reportHandler.GetAnalysis)
				reports.GET("/:id/download", reportHandler.Download)
			}
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
