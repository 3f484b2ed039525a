package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/property-report-ledger/internal/api_gateway"
	"github.com/property-report-ledger/internal/api_gateway/service"
	"github.com/property-report-ledger/internal/config"
	"github.com/property-report-ledger/internal/credits"
	"github.com/property-report-ledger/internal/data/mongo"
	"github.com/property-report-ledger/internal/data/postgres"
	"github.com/property-report-ledger/internal/generation"
	"github.com/property-report-ledger/internal/logger"
	"github.com/property-report-ledger/internal/platform/locking"
	"github.com/property-report-ledger/internal/platform/persistence"
	"github.com/property-report-ledger/internal/reports"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_gateway")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting API Gateway",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize databases with app context; migrations run here
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Reservation lock, a no-op without REDIS_ADDR
	accountLocker, closeLocker, err := locking.NewAccountLocker(appCtx, log, &cfg.Redis)
	if err != nil {
		log.Error("Failed to initialize account lock", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	ledgerRepo := postgres.NewLedgerRepository(log, postgresDB)
	reportRepo := postgres.NewReportRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	analysisRepo := mongo.NewAnalysisRepository(log, mongoDB.Database())

	// Credits and report lifecycle
	ledgerStore := credits.NewLedgerStore(log.With("component", "ledger_store"), postgresDB, accountRepo, ledgerRepo)
	reserver := credits.NewReserver(log.With("component", "reservation"), postgresDB, ledgerStore, accountLocker)
	compensator := credits.NewCompensator(log.With("component", "compensation"), ledgerStore)
	grants := credits.NewGrantService(log.With("component", "grants"), postgresDB, ledgerStore, accountRepo, &cfg.Credits)
	lifecycle := reports.NewLifecycle(log.With("component", "report_lifecycle"), postgresDB, reportRepo, outboxRepo, analysisRepo, reserver, compensator)

	// Initialize services
	services := api_gateway.Services{
		Accounts: service.NewAccountService(accountRepo, grants, ledgerStore),
		Reports:  service.NewReportService(lifecycle, generation.NewFileArtifactStore(&cfg.Generation)),
		Payments: service.NewPaymentService(log.With("component", "payments"), grants),
	}

	// Initialize REST server
	server := api_gateway.NewServer(log, cfg, services)
	log.Info("REST server initialized")

	// Create error channel for server errors
	errChan := make(chan error, 1)

	// Start server in goroutine
	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	// Wait for a shutdown signal or error
	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	// Cancel the application context
	cancelAppCtx()

	// Create a shutdown context with timeout
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Stop accepting requests before closing the stores they use
	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = closeLocker(); err != nil {
		log.Error("Error closing Redis client", "error", err)
	}

	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	// Final status
	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("API Gateway shutdown completed with errors")
	} else {
		log.Info("API Gateway shutdown completed successfully")
	}
}
