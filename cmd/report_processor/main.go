package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/property-report-ledger/internal/config"
	"github.com/property-report-ledger/internal/credits"
	"github.com/property-report-ledger/internal/data/mongo"
	"github.com/property-report-ledger/internal/data/postgres"
	"github.com/property-report-ledger/internal/logger"
	"github.com/property-report-ledger/internal/notification"
	"github.com/property-report-ledger/internal/platform/messaging/consumers"
	"github.com/property-report-ledger/internal/platform/messaging/producers"
	"github.com/property-report-ledger/internal/platform/persistence"
	"github.com/property-report-ledger/internal/report_processor/components"
	"github.com/property-report-ledger/internal/report_processor/consumer"
	"github.com/property-report-ledger/internal/report_processor/outbox_poller"
	"github.com/property-report-ledger/internal/report_processor/service"
	"github.com/property-report-ledger/internal/report_processor/watchdog"
	"github.com/property-report-ledger/internal/reports"
)

type closer struct {
	name  string
	close func() error
}

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("report_processor")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.NewLogger(cfg)

	log.Info("Starting Report Processor",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	// Initialize databases with app context
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

	// Initialize repositories
	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	ledgerRepo := postgres.NewLedgerRepository(log, postgresDB)
	reportRepo := postgres.NewReportRepository(log, postgresDB)
	outboxRepo := postgres.NewOutboxRepository(log, postgresDB)
	analysisRepo := mongo.NewAnalysisRepository(log, mongoDB.Database())
	if err := analysisRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to ensure analysis indexes", "error", err)
		os.Exit(1)
	}

	// Report lifecycle. The processor never reserves, so the reserver runs without the Redis lock.
	ledgerStore := credits.NewLedgerStore(log.With("component", "ledger_store"), postgresDB, accountRepo, ledgerRepo)
	reserver := credits.NewReserver(log.With("component", "reservation"), postgresDB, ledgerStore, nil)
	compensator := credits.NewCompensator(log.With("component", "compensation"), ledgerStore)
	lifecycle := reports.NewLifecycle(log.With("component", "report_lifecycle"), postgresDB, reportRepo, outboxRepo, analysisRepo, reserver, compensator)

	// Initialize Kafka producers
	generationProducer, err := producers.NewTopicProducer(appCtx, log, &cfg.Kafka, cfg.Kafka.GenerationTopic)
	if err != nil {
		log.Error("Failed to initialize generation Kafka producer", "error", err)
		os.Exit(1)
	}
	notificationProducer, err := producers.NewTopicProducer(appCtx, log, &cfg.Kafka, cfg.Kafka.NotificationTopic)
	if err != nil {
		log.Error("Failed to initialize notification Kafka producer", "error", err)
		os.Exit(1)
	}
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}

	// Generation runs detached on the worker pool
	generator := components.CreateGenerator(cfg, analysisRepo, log)
	generationService := components.CreateGenerationService(lifecycle, generator, log, cfg)

	// Initialize consumers and their handlers
	generationConsumer := consumers.NewKafkaConsumer(log, &cfg.Kafka, cfg.Kafka.GenerationTopic, cfg.Kafka.ConsumerGroup)
	notificationConsumer := consumers.NewKafkaConsumer(log, &cfg.Kafka, cfg.Kafka.NotificationTopic, cfg.Kafka.NotificationConsumerGroup)

	generationHandler := consumer.NewGenerationRequestHandler(log, generationService, dlqProducer)
	notifier := notification.NewNotifier(
		log.With("component", "notifier"),
		accountRepo,
		notification.NewEmailSender(log, &cfg.Notification),
		&cfg.Notification,
	)
	notificationHandler := consumer.NewNotificationHandler(log, notifier, dlqProducer)

	// Initialize outbox poller and watchdog
	eventPublisher := outbox_poller.NewKafkaEventPublisher(outboxRepo, generationProducer, notificationProducer, log)
	poller := outbox_poller.NewPoller(&cfg.Outbox, outboxRepo, eventPublisher, log)
	stuckReports := watchdog.NewWatchdog(&cfg.Watchdog, lifecycle, log.With("component", "watchdog"))

	if err := generationConsumer.Subscribe(appCtx, generationHandler.HandleMessage); err != nil {
		log.Error("Failed to subscribe to generation requests", "error", err)
		os.Exit(1)
	}
	if err := notificationConsumer.Subscribe(appCtx, notificationHandler.HandleMessage); err != nil {
		log.Error("Failed to subscribe to report notifications", "error", err)
		os.Exit(1)
	}

	// Create wait group for graceful shutdown
	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		poller.Start(appCtx)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		stuckReports.Start(appCtx)
	}()

	// Set up signal handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	<-quit
	log.Info("Shutdown signal received")

	// Cancel the application context; consumers and background loops exit on it
	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	// Wait for consumer loops and background jobs
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		<-generationConsumer.Done()
		<-notificationConsumer.Done()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	// Let queued generation tasks finish; they commit their own outcome
	if wpService, ok := generationService.(*service.WorkerPoolGenerationService); ok {
		wpService.Shutdown(cfg.Server.ShutdownTimeout)
	}

	closers := []closer{
		{"generation consumer", generationConsumer.Close},
		{"notification consumer", notificationConsumer.Close},
		{"generation producer", generationProducer.Close},
		{"notification producer", notificationProducer.Close},
	}
	if dlqProducer != nil {
		closers = append(closers, closer{"DLQ producer", dlqProducer.Close})
	}

	var closeErr error
	for _, c := range closers {
		if err := c.close(); err != nil {
			log.Error("Error closing "+c.name, "error", err)
			closeErr = err
		}
	}

	postgresDB.Close()

	mongoCtx, cancelMongo := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelMongo()
	if err := mongoDB.Close(mongoCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
		closeErr = err
	}

	if closeErr != nil {
		log.Error("Report Processor shutdown completed with errors")
	} else {
		log.Info("Report Processor shutdown completed successfully")
	}
}
