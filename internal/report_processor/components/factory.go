package components

import (
	"log/slog"

	"github.com/property-report-ledger/internal/config"
	"github.com/property-report-ledger/internal/domain/report"
	"github.com/property-report-ledger/internal/generation"
	"github.com/property-report-ledger/internal/report_processor/service"
)

// CreateGenerator wires the LLM client, analysis store and artifact store into a pipeline
func CreateGenerator(cfg *config.Config, analysisRepo report.AnalysisRepository, logger *slog.Logger) generation.Generator {
	llm := generation.NewLLMClient(logger.With("component", "llm_client"), &cfg.Generation)
	artifacts := generation.NewFileArtifactStore(&cfg.Generation)
	return generation.NewPipeline(logger.With("component", "generation_pipeline"), llm, analysisRepo, artifacts)
}

// CreateGenerationService creates a GenerationService backed by a worker pool
// when one is configured, or the synchronous base service otherwise.
func CreateGenerationService(
	lifecycle service.ReportLifecycle,
	generator generation.Generator,
	logger *slog.Logger,
	cfg *config.Config,
) service.GenerationService {
	baseService := service.NewGenerationService(lifecycle, generator, logger)

	if cfg.WorkerPool.Size <= 0 {
		logger.Warn("Worker pool disabled, generation runs on the consumer goroutine")
		return baseService
	}

	workerPoolService, err := service.NewWorkerPoolGenerationService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService
	}

	logger.Info("Created worker pool generation service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService
}
