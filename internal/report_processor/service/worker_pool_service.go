package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/property-report-ledger/internal/domain/shared"
)

// WorkerPoolGenerationService hands generation requests to an ants pool and
// returns as soon as the task is queued. Tasks are detached from the caller's
// context and run to completion.
type WorkerPoolGenerationService struct {
	baseService GenerationService
	pool        *ants.Pool
	logger      *slog.Logger
	wg          sync.WaitGroup
}

type WorkerPoolConfig struct {
	Size int
}

func NewWorkerPoolGenerationService(
	baseService GenerationService,
	config WorkerPoolConfig,
	logger *slog.Logger,
) (*WorkerPoolGenerationService, error) {
	pool, err := ants.NewPool(config.Size)
	if err != nil {
		return nil, err
	}

	return &WorkerPoolGenerationService{
		baseService: baseService,
		pool:        pool,
		logger:      logger,
	}, nil
}

// Process queues the request. It blocks only while every worker is busy.
func (s *WorkerPoolGenerationService) Process(ctx context.Context, request *shared.GenerationRequest) error {
	logger := s.logger.With("report_id", request.ReportID.String())
	if request.CorrelationID != "" {
		logger = logger.With("correlation_id", request.CorrelationID)
	}

	requestCopy := *request
	taskCtx := context.WithoutCancel(ctx)

	s.wg.Add(1)
	err := s.pool.Submit(func() {
		defer s.wg.Done()
		if err := s.baseService.Process(taskCtx, &requestCopy); err != nil {
			logger.Error("Generation task failed", "error", err)
		}
	})
	if err != nil {
		s.wg.Done()
		logger.Error("Failed to submit generation task to worker pool", "error", err)
		return err
	}

	logger.Info("Generation task queued", "running_workers", s.pool.Running())
	return nil
}

// Shutdown waits up to timeout for queued tasks, then releases the pool
func (s *WorkerPoolGenerationService) Shutdown(timeout time.Duration) {
	s.logger.Info("Shutting down worker pool", "running_workers", s.pool.Running())

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(timeout):
		s.logger.Warn("Timed out waiting for generation tasks, stuck reports will be failed by the watchdog")
	}
	s.pool.Release()
}

// Running returns the number of running workers in the pool.
func (s *WorkerPoolGenerationService) Running() int {
	return s.pool.Running()
}

// Capacity returns the capacity of the worker pool.
func (s *WorkerPoolGenerationService) Capacity() int {
	return s.pool.Cap()
}
