package generation

import (
	"context"
	"log/slog"
	"time"

	"github.com/property-report-ledger/internal/domain/report"
)

// Generator produces the artifact for a report in processing
type Generator interface {
	Generate(ctx context.Context, rep *report.Report) (string, error)
}

// Pipeline calls the LLM, stores the analysis document and writes the artifact.
// Each step's error is wrapped with the step so it reads as a failure reason.
type Pipeline struct {
	llm       Completer
	analyses  report.AnalysisRepository
	artifacts ArtifactStore
	logger    *slog.Logger
}

var _ Generator = (*Pipeline)(nil)

func NewPipeline(logger *slog.Logger, llm Completer, analyses report.AnalysisRepository, artifacts ArtifactStore) *Pipeline {
	return &Pipeline{
		llm:       llm,
		analyses:  analyses,
		artifacts: artifacts,
		logger:    logger,
	}
}

func (p *Pipeline) Generate(ctx context.Context, rep *report.Report) (string, error) {
	logger := p.logger.With("report_id", rep.ID.String())
	start := time.Now()

	params, err := rep.Parameters()
	if err != nil {
		return "", &StageError{Stage: StageParameter, Err: err}
	}

	content, err := p.llm.Complete(ctx, systemPrompt, buildUserPrompt(params))
	if err != nil {
		return "", &StageError{Stage: StageAnalysis, Err: err}
	}
	logger.Info("Analysis generated", "model", p.llm.Model(), "chars", len(content))

	analysis := &report.Analysis{
		ReportID:    rep.ID,
		AccountID:   rep.AccountID,
		Model:       p.llm.Model(),
		Content:     content,
		GeneratedAt: time.Now().UTC(),
	}
	if err := p.analyses.Save(ctx, analysis); err != nil {
		return "", &StageError{Stage: StageSave, Err: err}
	}

	html, err := renderArtifact(artifactData{
		ReportID:    rep.ID,
		Params:      params,
		Content:     content,
		Model:       analysis.Model,
		GeneratedAt: analysis.GeneratedAt,
	})
	if err != nil {
		return "", &StageError{Stage: StageRender, Err: err}
	}

	location, err := p.artifacts.Store(ctx, rep.ID, html)
	if err != nil {
		return "", &StageError{Stage: StageArtifact, Err: err}
	}

	logger.Info("Report artifact stored", "location", location, "duration_ms", time.Since(start).Milliseconds())
	return location, nil
}
