package generation

import (
	"context"
	"errors"
	"fmt"
)

// Stage names the pipeline step that failed
type Stage string

const (
	StageAnalysis  Stage = "analysis generation"
	StageSave      Stage = "saving analysis"
	StageRender    Stage = "rendering report"
	StageArtifact  Stage = "storing artifact"
	StageParameter Stage = "reading report input"
)

// StageError wraps a pipeline failure with the step it happened in
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailureReason turns a generation error into the short reason stored on the
// report and shown to its owner. Upstream response bodies stay in the logs.
func FailureReason(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return fmt.Sprintf("Analysis generation failed (status %d)", apiErr.StatusCode)
	case errors.Is(err, ErrEmptyCompletion):
		return "Analysis generation returned no content"
	case errors.Is(err, context.DeadlineExceeded):
		return "Report generation timed out"
	}

	var stageErr *StageError
	if errors.As(err, &stageErr) {
		return fmt.Sprintf("Report generation failed while %s", stageErr.Stage)
	}
	return "Report generation failed"
}
