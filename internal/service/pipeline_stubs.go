package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/draftforge/pipeline-api/internal/domain/model"
)

// NewNoopPipeline returns a handler that completes immediately with a
// logged no-op result. pacing_check and draft_review are registered with
// this until their pipelines land.
func NewNoopPipeline(name string, logger *slog.Logger) Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return HandlerFunc(func(ctx context.Context, exec *Execution) (*model.PipelineResult, error) {
		logger.InfoContext(ctx, "no-op pipeline invoked",
			"pipeline", name, "job_id", exec.Job.ID)
		exec.Recorder.Record("noop", map[string]string{"pipeline": name})
		return &model.PipelineResult{
			Message: fmt.Sprintf("%s is not implemented yet; job acknowledged", name),
		}, nil
	})
}
