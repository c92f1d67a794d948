package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/draftforge/pipeline-api/internal/core"
	domainjob "github.com/draftforge/pipeline-api/internal/domain/job"
	"github.com/draftforge/pipeline-api/internal/domain/model"
	"github.com/draftforge/pipeline-api/internal/observability/metrics"
	"github.com/draftforge/pipeline-api/internal/observability/statsd"
)

// Execution is the per-attempt scope handed to a pipeline handler. It owns
// the step recorder for this attempt and tracks the content order the
// pipeline touched so the run trace can reference it.
type Execution struct {
	Job      *model.Job
	Recorder *domainjob.StepRecorder

	mu      sync.Mutex
	orderID *string
}

// SetOrderID records which content order this execution is working on.
func (e *Execution) SetOrderID(id string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.orderID = &id
}

// OrderID returns the content order id, or nil when none was touched.
func (e *Execution) OrderID() *string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.orderID
}

// Handler executes one pipeline for a claimed job. Implementations append
// step entries through the execution's recorder and return the pipeline
// result on success.
type Handler interface {
	Execute(ctx context.Context, exec *Execution) (*model.PipelineResult, error)
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, exec *Execution) (*model.PipelineResult, error)

// Execute implements Handler.
func (f HandlerFunc) Execute(ctx context.Context, exec *Execution) (*model.PipelineResult, error) {
	return f(ctx, exec)
}

// DispatchResult reports one job's outcome to the dispatch caller. Exactly
// one of Result and Error is populated.
type DispatchResult struct {
	JobID   string                `json:"job_id"`
	Success bool                  `json:"success"`
	Result  *model.PipelineResult `json:"result,omitempty"`
	Error   string                `json:"error,omitempty"`
}

// ExecutorOptions groups dependencies for Executor.
type ExecutorOptions struct {
	Jobs    core.JobRepository // Required: job status finalization
	Runs    core.RunRepository // Required: run trace persistence
	Logger  *slog.Logger       // Optional: structured logger
	Metrics statsd.Sink        // Optional: lifecycle metric emission
	Clock   domainjob.Clock    // Optional: time source override for tests
}

// Executor drives claimed jobs through their pipeline. Pipelines are
// registered per job type; a claimed job with no registered handler fails
// that job only. Each execution opens a fresh run, records the step log in
// memory, and persists it exactly once at finalization.
type Executor struct {
	jobs    core.JobRepository
	runs    core.RunRepository
	logger  *slog.Logger
	metrics statsd.Sink
	clock   domainjob.Clock

	mu       sync.RWMutex
	handlers map[model.JobType]Handler
}

// NewExecutor constructs an Executor with no handlers registered.
func NewExecutor(opts ExecutorOptions) (*Executor, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Runs == nil {
		return nil, errors.New("RunRepository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Executor{
		jobs:     opts.Jobs,
		runs:     opts.Runs,
		logger:   logger.With("component", "executor"),
		metrics:  opts.Metrics,
		clock:    opts.Clock,
		handlers: make(map[model.JobType]Handler),
	}, nil
}

// Register binds a handler to a job type. Registering the same type twice
// is a wiring bug and returns an error.
func (e *Executor) Register(jobType model.JobType, handler Handler) error {
	if !jobType.Valid() {
		return fmt.Errorf("invalid job type %q", jobType)
	}
	if handler == nil {
		return fmt.Errorf("nil handler for job type %q", jobType)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.handlers[jobType]; exists {
		return fmt.Errorf("handler already registered for job type %q", jobType)
	}
	e.handlers[jobType] = handler
	return nil
}

// HandledTypes returns the job types with a registered handler.
func (e *Executor) HandledTypes() []model.JobType {
	e.mu.RLock()
	defer e.mu.RUnlock()
	types := make([]model.JobType, 0, len(e.handlers))
	for t := range e.handlers {
		types = append(types, t)
	}
	return types
}

func (e *Executor) handler(jobType model.JobType) (Handler, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	h, ok := e.handlers[jobType]
	return h, ok
}

// ExecuteJob runs one already-claimed job to a terminal state. It never
// returns an error: every failure mode ends in the job marked failed (or
// requeued for retry) with the cause in the returned result. A failure in
// one job must never surface to sibling jobs in a batch.
func (e *Executor) ExecuteJob(ctx context.Context, job *model.Job) *DispatchResult {
	run, err := e.runs.Create(ctx, &model.CreateRunRequest{JobID: job.ID, UserID: job.UserID})
	if err != nil {
		msg := fmt.Sprintf("create run: %v", err)
		e.logger.ErrorContext(ctx, "run creation failed", "job_id", job.ID, "error", err)
		e.failJob(ctx, job, msg)
		return &DispatchResult{JobID: job.ID, Error: msg}
	}

	exec := &Execution{
		Job:      job,
		Recorder: domainjob.NewStepRecorder(e.clock),
	}

	result, execErr := e.runPipeline(ctx, exec)
	if execErr != nil {
		exec.Recorder.Record(model.StepError, map[string]string{"error": execErr.Error()})
	}

	e.finalize(ctx, run.ID, exec, execErr)
	e.emitLifecycle(job, exec, execErr)

	if execErr != nil {
		e.logger.WarnContext(ctx, "job failed",
			"job_id", job.ID, "job_type", job.Type, "run_id", run.ID, "error", execErr)
		return &DispatchResult{JobID: job.ID, Error: execErr.Error()}
	}

	e.logger.InfoContext(ctx, "job completed",
		"job_id", job.ID, "job_type", job.Type, "run_id", run.ID,
		"duration_ms", exec.Recorder.Elapsed().Milliseconds())
	return &DispatchResult{JobID: job.ID, Success: true, Result: result}
}

func (e *Executor) runPipeline(ctx context.Context, exec *Execution) (*model.PipelineResult, error) {
	handler, ok := e.handler(exec.Job.Type)
	if !ok {
		return nil, fmt.Errorf("unknown job type %q", exec.Job.Type)
	}
	return handler.Execute(ctx, exec)
}

// finalize persists the run trace exactly once and moves the job to its
// terminal status. Persistence errors here are logged, not surfaced: the
// pipeline outcome is already decided.
func (e *Executor) finalize(ctx context.Context, runID string, exec *Execution, execErr error) {
	req := &model.FinalizeRunRequest{
		RunID:      runID,
		OrderID:    exec.OrderID(),
		Steps:      exec.Recorder.Steps(),
		DurationMs: exec.Recorder.Elapsed().Milliseconds(),
		Cost:       exec.Recorder.Cost(),
		Success:    execErr == nil,
	}
	if execErr != nil {
		req.ErrorMessage = execErr.Error()
	}
	if err := e.runs.Finalize(ctx, req); err != nil {
		e.logger.ErrorContext(ctx, "run finalization failed",
			"job_id", exec.Job.ID, "run_id", runID, "error", err)
	}

	if execErr == nil {
		if _, err := e.jobs.Complete(ctx, exec.Job.ID); err != nil {
			e.logger.ErrorContext(ctx, "job completion write failed",
				"job_id", exec.Job.ID, "error", err)
		}
		return
	}
	e.failJob(ctx, exec.Job, execErr.Error())
}

func (e *Executor) failJob(ctx context.Context, job *model.Job, msg string) {
	if _, err := e.jobs.Fail(ctx, job.ID, msg); err != nil {
		e.logger.ErrorContext(ctx, "job failure write failed",
			"job_id", job.ID, "error", err)
	}
}

func (e *Executor) emitLifecycle(job *model.Job, exec *Execution, execErr error) {
	result := metrics.ResultSuccess
	if execErr != nil {
		result = metrics.ResultError
	}
	metrics.EmitJobLifecycle(e.metrics, metrics.JobMetric{
		JobType:    string(job.Type),
		Transition: "execute",
		Result:     result,
		Duration:   exec.Recorder.Elapsed(),
		Err:        execErr,
	})
	metrics.EmitRunCost(e.metrics, string(job.Type), exec.Recorder.Cost())
}
