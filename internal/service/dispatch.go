package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/draftforge/pipeline-api/internal/core"
	"github.com/draftforge/pipeline-api/internal/data"
	domainjob "github.com/draftforge/pipeline-api/internal/domain/job"
	"github.com/draftforge/pipeline-api/internal/domain/model"
	apperrors "github.com/draftforge/pipeline-api/internal/errors"
)

const (
	defaultBatchSize   = 5
	defaultMaxParallel = 4
)

// BatchResult reports the outcome of one batch dispatch call. Results hold
// one entry per claimed job in claim order; Message is set only for the
// zero-eligible-jobs no-op.
type BatchResult struct {
	Processed int              `json:"processed"`
	Results   []DispatchResult `json:"results,omitempty"`
	Message   string           `json:"message,omitempty"`
}

// DispatchServiceOptions groups dependencies for DispatchService.
type DispatchServiceOptions struct {
	Jobs        core.JobRepository     // Required: claim operations
	Executor    *Executor              // Required: pipeline execution
	LeasePolicy *domainjob.LeasePolicy // Optional: lease resolution (default 5m)
	MaxParallel int                    // Optional: concurrent jobs per batch (default 4)
	BatchSize   int                    // Optional: default max_jobs (default 5)
	Logger      *slog.Logger           // Optional
}

// DispatchService is the stateless invocation surface: run one specific job,
// or claim and drain a bounded batch of pending jobs. Claimed jobs are
// independent once claimed, so batch mode runs them on parallel goroutines;
// each job's own stage sequence stays strictly ordered inside the executor.
type DispatchService struct {
	jobs        core.JobRepository
	executor    *Executor
	leasePolicy *domainjob.LeasePolicy
	maxParallel int
	batchSize   int
	logger      *slog.Logger
}

// NewDispatchService constructs a DispatchService.
func NewDispatchService(opts DispatchServiceOptions) (*DispatchService, error) {
	if opts.Jobs == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Executor == nil {
		return nil, errors.New("Executor is required")
	}

	leasePolicy := opts.LeasePolicy
	if leasePolicy == nil {
		var err error
		leasePolicy, err = domainjob.NewLeasePolicy(5 * time.Minute)
		if err != nil {
			return nil, fmt.Errorf("create lease policy: %w", err)
		}
	}

	maxParallel := opts.MaxParallel
	if maxParallel <= 0 {
		maxParallel = defaultMaxParallel
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &DispatchService{
		jobs:        opts.Jobs,
		executor:    opts.Executor,
		leasePolicy: leasePolicy,
		maxParallel: maxParallel,
		batchSize:   batchSize,
		logger:      logger.With("component", "dispatch"),
	}, nil
}

// DispatchJob runs exactly the named job, regardless of its current status.
// A fresh run trace is created for this attempt; a completed job re-run this
// way gets a new run, never a mutated old one. A nonexistent id fails fast
// with a not-found error and no state mutation.
func (s *DispatchService) DispatchJob(ctx context.Context, jobID string) (*DispatchResult, error) {
	leaseSeconds, _ := s.leasePolicy.Resolve(0)
	job, err := s.jobs.ClaimByID(ctx, jobID, leaseSeconds)
	if err != nil {
		if errors.Is(err, data.ErrJobNotFound) {
			return nil, apperrors.NotFoundf("job %s not found", jobID)
		}
		return nil, fmt.Errorf("claim job %s: %w", jobID, err)
	}

	s.logger.InfoContext(ctx, "dispatching job",
		"job_id", job.ID, "job_type", job.Type, "attempt", job.Attempts)
	return s.executor.ExecuteJob(ctx, job), nil
}

// DispatchBatch claims up to maxJobs pending jobs whose run_at has passed,
// in run_at ascending order, then executes them. Every claimed job is
// already marked processing with attempts incremented before any execution
// starts. One job's failure never touches its siblings; the batch reports
// partial success per entry.
func (s *DispatchService) DispatchBatch(ctx context.Context, maxJobs int) (*BatchResult, error) {
	if maxJobs <= 0 {
		maxJobs = s.batchSize
	}

	leaseSeconds, _ := s.leasePolicy.Resolve(0)
	jobs, err := s.jobs.ClaimBatch(ctx, core.ClaimBatchParams{
		MaxJobs:      maxJobs,
		LeaseSeconds: leaseSeconds,
	})
	if err != nil && !errors.Is(err, model.ErrNoJobsAvailable) {
		return nil, fmt.Errorf("claim batch: %w", err)
	}
	if len(jobs) == 0 {
		return &BatchResult{Processed: 0, Message: "No pending jobs"}, nil
	}

	s.logger.InfoContext(ctx, "dispatching batch", "claimed", len(jobs))

	results := make([]DispatchResult, len(jobs))
	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(s.maxParallel)
	for i, job := range jobs {
		group.Go(func() error {
			// ExecuteJob never returns an error; failures land in the
			// per-job result so siblings keep running.
			results[i] = *s.executor.ExecuteJob(groupCtx, job)
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, fmt.Errorf("batch execution: %w", err)
	}

	return &BatchResult{Processed: len(results), Results: results}, nil
}
