package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/draftforge/pipeline-api/internal/core"
	"github.com/draftforge/pipeline-api/internal/data"
	domainjob "github.com/draftforge/pipeline-api/internal/domain/job"
	"github.com/draftforge/pipeline-api/internal/domain/model"
	apperrors "github.com/draftforge/pipeline-api/internal/errors"
)

// JobServiceOptions groups dependencies for JobService.
type JobServiceOptions struct {
	Repo            core.JobRepository        // Required: job repository
	Runs            core.RunRepository        // Required: run trace reads
	Logger          *slog.Logger              // Optional: structured logger
	Notifier        domainjob.Notifier        // Optional: custom job availability notifier
	NotifierOptions domainjob.NotifierOptions // Optional: configure default notifier behaviour
}

// JobService provides the enqueue and read side of the job store: creating
// jobs, reading job status and run traces, per-type stats, and the pub/sub
// wakeups the continuous dispatcher listens on.
type JobService struct {
	repo     core.JobRepository
	runs     core.RunRepository
	notifier domainjob.Notifier
	logger   *slog.Logger
}

// NewJobService constructs a new JobService.
func NewJobService(opts JobServiceOptions) (*JobService, error) {
	if opts.Repo == nil {
		return nil, errors.New("JobRepository is required")
	}
	if opts.Runs == nil {
		return nil, errors.New("RunRepository is required")
	}

	notifier := opts.Notifier
	if notifier == nil {
		options := opts.NotifierOptions
		if options.Waiter == nil {
			options.Waiter = opts.Repo
		}
		var err error
		notifier, err = domainjob.NewNotifier(options)
		if err != nil {
			return nil, fmt.Errorf("create job notifier: %w", err)
		}
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &JobService{
		repo:     opts.Repo,
		runs:     opts.Runs,
		notifier: notifier,
		logger:   logger.With("component", "job_service"),
	}, nil
}

// Create enqueues a new job with status pending.
func (s *JobService) Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error) {
	if req == nil {
		return nil, apperrors.Validation("create job request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, apperrors.Validation(err.Error())
	}

	job, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("create job: %w", err)
	}

	s.logger.InfoContext(ctx, "job enqueued",
		"job_id", job.ID, "job_type", job.Type, "run_at", job.RunAt)
	return job, nil
}

// Get retrieves a job by id.
func (s *JobService) Get(ctx context.Context, id string) (*model.Job, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, data.ErrJobNotFound) {
			return nil, apperrors.NotFoundf("job %s not found", id)
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

// Status returns the read-side view of a job's outcome.
func (s *JobService) Status(ctx context.Context, id string) (*model.JobStatusResponse, error) {
	job, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.JobStatusResponse{
		Status:       job.Status,
		Attempts:     job.Attempts,
		CompletedAt:  job.CompletedAt,
		ErrorMessage: job.ErrorMessage,
	}, nil
}

// Runs lists the run traces recorded for a job, newest first.
func (s *JobService) Runs(ctx context.Context, jobID string) ([]*model.Run, error) {
	if _, err := s.Get(ctx, jobID); err != nil {
		return nil, err
	}
	runs, err := s.runs.ListByJob(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}

// Stats returns job counts per state for one job type.
func (s *JobService) Stats(ctx context.Context, jobType model.JobType) (*model.JobStats, error) {
	if !jobType.Valid() {
		return nil, apperrors.Validation(fmt.Sprintf("invalid job type %q", jobType))
	}
	stats, err := s.repo.Stats(ctx, jobType)
	if err != nil {
		return nil, fmt.Errorf("job stats: %w", err)
	}
	return stats, nil
}

// Subscribe registers for wakeups when jobs of a type may be available.
func (s *JobService) Subscribe(jobType model.JobType) (func(), <-chan struct{}) {
	return s.notifier.Subscribe(jobType)
}

// Shutdown stops all background notification listeners.
func (s *JobService) Shutdown() {
	s.notifier.StopAll()
	s.logger.Info("job service listeners stopped")
}
