// Package dispatcher runs the continuous claim-and-execute worker loop.
// The HTTP dispatch endpoint remains the stateless invocation surface; this
// adapter shares the same DispatchService and simply keeps draining.
package dispatcher

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/draftforge/pipeline-api/internal/domain/model"
	"github.com/draftforge/pipeline-api/internal/service"
)

const (
	defaultPollInterval = 15 * time.Second
	errorBackoff        = 2 * time.Second
)

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Dispatch     *service.DispatchService // Required
	Jobs         *service.JobService      // Required: job availability wakeups
	JobTypes     []model.JobType          // Required: types to listen for
	BatchSize    int                      // Optional: jobs per claim (default service's)
	PollInterval time.Duration            // Optional: fallback poll (default 15s)
	Logger       *slog.Logger             // Optional
}

// Runner claims and executes pending jobs continuously. It wakes on
// pg_notify wakeups for any of its job types and falls back to a periodic
// poll so missed notifications only delay work, never lose it.
type Runner struct {
	dispatch     *service.DispatchService
	jobs         *service.JobService
	jobTypes     []model.JobType
	batchSize    int
	pollInterval time.Duration
	logger       *slog.Logger
}

// NewRunner creates a new dispatcher runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Dispatch == nil {
		return nil, errors.New("DispatchService is required")
	}
	if opts.Jobs == nil {
		return nil, errors.New("JobService is required")
	}
	if len(opts.JobTypes) == 0 {
		return nil, errors.New("at least one job type is required")
	}
	for _, t := range opts.JobTypes {
		if !t.Valid() {
			return nil, errors.New("invalid job type " + string(t))
		}
	}

	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = defaultPollInterval
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		dispatch:     opts.Dispatch,
		jobs:         opts.Jobs,
		jobTypes:     opts.JobTypes,
		batchSize:    opts.BatchSize,
		pollInterval: pollInterval,
		logger:       logger.With("component", "dispatcher_runner"),
	}, nil
}

// Run drains jobs until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	wake := r.mergeWakeups(ctx)
	r.logger.InfoContext(ctx, "dispatcher runner started",
		"job_types", len(r.jobTypes), "poll_interval", r.pollInterval)

	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()

	for {
		result, err := r.dispatch.DispatchBatch(ctx, r.batchSize)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return ctx.Err()
			}
			r.logger.ErrorContext(ctx, "batch dispatch failed", "error", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(errorBackoff):
			}
			continue
		case result.Processed > 0:
			// Keep draining while there is work.
			continue
		}

		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "dispatcher runner stopped")
			return ctx.Err()
		case <-wake:
		case <-ticker.C:
		}
	}
}

// mergeWakeups fans the per-type subscription channels into one buffered
// wakeup channel. Wakeups coalesce; a burst of notifications causes at most
// one extra drain pass.
func (r *Runner) mergeWakeups(ctx context.Context) <-chan struct{} {
	wake := make(chan struct{}, 1)
	for _, jobType := range r.jobTypes {
		unsubscribe, ch := r.jobs.Subscribe(jobType)
		go func() {
			defer unsubscribe()
			for {
				select {
				case <-ctx.Done():
					return
				case _, ok := <-ch:
					if !ok {
						return
					}
					select {
					case wake <- struct{}{}:
					default:
					}
				}
			}
		}()
	}
	return wake
}
