// Package scheduler scans due pacing schedules and enqueues
// pacing_content_generation jobs for them.
package scheduler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/draftforge/pipeline-api/internal/core"
	"github.com/draftforge/pipeline-api/internal/data"
	"github.com/draftforge/pipeline-api/internal/domain/model"
	"github.com/draftforge/pipeline-api/internal/observability/statsd"
	"github.com/draftforge/pipeline-api/internal/service"
)

const (
	defaultInterval  = 30 * time.Second
	defaultBatchSize = 20
)

// RunnerOptions holds the dependencies for creating a Runner.
type RunnerOptions struct {
	Schedules    core.ScheduleRepository // Required
	Jobs         *service.JobService     // Required
	Interval     time.Duration           // Optional: tick interval (default 30s)
	BatchSize    int                     // Optional: schedules per tick (default 20)
	TimeProvider data.TimeProvider       // Optional
	Logger       *slog.Logger            // Optional
	Metrics      statsd.Sink             // Optional
}

// Runner is the external producer for pacing jobs: each tick claims due
// schedules with a fire key so overlapping ticks cannot double-enqueue,
// creates one pacing_content_generation job per claimed schedule, and
// advances the schedule's next fire time.
type Runner struct {
	schedules core.ScheduleRepository
	jobs      *service.JobService
	interval  time.Duration
	batchSize int
	tp        data.TimeProvider
	logger    *slog.Logger
	metrics   statsd.Sink
}

// NewRunner creates a new scheduler runner with the given options.
func NewRunner(opts RunnerOptions) (*Runner, error) {
	if opts.Schedules == nil {
		return nil, errors.New("ScheduleRepository is required")
	}
	if opts.Jobs == nil {
		return nil, errors.New("JobService is required")
	}

	interval := opts.Interval
	if interval <= 0 {
		interval = defaultInterval
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	tp := opts.TimeProvider
	if tp == nil {
		tp = &data.RealTimeProvider{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Runner{
		schedules: opts.Schedules,
		jobs:      opts.Jobs,
		interval:  interval,
		batchSize: batchSize,
		tp:        tp,
		logger:    logger.With("component", "pacing_scheduler"),
		metrics:   opts.Metrics,
	}, nil
}

// Run ticks until the context is cancelled.
func (r *Runner) Run(ctx context.Context) error {
	r.logger.InfoContext(ctx, "pacing scheduler started", "interval", r.interval)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		if fired, err := r.Tick(ctx); err != nil {
			r.logger.ErrorContext(ctx, "scheduler tick failed", "error", err)
		} else if fired > 0 {
			r.logger.InfoContext(ctx, "scheduler tick fired jobs", "fired", fired)
		}

		select {
		case <-ctx.Done():
			r.logger.InfoContext(ctx, "pacing scheduler stopped")
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// Tick processes one scan of due schedules and returns how many jobs fired.
func (r *Runner) Tick(ctx context.Context) (int, error) {
	now := r.tp.Now()
	due, err := r.schedules.FindDue(ctx, now, r.batchSize)
	if err != nil {
		return 0, fmt.Errorf("find due schedules: %w", err)
	}

	fired := 0
	for _, schedule := range due {
		if r.fire(ctx, schedule, now) {
			fired++
		}
	}
	if fired > 0 && r.metrics != nil {
		r.metrics.Count("scheduler.fired", int64(fired), nil)
	}
	return fired, nil
}

// fire claims one schedule and enqueues its job. The fire key marks the
// enqueue in flight; it is cleared whether or not job creation succeeds so
// a transient failure cannot wedge the schedule.
func (r *Runner) fire(ctx context.Context, schedule *model.PacingSchedule, now time.Time) bool {
	fireKey := uuid.NewString()
	claimed, err := r.schedules.MarkFired(ctx, core.MarkScheduleFiredParams{
		ScheduleID: schedule.ID,
		FireKey:    fireKey,
		NextFireAt: nextFireTime(schedule, now),
		Now:        now,
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "mark schedule fired failed",
			"schedule_id", schedule.ID, "error", err)
		return false
	}
	if !claimed {
		// Another tick already claimed this schedule.
		return false
	}

	defer func() {
		if cerr := r.schedules.ClearFireKey(ctx, schedule.ID, fireKey); cerr != nil {
			r.logger.ErrorContext(ctx, "clear fire key failed",
				"schedule_id", schedule.ID, "error", cerr)
		}
	}()

	payload, err := json.Marshal(model.PacingContentPayload{
		ScheduleID:    schedule.ID,
		Frequency:     schedule.Frequency,
		SelectedDays:  schedule.SelectedDays,
		PreferredTime: schedule.PreferredTime,
		TriggerDate:   &now,
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "marshal pacing payload failed",
			"schedule_id", schedule.ID, "error", err)
		return false
	}

	job, err := r.jobs.Create(ctx, &model.CreateJobRequest{
		Type:    model.JobTypePacingContent,
		Payload: payload,
		UserID:  schedule.UserID,
	})
	if err != nil {
		r.logger.ErrorContext(ctx, "enqueue pacing job failed",
			"schedule_id", schedule.ID, "error", err)
		return false
	}

	r.logger.InfoContext(ctx, "pacing job enqueued",
		"schedule_id", schedule.ID, "job_id", job.ID, "user_id", schedule.UserID)
	return true
}

// nextFireTime computes when a schedule should fire again. Daily schedules
// fire the next day at the preferred time, weekly a week out, and custom
// schedules on the next selected weekday.
func nextFireTime(schedule *model.PacingSchedule, now time.Time) time.Time {
	hour, minute := parsePreferredTime(schedule.PreferredTime)

	at := func(day time.Time) time.Time {
		return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
	}

	switch schedule.Frequency {
	case "daily":
		return at(now.AddDate(0, 0, 1))
	case "weekly":
		return at(now.AddDate(0, 0, 7))
	case "custom":
		selected := make(map[string]bool, len(schedule.SelectedDays))
		for _, d := range schedule.SelectedDays {
			selected[strings.ToLower(strings.TrimSpace(d))] = true
		}
		if len(selected) > 0 {
			for offset := 1; offset <= 7; offset++ {
				day := now.AddDate(0, 0, offset)
				if selected[strings.ToLower(day.Weekday().String())] {
					return at(day)
				}
			}
		}
		return at(now.AddDate(0, 0, 1))
	default:
		return now.Add(24 * time.Hour)
	}
}

// parsePreferredTime reads an "HH:MM" clock string, defaulting to 09:00.
func parsePreferredTime(s string) (hour, minute int) {
	hour, minute = 9, 0
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return hour, minute
	}
	h, herr := strconv.Atoi(parts[0])
	m, merr := strconv.Atoi(parts[1])
	if herr != nil || merr != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 9, 0
	}
	return h, m
}
