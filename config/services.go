package config

import "time"

// JobsConfig contains job store policy configuration.
type JobsConfig struct {
	// DefaultLease is how long a claimed job is leased before an expired
	// lease makes it eligible for requeue.
	DefaultLease time.Duration `env:"JOBS_DEFAULT_LEASE" envDefault:"5m"`

	// RetryDelay is the delay applied when a failed job is requeued.
	RetryDelay time.Duration `env:"JOBS_RETRY_DELAY" envDefault:"30s"`

	// DefaultMaxAttempts caps claim attempts before a job fails terminally.
	DefaultMaxAttempts int `env:"JOBS_DEFAULT_MAX_ATTEMPTS" envDefault:"3"`
}

// Sanitize applies guardrails to job policy values.
func (j *JobsConfig) Sanitize() {
	if j.DefaultLease < 5*time.Second {
		j.DefaultLease = 5 * time.Second
	}
	if j.RetryDelay < time.Second {
		j.RetryDelay = time.Second
	}
	if j.DefaultMaxAttempts < 1 {
		j.DefaultMaxAttempts = 1
	}
}

// DispatcherConfig contains dispatcher configuration shared by the HTTP
// dispatch endpoint and the continuous worker.
type DispatcherConfig struct {
	// BatchSize is the default max_jobs for batch dispatch.
	BatchSize int `env:"DISPATCHER_BATCH_SIZE" envDefault:"5"`

	// MaxParallel bounds how many claimed jobs execute concurrently.
	MaxParallel int `env:"DISPATCHER_MAX_PARALLEL" envDefault:"4"`

	// PollInterval is the worker's fallback poll when no notifications
	// arrive.
	PollInterval time.Duration `env:"DISPATCHER_POLL_INTERVAL" envDefault:"15s"`
}

// Sanitize applies guardrails to dispatcher configuration values.
func (d *DispatcherConfig) Sanitize() {
	if d.BatchSize < 1 {
		d.BatchSize = 1
	}
	if d.MaxParallel < 1 {
		d.MaxParallel = 1
	}
	if d.PollInterval < time.Second {
		d.PollInterval = time.Second
	}
}

// SchedulerConfig contains pacing scheduler configuration.
type SchedulerConfig struct {
	// Interval is the scheduler tick interval.
	Interval time.Duration `env:"SCHEDULER_INTERVAL" envDefault:"30s"`

	// BatchSize is the number of due schedules claimed per tick.
	BatchSize int `env:"SCHEDULER_BATCH_SIZE" envDefault:"20"`
}

// Sanitize applies guardrails to scheduler configuration values.
func (s *SchedulerConfig) Sanitize() {
	if s.Interval < time.Second {
		s.Interval = time.Second
	}
	if s.BatchSize < 1 {
		s.BatchSize = 1
	}
}
