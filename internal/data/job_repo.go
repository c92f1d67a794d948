package data

import (
	"database/sql"
	"log/slog"
)

// JobRepoConfig holds configuration options for the job repository.
type JobRepoConfig struct {
	// RetryDelaySeconds is the delay applied when a failed job is requeued
	// for another attempt. Defaults to 30 seconds.
	RetryDelaySeconds int
	// DefaultMaxAttempts caps claim attempts for jobs created without an
	// explicit maximum. Defaults to 3.
	DefaultMaxAttempts int
	Logger             *slog.Logger
	TimeProvider       TimeProvider
}

// JobRepo provides Postgres-backed operations for the durable job store.
type JobRepo struct {
	DB           *sql.DB
	cfg          JobRepoConfig
	timeProvider TimeProvider
	logger       *slog.Logger
}

// NewJobRepo creates a new JobRepo with the given database handle and configuration.
func NewJobRepo(db *sql.DB, cfg JobRepoConfig) *JobRepo {
	tp := cfg.TimeProvider
	if tp == nil {
		tp = &RealTimeProvider{}
	}
	return &JobRepo{
		DB:           db,
		cfg:          cfg,
		timeProvider: tp,
		logger:       cfg.Logger,
	}
}

const jobColumns = `
  id,
  type,
  status,
  payload,
  user_id,
  run_at,
  attempts,
  max_attempts,
  started_at,
  completed_at,
  error_message,
  lease_expires_at,
  created_at,
  updated_at
`
