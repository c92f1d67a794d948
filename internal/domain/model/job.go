// Package model defines the core data types shared across the pipeline job system.
package model

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// JobType selects which pipeline the executor runs for a job.
//
//nolint:recvcheck // UnmarshalText needs pointer receiver, Valid needs value receiver
type JobType string

// JobStatus represents the current status of a job.
type JobStatus string

const (
	// JobTypeProcessOrder generates content for an existing content order.
	JobTypeProcessOrder JobType = "process_order"
	// JobTypePacingContent generates content on a pacing schedule, creating the order itself.
	JobTypePacingContent JobType = "pacing_content_generation"
	// JobTypePacingCheck verifies pacing schedule health.
	JobTypePacingCheck JobType = "pacing_check"
	// JobTypeDraftReview re-reviews a previously generated draft.
	JobTypeDraftReview JobType = "draft_review"

	// JobStatusPending indicates a job is waiting to be claimed.
	JobStatusPending JobStatus = "pending"
	// JobStatusProcessing indicates a job has been claimed and is executing.
	JobStatusProcessing JobStatus = "processing"
	// JobStatusCompleted indicates a job finished successfully.
	JobStatusCompleted JobStatus = "completed"
	// JobStatusFailed indicates a job exhausted its attempts without succeeding.
	JobStatusFailed JobStatus = "failed"
)

// ErrNoJobsAvailable is returned when no pending jobs are eligible for claiming.
var ErrNoJobsAvailable = errors.New("no jobs available")

// AllJobTypes returns every job type the pipeline knows how to run.
func AllJobTypes() []JobType {
	return []JobType{JobTypeProcessOrder, JobTypePacingContent, JobTypePacingCheck, JobTypeDraftReview}
}

// UnmarshalText implements encoding.TextUnmarshaler for JobType to allow env parsing.
func (t *JobType) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	jt := JobType(v)
	if jt.Valid() {
		*t = jt
		return nil
	}
	return fmt.Errorf("invalid JobType: %q", v)
}

// Valid returns true if the JobType is one of the closed set of pipeline types.
func (t JobType) Valid() bool {
	return t == JobTypeProcessOrder || t == JobTypePacingContent ||
		t == JobTypePacingCheck || t == JobTypeDraftReview
}

// Valid returns true if the JobStatus is valid.
func (s JobStatus) Valid() bool {
	return s == JobStatusPending || s == JobStatusProcessing ||
		s == JobStatusCompleted || s == JobStatusFailed
}

// Terminal returns true once a job can no longer transition.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

// Job is a durable unit of deferred pipeline work.
type Job struct {
	ID             string          `json:"id"                         db:"id"`
	Type           JobType         `json:"type"                       db:"type"`
	Status         JobStatus       `json:"status"                     db:"status"`
	Payload        json.RawMessage `json:"payload"                    db:"payload"`
	UserID         string          `json:"user_id"                    db:"user_id"`
	RunAt          time.Time       `json:"run_at"                     db:"run_at"`
	Attempts       int             `json:"attempts"                   db:"attempts"`
	MaxAttempts    int             `json:"max_attempts"               db:"max_attempts"`
	StartedAt      *time.Time      `json:"started_at,omitempty"       db:"started_at"`
	CompletedAt    *time.Time      `json:"completed_at,omitempty"     db:"completed_at"`
	ErrorMessage   *string         `json:"error_message,omitempty"    db:"error_message"`
	LeaseExpiresAt *time.Time      `json:"lease_expires_at,omitempty" db:"lease_expires_at"`
	CreatedAt      time.Time       `json:"created_at"                 db:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"                 db:"updated_at"`
}

// CreateJobRequest represents a request to enqueue a new job.
type CreateJobRequest struct {
	Type        JobType         `json:"type"`
	Payload     json.RawMessage `json:"payload"`
	UserID      string          `json:"user_id"`
	RunAt       *time.Time      `json:"run_at,omitempty"`
	MaxAttempts int             `json:"max_attempts,omitempty"`
}

// Validate validates the CreateJobRequest fields.
func (r *CreateJobRequest) Validate() error {
	if !r.Type.Valid() {
		return errors.New("invalid job type")
	}
	if len(r.Payload) == 0 {
		return errors.New("payload is required")
	}
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("user id is required")
	}
	if r.MaxAttempts < 0 {
		return errors.New("max attempts must be >= 0")
	}
	return nil
}

// JobStats represents counts of jobs in each state for one job type.
type JobStats struct {
	Pending    int `json:"pending"`
	Processing int `json:"processing"`
	Completed  int `json:"completed"`
	Failed     int `json:"failed"`
}

// JobStatusResponse is the read-side view of a single job's outcome.
type JobStatusResponse struct {
	Status       JobStatus  `json:"status"`
	Attempts     int        `json:"attempts"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ErrorMessage *string    `json:"error_message,omitempty"`
}

// ProcessOrderPayload is the payload shape for process_order jobs.
type ProcessOrderPayload struct {
	OrderID string `json:"order_id"`
}

// PacingContentPayload is the payload shape for pacing_content_generation jobs.
type PacingContentPayload struct {
	ScheduleID           string                `json:"schedule_id"`
	Frequency            string                `json:"frequency"`
	SelectedDays         []string              `json:"selected_days,omitempty"`
	PreferredTime        string                `json:"preferred_time,omitempty"`
	TriggerDate          *time.Time            `json:"trigger_date,omitempty"`
	MeetingContext       *MeetingContext       `json:"meeting_context,omitempty"`
	KnowledgeBaseContext *KnowledgeBaseContext `json:"knowledge_base_context,omitempty"`
}
