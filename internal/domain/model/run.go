package model

import (
	"encoding/json"
	"time"
)

// RunStep is one append-only entry in a run's step log.
type RunStep struct {
	Step      string          `json:"step"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"ts"`
}

// Terminal step names recorded at the end of a run's step log.
const (
	StepError     = "error"
	StepDraftSave = "draft_saved"
)

// Run is one execution attempt's telemetry trace for a job. A retried job
// gets a fresh Run; the old one is never mutated.
type Run struct {
	ID           string    `json:"id"                      db:"id"`
	JobID        string    `json:"job_id"                  db:"job_id"`
	UserID       string    `json:"user_id"                 db:"user_id"`
	OrderID      *string   `json:"order_id,omitempty"      db:"order_id"`
	Steps        []RunStep `json:"steps"                   db:"steps"`
	DurationMs   int64     `json:"duration_ms"             db:"duration_ms"`
	Cost         float64   `json:"cost"                    db:"cost"`
	Success      bool      `json:"success"                 db:"success"`
	ErrorMessage *string   `json:"error_message,omitempty" db:"error_message"`
	CreatedAt    time.Time `json:"created_at"              db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"              db:"updated_at"`
}

// CreateRunRequest opens a new run trace for a job attempt.
type CreateRunRequest struct {
	JobID  string
	UserID string
}

// FinalizeRunRequest carries everything persisted when a run is fixed.
type FinalizeRunRequest struct {
	RunID        string
	OrderID      *string
	Steps        []RunStep
	DurationMs   int64
	Cost         float64
	Success      bool
	ErrorMessage string
}
