// Package core defines the service-layer ports of the pipeline system.
package core

import (
	"context"
	"time"

	"github.com/draftforge/pipeline-api/internal/domain/model"
)

// This file contains repository and client interface definitions (ports in
// hexagonal architecture). Services depend on these contracts, not on the
// concrete data or adapter implementations.

// ClaimBatchParams groups parameters for JobRepository.ClaimBatch.
type ClaimBatchParams struct {
	MaxJobs      int
	LeaseSeconds int
}

// JobRepository defines the interface for job store operations.
type JobRepository interface {
	Create(ctx context.Context, req *model.CreateJobRequest) (*model.Job, error)
	GetByID(ctx context.Context, id string) (*model.Job, error)
	// ClaimByID claims a specific job for execution regardless of its
	// current status, marking it processing and incrementing attempts.
	ClaimByID(ctx context.Context, id string, leaseSeconds int) (*model.Job, error)
	// ClaimBatch atomically claims up to MaxJobs pending jobs whose run_at
	// has passed, ordered by run_at ascending. Each claimed job is marked
	// processing with attempts incremented before it is returned.
	ClaimBatch(ctx context.Context, params ClaimBatchParams) ([]*model.Job, error)
	WaitForNotification(ctx context.Context, jobType model.JobType) error
	Complete(ctx context.Context, id string) (bool, error)
	// Fail records the error and either requeues the job with a delay or,
	// once attempts reach max_attempts, marks it terminally failed.
	Fail(ctx context.Context, id, errMsg string) (bool, error)
	Stats(ctx context.Context, jobType model.JobType) (*model.JobStats, error)
}

// RunRepository defines the interface for run trace persistence.
type RunRepository interface {
	Create(ctx context.Context, req *model.CreateRunRequest) (*model.Run, error)
	// Finalize writes the full step log, timing, cost, and outcome exactly
	// once. A finalized run is never mutated again.
	Finalize(ctx context.Context, req *model.FinalizeRunRequest) error
	GetByID(ctx context.Context, id string) (*model.Run, error)
	ListByJob(ctx context.Context, jobID string) ([]*model.Run, error)
}

// OrderRepository defines the interface for content order access.
type OrderRepository interface {
	GetByID(ctx context.Context, id string) (*model.ContentOrder, error)
	Create(ctx context.Context, req *model.CreateOrderRequest) (*model.ContentOrder, error)
	MarkDrafted(ctx context.Context, id string) error
}

// DraftRepository defines the interface for persisted drafts.
type DraftRepository interface {
	Create(ctx context.Context, req *model.CreateDraftRequest) (*model.Draft, error)
	GetByID(ctx context.Context, id string) (*model.Draft, error)
}

// ProfileRepository reads creator profiles for personalization. The
// personalizer never writes through this port.
type ProfileRepository interface {
	GetByUserID(ctx context.Context, userID string) (*model.CreatorProfile, error)
}

// MarkScheduleFiredParams groups parameters for ScheduleRepository.MarkFired.
type MarkScheduleFiredParams struct {
	ScheduleID string
	FireKey    string
	NextFireAt time.Time
	Now        time.Time
}

// ScheduleRepository defines the interface for pacing schedule access.
type ScheduleRepository interface {
	FindDue(ctx context.Context, now time.Time, limit int) ([]*model.PacingSchedule, error)
	// MarkFired sets the schedule's active fire key and next fire time.
	// It returns false when another scheduler tick already claimed it.
	MarkFired(ctx context.Context, params MarkScheduleFiredParams) (bool, error)
	ClearFireKey(ctx context.Context, scheduleID, fireKey string) error
}

// StageUsage carries metering data returned by a pipeline stage.
type StageUsage struct {
	Cost float64 `json:"cost,omitempty"`
}

// BuildBriefRequest is the Brief Builder stage input.
type BuildBriefRequest struct {
	OrderID string `json:"order_id"`
	UserID  string `json:"user_id"`
}

// BriefResult is the Brief Builder stage output.
type BriefResult struct {
	Brief model.Brief `json:"brief"`
	Usage StageUsage  `json:"usage,omitempty"`
}

// RetrieveRequest is the Retriever stage input.
type RetrieveRequest struct {
	UserID     string                   `json:"user_id"`
	Topic      string                   `json:"topic"`
	Platform   string                   `json:"platform"`
	Enrichment *model.EnrichmentContext `json:"enrichment,omitempty"`
}

// RetrieveResult is the Retriever stage output.
type RetrieveResult struct {
	Citations []model.Citation `json:"citations"`
	Usage     StageUsage       `json:"usage,omitempty"`
}

// DraftRequest is the Drafter stage input.
type DraftRequest struct {
	Brief      model.Brief              `json:"brief"`
	Citations  []model.Citation         `json:"citations"`
	UserID     string                   `json:"user_id"`
	Enrichment *model.EnrichmentContext `json:"enrichment,omitempty"`
}

// DraftResult is the Drafter stage output.
type DraftResult struct {
	Title   string     `json:"title"`
	Content string     `json:"content"`
	Usage   StageUsage `json:"usage,omitempty"`
}

// EditRequest is the Editor stage input.
type EditRequest struct {
	Title      string                   `json:"title"`
	Content    string                   `json:"content"`
	Brief      model.Brief              `json:"brief"`
	UserID     string                   `json:"user_id"`
	Enrichment *model.EnrichmentContext `json:"enrichment,omitempty"`
}

// EditResult is the Editor stage output.
type EditResult struct {
	Title        string     `json:"title"`
	Content      string     `json:"content"`
	QualityScore float64    `json:"quality_score"`
	Usage        StageUsage `json:"usage,omitempty"`
}

// StageClients bundles the four pipeline stage ports. Each stage is a
// stateless remote service; a non-2xx response is fatal for the enclosing
// job and surfaces as a stage error naming the stage and status code.
type StageClients interface {
	BuildBrief(ctx context.Context, req BuildBriefRequest) (*BriefResult, error)
	Retrieve(ctx context.Context, req RetrieveRequest) (*RetrieveResult, error)
	Draft(ctx context.Context, req DraftRequest) (*DraftResult, error)
	Edit(ctx context.Context, req EditRequest) (*EditResult, error)
}

// DraftNotification is delivered after a draft has been persisted.
type DraftNotification struct {
	UserID  string `json:"user_id"`
	DraftID string `json:"draft_id"`
	OrderID string `json:"order_id"`
	Title   string `json:"title"`
}

// DraftNotifier delivers fire-and-forget notifications. Failures are logged
// as a run step and never alter the job outcome.
type DraftNotifier interface {
	NotifyDraftReady(ctx context.Context, n DraftNotification) error
}
