package model

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

// OrderStatus tracks a content order through generation.
type OrderStatus string

const (
	// OrderStatusOpen indicates the order has no draft yet.
	OrderStatusOpen OrderStatus = "open"
	// OrderStatusDrafted indicates a draft has been persisted for the order.
	OrderStatusDrafted OrderStatus = "drafted"
)

// ContentOrder describes what to generate. The executor reads orders for
// process_order jobs and creates them for pacing jobs; it never deletes them.
type ContentOrder struct {
	ID         string          `json:"id"                   db:"id"`
	UserID     string          `json:"user_id"              db:"user_id"`
	Status     OrderStatus     `json:"status"               db:"status"`
	Topic      string          `json:"topic"                db:"topic"`
	Platform   string          `json:"platform"             db:"platform"`
	Angle      string          `json:"angle"                db:"angle"`
	Tone       string          `json:"tone"                 db:"tone"`
	Length     string          `json:"length"               db:"length"`
	Enrichment json.RawMessage `json:"enrichment,omitempty" db:"enrichment"`
	ScheduleID *string         `json:"schedule_id,omitempty" db:"schedule_id"`
	CreatedAt  time.Time       `json:"created_at"           db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"           db:"updated_at"`
}

// CreateOrderRequest creates a content order, typically from a pacing job.
type CreateOrderRequest struct {
	UserID     string
	Topic      string
	Platform   string
	Angle      string
	Tone       string
	Length     string
	Enrichment json.RawMessage
	ScheduleID *string
}

// Validate validates the CreateOrderRequest fields.
func (r *CreateOrderRequest) Validate() error {
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("user id is required")
	}
	if strings.TrimSpace(r.Topic) == "" {
		return errors.New("topic is required")
	}
	if strings.TrimSpace(r.Platform) == "" {
		return errors.New("platform is required")
	}
	return nil
}

// Brief carries the structured generation parameters produced by the Brief
// Builder stage and consumed by every stage after it.
type Brief struct {
	Topic    string `json:"topic"`
	Platform string `json:"platform"`
	Angle    string `json:"angle"`
	Tone     string `json:"tone"`
	Length   string `json:"length"`
}

// Citation is one piece of retrieved supporting material.
type Citation struct {
	Title   string  `json:"title"`
	URL     string  `json:"url,omitempty"`
	Snippet string  `json:"snippet,omitempty"`
	Score   float64 `json:"score,omitempty"`
}

// Draft is a persisted generation result referencing its order.
type Draft struct {
	ID           string     `json:"id"            db:"id"`
	OrderID      string     `json:"order_id"      db:"order_id"`
	UserID       string     `json:"user_id"       db:"user_id"`
	Title        string     `json:"title"         db:"title"`
	Content      string     `json:"content"       db:"content"`
	QualityScore *float64   `json:"quality_score,omitempty" db:"quality_score"`
	Citations    []Citation `json:"citations"     db:"citations"`
	CreatedAt    time.Time  `json:"created_at"    db:"created_at"`
}

// CreateDraftRequest persists the edited draft produced by a pipeline.
type CreateDraftRequest struct {
	OrderID      string
	UserID       string
	Title        string
	Content      string
	QualityScore *float64
	Citations    []Citation
}

// Validate validates the CreateDraftRequest fields.
func (r *CreateDraftRequest) Validate() error {
	if strings.TrimSpace(r.OrderID) == "" {
		return errors.New("order id is required")
	}
	if strings.TrimSpace(r.UserID) == "" {
		return errors.New("user id is required")
	}
	if strings.TrimSpace(r.Content) == "" {
		return errors.New("content is required")
	}
	return nil
}

// PipelineResult is what a successful generation pipeline reports back to the
// dispatcher.
type PipelineResult struct {
	DraftID        string `json:"draft_id,omitempty"`
	OrderID        string `json:"order_id,omitempty"`
	Title          string `json:"title,omitempty"`
	CitationsCount int    `json:"citations_count"`
	Message        string `json:"message,omitempty"`
}
