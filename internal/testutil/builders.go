// Package testutil provides testing utilities and helpers for the pipeline job system.
package testutil

import (
	"encoding/json"
	"time"

	"github.com/draftforge/pipeline-api/internal/domain/model"
)

// JobRequestBuilder provides a fluent interface for building CreateJobRequest objects for testing.
type JobRequestBuilder struct {
	req *model.CreateJobRequest
}

// NewJobRequest creates a new JobRequestBuilder with sensible defaults.
func NewJobRequest() *JobRequestBuilder {
	return &JobRequestBuilder{
		req: &model.CreateJobRequest{
			Type:        model.JobTypeProcessOrder,
			Payload:     json.RawMessage(`{"order_id": "order-1"}`),
			UserID:      "user-1",
			MaxAttempts: 3,
		},
	}
}

// WithType sets the job type.
func (b *JobRequestBuilder) WithType(jobType model.JobType) *JobRequestBuilder {
	b.req.Type = jobType
	return b
}

// WithPayload sets the job payload.
func (b *JobRequestBuilder) WithPayload(payload json.RawMessage) *JobRequestBuilder {
	b.req.Payload = payload
	return b
}

// WithPayloadString sets the job payload from a string.
func (b *JobRequestBuilder) WithPayloadString(payload string) *JobRequestBuilder {
	b.req.Payload = json.RawMessage(payload)
	return b
}

// WithUserID sets the requesting user.
func (b *JobRequestBuilder) WithUserID(userID string) *JobRequestBuilder {
	b.req.UserID = userID
	return b
}

// WithRunAt sets the earliest execution time.
func (b *JobRequestBuilder) WithRunAt(runAt time.Time) *JobRequestBuilder {
	b.req.RunAt = &runAt
	return b
}

// WithMaxAttempts sets the attempt cap.
func (b *JobRequestBuilder) WithMaxAttempts(maxAttempts int) *JobRequestBuilder {
	b.req.MaxAttempts = maxAttempts
	return b
}

// Build returns the constructed request.
func (b *JobRequestBuilder) Build() *model.CreateJobRequest {
	req := *b.req
	return &req
}

// JobBuilder provides a fluent interface for building Job objects for testing.
type JobBuilder struct {
	job *model.Job
}

// NewJob creates a new JobBuilder with sensible defaults.
func NewJob() *JobBuilder {
	now := TestTime()
	return &JobBuilder{
		job: &model.Job{
			ID:          "00000000-0000-0000-0000-000000000001",
			Type:        model.JobTypeProcessOrder,
			Status:      model.JobStatusPending,
			Payload:     json.RawMessage(`{"order_id": "order-1"}`),
			UserID:      "user-1",
			RunAt:       now,
			Attempts:    0,
			MaxAttempts: 3,
			CreatedAt:   now,
			UpdatedAt:   now,
		},
	}
}

// WithID sets the job id.
func (b *JobBuilder) WithID(id string) *JobBuilder {
	b.job.ID = id
	return b
}

// WithType sets the job type.
func (b *JobBuilder) WithType(jobType model.JobType) *JobBuilder {
	b.job.Type = jobType
	return b
}

// WithStatus sets the job status.
func (b *JobBuilder) WithStatus(status model.JobStatus) *JobBuilder {
	b.job.Status = status
	return b
}

// WithPayloadString sets the job payload from a string.
func (b *JobBuilder) WithPayloadString(payload string) *JobBuilder {
	b.job.Payload = json.RawMessage(payload)
	return b
}

// WithUserID sets the owning user.
func (b *JobBuilder) WithUserID(userID string) *JobBuilder {
	b.job.UserID = userID
	return b
}

// WithAttempts sets the attempt counter.
func (b *JobBuilder) WithAttempts(attempts int) *JobBuilder {
	b.job.Attempts = attempts
	return b
}

// WithMaxAttempts sets the attempt cap.
func (b *JobBuilder) WithMaxAttempts(maxAttempts int) *JobBuilder {
	b.job.MaxAttempts = maxAttempts
	return b
}

// Build returns the constructed job.
func (b *JobBuilder) Build() *model.Job {
	job := *b.job
	return &job
}

// OrderBuilder provides a fluent interface for building ContentOrder objects for testing.
type OrderBuilder struct {
	order *model.ContentOrder
}

// NewOrder creates a new OrderBuilder with sensible defaults.
func NewOrder() *OrderBuilder {
	now := TestTime()
	return &OrderBuilder{
		order: &model.ContentOrder{
			ID:        "order-1",
			UserID:    "user-1",
			Status:    model.OrderStatusOpen,
			Topic:     "Scaling Postgres",
			Platform:  "linkedin",
			Angle:     "Engineering Deep Dive",
			Tone:      "Professional",
			Length:    "Medium",
			CreatedAt: now,
			UpdatedAt: now,
		},
	}
}

// WithID sets the order id.
func (b *OrderBuilder) WithID(id string) *OrderBuilder {
	b.order.ID = id
	return b
}

// WithUserID sets the owning user.
func (b *OrderBuilder) WithUserID(userID string) *OrderBuilder {
	b.order.UserID = userID
	return b
}

// WithTopic sets the order topic.
func (b *OrderBuilder) WithTopic(topic string) *OrderBuilder {
	b.order.Topic = topic
	return b
}

// WithEnrichment sets the raw enrichment blob.
func (b *OrderBuilder) WithEnrichment(enrichment json.RawMessage) *OrderBuilder {
	b.order.Enrichment = enrichment
	return b
}

// WithScheduleID links the order to a pacing schedule.
func (b *OrderBuilder) WithScheduleID(scheduleID string) *OrderBuilder {
	b.order.ScheduleID = &scheduleID
	return b
}

// Build returns the constructed order.
func (b *OrderBuilder) Build() *model.ContentOrder {
	order := *b.order
	return &order
}

// ProfileBuilder provides a fluent interface for building CreatorProfile objects for testing.
type ProfileBuilder struct {
	profile *model.CreatorProfile
}

// NewProfile creates a new ProfileBuilder with sensible defaults.
func NewProfile() *ProfileBuilder {
	return &ProfileBuilder{
		profile: &model.CreatorProfile{
			UserID:      "user-1",
			Role:        "Software Engineer",
			PrimaryGoal: "thought leadership",
			Skills:      []string{"Go", "PostgreSQL", "Distributed Systems"},
			UpdatedAt:   TestTime(),
		},
	}
}

// WithUserID sets the profile owner.
func (b *ProfileBuilder) WithUserID(userID string) *ProfileBuilder {
	b.profile.UserID = userID
	return b
}

// WithRole sets the professional role.
func (b *ProfileBuilder) WithRole(role string) *ProfileBuilder {
	b.profile.Role = role
	return b
}

// WithPrimaryGoal sets the primary goal.
func (b *ProfileBuilder) WithPrimaryGoal(goal string) *ProfileBuilder {
	b.profile.PrimaryGoal = goal
	return b
}

// WithSkills sets the skills list.
func (b *ProfileBuilder) WithSkills(skills ...string) *ProfileBuilder {
	b.profile.Skills = skills
	return b
}

// WithPillars sets the content pillars.
func (b *ProfileBuilder) WithPillars(pillars ...model.ContentPillar) *ProfileBuilder {
	b.profile.Pillars = pillars
	return b
}

// Build returns the constructed profile.
func (b *ProfileBuilder) Build() *model.CreatorProfile {
	profile := *b.profile
	return &profile
}

// ScheduleBuilder provides a fluent interface for building PacingSchedule objects for testing.
type ScheduleBuilder struct {
	schedule *model.PacingSchedule
}

// NewSchedule creates a new ScheduleBuilder with sensible defaults.
func NewSchedule() *ScheduleBuilder {
	now := TestTime()
	return &ScheduleBuilder{
		schedule: &model.PacingSchedule{
			ID:            "schedule-1",
			UserID:        "user-1",
			Frequency:     "daily",
			PreferredTime: "09:00",
			Enabled:       true,
			NextFireAt:    now,
			CreatedAt:     now,
			UpdatedAt:     now,
		},
	}
}

// WithID sets the schedule id.
func (b *ScheduleBuilder) WithID(id string) *ScheduleBuilder {
	b.schedule.ID = id
	return b
}

// WithUserID sets the schedule owner.
func (b *ScheduleBuilder) WithUserID(userID string) *ScheduleBuilder {
	b.schedule.UserID = userID
	return b
}

// WithFrequency sets the cadence.
func (b *ScheduleBuilder) WithFrequency(frequency string) *ScheduleBuilder {
	b.schedule.Frequency = frequency
	return b
}

// WithSelectedDays sets the custom weekday list.
func (b *ScheduleBuilder) WithSelectedDays(days ...string) *ScheduleBuilder {
	b.schedule.SelectedDays = days
	return b
}

// WithPreferredTime sets the HH:MM fire time.
func (b *ScheduleBuilder) WithPreferredTime(preferred string) *ScheduleBuilder {
	b.schedule.PreferredTime = preferred
	return b
}

// WithEnabled toggles the schedule.
func (b *ScheduleBuilder) WithEnabled(enabled bool) *ScheduleBuilder {
	b.schedule.Enabled = enabled
	return b
}

// WithNextFireAt sets the next due time.
func (b *ScheduleBuilder) WithNextFireAt(next time.Time) *ScheduleBuilder {
	b.schedule.NextFireAt = next
	return b
}

// WithActiveFireKey sets an in-flight fire key.
func (b *ScheduleBuilder) WithActiveFireKey(key string) *ScheduleBuilder {
	b.schedule.ActiveFireKey = &key
	return b
}

// Build returns the constructed schedule.
func (b *ScheduleBuilder) Build() *model.PacingSchedule {
	schedule := *b.schedule
	return &schedule
}
