package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/draftforge/pipeline-api/internal/core"
	"github.com/draftforge/pipeline-api/internal/domain/model"
)

// Defaults applied to content orders created by the pacing pipeline. Pacing
// runs without an explicit order form, so the house style fills the gaps.
const (
	pacingDefaultPlatform = "linkedin"
	pacingDefaultTone     = "Professional"
	pacingDefaultLength   = "Medium"
)

// PacingPipelineOptions groups dependencies for PacingPipeline.
type PacingPipelineOptions struct {
	Orders       core.OrderRepository // Required
	Drafts       core.DraftRepository // Required
	Stages       core.StageClients    // Required
	Personalizer *Personalizer        // Required
	Notifier     core.DraftNotifier   // Optional
	Logger       *slog.Logger         // Optional
}

// PacingPipeline handles pacing_content_generation jobs. Unlike
// process_order it creates the content order itself, with the topic and
// angle derived by the personalizer from the enrichment context carried in
// the job payload.
type PacingPipeline struct {
	generationCore
	personalizer *Personalizer
}

// NewPacingPipeline constructs the pacing_content_generation handler.
func NewPacingPipeline(opts PacingPipelineOptions) (*PacingPipeline, error) {
	if opts.Orders == nil || opts.Drafts == nil || opts.Stages == nil {
		return nil, errors.New("order, draft repositories and stage clients are required")
	}
	if opts.Personalizer == nil {
		return nil, errors.New("personalizer is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &PacingPipeline{
		generationCore: generationCore{
			orders:   opts.Orders,
			drafts:   opts.Drafts,
			stages:   opts.Stages,
			notifier: opts.Notifier,
			logger:   logger.With("pipeline", "pacing_content_generation"),
		},
		personalizer: opts.Personalizer,
	}, nil
}

// Execute implements Handler.
func (p *PacingPipeline) Execute(ctx context.Context, exec *Execution) (*model.PipelineResult, error) {
	var payload model.PacingContentPayload
	if err := json.Unmarshal(exec.Job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("invalid pacing_content_generation payload: %w", err)
	}
	if payload.ScheduleID == "" {
		return nil, errors.New("pacing_content_generation payload missing schedule_id")
	}

	enrichment := &model.EnrichmentContext{
		Meetings:      payload.MeetingContext,
		KnowledgeBase: payload.KnowledgeBaseContext,
	}
	if enrichment.Empty() {
		enrichment = nil
	}

	persona := p.personalizer.Derive(ctx, exec.Job.UserID, enrichment)
	exec.Recorder.Record(stepPersonalized, persona)

	// The order carries both the raw enrichment payload and the derived
	// topic/angle, so later review can reconstruct why this content exists.
	enrichmentBlob, err := json.Marshal(enrichment)
	if err != nil || enrichment == nil {
		enrichmentBlob = json.RawMessage(`{}`)
	}

	scheduleID := payload.ScheduleID
	order, err := p.orders.Create(ctx, &model.CreateOrderRequest{
		UserID:     exec.Job.UserID,
		Topic:      persona.Topic,
		Platform:   pacingDefaultPlatform,
		Angle:      persona.Angle,
		Tone:       pacingDefaultTone,
		Length:     pacingDefaultLength,
		Enrichment: enrichmentBlob,
		ScheduleID: &scheduleID,
	})
	if err != nil {
		return nil, fmt.Errorf("create pacing order: %w", err)
	}
	exec.SetOrderID(order.ID)
	exec.Recorder.Record(stepOrderCreated, map[string]string{
		"order_id": order.ID,
		"topic":    order.Topic,
		"angle":    order.Angle,
	})

	return p.generate(ctx, exec, order, enrichment)
}
