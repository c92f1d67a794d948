package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/draftforge/pipeline-api/internal/core"
	"github.com/draftforge/pipeline-api/internal/data"
	"github.com/draftforge/pipeline-api/internal/domain/model"
)

// Step names recorded as a generation pipeline progresses.
const (
	stepOrderLoaded        = "order_loaded"
	stepOrderCreated       = "order_created"
	stepPersonalized       = "personalized"
	stepBriefBuilt         = "brief_built"
	stepCitationsRetrieved = "citations_retrieved"
	stepDraftGenerated     = "draft_generated"
	stepDraftEdited        = "draft_edited"
	stepNotificationSent   = "notification_sent"
	stepNotificationFailed = "notification_failed"
)

// generationCore holds the dependencies and stage sequence shared by the
// process_order and pacing pipelines. Stages run strictly sequentially;
// stage N's input is stage N-1's output, and any stage error aborts the
// remainder.
type generationCore struct {
	orders   core.OrderRepository
	drafts   core.DraftRepository
	stages   core.StageClients
	notifier core.DraftNotifier
	logger   *slog.Logger
}

// generate drives brief → retrieval → drafting → editing → persistence →
// notification for an existing order. The draft is persisted before the
// notifier fires; a notifier failure is recorded as a step and never
// changes the job outcome.
func (g *generationCore) generate(
	ctx context.Context,
	exec *Execution,
	order *model.ContentOrder,
	enrichment *model.EnrichmentContext,
) (*model.PipelineResult, error) {
	rec := exec.Recorder
	userID := exec.Job.UserID

	briefRes, err := g.stages.BuildBrief(ctx, core.BuildBriefRequest{
		OrderID: order.ID,
		UserID:  userID,
	})
	if err != nil {
		return nil, err
	}
	rec.AddCost(briefRes.Usage.Cost)
	rec.Record(stepBriefBuilt, briefRes.Brief)
	brief := briefRes.Brief

	retrieveRes, err := g.stages.Retrieve(ctx, core.RetrieveRequest{
		UserID:     userID,
		Topic:      brief.Topic,
		Platform:   brief.Platform,
		Enrichment: enrichment,
	})
	if err != nil {
		return nil, err
	}
	rec.AddCost(retrieveRes.Usage.Cost)
	rec.Record(stepCitationsRetrieved, map[string]int{"count": len(retrieveRes.Citations)})

	draftRes, err := g.stages.Draft(ctx, core.DraftRequest{
		Brief:      brief,
		Citations:  retrieveRes.Citations,
		UserID:     userID,
		Enrichment: enrichment,
	})
	if err != nil {
		return nil, err
	}
	rec.AddCost(draftRes.Usage.Cost)
	rec.Record(stepDraftGenerated, map[string]string{"title": draftRes.Title})

	editRes, err := g.stages.Edit(ctx, core.EditRequest{
		Title:      draftRes.Title,
		Content:    draftRes.Content,
		Brief:      brief,
		UserID:     userID,
		Enrichment: enrichment,
	})
	if err != nil {
		return nil, err
	}
	rec.AddCost(editRes.Usage.Cost)
	rec.Record(stepDraftEdited, map[string]float64{"quality_score": editRes.QualityScore})

	quality := editRes.QualityScore
	draft, err := g.drafts.Create(ctx, &model.CreateDraftRequest{
		OrderID:      order.ID,
		UserID:       userID,
		Title:        editRes.Title,
		Content:      editRes.Content,
		QualityScore: &quality,
		Citations:    retrieveRes.Citations,
	})
	if err != nil {
		return nil, fmt.Errorf("persist draft: %w", err)
	}
	rec.Record(model.StepDraftSave, map[string]string{"draft_id": draft.ID})

	// The draft is already durable; a status bookkeeping failure on the
	// order must not fail the job.
	if err := g.orders.MarkDrafted(ctx, order.ID); err != nil {
		g.logger.WarnContext(ctx, "mark order drafted failed",
			"order_id", order.ID, "error", err)
	}

	g.notify(ctx, exec, draft)

	return &model.PipelineResult{
		DraftID:        draft.ID,
		OrderID:        order.ID,
		Title:          draft.Title,
		CitationsCount: len(retrieveRes.Citations),
	}, nil
}

func (g *generationCore) notify(ctx context.Context, exec *Execution, draft *model.Draft) {
	if g.notifier == nil {
		return
	}
	err := g.notifier.NotifyDraftReady(ctx, core.DraftNotification{
		UserID:  exec.Job.UserID,
		DraftID: draft.ID,
		OrderID: draft.OrderID,
		Title:   draft.Title,
	})
	if err != nil {
		exec.Recorder.Record(stepNotificationFailed, map[string]string{"error": err.Error()})
		g.logger.WarnContext(ctx, "draft notification failed",
			"job_id", exec.Job.ID, "draft_id", draft.ID, "error", err)
		return
	}
	exec.Recorder.Record(stepNotificationSent, map[string]string{"draft_id": draft.ID})
}

// parseOrderEnrichment decodes the enrichment blob stored on a content
// order. An empty or unreadable blob means no enrichment.
func parseOrderEnrichment(raw json.RawMessage) *model.EnrichmentContext {
	if len(raw) == 0 {
		return nil
	}
	var enrichment model.EnrichmentContext
	if err := json.Unmarshal(raw, &enrichment); err != nil {
		return nil
	}
	if enrichment.Empty() {
		return nil
	}
	return &enrichment
}

// OrderPipelineOptions groups dependencies for OrderPipeline.
type OrderPipelineOptions struct {
	Orders   core.OrderRepository // Required
	Drafts   core.DraftRepository // Required
	Stages   core.StageClients    // Required
	Notifier core.DraftNotifier   // Optional
	Logger   *slog.Logger         // Optional
}

// OrderPipeline handles process_order jobs: load the referenced content
// order and generate a draft for it.
type OrderPipeline struct {
	generationCore
}

// NewOrderPipeline constructs the process_order handler.
func NewOrderPipeline(opts OrderPipelineOptions) (*OrderPipeline, error) {
	if opts.Orders == nil || opts.Drafts == nil || opts.Stages == nil {
		return nil, errors.New("order, draft repositories and stage clients are required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderPipeline{generationCore: generationCore{
		orders:   opts.Orders,
		drafts:   opts.Drafts,
		stages:   opts.Stages,
		notifier: opts.Notifier,
		logger:   logger.With("pipeline", "process_order"),
	}}, nil
}

// Execute implements Handler.
func (p *OrderPipeline) Execute(ctx context.Context, exec *Execution) (*model.PipelineResult, error) {
	var payload model.ProcessOrderPayload
	if err := json.Unmarshal(exec.Job.Payload, &payload); err != nil {
		return nil, fmt.Errorf("invalid process_order payload: %w", err)
	}
	if payload.OrderID == "" {
		return nil, errors.New("process_order payload missing order_id")
	}

	order, err := p.orders.GetByID(ctx, payload.OrderID)
	if err != nil {
		if errors.Is(err, data.ErrOrderNotFound) {
			return nil, fmt.Errorf("content order %s not found", payload.OrderID)
		}
		return nil, fmt.Errorf("load content order %s: %w", payload.OrderID, err)
	}
	exec.SetOrderID(order.ID)
	exec.Recorder.Record(stepOrderLoaded, map[string]string{
		"order_id": order.ID,
		"topic":    order.Topic,
	})

	return p.generate(ctx, exec, order, parseOrderEnrichment(order.Enrichment))
}
