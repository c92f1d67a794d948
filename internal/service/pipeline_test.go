package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	apperrors "github.com/draftforge/pipeline-api/internal/errors"

	"github.com/draftforge/pipeline-api/internal/core"
	"github.com/draftforge/pipeline-api/internal/data"
	domainjob "github.com/draftforge/pipeline-api/internal/domain/job"
	"github.com/draftforge/pipeline-api/internal/domain/model"
	"github.com/draftforge/pipeline-api/internal/mocks"
	"github.com/draftforge/pipeline-api/internal/testutil"
)

type pipelineFixture struct {
	orders   *mocks.MockOrderRepository
	drafts   *mocks.MockDraftRepository
	stages   *mocks.MockStageClients
	notifier *mocks.MockDraftNotifier
	profiles *mocks.MockProfileRepository
}

func newPipelineFixture(t *testing.T) *pipelineFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)
	return &pipelineFixture{
		orders:   mocks.NewMockOrderRepository(ctrl),
		drafts:   mocks.NewMockDraftRepository(ctrl),
		stages:   mocks.NewMockStageClients(ctrl),
		notifier: mocks.NewMockDraftNotifier(ctrl),
		profiles: mocks.NewMockProfileRepository(ctrl),
	}
}

func (f *pipelineFixture) orderPipeline(t *testing.T) *OrderPipeline {
	t.Helper()
	p, err := NewOrderPipeline(OrderPipelineOptions{
		Orders:   f.orders,
		Drafts:   f.drafts,
		Stages:   f.stages,
		Notifier: f.notifier,
	})
	require.NoError(t, err)
	return p
}

func (f *pipelineFixture) pacingPipeline(t *testing.T) *PacingPipeline {
	t.Helper()
	p, err := NewPacingPipeline(PacingPipelineOptions{
		Orders:       f.orders,
		Drafts:       f.drafts,
		Stages:       f.stages,
		Notifier:     f.notifier,
		Personalizer: newTestPersonalizer(f.profiles),
	})
	require.NoError(t, err)
	return p
}

func newExecution(job *model.Job) *Execution {
	return &Execution{
		Job:      job,
		Recorder: domainjob.NewStepRecorder(testutil.FixedTimeFunc(testutil.TestTime())),
	}
}

// expectStages wires the four stage calls for a straightforward successful
// generation with a known per-stage cost.
func (f *pipelineFixture) expectStages() {
	brief := model.Brief{
		Topic:    "Scaling Postgres",
		Platform: "linkedin",
		Angle:    "Engineering Deep Dive",
		Tone:     "Professional",
		Length:   "Medium",
	}
	citations := []model.Citation{
		{Title: "Postgres at scale", URL: "https://example.com/pg"},
		{Title: "Partitioning guide", URL: "https://example.com/part"},
	}

	f.stages.EXPECT().BuildBrief(gomock.Any(), gomock.Any()).
		Return(&core.BriefResult{Brief: brief, Usage: core.StageUsage{Cost: 0.01}}, nil)
	f.stages.EXPECT().Retrieve(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req core.RetrieveRequest) (*core.RetrieveResult, error) {
			if req.Topic != brief.Topic || req.Platform != brief.Platform {
				return nil, errors.New("retrieve request did not carry brief fields")
			}
			return &core.RetrieveResult{Citations: citations, Usage: core.StageUsage{Cost: 0.02}}, nil
		})
	f.stages.EXPECT().Draft(gomock.Any(), gomock.Any()).
		Return(&core.DraftResult{
			Title:   "Scaling Postgres without tears",
			Content: "draft body",
			Usage:   core.StageUsage{Cost: 0.40},
		}, nil)
	f.stages.EXPECT().Edit(gomock.Any(), gomock.Any()).
		Return(&core.EditResult{
			Title:        "Scaling Postgres without tears",
			Content:      "edited body",
			QualityScore: 0.92,
			Usage:        core.StageUsage{Cost: 0.10},
		}, nil)
}

func stepNames(steps []model.RunStep) []string {
	names := make([]string, len(steps))
	for i, s := range steps {
		names[i] = s.Step
	}
	return names
}

func TestOrderPipelineHappyPath(t *testing.T) {
	f := newPipelineFixture(t)
	order := testutil.NewOrder().Build()

	f.orders.EXPECT().GetByID(gomock.Any(), "order-1").Return(order, nil)
	f.expectStages()
	f.drafts.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *model.CreateDraftRequest) (*model.Draft, error) {
			assert.Equal(t, "order-1", req.OrderID)
			assert.Equal(t, "user-1", req.UserID)
			assert.Equal(t, "edited body", req.Content)
			require.NotNil(t, req.QualityScore)
			assert.InDelta(t, 0.92, *req.QualityScore, 1e-9)
			return &model.Draft{
				ID:      "draft-1",
				OrderID: req.OrderID,
				UserID:  req.UserID,
				Title:   req.Title,
			}, nil
		})
	f.orders.EXPECT().MarkDrafted(gomock.Any(), "order-1").Return(nil)
	f.notifier.EXPECT().NotifyDraftReady(gomock.Any(), core.DraftNotification{
		UserID:  "user-1",
		DraftID: "draft-1",
		OrderID: "order-1",
		Title:   "Scaling Postgres without tears",
	}).Return(nil)

	exec := newExecution(testutil.NewJob().Build())
	result, err := f.orderPipeline(t).Execute(context.Background(), exec)
	require.NoError(t, err)

	assert.Equal(t, "draft-1", result.DraftID)
	assert.Equal(t, "order-1", result.OrderID)
	assert.Equal(t, 2, result.CitationsCount)

	require.NotNil(t, exec.OrderID())
	assert.Equal(t, "order-1", *exec.OrderID())
	assert.InDelta(t, 0.53, exec.Recorder.Cost(), 1e-9)
	assert.Equal(t, []string{
		stepOrderLoaded,
		stepBriefBuilt,
		stepCitationsRetrieved,
		stepDraftGenerated,
		stepDraftEdited,
		model.StepDraftSave,
		stepNotificationSent,
	}, stepNames(exec.Recorder.Steps()))
}

func TestOrderPipelineInvalidPayload(t *testing.T) {
	f := newPipelineFixture(t)
	exec := newExecution(testutil.NewJob().WithPayloadString(`{not json`).Build())

	_, err := f.orderPipeline(t).Execute(context.Background(), exec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid process_order payload")
}

func TestOrderPipelineMissingOrderID(t *testing.T) {
	f := newPipelineFixture(t)
	exec := newExecution(testutil.NewJob().WithPayloadString(`{}`).Build())

	_, err := f.orderPipeline(t).Execute(context.Background(), exec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing order_id")
}

func TestOrderPipelineOrderNotFound(t *testing.T) {
	f := newPipelineFixture(t)
	f.orders.EXPECT().GetByID(gomock.Any(), "order-1").Return(nil, data.ErrOrderNotFound)

	exec := newExecution(testutil.NewJob().Build())
	_, err := f.orderPipeline(t).Execute(context.Background(), exec)
	require.Error(t, err)
	assert.Equal(t, "content order order-1 not found", err.Error())
}

func TestOrderPipelineStageFailureAborts(t *testing.T) {
	f := newPipelineFixture(t)
	f.orders.EXPECT().GetByID(gomock.Any(), "order-1").Return(testutil.NewOrder().Build(), nil)
	f.stages.EXPECT().BuildBrief(gomock.Any(), gomock.Any()).
		Return(&core.BriefResult{Brief: model.Brief{Topic: "Scaling Postgres"}}, nil)
	f.stages.EXPECT().Retrieve(gomock.Any(), gomock.Any()).
		Return(nil, apperrors.Stagef("Retriever stage returned status 503"))

	exec := newExecution(testutil.NewJob().Build())
	_, err := f.orderPipeline(t).Execute(context.Background(), exec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Retriever stage returned status 503")

	// Nothing past the failing stage was recorded.
	assert.Equal(t, []string{stepOrderLoaded, stepBriefBuilt}, stepNames(exec.Recorder.Steps()))
}

func TestOrderPipelineDraftPersistFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.orders.EXPECT().GetByID(gomock.Any(), "order-1").Return(testutil.NewOrder().Build(), nil)
	f.expectStages()
	f.drafts.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, errors.New("insert failed"))

	exec := newExecution(testutil.NewJob().Build())
	_, err := f.orderPipeline(t).Execute(context.Background(), exec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "persist draft")
}

func TestOrderPipelineMarkDraftedFailureIsNonFatal(t *testing.T) {
	f := newPipelineFixture(t)
	f.orders.EXPECT().GetByID(gomock.Any(), "order-1").Return(testutil.NewOrder().Build(), nil)
	f.expectStages()
	f.drafts.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(&model.Draft{ID: "draft-1", OrderID: "order-1"}, nil)
	f.orders.EXPECT().MarkDrafted(gomock.Any(), "order-1").Return(errors.New("update failed"))
	f.notifier.EXPECT().NotifyDraftReady(gomock.Any(), gomock.Any()).Return(nil)

	exec := newExecution(testutil.NewJob().Build())
	result, err := f.orderPipeline(t).Execute(context.Background(), exec)
	require.NoError(t, err)
	assert.Equal(t, "draft-1", result.DraftID)
}

func TestOrderPipelineNotifierFailureRecordsStep(t *testing.T) {
	f := newPipelineFixture(t)
	f.orders.EXPECT().GetByID(gomock.Any(), "order-1").Return(testutil.NewOrder().Build(), nil)
	f.expectStages()
	f.drafts.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(&model.Draft{ID: "draft-1", OrderID: "order-1"}, nil)
	f.orders.EXPECT().MarkDrafted(gomock.Any(), "order-1").Return(nil)
	f.notifier.EXPECT().NotifyDraftReady(gomock.Any(), gomock.Any()).
		Return(errors.New("webhook unreachable"))

	exec := newExecution(testutil.NewJob().Build())
	_, err := f.orderPipeline(t).Execute(context.Background(), exec)
	require.NoError(t, err)

	steps := exec.Recorder.Steps()
	assert.Equal(t, stepNotificationFailed, steps[len(steps)-1].Step)
}

func pacingJob(t *testing.T, payload model.PacingContentPayload) *model.Job {
	t.Helper()
	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	return testutil.NewJob().
		WithType(model.JobTypePacingContent).
		WithPayloadString(string(raw)).
		Build()
}

func TestPacingPipelineMissingScheduleID(t *testing.T) {
	f := newPipelineFixture(t)
	exec := newExecution(testutil.NewJob().
		WithType(model.JobTypePacingContent).
		WithPayloadString(`{}`).
		Build())

	_, err := f.pacingPipeline(t).Execute(context.Background(), exec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing schedule_id")
}

func TestPacingPipelineCreatesOrderWithDefaults(t *testing.T) {
	f := newPipelineFixture(t)
	f.profiles.EXPECT().GetByUserID(gomock.Any(), "user-1").
		Return(testutil.NewProfile().Build(), nil)

	created := testutil.NewOrder().Build()
	f.orders.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *model.CreateOrderRequest) (*model.ContentOrder, error) {
			assert.Equal(t, "user-1", req.UserID)
			assert.Equal(t, pacingDefaultPlatform, req.Platform)
			assert.Equal(t, pacingDefaultTone, req.Tone)
			assert.Equal(t, pacingDefaultLength, req.Length)
			require.NotNil(t, req.ScheduleID)
			assert.Equal(t, "schedule-1", *req.ScheduleID)
			// No enrichment in the payload, so the stored blob is empty.
			assert.JSONEq(t, `{}`, string(req.Enrichment))
			assert.NotEmpty(t, req.Topic)
			assert.NotEmpty(t, req.Angle)
			return created, nil
		})
	f.expectStages()
	f.drafts.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(&model.Draft{ID: "draft-1", OrderID: created.ID}, nil)
	f.orders.EXPECT().MarkDrafted(gomock.Any(), created.ID).Return(nil)
	f.notifier.EXPECT().NotifyDraftReady(gomock.Any(), gomock.Any()).Return(nil)

	exec := newExecution(pacingJob(t, model.PacingContentPayload{ScheduleID: "schedule-1"}))
	result, err := f.pacingPipeline(t).Execute(context.Background(), exec)
	require.NoError(t, err)
	assert.Equal(t, "draft-1", result.DraftID)

	names := stepNames(exec.Recorder.Steps())
	assert.Equal(t, stepPersonalized, names[0])
	assert.Equal(t, stepOrderCreated, names[1])
}

func TestPacingPipelinePropagatesEnrichment(t *testing.T) {
	f := newPipelineFixture(t)
	f.profiles.EXPECT().GetByUserID(gomock.Any(), "user-1").
		Return(testutil.NewProfile().Build(), nil)

	payload := model.PacingContentPayload{
		ScheduleID: "schedule-1",
		KnowledgeBaseContext: &model.KnowledgeBaseContext{Files: []model.KnowledgeFile{
			{Name: "q3-strategy.pdf", Extracted: true, UploadedAt: testutil.TestTime()},
		}},
	}

	f.orders.EXPECT().Create(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req *model.CreateOrderRequest) (*model.ContentOrder, error) {
			var stored model.EnrichmentContext
			require.NoError(t, json.Unmarshal(req.Enrichment, &stored))
			require.NotNil(t, stored.KnowledgeBase)
			assert.Len(t, stored.KnowledgeBase.Files, 1)
			return testutil.NewOrder().Build(), nil
		})

	f.stages.EXPECT().BuildBrief(gomock.Any(), gomock.Any()).
		Return(&core.BriefResult{Brief: model.Brief{Topic: "Scaling Postgres", Platform: "linkedin"}}, nil)
	f.stages.EXPECT().Retrieve(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req core.RetrieveRequest) (*core.RetrieveResult, error) {
			require.NotNil(t, req.Enrichment)
			require.NotNil(t, req.Enrichment.KnowledgeBase)
			return &core.RetrieveResult{}, nil
		})
	f.stages.EXPECT().Draft(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, req core.DraftRequest) (*core.DraftResult, error) {
			require.NotNil(t, req.Enrichment)
			return &core.DraftResult{Title: "t", Content: "c"}, nil
		})
	f.stages.EXPECT().Edit(gomock.Any(), gomock.Any()).
		Return(&core.EditResult{Title: "t", Content: "c", QualityScore: 0.8}, nil)
	f.drafts.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(&model.Draft{ID: "draft-1", OrderID: "order-1"}, nil)
	f.orders.EXPECT().MarkDrafted(gomock.Any(), "order-1").Return(nil)
	f.notifier.EXPECT().NotifyDraftReady(gomock.Any(), gomock.Any()).Return(nil)

	exec := newExecution(pacingJob(t, payload))
	_, err := f.pacingPipeline(t).Execute(context.Background(), exec)
	require.NoError(t, err)
}

func TestPacingPipelineOrderCreateFailure(t *testing.T) {
	f := newPipelineFixture(t)
	f.profiles.EXPECT().GetByUserID(gomock.Any(), "user-1").
		Return(testutil.NewProfile().Build(), nil)
	f.orders.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, errors.New("insert failed"))

	exec := newExecution(pacingJob(t, model.PacingContentPayload{ScheduleID: "schedule-1"}))
	_, err := f.pacingPipeline(t).Execute(context.Background(), exec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create pacing order")
}
