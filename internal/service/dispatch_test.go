package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/draftforge/pipeline-api/internal/core"
	"github.com/draftforge/pipeline-api/internal/data"
	domainjob "github.com/draftforge/pipeline-api/internal/domain/job"
	"github.com/draftforge/pipeline-api/internal/domain/model"
	apperrors "github.com/draftforge/pipeline-api/internal/errors"
	"github.com/draftforge/pipeline-api/internal/mocks"
	"github.com/draftforge/pipeline-api/internal/testutil"
)

type dispatchFixture struct {
	jobs     *mocks.MockJobRepository
	runs     *mocks.MockRunRepository
	executor *Executor
	svc      *DispatchService
}

func newDispatchFixture(t *testing.T, ctrl *gomock.Controller, handler Handler) *dispatchFixture {
	t.Helper()

	jobs := mocks.NewMockJobRepository(ctrl)
	runs := mocks.NewMockRunRepository(ctrl)
	executor := newTestExecutor(t, jobs, runs)
	if handler != nil {
		require.NoError(t, executor.Register(model.JobTypeProcessOrder, handler))
	}

	leasePolicy, err := domainjob.NewLeasePolicy(2 * time.Minute)
	require.NoError(t, err)

	svc, err := NewDispatchService(DispatchServiceOptions{
		Jobs:        jobs,
		Executor:    executor,
		LeasePolicy: leasePolicy,
		MaxParallel: 2,
		BatchSize:   5,
	})
	require.NoError(t, err)

	return &dispatchFixture{jobs: jobs, runs: runs, executor: executor, svc: svc}
}

func succeedingHandler() Handler {
	return HandlerFunc(func(_ context.Context, exec *Execution) (*model.PipelineResult, error) {
		return &model.PipelineResult{DraftID: "draft-" + exec.Job.ID}, nil
	})
}

func TestNewDispatchService(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	jobs := mocks.NewMockJobRepository(ctrl)
	executor := newTestExecutor(t, jobs, mocks.NewMockRunRepository(ctrl))

	t.Run("missing repo", func(t *testing.T) {
		_, err := NewDispatchService(DispatchServiceOptions{Executor: executor})
		assert.Error(t, err)
	})

	t.Run("missing executor", func(t *testing.T) {
		_, err := NewDispatchService(DispatchServiceOptions{Jobs: jobs})
		assert.Error(t, err)
	})
}

func TestDispatchJobSuccess(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newDispatchFixture(t, ctrl, succeedingHandler())
	job := testutil.NewJob().WithID("job-1").WithStatus(model.JobStatusProcessing).WithAttempts(1).Build()

	f.jobs.EXPECT().ClaimByID(gomock.Any(), "job-1", 120).Return(job, nil)
	f.runs.EXPECT().Create(gomock.Any(), gomock.Any()).Return(&model.Run{ID: "run-1"}, nil)
	f.runs.EXPECT().Finalize(gomock.Any(), gomock.Any()).Return(nil)
	f.jobs.EXPECT().Complete(gomock.Any(), "job-1").Return(true, nil)

	result, err := f.svc.DispatchJob(context.Background(), "job-1")

	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "draft-job-1", result.Result.DraftID)
}

func TestDispatchJobNotFound(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newDispatchFixture(t, ctrl, nil)

	f.jobs.EXPECT().ClaimByID(gomock.Any(), "missing", gomock.Any()).Return(nil, data.ErrJobNotFound)

	_, err := f.svc.DispatchJob(context.Background(), "missing")

	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.ErrorContains(t, err, "job missing not found")
}

func TestDispatchBatchNoJobs(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newDispatchFixture(t, ctrl, nil)

	f.jobs.EXPECT().ClaimBatch(gomock.Any(), core.ClaimBatchParams{MaxJobs: 5, LeaseSeconds: 120}).
		Return(nil, model.ErrNoJobsAvailable)

	result, err := f.svc.DispatchBatch(context.Background(), 0)

	require.NoError(t, err)
	assert.Zero(t, result.Processed)
	assert.Equal(t, "No pending jobs", result.Message)
}

func TestDispatchBatchPartialFailure(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	handler := HandlerFunc(func(_ context.Context, exec *Execution) (*model.PipelineResult, error) {
		if exec.Job.ID == "job-bad" {
			return nil, errors.New("Drafter stage returned status 502")
		}
		return &model.PipelineResult{DraftID: "draft-" + exec.Job.ID}, nil
	})
	f := newDispatchFixture(t, ctrl, handler)

	claimed := []*model.Job{
		testutil.NewJob().WithID("job-good").WithStatus(model.JobStatusProcessing).Build(),
		testutil.NewJob().WithID("job-bad").WithStatus(model.JobStatusProcessing).Build(),
	}

	f.jobs.EXPECT().ClaimBatch(gomock.Any(), core.ClaimBatchParams{MaxJobs: 2, LeaseSeconds: 120}).
		Return(claimed, nil)
	f.runs.EXPECT().Create(gomock.Any(), gomock.Any()).Return(&model.Run{ID: "run-x"}, nil).Times(2)
	f.runs.EXPECT().Finalize(gomock.Any(), gomock.Any()).Return(nil).Times(2)
	f.jobs.EXPECT().Complete(gomock.Any(), "job-good").Return(true, nil)
	f.jobs.EXPECT().Fail(gomock.Any(), "job-bad", "Drafter stage returned status 502").Return(true, nil)

	result, err := f.svc.DispatchBatch(context.Background(), 2)

	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	require.Len(t, result.Results, 2)

	// Results stay in claim order regardless of completion order.
	assert.Equal(t, "job-good", result.Results[0].JobID)
	assert.True(t, result.Results[0].Success)
	assert.Equal(t, "job-bad", result.Results[1].JobID)
	assert.False(t, result.Results[1].Success)
	assert.Equal(t, "Drafter stage returned status 502", result.Results[1].Error)
}

func TestDispatchBatchClaimError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	f := newDispatchFixture(t, ctrl, nil)

	f.jobs.EXPECT().ClaimBatch(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	_, err := f.svc.DispatchBatch(context.Background(), 3)
	assert.ErrorContains(t, err, "claim batch")
}
