package dispatcher

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/draftforge/pipeline-api/internal/core"
	"github.com/draftforge/pipeline-api/internal/domain/model"
	"github.com/draftforge/pipeline-api/internal/mocks"
	"github.com/draftforge/pipeline-api/internal/service"
	"github.com/draftforge/pipeline-api/internal/testutil"
)

// channelNotifier is a job notifier whose wakeups the test controls.
type channelNotifier struct {
	ch chan struct{}
}

func (n *channelNotifier) Subscribe(model.JobType) (func(), <-chan struct{}) {
	return func() {}, n.ch
}

func (n *channelNotifier) StopAll() {}

type dispatcherFixture struct {
	jobs     *mocks.MockJobRepository
	runs     *mocks.MockRunRepository
	notifier *channelNotifier
	runner   *Runner
}

func newDispatcherFixture(t *testing.T) *dispatcherFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &dispatcherFixture{
		jobs:     mocks.NewMockJobRepository(ctrl),
		runs:     mocks.NewMockRunRepository(ctrl),
		notifier: &channelNotifier{ch: make(chan struct{}, 1)},
	}

	jobService, err := service.NewJobService(service.JobServiceOptions{
		Repo:     f.jobs,
		Runs:     f.runs,
		Notifier: f.notifier,
	})
	require.NoError(t, err)

	executor, err := service.NewExecutor(service.ExecutorOptions{Jobs: f.jobs, Runs: f.runs})
	require.NoError(t, err)
	err = executor.Register(model.JobTypeProcessOrder,
		service.HandlerFunc(func(context.Context, *service.Execution) (*model.PipelineResult, error) {
			return &model.PipelineResult{}, nil
		}))
	require.NoError(t, err)

	dispatch, err := service.NewDispatchService(service.DispatchServiceOptions{
		Jobs:     f.jobs,
		Executor: executor,
	})
	require.NoError(t, err)

	runner, err := NewRunner(RunnerOptions{
		Dispatch:     dispatch,
		Jobs:         jobService,
		JobTypes:     []model.JobType{model.JobTypeProcessOrder},
		PollInterval: time.Hour, // the tests drive wakeups explicitly
	})
	require.NoError(t, err)
	f.runner = runner
	return f
}

func TestNewRunnerRequiresDependencies(t *testing.T) {
	f := newDispatcherFixture(t)

	_, err := NewRunner(RunnerOptions{})
	assert.EqualError(t, err, "DispatchService is required")

	_, err = NewRunner(RunnerOptions{
		Dispatch: f.runner.dispatch,
		Jobs:     f.runner.jobs,
	})
	assert.EqualError(t, err, "at least one job type is required")

	_, err = NewRunner(RunnerOptions{
		Dispatch: f.runner.dispatch,
		Jobs:     f.runner.jobs,
		JobTypes: []model.JobType{model.JobType("bogus")},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid job type")
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newDispatcherFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	f.jobs.EXPECT().ClaimBatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, core.ClaimBatchParams) ([]*model.Job, error) {
			cancel()
			return nil, model.ErrNoJobsAvailable
		})

	err := f.runner.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunDrainsPendingJobsBeforeWaiting(t *testing.T) {
	f := newDispatcherFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	job := testutil.NewJob().WithStatus(model.JobStatusProcessing).Build()
	first := f.jobs.EXPECT().ClaimBatch(gomock.Any(), gomock.Any()).
		Return([]*model.Job{job}, nil)
	f.jobs.EXPECT().ClaimBatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, core.ClaimBatchParams) ([]*model.Job, error) {
			cancel()
			return nil, model.ErrNoJobsAvailable
		}).After(first)

	f.runs.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(&model.Run{ID: "run-1", JobID: job.ID}, nil)
	f.runs.EXPECT().Finalize(gomock.Any(), gomock.Any()).Return(nil)
	f.jobs.EXPECT().Complete(gomock.Any(), job.ID).Return(true, nil)

	err := f.runner.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunWakeupTriggersAnotherDrain(t *testing.T) {
	f := newDispatcherFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	first := f.jobs.EXPECT().ClaimBatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, core.ClaimBatchParams) ([]*model.Job, error) {
			f.notifier.ch <- struct{}{}
			return nil, model.ErrNoJobsAvailable
		})
	f.jobs.EXPECT().ClaimBatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, core.ClaimBatchParams) ([]*model.Job, error) {
			cancel()
			return nil, model.ErrNoJobsAvailable
		}).After(first)

	err := f.runner.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRunBacksOffOnDispatchError(t *testing.T) {
	f := newDispatcherFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	first := f.jobs.EXPECT().ClaimBatch(gomock.Any(), gomock.Any()).
		Return(nil, errors.New("db down"))
	f.jobs.EXPECT().ClaimBatch(gomock.Any(), gomock.Any()).
		DoAndReturn(func(context.Context, core.ClaimBatchParams) ([]*model.Job, error) {
			cancel()
			return nil, model.ErrNoJobsAvailable
		}).After(first)

	start := time.Now()
	err := f.runner.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.GreaterOrEqual(t, time.Since(start), errorBackoff)
}
