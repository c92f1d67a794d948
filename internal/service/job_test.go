package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	apperrors "github.com/draftforge/pipeline-api/internal/errors"

	"github.com/draftforge/pipeline-api/internal/data"
	"github.com/draftforge/pipeline-api/internal/domain/model"
	"github.com/draftforge/pipeline-api/internal/mocks"
	"github.com/draftforge/pipeline-api/internal/testutil"
)

// stubJobNotifier tracks Subscribe/StopAll calls without touching the DB.
type stubJobNotifier struct {
	subscribed []model.JobType
	stopped    bool
	ch         chan struct{}
}

func (s *stubJobNotifier) Subscribe(jobType model.JobType) (func(), <-chan struct{}) {
	s.subscribed = append(s.subscribed, jobType)
	if s.ch == nil {
		s.ch = make(chan struct{}, 1)
	}
	return func() {}, s.ch
}

func (s *stubJobNotifier) StopAll() { s.stopped = true }

type jobServiceFixture struct {
	repo     *mocks.MockJobRepository
	runs     *mocks.MockRunRepository
	notifier *stubJobNotifier
	svc      *JobService
}

func newJobServiceFixture(t *testing.T) *jobServiceFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &jobServiceFixture{
		repo:     mocks.NewMockJobRepository(ctrl),
		runs:     mocks.NewMockRunRepository(ctrl),
		notifier: &stubJobNotifier{},
	}
	svc, err := NewJobService(JobServiceOptions{
		Repo:     f.repo,
		Runs:     f.runs,
		Notifier: f.notifier,
	})
	require.NoError(t, err)
	f.svc = svc
	return f
}

func TestNewJobServiceRequiresRepositories(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	_, err := NewJobService(JobServiceOptions{Runs: mocks.NewMockRunRepository(ctrl)})
	assert.EqualError(t, err, "JobRepository is required")

	_, err = NewJobService(JobServiceOptions{Repo: mocks.NewMockJobRepository(ctrl)})
	assert.EqualError(t, err, "RunRepository is required")
}

func TestJobServiceCreate(t *testing.T) {
	f := newJobServiceFixture(t)
	req := testutil.NewJobRequest().Build()
	created := testutil.NewJob().Build()
	f.repo.EXPECT().Create(gomock.Any(), req).Return(created, nil)

	job, err := f.svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, created.ID, job.ID)
}

func TestJobServiceCreateValidation(t *testing.T) {
	f := newJobServiceFixture(t)

	t.Run("nil request", func(t *testing.T) {
		_, err := f.svc.Create(context.Background(), nil)
		assert.True(t, apperrors.IsValidation(err))
	})

	t.Run("invalid type", func(t *testing.T) {
		req := testutil.NewJobRequest().WithType(model.JobType("bogus")).Build()
		_, err := f.svc.Create(context.Background(), req)
		assert.True(t, apperrors.IsValidation(err))
	})
}

func TestJobServiceGetNotFound(t *testing.T) {
	f := newJobServiceFixture(t)
	f.repo.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, data.ErrJobNotFound)

	_, err := f.svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
	assert.Contains(t, err.Error(), "job missing not found")
}

func TestJobServiceStatus(t *testing.T) {
	f := newJobServiceFixture(t)
	completedAt := testutil.TestTime().Add(time.Minute)
	job := testutil.NewJob().WithStatus(model.JobStatusCompleted).WithAttempts(1).Build()
	job.CompletedAt = &completedAt
	f.repo.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)

	status, err := f.svc.Status(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, model.JobStatusCompleted, status.Status)
	assert.Equal(t, 1, status.Attempts)
	require.NotNil(t, status.CompletedAt)
	assert.Equal(t, completedAt, *status.CompletedAt)
}

func TestJobServiceRuns(t *testing.T) {
	f := newJobServiceFixture(t)
	job := testutil.NewJob().Build()
	runs := []*model.Run{{ID: "run-1", JobID: job.ID}}
	f.repo.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)
	f.runs.EXPECT().ListByJob(gomock.Any(), job.ID).Return(runs, nil)

	got, err := f.svc.Runs(context.Background(), job.ID)
	require.NoError(t, err)
	assert.Equal(t, runs, got)
}

func TestJobServiceRunsJobMissing(t *testing.T) {
	f := newJobServiceFixture(t)
	f.repo.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, data.ErrJobNotFound)

	_, err := f.svc.Runs(context.Background(), "missing")
	assert.True(t, apperrors.IsNotFound(err))
}

func TestJobServiceStats(t *testing.T) {
	f := newJobServiceFixture(t)
	stats := &model.JobStats{Pending: 2, Processing: 1, Completed: 10, Failed: 1}
	f.repo.EXPECT().Stats(gomock.Any(), model.JobTypeProcessOrder).Return(stats, nil)

	got, err := f.svc.Stats(context.Background(), model.JobTypeProcessOrder)
	require.NoError(t, err)
	assert.Equal(t, stats, got)
}

func TestJobServiceStatsInvalidType(t *testing.T) {
	f := newJobServiceFixture(t)

	_, err := f.svc.Stats(context.Background(), model.JobType("bogus"))
	assert.True(t, apperrors.IsValidation(err))
}

func TestJobServiceSubscribeAndShutdown(t *testing.T) {
	f := newJobServiceFixture(t)

	unsub, ch := f.svc.Subscribe(model.JobTypeProcessOrder)
	require.NotNil(t, unsub)
	require.NotNil(t, ch)
	assert.Equal(t, []model.JobType{model.JobTypeProcessOrder}, f.notifier.subscribed)

	f.svc.Shutdown()
	assert.True(t, f.notifier.stopped)
}

func TestJobServiceCreateRepoError(t *testing.T) {
	f := newJobServiceFixture(t)
	f.repo.EXPECT().Create(gomock.Any(), gomock.Any()).Return(nil, errors.New("db down"))

	_, err := f.svc.Create(context.Background(), testutil.NewJobRequest().Build())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create job")
}
