package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"github.com/draftforge/pipeline-api/internal/data"
	"github.com/draftforge/pipeline-api/internal/domain/model"
	"github.com/draftforge/pipeline-api/internal/mocks"
	"github.com/draftforge/pipeline-api/internal/service"
	"github.com/draftforge/pipeline-api/internal/testutil"
)

type routerFixture struct {
	jobs    *mocks.MockJobRepository
	runs    *mocks.MockRunRepository
	handler http.Handler
}

// newRouterFixture builds the full router over mocked repositories with a
// trivial process_order handler registered on the executor.
func newRouterFixture(t *testing.T) *routerFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	t.Cleanup(ctrl.Finish)

	f := &routerFixture{
		jobs: mocks.NewMockJobRepository(ctrl),
		runs: mocks.NewMockRunRepository(ctrl),
	}

	jobService, err := service.NewJobService(service.JobServiceOptions{
		Repo: f.jobs,
		Runs: f.runs,
	})
	require.NoError(t, err)

	executor, err := service.NewExecutor(service.ExecutorOptions{
		Jobs: f.jobs,
		Runs: f.runs,
	})
	require.NoError(t, err)
	err = executor.Register(model.JobTypeProcessOrder,
		service.HandlerFunc(func(context.Context, *service.Execution) (*model.PipelineResult, error) {
			return &model.PipelineResult{DraftID: "draft-1"}, nil
		}))
	require.NoError(t, err)

	dispatch, err := service.NewDispatchService(service.DispatchServiceOptions{
		Jobs:     f.jobs,
		Executor: executor,
	})
	require.NoError(t, err)

	f.handler = NewRouter(RouterServices{Jobs: jobService, Dispatch: dispatch})
	return f
}

func (f *routerFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestHealthEndpoint(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"pipeline-api"}`, rec.Body.String())

	rec = f.do(t, http.MethodHead, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
}

func TestCreateJobEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	created := testutil.NewJob().Build()
	f.jobs.EXPECT().Create(gomock.Any(), gomock.Any()).Return(created, nil)

	rec := f.do(t, http.MethodPost, "/api/jobs", testutil.NewJobRequest().Build())
	assert.Equal(t, http.StatusCreated, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, created.ID, body["id"])
}

func TestCreateJobEndpointInvalidJSON(t *testing.T) {
	f := newRouterFixture(t)

	req := httptest.NewRequest(http.MethodPost, "/api/jobs", bytes.NewReader([]byte(`{bad`)))
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_json", decodeBody(t, rec)["error"])
}

func TestCreateJobEndpointValidationError(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/jobs",
		testutil.NewJobRequest().WithUserID("").Build())
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decodeBody(t, rec)["error"])
}

func TestGetJobEndpointNotFound(t *testing.T) {
	f := newRouterFixture(t)
	f.jobs.EXPECT().GetByID(gomock.Any(), "missing").Return(nil, data.ErrJobNotFound)

	rec := f.do(t, http.MethodGet, "/api/jobs/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", decodeBody(t, rec)["error"])
}

func TestGetStatusEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	job := testutil.NewJob().WithStatus(model.JobStatusCompleted).WithAttempts(2).Build()
	f.jobs.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)

	rec := f.do(t, http.MethodGet, "/api/jobs/"+job.ID+"/status", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, string(model.JobStatusCompleted), body["status"])
	assert.Equal(t, float64(2), body["attempts"])
}

func TestListRunsEndpointEmpty(t *testing.T) {
	f := newRouterFixture(t)
	job := testutil.NewJob().Build()
	f.jobs.EXPECT().GetByID(gomock.Any(), job.ID).Return(job, nil)
	f.runs.EXPECT().ListByJob(gomock.Any(), job.ID).Return(nil, nil)

	rec := f.do(t, http.MethodGet, "/api/jobs/"+job.ID+"/runs", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestStatsEndpoint(t *testing.T) {
	f := newRouterFixture(t)
	f.jobs.EXPECT().Stats(gomock.Any(), model.JobTypeProcessOrder).
		Return(&model.JobStats{Pending: 3}, nil)

	rec := f.do(t, http.MethodGet, "/api/jobs/process_order/stats", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(3), decodeBody(t, rec)["pending"])
}

func TestStatsEndpointInvalidType(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodGet, "/api/jobs/bogus/stats", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation", decodeBody(t, rec)["error"])
}

func TestDispatchEndpointJobNotFound(t *testing.T) {
	f := newRouterFixture(t)
	f.jobs.EXPECT().ClaimByID(gomock.Any(), "missing", gomock.Any()).
		Return(nil, data.ErrJobNotFound)

	rec := f.do(t, http.MethodPost, "/api/dispatch", DispatchRequest{JobID: "missing"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "job_not_found", decodeBody(t, rec)["error"])
}

func TestDispatchEndpointSingleJob(t *testing.T) {
	f := newRouterFixture(t)
	job := testutil.NewJob().WithStatus(model.JobStatusProcessing).Build()

	f.jobs.EXPECT().ClaimByID(gomock.Any(), job.ID, gomock.Any()).Return(job, nil)
	f.runs.EXPECT().Create(gomock.Any(), gomock.Any()).
		Return(&model.Run{ID: "run-1", JobID: job.ID}, nil)
	f.runs.EXPECT().Finalize(gomock.Any(), gomock.Any()).Return(nil)
	f.jobs.EXPECT().Complete(gomock.Any(), job.ID).Return(true, nil)

	rec := f.do(t, http.MethodPost, "/api/dispatch", DispatchRequest{JobID: job.ID})
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, job.ID, body["job_id"])
}

func TestDispatchEndpointBatchEmpty(t *testing.T) {
	f := newRouterFixture(t)
	f.jobs.EXPECT().ClaimBatch(gomock.Any(), gomock.Any()).
		Return(nil, model.ErrNoJobsAvailable)

	rec := f.do(t, http.MethodPost, "/api/dispatch", DispatchRequest{MaxJobs: 3})
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(0), decodeBody(t, rec)["processed"])
}

func TestDispatchEndpointNegativeMaxJobs(t *testing.T) {
	f := newRouterFixture(t)

	rec := f.do(t, http.MethodPost, "/api/dispatch", DispatchRequest{MaxJobs: -1})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_request", decodeBody(t, rec)["error"])
}
