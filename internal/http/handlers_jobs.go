package httpx

import (
	"errors"
	"net/http"

	"github.com/draftforge/pipeline-api/internal/domain/model"
	"github.com/draftforge/pipeline-api/internal/service"
)

// JobHandlers provides HTTP handlers for the job enqueue/read API.
type JobHandlers struct {
	Svc *service.JobService
}

// CreateJob handles HTTP requests to enqueue a new job.
func (h *JobHandlers) CreateJob(w http.ResponseWriter, r *http.Request) {
	var req model.CreateJobRequest
	if !DecodeJSON(w, r, &req) {
		return
	}

	job, err := h.Svc.Create(r.Context(), &req)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusCreated, job)
}

// GetJob handles HTTP requests to read one job.
func (h *JobHandlers) GetJob(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if id == "" {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_path",
			Err:     errors.New("job id is required"),
		})
		return
	}

	job, err := h.Svc.Get(r.Context(), id)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, job)
}

// GetStatus handles HTTP requests for the read-side status view of a job.
func (h *JobHandlers) GetStatus(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	status, err := h.Svc.Status(r.Context(), id)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, status)
}

// ListRuns handles HTTP requests for a job's run traces, newest first.
func (h *JobHandlers) ListRuns(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	runs, err := h.Svc.Runs(r.Context(), id)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	if runs == nil {
		runs = []*model.Run{}
	}
	WriteJSON(w, http.StatusOK, runs)
}

// Stats handles HTTP requests for per-type job counts.
func (h *JobHandlers) Stats(w http.ResponseWriter, r *http.Request) {
	jobType := model.JobType(r.PathValue("type"))
	stats, err := h.Svc.Stats(r.Context(), jobType)
	if err != nil {
		WriteAppError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, stats)
}
