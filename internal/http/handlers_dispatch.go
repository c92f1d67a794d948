package httpx

import (
	"errors"
	"net/http"

	apperrors "github.com/draftforge/pipeline-api/internal/errors"
	"github.com/draftforge/pipeline-api/internal/service"
)

// DispatchHandlers provides the dispatch invocation endpoint.
type DispatchHandlers struct {
	Svc *service.DispatchService
}

// DispatchRequest selects single-job or batch mode. Providing job_id runs
// exactly that job; otherwise up to max_jobs pending jobs are claimed.
type DispatchRequest struct {
	JobID   string `json:"job_id,omitempty"`
	MaxJobs int    `json:"max_jobs,omitempty"`
}

// Dispatch handles POST /api/dispatch. Job failures are reported in the
// body with HTTP 200; only transport or input errors return a non-2xx
// status.
func (h *DispatchHandlers) Dispatch(w http.ResponseWriter, r *http.Request) {
	var req DispatchRequest
	if !DecodeJSON(w, r, &req) {
		return
	}
	if req.JobID == "" && req.MaxJobs < 0 {
		WriteError(w, ErrorParams{
			Code:    http.StatusBadRequest,
			ErrCode: "invalid_request",
			Err:     errors.New("max_jobs must be positive"),
		})
		return
	}

	if req.JobID != "" {
		result, err := h.Svc.DispatchJob(r.Context(), req.JobID)
		if err != nil {
			h.writeDispatchError(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, result)
		return
	}

	result, err := h.Svc.DispatchBatch(r.Context(), req.MaxJobs)
	if err != nil {
		h.writeDispatchError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func (h *DispatchHandlers) writeDispatchError(w http.ResponseWriter, err error) {
	if apperrors.IsNotFound(err) {
		WriteError(w, ErrorParams{Code: http.StatusNotFound, ErrCode: "job_not_found", Err: err})
		return
	}
	WriteError(w, ErrorParams{Code: http.StatusInternalServerError, ErrCode: "dispatch_failed", Err: err})
}
