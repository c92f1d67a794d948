package httpx

import (
	"log/slog"
	"net/http"

	"github.com/draftforge/pipeline-api/internal/service"
)

// RouterServices holds all the services needed by the HTTP router.
type RouterServices struct {
	Jobs     *service.JobService
	Dispatch *service.DispatchService
	Logger   *slog.Logger // Optional
}

// NewRouter creates and configures the HTTP router.
func NewRouter(services RouterServices) http.Handler {
	mux := http.NewServeMux()

	jobHandlers := &JobHandlers{Svc: services.Jobs}
	dispatchHandlers := &DispatchHandlers{Svc: services.Dispatch}

	mux.HandleFunc("GET /health", healthHandler)
	mux.HandleFunc("HEAD /health", healthHandler)

	mux.HandleFunc("POST /api/dispatch", dispatchHandlers.Dispatch)

	mux.HandleFunc("POST /api/jobs", jobHandlers.CreateJob)
	mux.HandleFunc("GET /api/jobs/{id}", jobHandlers.GetJob)
	mux.HandleFunc("GET /api/jobs/{id}/status", jobHandlers.GetStatus)
	mux.HandleFunc("GET /api/jobs/{id}/runs", jobHandlers.ListRuns)
	mux.HandleFunc("GET /api/jobs/{type}/stats", jobHandlers.Stats)

	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var handler http.Handler = mux
	handler = Logging(logger)(handler)
	handler = Recover(logger)(handler)
	return handler
}
