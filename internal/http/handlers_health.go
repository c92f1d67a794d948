package httpx

import (
	"io"
	"net/http"
)

const healthResponse = `{"status":"ok","service":"pipeline-api"}`

// healthHandler answers readiness/liveness probes. It deliberately does not
// touch Postgres or Redis: the dispatcher keeps draining jobs through brief
// backend blips, and the probe should not flap with them.
func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if r.Method == http.MethodHead {
		return
	}
	if _, err := io.WriteString(w, healthResponse); err != nil {
		// Nothing more to do if the client connection is gone.
		return
	}
}
