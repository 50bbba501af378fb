package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/kjstillabower/weather-summarizer/internal/lifecycle"
	"github.com/kjstillabower/weather-summarizer/internal/observability"
)

// Handler serves the status endpoints for a running pipeline.
type Handler struct {
	progress *lifecycle.Progress
	logger   *zap.Logger
}

func NewHandler(progress *lifecycle.Progress, logger *zap.Logger) *Handler {
	return &Handler{progress: progress, logger: observability.OrNop(logger)}
}

// NewRouter mounts /health and /metrics with correlation and metrics middleware.
func NewRouter(h *Handler) *mux.Router {
	router := mux.NewRouter()
	router.Use(CorrelationIDMiddleware(h.logger))
	router.Use(MetricsMiddleware)
	router.HandleFunc("/health", h.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler()).Methods("GET")
	return router
}

// GetHealth handles GET /health. The process is healthy for its whole life; the body
// carries the run phase and progress counts.
func (h *Handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	snap := h.progress.Snapshot()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    string(snap.Phase),
		"service":   "weather-summarizer",
		"progress":  snap,
		"requestId": observability.CorrelationID(r.Context()),
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
