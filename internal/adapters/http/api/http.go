// Package api serves the status and control endpoints of the sync service.
package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/okian/aimsync/internal/domain/types"
)

// Dependencies required by HTTP handlers.
type Dependencies interface {
	StatsProvider

	// Sync requests a reconciliation cycle. It returns false when the
	// service no longer accepts requests.
	Sync(ctx context.Context, reason string) bool

	// Scenarios returns the tracked exercises in sheet order.
	Scenarios() []types.ScenarioView
}

// Server wires HTTP routes.
type Server struct {
	healthHandler    *HealthHandler
	statsHandler     *StatsHandler
	scenariosHandler *ScenariosHandler
	syncHandler      *SyncHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies) *Server {
	return &Server{
		healthHandler:    NewHealthHandler(),
		statsHandler:     NewStatsHandler(deps),
		scenariosHandler: NewScenariosHandler(deps),
		syncHandler:      NewSyncHandler(deps),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", MetricsMiddleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("/stats", MetricsMiddleware(s.statsHandler.HandleStats, "stats"))
	mux.HandleFunc("/scenarios", MetricsMiddleware(s.scenariosHandler.HandleScenarios, "scenarios"))
	mux.HandleFunc("/sync", MetricsMiddleware(s.syncHandler.HandleSync, "sync"))
}

type ackResponse struct {
	Status string `json:"status"`
}

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code string, err error) {
	msg := http.StatusText(status)
	if err != nil {
		msg = err.Error()
	}
	writeJSON(w, status, errorResponse{Code: code, Message: msg})
}
