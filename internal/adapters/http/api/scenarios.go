package api

import (
	"net/http"

	"github.com/okian/aimsync/internal/domain/types"
)

// ScenarioSource lists tracked exercises.
type ScenarioSource interface {
	Scenarios() []types.ScenarioView
}

// ScenariosHandler handles GET /scenarios.
type ScenariosHandler struct {
	source ScenarioSource
}

// NewScenariosHandler creates a new scenarios handler.
func NewScenariosHandler(source ScenarioSource) *ScenariosHandler {
	return &ScenariosHandler{source: source}
}

type scenariosResponse struct {
	Count     int                  `json:"count"`
	Scenarios []types.ScenarioView `json:"scenarios"`
}

// HandleScenarios returns the registry snapshot.
func (h *ScenariosHandler) HandleScenarios(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}
	views := h.source.Scenarios()
	writeJSON(w, http.StatusOK, scenariosResponse{Count: len(views), Scenarios: views})
}
