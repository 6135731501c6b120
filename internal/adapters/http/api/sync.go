package api

import (
	"context"
	"net/http"

	"github.com/okian/aimsync/internal/domain/model"
)

// Syncer accepts sync requests.
type Syncer interface {
	Sync(ctx context.Context, reason string) bool
}

// SyncHandler handles POST /sync.
type SyncHandler struct {
	syncer Syncer
}

// NewSyncHandler creates a new sync handler.
func NewSyncHandler(syncer Syncer) *SyncHandler {
	return &SyncHandler{syncer: syncer}
}

// HandleSync requests a cycle. Requests arriving while one is pending are
// folded into it and still acknowledged.
func (h *SyncHandler) HandleSync(w http.ResponseWriter, r *http.Request) {
	const op = "api.sync"
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", ErrMethodNotAllowed)
		return
	}
	if !h.syncer.Sync(r.Context(), "api") {
		writeError(w, http.StatusTooManyRequests, "closed", model.NewKind(op, ErrClosed))
		return
	}
	writeJSON(w, http.StatusAccepted, ackResponse{Status: "accepted"})
}
