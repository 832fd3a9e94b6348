package handlers

import (
	"context"
	"net/http"

	"github.com/ukydev/fleet-maintenance/internal/jobs"
)

// TickRunner runs one maintenance tick on demand.
type TickRunner interface {
	RunOnce(ctx context.Context) (*jobs.TickResult, error)
}

// TickHandler serves POST /api/maintenance/tick.
type TickHandler struct {
	runner TickRunner
}

// NewTickHandler creates a tick handler.
func NewTickHandler(runner TickRunner) *TickHandler {
	return &TickHandler{runner: runner}
}

// Run triggers a tick and returns its summary.
func (h *TickHandler) Run(w http.ResponseWriter, r *http.Request) {
	result, err := h.runner.RunOnce(r.Context())
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
