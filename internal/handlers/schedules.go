package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/maintenance"
	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// ScheduleService is the operator-facing schedule API.
type ScheduleService interface {
	CreateSchedule(ctx context.Context, schedule models.MaintenanceSchedule) (*models.MaintenanceSchedule, error)
	GetSchedule(ctx context.Context, scheduleID string) (*models.MaintenanceSchedule, error)
	ListSchedules(ctx context.Context, vehicleID string) ([]models.MaintenanceSchedule, error)
	Assess(ctx context.Context, scheduleID string) (*maintenance.Assessment, error)
	Defer(ctx context.Context, scheduleID, requestedBy string) (*models.MaintenanceSchedule, error)
	Complete(ctx context.Context, scheduleID string, serviceDate time.Time, odometer int64) (*models.MaintenanceSchedule, error)
	Cancel(ctx context.Context, scheduleID string) (*models.MaintenanceSchedule, error)
}

// CompleteRequest is the body of a completion call. A missing service date
// means now; the odometer is required.
type CompleteRequest struct {
	ServiceDate *time.Time `json:"service_date,omitempty"`
	OdometerKm  *int64     `json:"odometer_km"`
}

// ScheduleHandler serves the /api/schedules routes.
type ScheduleHandler struct {
	service ScheduleService
}

// NewScheduleHandler creates a schedule handler.
func NewScheduleHandler(service ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: service}
}

// Create handles POST /api/schedules.
func (h *ScheduleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var schedule models.MaintenanceSchedule
	if err := decodeJSON(r, &schedule); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	created, err := h.service.CreateSchedule(r.Context(), schedule)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// List handles GET /api/schedules?vehicle_id=.
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	schedules, err := h.service.ListSchedules(r.Context(), r.URL.Query().Get("vehicle_id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if schedules == nil {
		schedules = []models.MaintenanceSchedule{}
	}
	writeJSON(w, http.StatusOK, schedules)
}

// Get handles GET /api/schedules/{id}.
func (h *ScheduleHandler) Get(w http.ResponseWriter, r *http.Request) {
	schedule, err := h.service.GetSchedule(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schedule)
}

// Status handles GET /api/schedules/{id}/status.
func (h *ScheduleHandler) Status(w http.ResponseWriter, r *http.Request) {
	assessment, err := h.service.Assess(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, assessment)
}

// Defer handles POST /api/schedules/{id}/defer on behalf of the caller.
func (h *ScheduleHandler) Defer(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.GetUserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "User context not found")
		return
	}
	updated, err := h.service.Defer(r.Context(), r.PathValue("id"), claims.Username)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Complete handles POST /api/schedules/{id}/complete.
func (h *ScheduleHandler) Complete(w http.ResponseWriter, r *http.Request) {
	var req CompleteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if req.OdometerKm == nil {
		writeError(w, http.StatusBadRequest, "odometer_km is required")
		return
	}
	if *req.OdometerKm < 0 {
		writeError(w, http.StatusBadRequest, "odometer_km must not be negative")
		return
	}
	var serviceDate time.Time
	if req.ServiceDate != nil {
		serviceDate = *req.ServiceDate
	}
	updated, err := h.service.Complete(r.Context(), r.PathValue("id"), serviceDate, *req.OdometerKm)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Cancel handles POST /api/schedules/{id}/cancel.
func (h *ScheduleHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	updated, err := h.service.Cancel(r.Context(), r.PathValue("id"))
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}
