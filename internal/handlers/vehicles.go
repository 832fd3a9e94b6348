package handlers

import (
	"context"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// VehicleStore registers vehicles and stores odometer readings.
type VehicleStore interface {
	InsertVehicle(ctx context.Context, vehicle models.Vehicle) (string, error)
	RecordOdometer(ctx context.Context, vehicleID string, km int64, at time.Time) error
}

// VehicleHandler serves vehicle registration and odometer ingest.
type VehicleHandler struct {
	vehicles VehicleStore
	now      func() time.Time
}

// NewVehicleHandler creates a vehicle handler.
func NewVehicleHandler(vehicles VehicleStore) *VehicleHandler {
	return &VehicleHandler{vehicles: vehicles, now: time.Now}
}

// Create handles POST /api/vehicles.
func (h *VehicleHandler) Create(w http.ResponseWriter, r *http.Request) {
	var vehicle models.Vehicle
	if err := decodeJSON(r, &vehicle); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if vehicle.OdometerKm < 0 {
		writeError(w, http.StatusBadRequest, "odometer_km must not be negative")
		return
	}
	if vehicle.Status == "" {
		vehicle.Status = "active"
	}
	id, err := h.vehicles.InsertVehicle(r.Context(), vehicle)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": id})
}

// RecordOdometer handles POST /api/vehicles/{id}/odometer.
func (h *VehicleHandler) RecordOdometer(w http.ResponseWriter, r *http.Request) {
	var reading models.OdometerReading
	if err := decodeJSON(r, &reading); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if reading.OdometerKm < 0 {
		writeError(w, http.StatusBadRequest, "odometer_km must not be negative")
		return
	}
	reading.VehicleID = r.PathValue("id")
	if reading.Timestamp.IsZero() {
		reading.Timestamp = h.now()
	}

	if err := h.vehicles.RecordOdometer(r.Context(), reading.VehicleID, reading.OdometerKm, reading.Timestamp); err != nil {
		writeServiceError(w, err)
		return
	}
	log.WithFields(log.Fields{"vehicle_id": reading.VehicleID, "odometer_km": reading.OdometerKm}).Debug("Recorded odometer")
	writeJSON(w, http.StatusOK, reading)
}
