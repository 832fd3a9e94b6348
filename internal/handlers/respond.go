package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/maintenance"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.WithError(err).Warn("Failed to encode response")
	}
}

// errorResponse is the JSON body of every error reply.
type errorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// writeServiceError maps domain and storage errors onto HTTP statuses.
func writeServiceError(w http.ResponseWriter, err error) {
	var (
		deferErr  *maintenance.DeferralError
		monoErr   *maintenance.MonotonicityError
		configErr *models.ConfigurationError
	)
	switch {
	case errors.As(err, &deferErr):
		writeJSON(w, http.StatusConflict, errorResponse{Error: err.Error(), Reason: deferralReason(deferErr.Reason)})
	case errors.Is(err, db.ErrScheduleNotFound), errors.Is(err, db.ErrVehicleNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, db.ErrVersionConflict), errors.Is(err, maintenance.ErrScheduleRetired):
		writeError(w, http.StatusConflict, err.Error())
	case errors.As(err, &monoErr), errors.As(err, &configErr), errors.Is(err, db.ErrOdometerRollback):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		log.WithError(err).Error("Request failed")
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

func deferralReason(reason error) string {
	switch {
	case errors.Is(reason, maintenance.ErrDeferralNotAllowed):
		return "not_allowed"
	case errors.Is(reason, maintenance.ErrDeferralBudgetExhausted):
		return "budget_exhausted"
	case errors.Is(reason, maintenance.ErrDeferralNotYetDue):
		return "not_yet_due"
	default:
		return ""
	}
}

// decodeJSON reads a JSON request body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return err
	}
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, v)
}
