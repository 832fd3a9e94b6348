package handlers

import (
	"net/http"

	"github.com/ukydev/fleet-maintenance/internal/middleware"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Router bundles the handlers served by the API.
type Router struct {
	Auth      *AuthHandler
	Schedules *ScheduleHandler
	Vehicles  *VehicleHandler
	Tick      *TickHandler
	Guard     *middleware.AuthMiddleware
	// LoginLimiter throttles login attempts; nil disables throttling.
	LoginLimiter *middleware.RateLimiter
}

// Handler builds the HTTP handler with authentication and permissions applied.
func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	allow := func(action string, h http.HandlerFunc) http.Handler {
		return rt.Guard.RequirePermission(action)(h)
	}

	mux.HandleFunc("GET /health", Health)

	var login http.Handler = http.HandlerFunc(rt.Auth.Login)
	if rt.LoginLimiter != nil {
		login = rt.LoginLimiter.Limit(login)
	}
	mux.Handle("POST /api/auth/login", login)

	mux.Handle("POST /api/schedules", allow(models.PermManageSchedules, rt.Schedules.Create))
	mux.Handle("GET /api/schedules", allow(models.PermViewSchedules, rt.Schedules.List))
	mux.Handle("GET /api/schedules/{id}", allow(models.PermViewSchedules, rt.Schedules.Get))
	mux.Handle("GET /api/schedules/{id}/status", allow(models.PermViewSchedules, rt.Schedules.Status))
	mux.Handle("POST /api/schedules/{id}/defer", allow(models.PermDeferSchedule, rt.Schedules.Defer))
	mux.Handle("POST /api/schedules/{id}/complete", allow(models.PermCompleteSchedule, rt.Schedules.Complete))
	mux.Handle("POST /api/schedules/{id}/cancel", allow(models.PermManageSchedules, rt.Schedules.Cancel))

	mux.Handle("POST /api/vehicles", allow(models.PermManageSchedules, rt.Vehicles.Create))
	mux.Handle("POST /api/vehicles/{id}/odometer", allow(models.PermReportOdometer, rt.Vehicles.RecordOdometer))
	mux.Handle("POST /api/maintenance/tick", allow(models.PermRunTick, rt.Tick.Run))

	return middleware.RequestLogger(rt.Guard.Authenticate(mux))
}

// Health reports liveness.
func Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
