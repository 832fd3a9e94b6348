package maintenance

import (
	"context"
	"errors"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

const defaultMaxAttempts = 3

// Service applies operator actions to stored schedules. Every write is a
// read-modify-compare-and-swap, retried when another writer got there first.
type Service struct {
	schedules   ScheduleRepository
	odometers   OdometerSource
	workOrders  WorkOrderCloser
	now         func() time.Time
	maxAttempts int
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) { s.now = now }
}

// WithMaxAttempts sets how many times a conflicting write is retried.
func WithMaxAttempts(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.maxAttempts = n
		}
	}
}

// WithWorkOrderCloser closes a schedule's unfinished work orders when it is completed.
func WithWorkOrderCloser(c WorkOrderCloser) ServiceOption {
	return func(s *Service) { s.workOrders = c }
}

// NewService creates a Service. odometers may be nil, in which case the
// odometer cached on each schedule is used.
func NewService(schedules ScheduleRepository, odometers OdometerSource, opts ...ServiceOption) *Service {
	s := &Service{
		schedules:   schedules,
		odometers:   odometers,
		now:         time.Now,
		maxAttempts: defaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateSchedule derives the initial due targets, validates and stores a new schedule.
// Client-supplied history is discarded.
func (s *Service) CreateSchedule(ctx context.Context, schedule models.MaintenanceSchedule) (*models.MaintenanceSchedule, error) {
	schedule.ResetHistory()
	schedule.IsActive = true
	schedule.Status = ""
	schedule.InitializeDueTargets()
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	id, err := s.schedules.InsertSchedule(ctx, schedule)
	if err != nil {
		return nil, err
	}
	log.WithFields(log.Fields{"schedule_id": id, "vehicle_id": schedule.VehicleID}).Info("Created maintenance schedule")
	return s.schedules.FindScheduleByID(ctx, id)
}

// GetSchedule returns one schedule.
func (s *Service) GetSchedule(ctx context.Context, scheduleID string) (*models.MaintenanceSchedule, error) {
	return s.schedules.FindScheduleByID(ctx, scheduleID)
}

// ListSchedules lists schedules, optionally for a single vehicle.
func (s *Service) ListSchedules(ctx context.Context, vehicleID string) ([]models.MaintenanceSchedule, error) {
	return s.schedules.FindSchedules(ctx, vehicleID)
}

// Assess reports the schedule's current due state without changing it.
func (s *Service) Assess(ctx context.Context, scheduleID string) (*Assessment, error) {
	schedule, err := s.schedules.FindScheduleByID(ctx, scheduleID)
	if err != nil {
		return nil, err
	}
	a := Assess(schedule, s.now(), s.currentOdometer(ctx, schedule))
	return &a, nil
}

// Defer postpones a due schedule on behalf of requestedBy.
func (s *Service) Defer(ctx context.Context, scheduleID, requestedBy string) (*models.MaintenanceSchedule, error) {
	return s.mutate(ctx, scheduleID, "defer", func(current *models.MaintenanceSchedule) (*models.MaintenanceSchedule, error) {
		return ApplyDeferral(current, s.now(), s.currentOdometer(ctx, current), requestedBy)
	})
}

// Complete records a service performed at serviceDate with the given odometer.
// A zero serviceDate means now.
func (s *Service) Complete(ctx context.Context, scheduleID string, serviceDate time.Time, odometer int64) (*models.MaintenanceSchedule, error) {
	if serviceDate.IsZero() {
		serviceDate = s.now()
	}
	updated, err := s.mutate(ctx, scheduleID, "complete", func(current *models.MaintenanceSchedule) (*models.MaintenanceSchedule, error) {
		return ApplyCompletion(current, serviceDate, odometer)
	})
	if err != nil {
		return nil, err
	}
	if s.workOrders != nil {
		closed, err := s.workOrders.CloseOpenWorkOrders(ctx, scheduleID)
		fields := log.Fields{"schedule_id": scheduleID, "closed": closed}
		if err != nil {
			log.WithError(err).WithFields(fields).Error("Failed to close work orders for completed schedule")
		} else if closed > 0 {
			log.WithFields(fields).Info("Closed work orders for completed schedule")
		}
	}
	return updated, nil
}

// Cancel retires a schedule from evaluation.
func (s *Service) Cancel(ctx context.Context, scheduleID string) (*models.MaintenanceSchedule, error) {
	return s.mutate(ctx, scheduleID, "cancel", func(current *models.MaintenanceSchedule) (*models.MaintenanceSchedule, error) {
		if current.Status == models.StatusCancelled {
			return nil, ErrScheduleRetired
		}
		out := current.Clone()
		out.Status = models.StatusCancelled
		out.IsActive = false
		return out, nil
	})
}

func (s *Service) mutate(ctx context.Context, scheduleID, op string, apply func(*models.MaintenanceSchedule) (*models.MaintenanceSchedule, error)) (*models.MaintenanceSchedule, error) {
	for attempt := 1; ; attempt++ {
		current, err := s.schedules.FindScheduleByID(ctx, scheduleID)
		if err != nil {
			return nil, err
		}
		updated, err := apply(current)
		if err != nil {
			return nil, err
		}

		err = s.schedules.CompareAndSwapSchedule(ctx, *updated, current.Version)
		if err == nil {
			updated.Version = current.Version + 1
			log.WithFields(log.Fields{
				"schedule_id": scheduleID,
				"action":      op,
				"version":     updated.Version,
			}).Info("Schedule updated")
			return updated, nil
		}
		if !errors.Is(err, db.ErrVersionConflict) || attempt >= s.maxAttempts {
			return nil, fmt.Errorf("%s schedule %s: %w", op, scheduleID, err)
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		log.WithFields(log.Fields{"schedule_id": scheduleID, "action": op, "attempt": attempt}).Debug("Version conflict, retrying")
	}
}

func (s *Service) currentOdometer(ctx context.Context, schedule *models.MaintenanceSchedule) int64 {
	cached := odometerFor(schedule, nil)
	if s.odometers == nil {
		return cached
	}
	km, err := s.odometers.CurrentOdometer(ctx, schedule.VehicleID)
	if err != nil {
		log.WithError(err).WithField("vehicle_id", schedule.VehicleID).Warn("Using cached odometer")
		return cached
	}
	return km
}
