package maintenance

import (
	"context"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// ScheduleReader loads the schedules a tick evaluates.
type ScheduleReader interface {
	FindActiveSchedules(ctx context.Context) ([]models.MaintenanceSchedule, error)
}

// ScheduleStore is the narrow read/write contract used by operator actions.
type ScheduleStore interface {
	FindScheduleByID(ctx context.Context, id string) (*models.MaintenanceSchedule, error)
	CompareAndSwapSchedule(ctx context.Context, schedule models.MaintenanceSchedule, expectedVersion int64) error
}

// ScheduleRepository is everything the Service needs from storage.
type ScheduleRepository interface {
	ScheduleReader
	ScheduleStore
	InsertSchedule(ctx context.Context, schedule models.MaintenanceSchedule) (string, error)
	FindSchedules(ctx context.Context, vehicleID string) ([]models.MaintenanceSchedule, error)
}

// WorkOrderChecker answers whether a schedule already has an unfinished work order.
type WorkOrderChecker interface {
	HasOpenWorkOrder(ctx context.Context, scheduleID string) (bool, error)
}

// WorkOrderCloser marks a schedule's unfinished work orders as completed and
// returns how many it changed.
type WorkOrderCloser interface {
	CloseOpenWorkOrders(ctx context.Context, scheduleID string) (int64, error)
}

// OdometerSource supplies the authoritative odometer of a vehicle.
type OdometerSource interface {
	CurrentOdometer(ctx context.Context, vehicleID string) (int64, error)
}
