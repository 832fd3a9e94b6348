package db

import (
	"context"
	"errors"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

var (
	// ErrScheduleNotFound is returned when no schedule matches the given id.
	ErrScheduleNotFound = errors.New("schedule not found")
	// ErrVersionConflict is returned when a compare-and-swap lost to another writer.
	ErrVersionConflict = errors.New("schedule was modified concurrently")
	// ErrVehicleNotFound is returned when no vehicle matches the given id.
	ErrVehicleNotFound = errors.New("vehicle not found")
	// ErrOdometerRollback is returned when a reading is lower than the stored one.
	ErrOdometerRollback = errors.New("odometer reading is lower than the last recorded value")
)

// ScheduleCollection defines the interface for maintenance schedule storage.
type ScheduleCollection interface {
	InsertSchedule(ctx context.Context, schedule models.MaintenanceSchedule) (string, error)
	FindScheduleByID(ctx context.Context, id string) (*models.MaintenanceSchedule, error)
	FindSchedules(ctx context.Context, vehicleID string) ([]models.MaintenanceSchedule, error)
	FindActiveSchedules(ctx context.Context) ([]models.MaintenanceSchedule, error)
	// CompareAndSwapSchedule replaces the stored schedule only if its version
	// still equals expectedVersion, and bumps the version on success.
	CompareAndSwapSchedule(ctx context.Context, schedule models.MaintenanceSchedule, expectedVersion int64) error
	// RecordDueState stores a tick's due state only if the schedule is still at
	// expectedVersion.
	RecordDueState(ctx context.Context, id string, expectedVersion int64, state models.DueState) error
}

// VehicleCollection defines the interface for vehicle odometer data.
type VehicleCollection interface {
	InsertVehicle(ctx context.Context, vehicle models.Vehicle) (string, error)
	FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error)
	CurrentOdometer(ctx context.Context, vehicleID string) (int64, error)
	OdometerSnapshot(ctx context.Context) (map[string]int64, error)
	RecordOdometer(ctx context.Context, vehicleID string, km int64, at time.Time) error
}

// WorkOrderCollection defines the interface for work-order data operations.
type WorkOrderCollection interface {
	HasOpenWorkOrder(ctx context.Context, scheduleID string) (bool, error)
	InsertWorkOrder(ctx context.Context, order models.WorkOrder) error
	CloseOpenWorkOrders(ctx context.Context, scheduleID string) (int64, error)
}
