package maintenance

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// MockScheduleRepository is a mock implementation of ScheduleRepository
type MockScheduleRepository struct {
	mock.Mock
}

func (m *MockScheduleRepository) FindActiveSchedules(ctx context.Context) ([]models.MaintenanceSchedule, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MaintenanceSchedule), args.Error(1)
}

func (m *MockScheduleRepository) FindScheduleByID(ctx context.Context, id string) (*models.MaintenanceSchedule, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	// Hand out a copy so callers cannot change what later calls return.
	return args.Get(0).(*models.MaintenanceSchedule).Clone(), args.Error(1)
}

func (m *MockScheduleRepository) CompareAndSwapSchedule(ctx context.Context, schedule models.MaintenanceSchedule, expectedVersion int64) error {
	args := m.Called(ctx, schedule, expectedVersion)
	return args.Error(0)
}

func (m *MockScheduleRepository) InsertSchedule(ctx context.Context, schedule models.MaintenanceSchedule) (string, error) {
	args := m.Called(ctx, schedule)
	return args.String(0), args.Error(1)
}

func (m *MockScheduleRepository) FindSchedules(ctx context.Context, vehicleID string) ([]models.MaintenanceSchedule, error) {
	args := m.Called(ctx, vehicleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.MaintenanceSchedule), args.Error(1)
}

// MockWorkOrderChecker is a mock implementation of WorkOrderChecker
type MockWorkOrderChecker struct {
	mock.Mock
}

func (m *MockWorkOrderChecker) HasOpenWorkOrder(ctx context.Context, scheduleID string) (bool, error) {
	args := m.Called(ctx, scheduleID)
	return args.Bool(0), args.Error(1)
}

// MockOdometerSource is a mock implementation of OdometerSource
type MockOdometerSource struct {
	mock.Mock
}

func (m *MockOdometerSource) CurrentOdometer(ctx context.Context, vehicleID string) (int64, error) {
	args := m.Called(ctx, vehicleID)
	return args.Get(0).(int64), args.Error(1)
}

// MockWorkOrderCloser is a mock implementation of WorkOrderCloser
type MockWorkOrderCloser struct {
	mock.Mock
}

func (m *MockWorkOrderCloser) CloseOpenWorkOrders(ctx context.Context, scheduleID string) (int64, error) {
	args := m.Called(ctx, scheduleID)
	return args.Get(0).(int64), args.Error(1)
}
