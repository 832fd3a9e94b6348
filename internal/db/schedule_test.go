package db

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func integrationSchedule() models.MaintenanceSchedule {
	s := models.MaintenanceSchedule{
		VehicleID:   "507f1f77bcf86cd799439011",
		Name:        "Oil change",
		Category:    models.CategoryFluids,
		TriggerType: models.TriggerMileage,
		Mileage:     &models.MileageTrigger{IntervalKm: 5000, StartOdometer: 10000},
		Priority:    models.PriorityMedium,
		IsActive:    true,
	}
	s.InitializeDueTargets()
	return s
}

func TestMongoScheduleCollection_CompareAndSwap(t *testing.T) {
	database := testDatabase(t)
	ctx := context.Background()
	schedules := &MongoScheduleCollection{Collection: database.Collection("maintenance_schedules")}

	id, err := schedules.InsertSchedule(ctx, integrationSchedule())
	require.NoError(t, err)

	stored, err := schedules.FindScheduleByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stored.Version)

	stored.DeferredCount = 1
	require.NoError(t, schedules.CompareAndSwapSchedule(ctx, *stored, 1))

	// A second writer still holding version 1 must lose.
	stale := *stored
	stale.DeferredCount = 5
	err = schedules.CompareAndSwapSchedule(ctx, stale, 1)
	assert.ErrorIs(t, err, ErrVersionConflict)

	after, err := schedules.FindScheduleByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(2), after.Version)
	assert.Equal(t, 1, after.DeferredCount)

	missing := *stored
	missing.ID = primitive.NewObjectID()
	err = schedules.CompareAndSwapSchedule(ctx, missing, 1)
	assert.ErrorIs(t, err, ErrScheduleNotFound)
}

func TestMongoScheduleCollection_ActiveAndDueState(t *testing.T) {
	database := testDatabase(t)
	ctx := context.Background()
	coll := database.Collection("maintenance_schedules")
	schedules := &MongoScheduleCollection{Collection: coll}

	activeID, err := schedules.InsertSchedule(ctx, integrationSchedule())
	require.NoError(t, err)

	cancelled := integrationSchedule()
	cancelled.Status = models.StatusCancelled
	cancelled.IsActive = false
	_, err = schedules.InsertSchedule(ctx, cancelled)
	require.NoError(t, err)

	active, err := schedules.FindActiveSchedules(ctx)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, activeID, active[0].ID.Hex())

	require.NoError(t, schedules.RecordDueState(ctx, activeID, 1, models.DueStateOverdue))
	var raw bson.M
	objectID, _ := primitive.ObjectIDFromHex(activeID)
	require.NoError(t, coll.FindOne(ctx, bson.M{"_id": objectID}).Decode(&raw))
	assert.Equal(t, "overdue", raw["status"])
	assert.Equal(t, "overdue", raw["last_due_state"])

	// A tick that read version 1 must not overwrite a newer write.
	err = schedules.RecordDueState(ctx, activeID, 1, models.DueStateDue)
	assert.ErrorIs(t, err, ErrVersionConflict)
	after, err := schedules.FindScheduleByID(ctx, activeID)
	require.NoError(t, err)
	assert.Equal(t, models.DueStateOverdue, after.LastDueState)
	assert.Equal(t, int64(2), after.Version)

	err = schedules.RecordDueState(ctx, primitive.NewObjectID().Hex(), 1, models.DueStateDue)
	assert.ErrorIs(t, err, ErrScheduleNotFound)

	_, err = schedules.FindScheduleByID(ctx, "not-an-id")
	assert.ErrorIs(t, err, ErrScheduleNotFound)
}

func TestMongoVehicleCollection_RecordOdometer(t *testing.T) {
	database := testDatabase(t)
	ctx := context.Background()
	coll := database.Collection("vehicles")
	vehicles := &MongoVehicleCollection{Collection: coll}

	id, err := vehicles.InsertVehicle(ctx, models.Vehicle{Type: "ICE", Status: "active", OdometerKm: 1000})
	require.NoError(t, err)

	require.NoError(t, vehicles.RecordOdometer(ctx, id, 1500, time.Now()))
	err = vehicles.RecordOdometer(ctx, id, 1200, time.Now())
	assert.ErrorIs(t, err, ErrOdometerRollback)

	km, err := vehicles.CurrentOdometer(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, int64(1500), km)

	snapshot, err := vehicles.OdometerSnapshot(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{id: 1500}, snapshot)

	err = vehicles.RecordOdometer(ctx, primitive.NewObjectID().Hex(), 10, time.Now())
	assert.ErrorIs(t, err, ErrVehicleNotFound)
}

func TestMongoWorkOrderCollection_HasOpenWorkOrder(t *testing.T) {
	database := testDatabase(t)
	ctx := context.Background()
	orders := &MongoWorkOrderCollection{Collection: database.Collection("work_orders")}

	open, err := orders.HasOpenWorkOrder(ctx, "schedule-1")
	require.NoError(t, err)
	assert.False(t, open)

	require.NoError(t, orders.InsertWorkOrder(ctx, models.WorkOrder{ScheduleID: "schedule-1", Status: models.WorkOrderCompleted}))
	open, err = orders.HasOpenWorkOrder(ctx, "schedule-1")
	require.NoError(t, err)
	assert.False(t, open)

	require.NoError(t, orders.InsertWorkOrder(ctx, models.WorkOrder{ScheduleID: "schedule-1", Status: models.WorkOrderOpen}))
	open, err = orders.HasOpenWorkOrder(ctx, "schedule-1")
	require.NoError(t, err)
	assert.True(t, open)
}

func TestMongoWorkOrderCollection_CloseOpenWorkOrders(t *testing.T) {
	database := testDatabase(t)
	ctx := context.Background()
	orders := &MongoWorkOrderCollection{Collection: database.Collection("work_orders")}

	require.NoError(t, orders.InsertWorkOrder(ctx, models.WorkOrder{ScheduleID: "schedule-1", Status: models.WorkOrderOpen}))
	require.NoError(t, orders.InsertWorkOrder(ctx, models.WorkOrder{ScheduleID: "schedule-1", Status: models.WorkOrderInProgress}))
	require.NoError(t, orders.InsertWorkOrder(ctx, models.WorkOrder{ScheduleID: "schedule-2", Status: models.WorkOrderOpen}))

	closed, err := orders.CloseOpenWorkOrders(ctx, "schedule-1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), closed)

	open, err := orders.HasOpenWorkOrder(ctx, "schedule-1")
	require.NoError(t, err)
	assert.False(t, open)

	open, err = orders.HasOpenWorkOrder(ctx, "schedule-2")
	require.NoError(t, err)
	assert.True(t, open)

	closed, err = orders.CloseOpenWorkOrders(ctx, "schedule-1")
	require.NoError(t, err)
	assert.Zero(t, closed)
}
