package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestConnectMongo_BadURI(t *testing.T) {
	client, err := ConnectMongo(context.Background(), "mongodb://bad:uri")
	if err == nil {
		t.Error("expected error for bad URI, got nil")
	}
	if client != nil {
		t.Error("expected nil client on error")
	}
}

func TestNilCollection(t *testing.T) {
	ctx := context.Background()

	schedules := &MongoScheduleCollection{}
	if _, err := schedules.InsertSchedule(ctx, models.MaintenanceSchedule{}); err == nil {
		t.Error("expected error when schedule collection is nil")
	}
	if _, err := schedules.FindActiveSchedules(ctx); err == nil {
		t.Error("expected error when schedule collection is nil")
	}
	if err := schedules.CompareAndSwapSchedule(ctx, models.MaintenanceSchedule{}, 1); err == nil {
		t.Error("expected error when schedule collection is nil")
	}
	if err := schedules.RecordDueState(ctx, "507f1f77bcf86cd799439011", 1, models.DueStateDue); err == nil {
		t.Error("expected error when schedule collection is nil")
	}

	vehicles := &MongoVehicleCollection{}
	if _, err := vehicles.OdometerSnapshot(ctx); err == nil {
		t.Error("expected error when vehicle collection is nil")
	}
	if err := vehicles.RecordOdometer(ctx, "507f1f77bcf86cd799439011", 10, time.Now()); err == nil {
		t.Error("expected error when vehicle collection is nil")
	}

	orders := &MongoWorkOrderCollection{}
	if _, err := orders.HasOpenWorkOrder(ctx, "s1"); err == nil {
		t.Error("expected error when work order collection is nil")
	}
	if _, err := orders.CloseOpenWorkOrders(ctx, "s1"); err == nil {
		t.Error("expected error when work order collection is nil")
	}
}

// testDatabase connects to the MongoDB named by MONGO_URI or skips the test.
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" || uri == "uri" {
		t.Skip("MONGO_URI not set or invalid, skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	client, err := ConnectMongo(ctx, uri)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	t.Cleanup(func() { _ = client.Disconnect(context.Background()) })

	database := client.Database("test_fleet_maintenance")
	_ = database.Drop(context.Background())
	return database
}
