package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoScheduleCollection implements ScheduleCollection for MongoDB.
type MongoScheduleCollection struct {
	Collection *mongo.Collection
}

// InsertSchedule inserts a new schedule at version 1 and returns its id.
func (c *MongoScheduleCollection) InsertSchedule(ctx context.Context, schedule models.MaintenanceSchedule) (string, error) {
	if c.Collection == nil {
		return "", errNilCollection
	}
	now := time.Now()
	if schedule.ID.IsZero() {
		schedule.ID = primitive.NewObjectID()
	}
	schedule.Version = 1
	schedule.CreatedAt = now
	schedule.UpdatedAt = now
	if _, err := c.Collection.InsertOne(ctx, schedule); err != nil {
		return "", fmt.Errorf("insert schedule: %w", err)
	}
	return schedule.ID.Hex(), nil
}

// FindScheduleByID finds a schedule by its ID.
func (c *MongoScheduleCollection) FindScheduleByID(ctx context.Context, id string) (*models.MaintenanceSchedule, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid schedule ID: %w", ErrScheduleNotFound)
	}
	var schedule models.MaintenanceSchedule
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&schedule)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrScheduleNotFound
		}
		return nil, err
	}
	return &schedule, nil
}

// FindSchedules lists schedules, optionally restricted to one vehicle.
func (c *MongoScheduleCollection) FindSchedules(ctx context.Context, vehicleID string) ([]models.MaintenanceSchedule, error) {
	filter := bson.M{}
	if vehicleID != "" {
		filter["vehicle_id"] = vehicleID
	}
	return c.find(ctx, filter)
}

// FindActiveSchedules lists every schedule that still takes part in evaluation.
func (c *MongoScheduleCollection) FindActiveSchedules(ctx context.Context) ([]models.MaintenanceSchedule, error) {
	return c.find(ctx, bson.M{
		"is_active": true,
		"status":    bson.M{"$ne": models.StatusCancelled},
	})
}

func (c *MongoScheduleCollection) find(ctx context.Context, filter bson.M) ([]models.MaintenanceSchedule, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cursor, err := c.Collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	schedules := []models.MaintenanceSchedule{}
	if err := cursor.All(ctx, &schedules); err != nil {
		return nil, err
	}
	return schedules, nil
}

// CompareAndSwapSchedule replaces the schedule if nobody else wrote it since
// expectedVersion was read.
func (c *MongoScheduleCollection) CompareAndSwapSchedule(ctx context.Context, schedule models.MaintenanceSchedule, expectedVersion int64) error {
	if c.Collection == nil {
		return errNilCollection
	}
	if schedule.ID.IsZero() {
		return ErrScheduleNotFound
	}
	schedule.Version = expectedVersion + 1
	schedule.UpdatedAt = time.Now()

	result, err := c.Collection.ReplaceOne(ctx, bson.M{"_id": schedule.ID, "version": expectedVersion}, schedule)
	if err != nil {
		return fmt.Errorf("replace schedule: %w", err)
	}
	if result.MatchedCount == 0 {
		return c.missOrConflict(ctx, schedule.ID)
	}
	return nil
}

// RecordDueState stores the due state a tick observed for the schedule. It
// returns ErrVersionConflict when the schedule was written after the tick read
// it, or was cancelled.
func (c *MongoScheduleCollection) RecordDueState(ctx context.Context, id string, expectedVersion int64, state models.DueState) error {
	if c.Collection == nil {
		return errNilCollection
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return fmt.Errorf("invalid schedule ID: %w", ErrScheduleNotFound)
	}
	result, err := c.Collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "version": expectedVersion, "status": bson.M{"$ne": models.StatusCancelled}},
		bson.M{
			"$set": bson.M{"last_due_state": state, "status": state.Status(), "updated_at": time.Now()},
			"$inc": bson.M{"version": 1},
		},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return c.missOrConflict(ctx, objectID)
	}
	return nil
}

func (c *MongoScheduleCollection) missOrConflict(ctx context.Context, id primitive.ObjectID) error {
	n, err := c.Collection.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrScheduleNotFound
	}
	return ErrVersionConflict
}
