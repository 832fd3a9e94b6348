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

// MongoVehicleCollection implements VehicleCollection for MongoDB.
type MongoVehicleCollection struct {
	Collection *mongo.Collection
}

// InsertVehicle registers a vehicle and returns its id.
func (c *MongoVehicleCollection) InsertVehicle(ctx context.Context, vehicle models.Vehicle) (string, error) {
	if c.Collection == nil {
		return "", errNilCollection
	}
	if vehicle.ID.IsZero() {
		vehicle.ID = primitive.NewObjectID()
	}
	vehicle.CreatedAt = time.Now()
	if _, err := c.Collection.InsertOne(ctx, vehicle); err != nil {
		return "", fmt.Errorf("insert vehicle: %w", err)
	}
	return vehicle.ID.Hex(), nil
}

// FindVehicleByID finds a vehicle by its ID.
func (c *MongoVehicleCollection) FindVehicleByID(ctx context.Context, id string) (*models.Vehicle, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, fmt.Errorf("invalid vehicle ID: %w", ErrVehicleNotFound)
	}
	var vehicle models.Vehicle
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&vehicle)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}
	return &vehicle, nil
}

// CurrentOdometer returns the latest odometer reading for a vehicle.
func (c *MongoVehicleCollection) CurrentOdometer(ctx context.Context, vehicleID string) (int64, error) {
	vehicle, err := c.FindVehicleByID(ctx, vehicleID)
	if err != nil {
		return 0, err
	}
	return vehicle.OdometerKm, nil
}

// OdometerSnapshot returns vehicle id -> odometer for the whole fleet.
func (c *MongoVehicleCollection) OdometerSnapshot(ctx context.Context) (map[string]int64, error) {
	if c.Collection == nil {
		return nil, errNilCollection
	}
	opts := options.Find().SetProjection(bson.M{"_id": 1, "odometer_km": 1})
	cursor, err := c.Collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var rows []struct {
		ID         primitive.ObjectID `bson:"_id"`
		OdometerKm int64              `bson:"odometer_km"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, err
	}
	snapshot := make(map[string]int64, len(rows))
	for _, row := range rows {
		snapshot[row.ID.Hex()] = row.OdometerKm
	}
	return snapshot, nil
}

// RecordOdometer stores a new reading. Readings lower than the stored value
// are rejected with ErrOdometerRollback.
func (c *MongoVehicleCollection) RecordOdometer(ctx context.Context, vehicleID string, km int64, at time.Time) error {
	if c.Collection == nil {
		return errNilCollection
	}
	objectID, err := primitive.ObjectIDFromHex(vehicleID)
	if err != nil {
		return fmt.Errorf("invalid vehicle ID: %w", ErrVehicleNotFound)
	}
	result, err := c.Collection.UpdateOne(ctx,
		bson.M{"_id": objectID, "odometer_km": bson.M{"$lte": km}},
		bson.M{"$set": bson.M{"odometer_km": km, "odometer_updated_at": at}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount > 0 {
		return nil
	}
	n, err := c.Collection.CountDocuments(ctx, bson.M{"_id": objectID})
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrVehicleNotFound
	}
	return ErrOdometerRollback
}
