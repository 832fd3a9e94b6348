package db

import (
	"context"
	"fmt"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoWorkOrderCollection implements WorkOrderCollection for MongoDB.
type MongoWorkOrderCollection struct {
	Collection *mongo.Collection
}

// HasOpenWorkOrder reports whether an unfinished work order exists for the schedule.
func (c *MongoWorkOrderCollection) HasOpenWorkOrder(ctx context.Context, scheduleID string) (bool, error) {
	if c.Collection == nil {
		return false, errNilCollection
	}
	n, err := c.Collection.CountDocuments(ctx, unfinished(scheduleID), options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertWorkOrder inserts a work order record into the collection.
func (c *MongoWorkOrderCollection) InsertWorkOrder(ctx context.Context, order models.WorkOrder) error {
	if c.Collection == nil {
		return errNilCollection
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	_, err := c.Collection.InsertOne(ctx, order)
	return err
}

// CloseOpenWorkOrders marks every unfinished work order of the schedule as
// completed and returns how many were changed.
func (c *MongoWorkOrderCollection) CloseOpenWorkOrders(ctx context.Context, scheduleID string) (int64, error) {
	if c.Collection == nil {
		return 0, errNilCollection
	}
	result, err := c.Collection.UpdateMany(ctx, unfinished(scheduleID), bson.M{
		"$set": bson.M{"status": models.WorkOrderCompleted, "updated_at": time.Now()},
	})
	if err != nil {
		return 0, fmt.Errorf("close work orders: %w", err)
	}
	return result.ModifiedCount, nil
}

func unfinished(scheduleID string) bson.M {
	return bson.M{
		"schedule_id": scheduleID,
		"status":      bson.M{"$in": []models.WorkOrderStatus{models.WorkOrderOpen, models.WorkOrderInProgress}},
	}
}
