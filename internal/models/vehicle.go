package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Vehicle represents a fleet vehicle.
type Vehicle struct {
	ID                primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Type              string             `bson:"type" json:"type"` // "ICE" or "EV"
	Make              string             `bson:"make" json:"make"`
	Model             string             `bson:"model" json:"model"`
	Year              int                `bson:"year" json:"year"`
	Status            string             `bson:"status" json:"status"`           // "active" or "inactive"
	OdometerKm        int64              `bson:"odometer_km" json:"odometer_km"` // latest reported reading
	OdometerUpdatedAt *time.Time         `bson:"odometer_updated_at,omitempty" json:"odometer_updated_at,omitempty"`
	CreatedAt         time.Time          `bson:"created_at" json:"created_at"`
}

// OdometerReading is a single odometer report from a vehicle.
type OdometerReading struct {
	VehicleID  string    `json:"vehicle_id"`
	OdometerKm int64     `json:"odometer_km"`
	Timestamp  time.Time `json:"timestamp"`
}
