package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkOrderStatus is the lifecycle status of a work order.
type WorkOrderStatus string

const (
	WorkOrderOpen       WorkOrderStatus = "open"
	WorkOrderInProgress WorkOrderStatus = "in_progress"
	WorkOrderCompleted  WorkOrderStatus = "completed"
	WorkOrderCancelled  WorkOrderStatus = "cancelled"
)

// WorkOrder represents a maintenance job raised against a vehicle.
type WorkOrder struct {
	ID              primitive.ObjectID `json:"id" bson:"_id,omitempty"`
	ScheduleID      string             `json:"schedule_id" bson:"schedule_id"`
	VehicleID       string             `json:"vehicle_id" bson:"vehicle_id"`
	ServiceType     string             `json:"service_type" bson:"service_type"`
	Description     string             `json:"description" bson:"description"`
	Priority        Priority           `json:"priority" bson:"priority"`
	Status          WorkOrderStatus    `json:"status" bson:"status"`
	DueState        DueState           `json:"due_state" bson:"due_state"`
	Technician      string             `json:"technician" bson:"technician"`
	ServiceLocation string             `json:"service_location" bson:"service_location"`
	Notes           string             `json:"notes" bson:"notes"`
	RequestedAt     time.Time          `json:"requested_at" bson:"requested_at"`
	CreatedAt       time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at" bson:"updated_at"`
}

// NewWorkOrderFromEvent builds the open work order requested by a tick event.
func NewWorkOrderFromEvent(ev ScheduleEvent) WorkOrder {
	return WorkOrder{
		ScheduleID:  ev.ScheduleID,
		VehicleID:   ev.VehicleID,
		ServiceType: ev.ServiceName,
		Description: "Raised automatically: schedule is " + string(ev.NewState),
		Priority:    ev.Priority,
		Status:      WorkOrderOpen,
		DueState:    ev.NewState,
		RequestedAt: ev.Timestamp,
	}
}
