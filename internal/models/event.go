package models

import "time"

// DueState is how urgent a schedule currently is.
type DueState string

const (
	DueStateUpcoming DueState = "upcoming"
	DueStateDueSoon  DueState = "due_soon"
	DueStateDue      DueState = "due"
	DueStateOverdue  DueState = "overdue"
)

// Severity orders due states from least (0) to most (3) urgent.
func (d DueState) Severity() int {
	switch d {
	case DueStateDueSoon:
		return 1
	case DueStateDue:
		return 2
	case DueStateOverdue:
		return 3
	default:
		return 0
	}
}

// IsDue reports whether the schedule is at or past its due point.
func (d DueState) IsDue() bool {
	return d == DueStateDue || d == DueStateOverdue
}

// Notifies reports whether the state is urgent enough to notify anyone.
func (d DueState) Notifies() bool {
	return d.Severity() > 0
}

// Status maps a due state onto the persisted lifecycle status.
func (d DueState) Status() ScheduleStatus {
	switch d {
	case DueStateDueSoon:
		return StatusDueSoon
	case DueStateDue:
		return StatusDue
	case DueStateOverdue:
		return StatusOverdue
	default:
		return StatusScheduled
	}
}

// Recipient is a role that can be notified about a schedule.
type Recipient string

const (
	RecipientFleetManager Recipient = "fleet_manager"
	RecipientDriver       Recipient = "driver"
	RecipientSupervisor   Recipient = "supervisor"
)

// ScheduleEvent is emitted by a tick for consumers such as the notification
// system and the work-order service. ScheduleVersion is the version of the
// schedule the event was derived from.
type ScheduleEvent struct {
	ID               string      `json:"id"`
	ScheduleID       string      `json:"schedule_id"`
	ScheduleVersion  int64       `json:"schedule_version"`
	VehicleID        string      `json:"vehicle_id"`
	ServiceName      string      `json:"service_name"`
	Priority         Priority    `json:"priority"`
	OldState         DueState    `json:"old_state"`
	NewState         DueState    `json:"new_state"`
	Notify           []Recipient `json:"notify"`
	RequestWorkOrder bool        `json:"request_work_order"`
	Timestamp        time.Time   `json:"timestamp"`
}

// StateChanged reports whether the tick moved the schedule to a new due state.
func (e ScheduleEvent) StateChanged() bool {
	return e.OldState != e.NewState
}
