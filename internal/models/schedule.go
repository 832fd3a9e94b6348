package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// TriggerType selects which dimensions govern when a schedule falls due.
type TriggerType string

const (
	TriggerTime     TriggerType = "time"
	TriggerMileage  TriggerType = "mileage"
	TriggerCombined TriggerType = "combined"
)

// ServiceCategory groups maintenance tasks by vehicle system.
type ServiceCategory string

const (
	CategoryEngine       ServiceCategory = "engine"
	CategoryTransmission ServiceCategory = "transmission"
	CategoryBrakes       ServiceCategory = "brakes"
	CategoryElectrical   ServiceCategory = "electrical"
	CategoryHVAC         ServiceCategory = "hvac"
	CategoryBodyPaint    ServiceCategory = "body_paint"
	CategoryTyres        ServiceCategory = "tyres"
	CategoryFluids       ServiceCategory = "fluids"
	CategoryInspection   ServiceCategory = "inspection"
	CategoryOther        ServiceCategory = "other"
)

// Priority of a schedule. Critical schedules always escalate to a supervisor.
type Priority string

const (
	PriorityLow      Priority = "low"
	PriorityMedium   Priority = "medium"
	PriorityHigh     Priority = "high"
	PriorityCritical Priority = "critical"
)

// ScheduleStatus is the persisted lifecycle status of a schedule.
type ScheduleStatus string

const (
	StatusScheduled ScheduleStatus = "scheduled"
	StatusDueSoon   ScheduleStatus = "due_soon"
	StatusDue       ScheduleStatus = "due"
	StatusOverdue   ScheduleStatus = "overdue"
	StatusCompleted ScheduleStatus = "completed"
	StatusCancelled ScheduleStatus = "cancelled"
)

// FrequencyUnit is the calendar unit of a time trigger.
type FrequencyUnit string

const (
	UnitDays   FrequencyUnit = "days"
	UnitWeeks  FrequencyUnit = "weeks"
	UnitMonths FrequencyUnit = "months"
	UnitYears  FrequencyUnit = "years"
)

// Frequency is a calendar interval such as "3 months".
type Frequency struct {
	Unit  FrequencyUnit `bson:"unit" json:"unit"`
	Value int           `bson:"value" json:"value"`
}

// AddTo returns t moved forward by the frequency using calendar arithmetic.
func (f Frequency) AddTo(t time.Time) time.Time {
	return f.shift(t, f.Value)
}

// SubtractFrom returns t moved back by the frequency.
func (f Frequency) SubtractFrom(t time.Time) time.Time {
	return f.shift(t, -f.Value)
}

func (f Frequency) shift(t time.Time, n int) time.Time {
	switch f.Unit {
	case UnitDays:
		return t.AddDate(0, 0, n)
	case UnitWeeks:
		return t.AddDate(0, 0, 7*n)
	case UnitMonths:
		return addMonths(t, n)
	case UnitYears:
		return addMonths(t, 12*n)
	default:
		return t
	}
}

// addMonths moves t by n calendar months, clamping the day to the end of the
// target month so that Jan 31 + 1 month is the last day of February.
func addMonths(t time.Time, n int) time.Time {
	y, m, d := t.Date()
	first := time.Date(y, m+time.Month(n), 1, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
	if last := daysInMonth(first); d > last {
		d = last
	}
	return first.AddDate(0, 0, d-1)
}

func daysInMonth(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// MinDays is the shortest number of days one period of the frequency can span.
func (f Frequency) MinDays() int {
	switch f.Unit {
	case UnitDays:
		return f.Value
	case UnitWeeks:
		return 7 * f.Value
	case UnitMonths:
		return 28 * f.Value
	case UnitYears:
		return 365 * f.Value
	default:
		return 0
	}
}

// TimeTrigger holds the calendar side of a schedule.
type TimeTrigger struct {
	Frequency   Frequency `bson:"frequency" json:"frequency"`
	StartDate   time.Time `bson:"start_date" json:"start_date"`
	NextDueDate time.Time `bson:"next_due_date" json:"next_due_date"`
}

// MileageTrigger holds the odometer side of a schedule. All values are kilometres.
type MileageTrigger struct {
	IntervalKm      int64 `bson:"interval_km" json:"interval_km"`
	StartOdometer   int64 `bson:"start_odometer" json:"start_odometer"`
	NextDueOdometer int64 `bson:"next_due_odometer" json:"next_due_odometer"`
	// CurrentOdometer is a cached snapshot; the vehicle record is authoritative.
	CurrentOdometer int64 `bson:"current_odometer" json:"current_odometer"`
}

// MaintenanceSchedule is a recurring service task for one vehicle.
type MaintenanceSchedule struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	VehicleID   string             `bson:"vehicle_id" json:"vehicle_id"`
	Name        string             `bson:"name" json:"name"`
	Category    ServiceCategory    `bson:"category" json:"category"`
	Description string             `bson:"description" json:"description"`

	TriggerType TriggerType     `bson:"trigger_type" json:"trigger_type"`
	Time        *TimeTrigger    `bson:"time_trigger,omitempty" json:"time_trigger,omitempty"`
	Mileage     *MileageTrigger `bson:"mileage_trigger,omitempty" json:"mileage_trigger,omitempty"`

	Priority            Priority `bson:"priority" json:"priority"`
	AllowDeferment      bool     `bson:"allow_deferment" json:"allow_deferment"`
	MaxDeferrals        *int     `bson:"max_deferrals,omitempty" json:"max_deferrals,omitempty"`
	AutoCreateWorkOrder bool     `bson:"auto_create_work_order" json:"auto_create_work_order"`
	GracePeriodDays     int      `bson:"grace_period_days" json:"grace_period_days"`
	GracePeriodKm       int64    `bson:"grace_period_km" json:"grace_period_km"`

	AdvanceNotificationDays *int   `bson:"advance_notification_days,omitempty" json:"advance_notification_days,omitempty"`
	AdvanceNotificationKm   *int64 `bson:"advance_notification_km,omitempty" json:"advance_notification_km,omitempty"`
	NotifyFleetManager      bool   `bson:"notify_fleet_manager" json:"notify_fleet_manager"`
	NotifyDriver            bool   `bson:"notify_driver" json:"notify_driver"`
	NotifySupervisor        bool   `bson:"notify_supervisor" json:"notify_supervisor"`

	LastServiceDate     *time.Time `bson:"last_service_date,omitempty" json:"last_service_date,omitempty"`
	LastServiceOdometer *int64     `bson:"last_service_odometer,omitempty" json:"last_service_odometer,omitempty"`
	CompletedCount      int        `bson:"completed_count" json:"completed_count"`
	DeferredCount       int        `bson:"deferred_count" json:"deferred_count"`
	LastDeferredAt      *time.Time `bson:"last_deferred_at,omitempty" json:"last_deferred_at,omitempty"`
	LastDeferredBy      string     `bson:"last_deferred_by,omitempty" json:"last_deferred_by,omitempty"`

	LastDueState DueState       `bson:"last_due_state,omitempty" json:"last_due_state,omitempty"`
	Status       ScheduleStatus `bson:"status" json:"status"`
	IsActive     bool           `bson:"is_active" json:"is_active"`

	// Version is bumped on every write and guards compare-and-swap updates.
	Version   int64     `bson:"version" json:"version"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// HasTimeTrigger reports whether the calendar dimension applies to this schedule.
func (s *MaintenanceSchedule) HasTimeTrigger() bool {
	return (s.TriggerType == TriggerTime || s.TriggerType == TriggerCombined) && s.Time != nil
}

// HasMileageTrigger reports whether the odometer dimension applies to this schedule.
func (s *MaintenanceSchedule) HasMileageTrigger() bool {
	return (s.TriggerType == TriggerMileage || s.TriggerType == TriggerCombined) && s.Mileage != nil
}

// IsRetired reports whether the schedule has left evaluation for good.
func (s *MaintenanceSchedule) IsRetired() bool {
	return !s.IsActive || s.Status == StatusCancelled
}

// ResetHistory clears the service and deferral history and the storage
// bookkeeping, leaving only the definition of the schedule.
func (s *MaintenanceSchedule) ResetHistory() {
	s.ID = primitive.NilObjectID
	s.LastServiceDate = nil
	s.LastServiceOdometer = nil
	s.CompletedCount = 0
	s.DeferredCount = 0
	s.LastDeferredAt = nil
	s.LastDeferredBy = ""
	s.LastDueState = ""
	s.Version = 0
	s.CreatedAt = time.Time{}
	s.UpdatedAt = time.Time{}
}

// Clone returns a deep copy so callers can mutate without touching shared state.
func (s *MaintenanceSchedule) Clone() *MaintenanceSchedule {
	c := *s
	if s.Time != nil {
		t := *s.Time
		c.Time = &t
	}
	if s.Mileage != nil {
		m := *s.Mileage
		c.Mileage = &m
	}
	c.MaxDeferrals = clonePtr(s.MaxDeferrals)
	c.AdvanceNotificationDays = clonePtr(s.AdvanceNotificationDays)
	c.AdvanceNotificationKm = clonePtr(s.AdvanceNotificationKm)
	c.LastServiceDate = clonePtr(s.LastServiceDate)
	c.LastServiceOdometer = clonePtr(s.LastServiceOdometer)
	c.LastDeferredAt = clonePtr(s.LastDeferredAt)
	return &c
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
