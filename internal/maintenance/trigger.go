package maintenance

import (
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Remaining is the distance to the next due point in each dimension the
// schedule is configured for. A nil field means the dimension does not apply.
// Negative values mean the due point has passed.
type Remaining struct {
	Time    *time.Duration
	Mileage *int64
}

// EvaluateTriggers computes the time and mileage left before the schedule is due.
func EvaluateTriggers(s *models.MaintenanceSchedule, now time.Time, currentOdometer int64) Remaining {
	var r Remaining
	if s.HasTimeTrigger() {
		d := s.Time.NextDueDate.Sub(now)
		r.Time = &d
	}
	if s.HasMileageTrigger() {
		km := s.Mileage.NextDueOdometer - currentOdometer
		r.Mileage = &km
	}
	return r
}

// odometerFor picks the vehicle's reading from the snapshot, falling back to
// the value cached on the schedule.
func odometerFor(s *models.MaintenanceSchedule, odometers map[string]int64) int64 {
	if km, ok := odometers[s.VehicleID]; ok {
		return km
	}
	if s.Mileage != nil {
		return s.Mileage.CurrentOdometer
	}
	return 0
}
