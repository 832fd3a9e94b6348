package maintenance

import (
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// ApplyCompletion records a finished service and returns the updated copy with
// its due targets advanced from the service date and odometer. The deferral
// budget refreshes for the new cycle.
func ApplyCompletion(s *models.MaintenanceSchedule, serviceDate time.Time, serviceOdometer int64) (*models.MaintenanceSchedule, error) {
	if s.IsRetired() {
		return nil, ErrScheduleRetired
	}
	if last := serviceBaseline(s); serviceOdometer < last {
		return nil, &MonotonicityError{ScheduleID: s.ID.Hex(), LastOdometer: last, ServiceOdometer: serviceOdometer}
	}

	out := s.Clone()
	date, odometer := serviceDate, serviceOdometer
	out.LastServiceDate = &date
	out.LastServiceOdometer = &odometer
	if out.HasTimeTrigger() {
		out.Time.NextDueDate = out.Time.Frequency.AddTo(serviceDate)
	}
	if out.HasMileageTrigger() {
		out.Mileage.StartOdometer = serviceOdometer
		out.Mileage.NextDueOdometer = serviceOdometer + out.Mileage.IntervalKm
		out.Mileage.CurrentOdometer = max(out.Mileage.CurrentOdometer, serviceOdometer)
	}
	out.CompletedCount++
	out.DeferredCount = 0
	out.LastDueState = models.DueStateUpcoming
	out.Status = models.StatusScheduled
	return out, nil
}

// serviceBaseline is the lowest odometer a new service may report.
func serviceBaseline(s *models.MaintenanceSchedule) int64 {
	var last int64
	if s.LastServiceOdometer != nil {
		last = *s.LastServiceOdometer
	}
	if s.HasMileageTrigger() && s.Mileage.StartOdometer > last {
		last = s.Mileage.StartOdometer
	}
	return last
}
