package maintenance

import (
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

const day = 24 * time.Hour

// verdict is the outcome of judging one dimension against its own thresholds.
type verdict struct {
	state models.DueState
	// elapsed is the fraction of the interval used up: 1 - remaining/interval.
	elapsed float64
}

// ResolveDueState classifies the schedule from its remaining time and mileage.
//
// Each dimension is judged against its own grace and advance-notification
// thresholds. When both apply, the dimension with the larger elapsed fraction
// decides the state, so days and kilometres are never compared directly. Equal
// fractions resolve to the more severe of the two states.
func ResolveDueState(s *models.MaintenanceSchedule, r Remaining) models.DueState {
	var best *verdict
	if r.Time != nil && s.Time != nil {
		v := timeVerdict(s, *r.Time)
		best = &v
	}
	if r.Mileage != nil && s.Mileage != nil {
		v := mileageVerdict(s, *r.Mileage)
		if best == nil || moreUrgent(v, *best) {
			best = &v
		}
	}
	if best == nil {
		return models.DueStateUpcoming
	}
	return best.state
}

func moreUrgent(a, b verdict) bool {
	if a.elapsed != b.elapsed {
		return a.elapsed > b.elapsed
	}
	return a.state.Severity() > b.state.Severity()
}

func timeVerdict(s *models.MaintenanceSchedule, remaining time.Duration) verdict {
	var advance *int64
	if s.AdvanceNotificationDays != nil {
		a := int64(time.Duration(*s.AdvanceNotificationDays) * day)
		advance = &a
	}
	grace := int64(time.Duration(s.GracePeriodDays) * day)
	interval := timeInterval(s.Time)
	return verdict{
		state:   classify(int64(remaining), grace, advance),
		elapsed: 1 - float64(remaining)/float64(interval),
	}
}

func mileageVerdict(s *models.MaintenanceSchedule, remaining int64) verdict {
	interval := s.Mileage.IntervalKm
	if interval <= 0 {
		interval = 1
	}
	return verdict{
		state:   classify(remaining, s.GracePeriodKm, s.AdvanceNotificationKm),
		elapsed: 1 - float64(remaining)/float64(interval),
	}
}

// classify applies the thresholds of one dimension. Grace only delays Overdue;
// a missing advance window skips DueSoon entirely.
func classify(remaining, grace int64, advance *int64) models.DueState {
	switch {
	case remaining < -grace:
		return models.DueStateOverdue
	case remaining <= 0:
		return models.DueStateDue
	case advance != nil && remaining <= *advance:
		return models.DueStateDueSoon
	default:
		return models.DueStateUpcoming
	}
}

// timeInterval is the length of the cycle that ends at the next due date.
func timeInterval(t *models.TimeTrigger) time.Duration {
	interval := t.NextDueDate.Sub(t.Frequency.SubtractFrom(t.NextDueDate))
	if interval <= 0 {
		interval = time.Duration(t.Frequency.MinDays()) * day
	}
	if interval <= 0 {
		interval = day
	}
	return interval
}

// Assessment is a point-in-time view of one schedule's urgency.
type Assessment struct {
	ScheduleID    string          `json:"schedule_id"`
	VehicleID     string          `json:"vehicle_id"`
	State         models.DueState `json:"state"`
	RemainingDays *float64        `json:"remaining_days,omitempty"`
	RemainingKm   *int64          `json:"remaining_km,omitempty"`
	Odometer      int64           `json:"odometer"`
	EvaluatedAt   time.Time       `json:"evaluated_at"`
}

// Assess evaluates and resolves a schedule in one step.
func Assess(s *models.MaintenanceSchedule, now time.Time, currentOdometer int64) Assessment {
	r := EvaluateTriggers(s, now, currentOdometer)
	a := Assessment{
		ScheduleID:  s.ID.Hex(),
		VehicleID:   s.VehicleID,
		State:       ResolveDueState(s, r),
		RemainingKm: r.Mileage,
		Odometer:    currentOdometer,
		EvaluatedAt: now,
	}
	if r.Time != nil {
		days := r.Time.Hours() / 24
		a.RemainingDays = &days
	}
	return a
}
