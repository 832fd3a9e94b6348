package maintenance

import (
	"math"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
)

// defaultDeferralFraction is the share of the interval a deferral pushes the
// due point by when the schedule has no grace period to use instead.
const defaultDeferralFraction = 0.1

// ApplyDeferral postpones a due schedule and returns the updated copy. The
// input is never modified.
//
// Checks run in order and the first failure wins: deferment allowed, budget
// left, schedule currently Due or Overdue. The due date moves to
// max(nextDueDate, now) plus the grace period (or a tenth of the interval when
// there is no grace), and the due odometer moves by the same fraction of the
// mileage interval.
func ApplyDeferral(s *models.MaintenanceSchedule, now time.Time, currentOdometer int64, requestedBy string) (*models.MaintenanceSchedule, error) {
	if s.IsRetired() {
		return nil, ErrScheduleRetired
	}
	budget := 0
	if s.MaxDeferrals != nil {
		budget = *s.MaxDeferrals
	}
	reject := func(reason error) error {
		return &DeferralError{ScheduleID: s.ID.Hex(), Reason: reason, DeferredCount: s.DeferredCount, MaxDeferrals: budget}
	}
	if !s.AllowDeferment {
		return nil, reject(ErrDeferralNotAllowed)
	}
	if s.DeferredCount >= budget {
		return nil, reject(ErrDeferralBudgetExhausted)
	}
	if state := ResolveDueState(s, EvaluateTriggers(s, now, currentOdometer)); !state.IsDue() {
		return nil, reject(ErrDeferralNotYetDue)
	}

	days, km := deferralIncrement(s)
	out := s.Clone()
	if out.HasTimeTrigger() {
		base := out.Time.NextDueDate
		if now.After(base) {
			base = now
		}
		out.Time.NextDueDate = base.AddDate(0, 0, days)
	}
	if out.HasMileageTrigger() {
		base := max(out.Mileage.NextDueOdometer, currentOdometer)
		out.Mileage.NextDueOdometer = base + km
		out.Mileage.CurrentOdometer = max(out.Mileage.CurrentOdometer, currentOdometer)
	}

	out.DeferredCount++
	at := now
	out.LastDeferredAt = &at
	out.LastDeferredBy = requestedBy
	out.LastDueState = ResolveDueState(out, EvaluateTriggers(out, now, currentOdometer))
	out.Status = out.LastDueState.Status()
	return out, nil
}

// deferralIncrement returns how far one deferral pushes each configured
// dimension: whole days for time, kilometres for mileage.
func deferralIncrement(s *models.MaintenanceSchedule) (days int, km int64) {
	switch {
	case s.HasTimeTrigger():
		intervalDays := timeInterval(s.Time).Hours() / 24
		days = s.GracePeriodDays
		if days <= 0 {
			days = int(math.Ceil(intervalDays * defaultDeferralFraction))
		}
		days = max(days, 1)
		if s.HasMileageTrigger() {
			fraction := float64(days) / intervalDays
			km = int64(math.Ceil(fraction * float64(s.Mileage.IntervalKm)))
		}
	case s.HasMileageTrigger():
		km = s.GracePeriodKm
		if km <= 0 {
			km = int64(math.Ceil(float64(s.Mileage.IntervalKm) * defaultDeferralFraction))
		}
	}
	if s.HasMileageTrigger() {
		km = max(km, 1)
	}
	return days, km
}
