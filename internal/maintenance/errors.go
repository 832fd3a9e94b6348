package maintenance

import (
	"errors"
	"fmt"
)

var (
	// ErrDeferralNotAllowed means the schedule's policy forbids deferment.
	ErrDeferralNotAllowed = errors.New("deferment is not allowed for this schedule")
	// ErrDeferralBudgetExhausted means every permitted deferral has been used this cycle.
	ErrDeferralBudgetExhausted = errors.New("deferral budget exhausted")
	// ErrDeferralNotYetDue means the schedule is not due, so there is nothing to defer.
	ErrDeferralNotYetDue = errors.New("schedule is not yet due")
	// ErrScheduleRetired means the schedule is cancelled or inactive.
	ErrScheduleRetired = errors.New("schedule is cancelled or inactive")
)

// DeferralError is returned when a deferral request is rejected. Reason is one
// of the ErrDeferral* sentinels and can be matched with errors.Is.
type DeferralError struct {
	ScheduleID    string
	Reason        error
	DeferredCount int
	MaxDeferrals  int
}

func (e *DeferralError) Error() string {
	return fmt.Sprintf("defer schedule %s: %v (deferred %d of %d)", e.ScheduleID, e.Reason, e.DeferredCount, e.MaxDeferrals)
}

func (e *DeferralError) Unwrap() error { return e.Reason }

// MonotonicityError is returned when a completion reports an odometer lower
// than the last recorded service. It points at corrupt input, not a user mistake
// that can be retried as-is.
type MonotonicityError struct {
	ScheduleID      string
	LastOdometer    int64
	ServiceOdometer int64
}

func (e *MonotonicityError) Error() string {
	return fmt.Sprintf("schedule %s: service odometer %d km is below last recorded %d km",
		e.ScheduleID, e.ServiceOdometer, e.LastOdometer)
}
