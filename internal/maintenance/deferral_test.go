package maintenance

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

func deferrable(s *models.MaintenanceSchedule) *models.MaintenanceSchedule {
	s.AllowDeferment = true
	s.MaxDeferrals = intPtr(2)
	return s
}

func TestApplyDeferral_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		setup  func(*models.MaintenanceSchedule)
		reason error
	}{
		{
			name:   "deferment not allowed wins over exhausted budget",
			setup:  func(s *models.MaintenanceSchedule) { s.AllowDeferment = false; s.DeferredCount = 5 },
			reason: ErrDeferralNotAllowed,
		},
		{
			name:   "budget exhausted",
			setup:  func(s *models.MaintenanceSchedule) { s.DeferredCount = 2 },
			reason: ErrDeferralBudgetExhausted,
		},
		{
			name:   "no budget configured",
			setup:  func(s *models.MaintenanceSchedule) { s.MaxDeferrals = nil },
			reason: ErrDeferralBudgetExhausted,
		},
		{
			name:   "budget exhausted wins over not yet due",
			setup:  func(s *models.MaintenanceSchedule) { s.DeferredCount = 2; s.Time.NextDueDate = date(2026, 6, 1) },
			reason: ErrDeferralBudgetExhausted,
		},
		{
			name:   "only due soon",
			setup:  func(s *models.MaintenanceSchedule) { s.Time.NextDueDate = date(2026, 2, 1) },
			reason: ErrDeferralNotYetDue,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := deferrable(timeSchedule())
			tt.setup(s)
			before := s.Clone()

			out, err := ApplyDeferral(s, date(2026, 1, 25), 0, "alice")
			require.Error(t, err)
			assert.Nil(t, out)
			assert.ErrorIs(t, err, tt.reason)

			var derr *DeferralError
			require.True(t, errors.As(err, &derr))
			assert.Equal(t, s.ID.Hex(), derr.ScheduleID)
			assert.Equal(t, before, s, "a rejected deferral must leave the schedule untouched")
		})
	}
}

func TestApplyDeferral_Retired(t *testing.T) {
	s := deferrable(timeSchedule())
	s.Status = models.StatusCancelled

	_, err := ApplyDeferral(s, date(2026, 1, 25), 0, "alice")
	assert.ErrorIs(t, err, ErrScheduleRetired)
}

func TestApplyDeferral_TimeUsesGracePeriod(t *testing.T) {
	s := deferrable(timeSchedule())
	before := s.Clone()
	now := date(2026, 1, 25)

	out, err := ApplyDeferral(s, now, 0, "alice")
	require.NoError(t, err)

	assert.Equal(t, date(2026, 2, 1), out.Time.NextDueDate)
	assert.Equal(t, 1, out.DeferredCount)
	assert.Equal(t, "alice", out.LastDeferredBy)
	require.NotNil(t, out.LastDeferredAt)
	assert.Equal(t, now, *out.LastDeferredAt)
	assert.Equal(t, models.DueStateDueSoon, out.LastDueState)
	assert.Equal(t, models.StatusDueSoon, out.Status)
	assert.Equal(t, before, s, "input must not be modified")
}

func TestApplyDeferral_TimeWithoutGraceUsesTenthOfInterval(t *testing.T) {
	s := deferrable(timeSchedule())
	s.GracePeriodDays = 0

	// 92 day cycle, so the push is ceil(9.2) days from today.
	out, err := ApplyDeferral(s, date(2026, 1, 25), 0, "alice")
	require.NoError(t, err)
	assert.Equal(t, date(2026, 2, 4), out.Time.NextDueDate)
}

func TestApplyDeferral_BeforeDueDateKeepsDueDateAsBase(t *testing.T) {
	s := deferrable(timeSchedule())
	s.AdvanceNotificationDays = nil

	out, err := ApplyDeferral(s, date(2026, 1, 20), 0, "alice")
	require.NoError(t, err)
	assert.Equal(t, date(2026, 1, 27), out.Time.NextDueDate)
	assert.Equal(t, models.DueStateUpcoming, out.LastDueState)
}

func TestApplyDeferral_Combined(t *testing.T) {
	s := deferrable(combinedSchedule())

	out, err := ApplyDeferral(s, date(2026, 1, 25), 49000, "bob")
	require.NoError(t, err)

	assert.Equal(t, date(2026, 2, 1), out.Time.NextDueDate)
	// 7 of 92 days is the same share of the 5000 km interval, rounded up.
	assert.Equal(t, int64(50381), out.Mileage.NextDueOdometer)
	assert.Equal(t, int64(49000), out.Mileage.CurrentOdometer)
	assert.Equal(t, 1, out.DeferredCount)
}

func TestApplyDeferral_Mileage(t *testing.T) {
	tests := []struct {
		name     string
		graceKm  int64
		odometer int64
		wantNext int64
		want     models.DueState
	}{
		{"tenth of interval without grace", 0, 50000, 50500, models.DueStateDueSoon},
		{"grace from current odometer", 300, 50200, 50500, models.DueStateDueSoon},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := deferrable(mileageSchedule())
			s.GracePeriodKm = tt.graceKm

			out, err := ApplyDeferral(s, date(2026, 1, 1), tt.odometer, "carol")
			require.NoError(t, err)
			assert.Equal(t, tt.wantNext, out.Mileage.NextDueOdometer)
			assert.Equal(t, tt.want, out.LastDueState)
		})
	}
}

func TestApplyDeferral_UsesUpBudget(t *testing.T) {
	s := deferrable(timeSchedule())
	s.GracePeriodDays = 0
	s.AdvanceNotificationDays = nil

	for i := 1; i <= 2; i++ {
		// Catch up with the pushed due date so the schedule is due again.
		now := s.Time.NextDueDate
		out, err := ApplyDeferral(s, now, 0, "alice")
		require.NoError(t, err, "deferral %d", i)
		assert.Equal(t, i, out.DeferredCount)
		s = out
	}

	_, err := ApplyDeferral(s, s.Time.NextDueDate, 0, "alice")
	assert.ErrorIs(t, err, ErrDeferralBudgetExhausted)
}
