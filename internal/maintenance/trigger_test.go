package maintenance

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

func TestEvaluateTriggers_TimeOnly(t *testing.T) {
	s := timeSchedule()
	r := EvaluateTriggers(s, date(2026, 1, 10), 999999)

	require.NotNil(t, r.Time)
	assert.Equal(t, 10*24*time.Hour, *r.Time)
	assert.Nil(t, r.Mileage, "mileage must not apply to a time-only schedule")
}

func TestEvaluateTriggers_MileageOnly(t *testing.T) {
	s := mileageSchedule()
	r := EvaluateTriggers(s, date(2030, 1, 1), 48500)

	require.NotNil(t, r.Mileage)
	assert.Equal(t, int64(1500), *r.Mileage)
	assert.Nil(t, r.Time, "time must not apply to a mileage-only schedule")
}

func TestEvaluateTriggers_NegativeWhenPastDue(t *testing.T) {
	s := combinedSchedule()
	r := EvaluateTriggers(s, date(2026, 2, 1), 50200)

	require.NotNil(t, r.Time)
	require.NotNil(t, r.Mileage)
	assert.Equal(t, -12*24*time.Hour, *r.Time)
	assert.Equal(t, int64(-200), *r.Mileage)
}

func TestEvaluateTriggers_IgnoresFieldsOutsideTriggerType(t *testing.T) {
	s := mileageSchedule()
	// A stale time trigger left on a mileage schedule must never be evaluated.
	s.Time = &models.TimeTrigger{
		Frequency:   models.Frequency{Unit: models.UnitDays, Value: 1},
		StartDate:   date(2000, 1, 1),
		NextDueDate: date(2000, 1, 2),
	}
	r := EvaluateTriggers(s, date(2026, 1, 1), 48500)
	assert.Nil(t, r.Time)
	assert.Equal(t, models.DueStateUpcoming, ResolveDueState(s, r))
}

func TestOdometerFor(t *testing.T) {
	s := mileageSchedule()
	assert.Equal(t, int64(49000), odometerFor(s, map[string]int64{"veh-2": 49000}))
	assert.Equal(t, int64(48500), odometerFor(s, map[string]int64{"other": 1}))
	assert.Equal(t, int64(0), odometerFor(timeSchedule(), nil))
}
