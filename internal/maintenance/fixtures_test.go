package maintenance

import (
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func intPtr(v int) *int { return &v }

func kmPtr(v int64) *int64 { return &v }

// timeSchedule is due every 3 months, next on 2026-01-20, with a 7 day grace
// period and a 14 day advance window.
func timeSchedule() *models.MaintenanceSchedule {
	return &models.MaintenanceSchedule{
		ID:          primitive.NewObjectID(),
		VehicleID:   "veh-1",
		Name:        "Brake inspection",
		Category:    models.CategoryBrakes,
		TriggerType: models.TriggerTime,
		Time: &models.TimeTrigger{
			Frequency:   models.Frequency{Unit: models.UnitMonths, Value: 3},
			StartDate:   date(2025, 10, 20),
			NextDueDate: date(2026, 1, 20),
		},
		Priority:                models.PriorityMedium,
		GracePeriodDays:         7,
		AdvanceNotificationDays: intPtr(14),
		Status:                  models.StatusScheduled,
		IsActive:                true,
		Version:                 1,
	}
}

// mileageSchedule is due every 5000 km, next at 50000 km, with a 500 km advance window.
func mileageSchedule() *models.MaintenanceSchedule {
	return &models.MaintenanceSchedule{
		ID:          primitive.NewObjectID(),
		VehicleID:   "veh-2",
		Name:        "Oil change",
		Category:    models.CategoryFluids,
		TriggerType: models.TriggerMileage,
		Mileage: &models.MileageTrigger{
			IntervalKm:      5000,
			StartOdometer:   45000,
			NextDueOdometer: 50000,
			CurrentOdometer: 48500,
		},
		Priority:              models.PriorityMedium,
		AdvanceNotificationKm: kmPtr(500),
		Status:                models.StatusScheduled,
		IsActive:              true,
		Version:               1,
	}
}

// combinedSchedule merges timeSchedule and mileageSchedule on one vehicle.
func combinedSchedule() *models.MaintenanceSchedule {
	s := timeSchedule()
	m := mileageSchedule()
	s.Name = "Full service"
	s.Category = models.CategoryEngine
	s.TriggerType = models.TriggerCombined
	s.Mileage = m.Mileage
	s.AdvanceNotificationKm = m.AdvanceNotificationKm
	return s
}
