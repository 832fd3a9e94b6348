package maintenance

import "github.com/ukydev/fleet-maintenance/internal/models"

// Signal is what a tick should do about one schedule.
type Signal struct {
	Notify           []models.Recipient
	RequestWorkOrder bool
}

// DeriveSignals decides who to notify and whether to request a work order.
// Upcoming schedules never notify. Critical schedules always include the
// supervisor. A work order is only requested when none is already open.
func DeriveSignals(s *models.MaintenanceSchedule, state models.DueState, hasOpenWorkOrder bool) Signal {
	var sig Signal
	if state.Notifies() {
		if s.NotifyFleetManager {
			sig.Notify = append(sig.Notify, models.RecipientFleetManager)
		}
		if s.NotifyDriver {
			sig.Notify = append(sig.Notify, models.RecipientDriver)
		}
		if s.NotifySupervisor || s.Priority == models.PriorityCritical {
			sig.Notify = append(sig.Notify, models.RecipientSupervisor)
		}
	}
	sig.RequestWorkOrder = s.AutoCreateWorkOrder && state.IsDue() && !hasOpenWorkOrder
	return sig
}
