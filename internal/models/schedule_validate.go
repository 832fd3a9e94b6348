package models

import "fmt"

// ConfigurationError reports a schedule whose definition cannot be evaluated.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid schedule configuration: %s %s", e.Field, e.Reason)
}

func configErr(field, reason string) error {
	return &ConfigurationError{Field: field, Reason: reason}
}

// IsValidTriggerType checks if a trigger type is known
func IsValidTriggerType(t TriggerType) bool {
	switch t {
	case TriggerTime, TriggerMileage, TriggerCombined:
		return true
	default:
		return false
	}
}

// IsValidCategory checks if a service category is known
func IsValidCategory(c ServiceCategory) bool {
	switch c {
	case CategoryEngine, CategoryTransmission, CategoryBrakes, CategoryElectrical, CategoryHVAC,
		CategoryBodyPaint, CategoryTyres, CategoryFluids, CategoryInspection, CategoryOther:
		return true
	default:
		return false
	}
}

// IsValidPriority checks if a priority is known
func IsValidPriority(p Priority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityCritical:
		return true
	default:
		return false
	}
}

// IsValidFrequencyUnit checks if a frequency unit is known
func IsValidFrequencyUnit(u FrequencyUnit) bool {
	switch u {
	case UnitDays, UnitWeeks, UnitMonths, UnitYears:
		return true
	default:
		return false
	}
}

// InitializeDueTargets fills unset next-due targets from the start date, start
// odometer and interval. Targets that are already set are left alone.
func (s *MaintenanceSchedule) InitializeDueTargets() {
	if s.Time != nil && s.Time.NextDueDate.IsZero() && !s.Time.StartDate.IsZero() {
		s.Time.NextDueDate = s.Time.Frequency.AddTo(s.Time.StartDate)
	}
	if s.Mileage != nil && s.Mileage.NextDueOdometer == 0 {
		s.Mileage.NextDueOdometer = s.Mileage.StartOdometer + s.Mileage.IntervalKm
	}
	if s.Mileage != nil && s.Mileage.CurrentOdometer < s.Mileage.StartOdometer {
		s.Mileage.CurrentOdometer = s.Mileage.StartOdometer
	}
	if s.Status == "" {
		s.Status = StatusScheduled
	}
}

// Validate rejects schedules whose trigger or policy fields are inconsistent.
// It returns a *ConfigurationError describing the first problem found.
func (s *MaintenanceSchedule) Validate() error {
	if s.VehicleID == "" {
		return configErr("vehicle_id", "is required")
	}
	if s.Name == "" {
		return configErr("name", "is required")
	}
	if !IsValidCategory(s.Category) {
		return configErr("category", fmt.Sprintf("%q is not a known category", s.Category))
	}
	if !IsValidPriority(s.Priority) {
		return configErr("priority", fmt.Sprintf("%q is not a known priority", s.Priority))
	}
	if !IsValidTriggerType(s.TriggerType) {
		return configErr("trigger_type", fmt.Sprintf("%q is not a known trigger type", s.TriggerType))
	}

	needTime := s.TriggerType == TriggerTime || s.TriggerType == TriggerCombined
	needMileage := s.TriggerType == TriggerMileage || s.TriggerType == TriggerCombined

	if needTime {
		if err := s.validateTime(); err != nil {
			return err
		}
	}
	if needMileage {
		if err := s.validateMileage(); err != nil {
			return err
		}
	}

	if s.AllowDeferment {
		if s.MaxDeferrals == nil {
			return configErr("max_deferrals", "is required when deferment is allowed")
		}
		if *s.MaxDeferrals < 0 {
			return configErr("max_deferrals", "must not be negative")
		}
	}
	if s.GracePeriodDays < 0 {
		return configErr("grace_period_days", "must not be negative")
	}
	if s.GracePeriodKm < 0 {
		return configErr("grace_period_km", "must not be negative")
	}
	if s.CompletedCount < 0 || s.DeferredCount < 0 {
		return configErr("history", "counters must not be negative")
	}
	budget := 0
	if s.MaxDeferrals != nil {
		budget = *s.MaxDeferrals
	}
	if s.DeferredCount > budget {
		return configErr("deferred_count", fmt.Sprintf("%d exceeds max_deferrals %d", s.DeferredCount, budget))
	}
	return nil
}

func (s *MaintenanceSchedule) validateTime() error {
	t := s.Time
	if t == nil {
		return configErr("time_trigger", "is required for trigger type "+string(s.TriggerType))
	}
	if !IsValidFrequencyUnit(t.Frequency.Unit) {
		return configErr("time_trigger.frequency.unit", fmt.Sprintf("%q is not a known unit", t.Frequency.Unit))
	}
	if t.Frequency.Value <= 0 {
		return configErr("time_trigger.frequency.value", "must be positive")
	}
	if t.StartDate.IsZero() {
		return configErr("time_trigger.start_date", "is required")
	}
	if t.NextDueDate.IsZero() {
		return configErr("time_trigger.next_due_date", "is required")
	}
	if d := s.AdvanceNotificationDays; d != nil {
		if *d < 0 {
			return configErr("advance_notification_days", "must not be negative")
		}
		if *d >= t.Frequency.MinDays() {
			return configErr("advance_notification_days", "must be shorter than the service frequency")
		}
	}
	return nil
}

func (s *MaintenanceSchedule) validateMileage() error {
	m := s.Mileage
	if m == nil {
		return configErr("mileage_trigger", "is required for trigger type "+string(s.TriggerType))
	}
	if m.IntervalKm <= 0 {
		return configErr("mileage_trigger.interval_km", "must be positive")
	}
	if m.StartOdometer < 0 {
		return configErr("mileage_trigger.start_odometer", "must not be negative")
	}
	baseline := m.StartOdometer
	if s.LastServiceOdometer != nil && *s.LastServiceOdometer > baseline {
		baseline = *s.LastServiceOdometer
	}
	if m.NextDueOdometer <= baseline {
		return configErr("mileage_trigger.next_due_odometer", "must be beyond the last service odometer")
	}
	if km := s.AdvanceNotificationKm; km != nil {
		if *km < 0 {
			return configErr("advance_notification_km", "must not be negative")
		}
		if *km >= m.IntervalKm {
			return configErr("advance_notification_km", "must be shorter than the mileage interval")
		}
	}
	return nil
}
