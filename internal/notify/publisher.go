// Package notify delivers schedule events to the notification system.
package notify

import (
	"context"
	"errors"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/models"
)

// Publisher delivers one schedule event.
type Publisher interface {
	Publish(ctx context.Context, event models.ScheduleEvent) error
}

// LogPublisher writes events to the log. It is used when no broker is configured.
type LogPublisher struct {
	logger *log.Logger
}

// NewLogPublisher creates a LogPublisher. A nil logger means the standard logrus logger.
func NewLogPublisher(logger *log.Logger) *LogPublisher {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(_ context.Context, event models.ScheduleEvent) error {
	p.logger.WithFields(log.Fields{
		"event_id":           event.ID,
		"schedule_id":        event.ScheduleID,
		"vehicle_id":         event.VehicleID,
		"service":            event.ServiceName,
		"priority":           event.Priority,
		"old_state":          event.OldState,
		"new_state":          event.NewState,
		"notify":             event.Notify,
		"request_work_order": event.RequestWorkOrder,
	}).Info("Maintenance event")
	return nil
}

// MultiPublisher fans an event out to several publishers. Every publisher is
// tried; the errors are joined.
type MultiPublisher []Publisher

// Publish delivers the event to every publisher.
func (m MultiPublisher) Publish(ctx context.Context, event models.ScheduleEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
