// Package maintenance decides when vehicle service tasks fall due and applies
// operator deferrals and completions to schedules.
package maintenance

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency bounds how many schedules a tick evaluates at once.
const DefaultConcurrency = 8

// Engine re-evaluates active schedules and emits events. It never writes to
// the schedule store.
type Engine struct {
	schedules   ScheduleReader
	workOrders  WorkOrderChecker
	concurrency int
	newID       func() string
}

// NewEngine creates an engine. workOrders may be nil, in which case no work
// order is ever considered open.
func NewEngine(schedules ScheduleReader, workOrders WorkOrderChecker, concurrency int) *Engine {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Engine{
		schedules:   schedules,
		workOrders:  workOrders,
		concurrency: concurrency,
		newID:       uuid.NewString,
	}
}

// Tick loads the active schedules and evaluates them against now and the
// odometer snapshot (vehicle id -> km).
func (e *Engine) Tick(ctx context.Context, now time.Time, odometers map[string]int64) ([]models.ScheduleEvent, error) {
	schedules, err := e.schedules.FindActiveSchedules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load active schedules: %w", err)
	}
	return e.EvaluateAll(ctx, schedules, now, odometers)
}

// EvaluateAll evaluates schedules in parallel. A malformed schedule is logged
// and skipped; only context cancellation fails the batch. Event order is not
// significant.
func (e *Engine) EvaluateAll(ctx context.Context, schedules []models.MaintenanceSchedule, now time.Time, odometers map[string]int64) ([]models.ScheduleEvent, error) {
	results := make([]*models.ScheduleEvent, len(schedules))
	var skipped atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.concurrency)
	for i := range schedules {
		s := &schedules[i]
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			ev, err := e.evaluateOne(gctx, s, now, odometerFor(s, odometers))
			if err != nil {
				skipped.Add(1)
				log.WithError(err).WithFields(log.Fields{
					"schedule_id": s.ID.Hex(),
					"vehicle_id":  s.VehicleID,
				}).Warn("Skipping schedule")
				return nil
			}
			results[i] = ev
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	events := make([]models.ScheduleEvent, 0, len(results))
	for _, ev := range results {
		if ev != nil {
			events = append(events, *ev)
		}
	}
	log.WithFields(log.Fields{
		"evaluated": len(schedules),
		"skipped":   skipped.Load(),
		"events":    len(events),
	}).Info("Maintenance tick completed")
	return events, nil
}

// evaluateOne runs evaluator, resolver and signaler for a single schedule.
// It returns a nil event when there is nothing to report.
func (e *Engine) evaluateOne(ctx context.Context, s *models.MaintenanceSchedule, now time.Time, odometer int64) (ev *models.ScheduleEvent, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic evaluating schedule: %v\n%s", r, debug.Stack())
		}
	}()

	if s.IsRetired() {
		return nil, nil
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	state := ResolveDueState(s, EvaluateTriggers(s, now, odometer))
	hasOpen := false
	if s.AutoCreateWorkOrder && state.IsDue() && e.workOrders != nil {
		open, err := e.workOrders.HasOpenWorkOrder(ctx, s.ID.Hex())
		if err != nil {
			// Unknown means we cannot rule out a duplicate, so hold the request back.
			log.WithError(err).WithField("schedule_id", s.ID.Hex()).Warn("Work order lookup failed")
			open = true
		}
		hasOpen = open
	}
	sig := DeriveSignals(s, state, hasOpen)

	old := s.LastDueState
	if old == "" {
		old = models.DueStateUpcoming
	}
	if old == state && len(sig.Notify) == 0 && !sig.RequestWorkOrder {
		return nil, nil
	}
	return &models.ScheduleEvent{
		ID:               e.newID(),
		ScheduleID:       s.ID.Hex(),
		ScheduleVersion:  s.Version,
		VehicleID:        s.VehicleID,
		ServiceName:      s.Name,
		Priority:         s.Priority,
		OldState:         old,
		NewState:         state,
		Notify:           sig.Notify,
		RequestWorkOrder: sig.RequestWorkOrder,
		Timestamp:        now,
	}, nil
}
