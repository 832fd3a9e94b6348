// Package jobs runs the periodic maintenance re-evaluation.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"github.com/ukydev/fleet-maintenance/internal/db"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"github.com/ukydev/fleet-maintenance/internal/notify"
)

// Evaluator produces the events of one tick.
type Evaluator interface {
	Tick(ctx context.Context, now time.Time, odometers map[string]int64) ([]models.ScheduleEvent, error)
}

// OdometerSnapshotter returns the fleet's odometers keyed by vehicle id.
type OdometerSnapshotter interface {
	OdometerSnapshot(ctx context.Context) (map[string]int64, error)
}

// DueStateRecorder persists the state a tick observed, guarded by the
// schedule version the tick read.
type DueStateRecorder interface {
	RecordDueState(ctx context.Context, id string, expectedVersion int64, state models.DueState) error
}

// WorkOrderCreator opens work orders.
type WorkOrderCreator interface {
	InsertWorkOrder(ctx context.Context, order models.WorkOrder) error
}

// TickResult summarises one run.
type TickResult struct {
	StartedAt         time.Time              `json:"started_at"`
	Events            []models.ScheduleEvent `json:"events"`
	Published         int                    `json:"published"`
	StatesRecorded    int                    `json:"states_recorded"`
	WorkOrdersCreated int                    `json:"work_orders_created"`
	Stale             int                    `json:"stale"`
	Failures          int                    `json:"failures"`
}

// TickJob loads odometers, evaluates every active schedule and hands the
// resulting events to the publisher, the schedule store and the work-order
// store. Runs never overlap.
type TickJob struct {
	engine     Evaluator
	odometers  OdometerSnapshotter
	states     DueStateRecorder
	workOrders WorkOrderCreator
	publisher  notify.Publisher
	now        func() time.Time
	timeout    time.Duration

	mu   sync.Mutex
	cron *cron.Cron
}

// NewTickJob creates a tick job. odometers may be nil, in which case each
// schedule's cached odometer is used.
func NewTickJob(engine Evaluator, odometers OdometerSnapshotter, states DueStateRecorder, workOrders WorkOrderCreator, publisher notify.Publisher) *TickJob {
	return &TickJob{
		engine:     engine,
		odometers:  odometers,
		states:     states,
		workOrders: workOrders,
		publisher:  publisher,
		now:        time.Now,
		timeout:    10 * time.Minute,
	}
}

// RunOnce performs a single tick. Failures handling individual events are
// logged and counted; only a failure to evaluate at all is returned.
func (j *TickJob) RunOnce(ctx context.Context) (*TickResult, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	result := &TickResult{StartedAt: j.now()}
	var snapshot map[string]int64
	if j.odometers != nil {
		s, err := j.odometers.OdometerSnapshot(ctx)
		if err != nil {
			log.WithError(err).Warn("Odometer snapshot failed, using cached odometers")
		} else {
			snapshot = s
		}
	}

	events, err := j.engine.Tick(ctx, result.StartedAt, snapshot)
	if err != nil {
		return nil, fmt.Errorf("maintenance tick: %w", err)
	}
	result.Events = events

	for _, ev := range events {
		fields := log.Fields{"schedule_id": ev.ScheduleID, "vehicle_id": ev.VehicleID, "event_id": ev.ID}

		if ev.StateChanged() || ev.RequestWorkOrder {
			err := j.states.RecordDueState(ctx, ev.ScheduleID, ev.ScheduleVersion, ev.NewState)
			switch {
			case err == nil:
				if ev.StateChanged() {
					result.StatesRecorded++
				}
			case errors.Is(err, db.ErrVersionConflict), errors.Is(err, db.ErrScheduleNotFound):
				// An operator wrote the schedule after the tick read it.
				result.Stale++
				log.WithFields(fields).Info("Dropping stale maintenance event")
				continue
			default:
				result.Failures++
				log.WithError(err).WithFields(fields).Error("Failed to record due state")
			}
		}

		if err := j.publisher.Publish(ctx, ev); err != nil {
			result.Failures++
			log.WithError(err).WithFields(fields).Error("Failed to publish maintenance event")
		} else {
			result.Published++
		}

		if ev.RequestWorkOrder && j.workOrders != nil {
			if err := j.workOrders.InsertWorkOrder(ctx, models.NewWorkOrderFromEvent(ev)); err != nil {
				result.Failures++
				log.WithError(err).WithFields(fields).Error("Failed to create work order")
			} else {
				result.WorkOrdersCreated++
			}
		}
	}

	log.WithFields(log.Fields{
		"events":      len(result.Events),
		"published":   result.Published,
		"work_orders": result.WorkOrdersCreated,
		"stale":       result.Stale,
		"failures":    result.Failures,
	}).Info("Tick job finished")
	return result, nil
}

// Start runs the job on the given standard cron spec in loc.
func (j *TickJob) Start(spec string, loc *time.Location) error {
	if loc == nil {
		loc = time.UTC
	}
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(cronLogger{}),
		cron.WithChain(cron.Recover(cronLogger{})),
	)
	if _, err := c.AddFunc(spec, j.runScheduled); err != nil {
		return fmt.Errorf("invalid tick schedule %q: %w", spec, err)
	}

	j.mu.Lock()
	if j.cron != nil {
		j.mu.Unlock()
		return fmt.Errorf("tick job already started")
	}
	j.cron = c
	j.mu.Unlock()

	c.Start()
	log.WithFields(log.Fields{"spec": spec, "tz": loc.String()}).Info("Tick job scheduled")
	return nil
}

// Stop halts the schedule and waits for a running tick to finish.
func (j *TickJob) Stop() {
	j.mu.Lock()
	c := j.cron
	j.cron = nil
	j.mu.Unlock()
	if c != nil {
		<-c.Stop().Done()
	}
}

func (j *TickJob) runScheduled() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()
	if _, err := j.RunOnce(ctx); err != nil {
		log.WithError(err).Error("Scheduled maintenance tick failed")
	}
}

// cronLogger sends cron's own messages, including recovered panics, to logrus.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.WithFields(cronFields(keysAndValues)).Debug("cron: " + msg)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.WithError(err).WithFields(cronFields(keysAndValues)).Error("cron: " + msg)
}

func cronFields(keysAndValues []interface{}) log.Fields {
	fields := log.Fields{}
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		fields[fmt.Sprint(keysAndValues[i])] = keysAndValues[i+1]
	}
	return fields
}
