// Package notify delivers lifecycle events after the fact: it appends the
// audit trail and broadcasts realtime messages on background workers.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"fieldops/api-gateway/internal/lifecycle"
	"fieldops/api-gateway/internal/realtime"
	"fieldops/api-gateway/internal/worker"
	"fieldops/api-gateway/models"
)

const stepTimeout = 5 * time.Second

// HistoryWriter appends audit rows.
type HistoryWriter interface {
	AppendStatusHistory(ctx context.Context, entry *models.StatusHistoryEntry) error
}

// Broadcaster publishes a realtime message on a channel.
type Broadcaster interface {
	Broadcast(ctx context.Context, channel, event string, payload map[string]interface{}) error
}

// Submitter queues background jobs.
type Submitter interface {
	Submit(job worker.Job) error
}

// StepRecorder counts the outcome of each delivery step.
type StepRecorder interface {
	RecordSideEffect(effect string, ok bool)
}

var _ lifecycle.Notifier = (*Dispatcher)(nil)

// Dispatcher implements lifecycle.Notifier on top of a worker pool.
type Dispatcher struct {
	history     HistoryWriter
	broadcaster Broadcaster
	queue       Submitter
	recorder    StepRecorder
	logger      logrus.FieldLogger
}

// NewDispatcher creates a Dispatcher. recorder may be nil.
func NewDispatcher(history HistoryWriter, broadcaster Broadcaster, queue Submitter, recorder StepRecorder, logger logrus.FieldLogger) *Dispatcher {
	if recorder == nil {
		recorder = nopRecorder{}
	}
	return &Dispatcher{
		history:     history,
		broadcaster: broadcaster,
		queue:       queue,
		recorder:    recorder,
		logger:      logger,
	}
}

// Notify queues delivery of event and returns immediately. The request
// context is detached so delivery outlives the request; values such as the
// trace span are kept.
func (d *Dispatcher) Notify(ctx context.Context, event lifecycle.Event) {
	job := &deliveryJob{
		id:         fmt.Sprintf("%s:%s:%d", event.Type, event.JobID, event.OccurredAt.UnixNano()),
		base:       context.WithoutCancel(ctx),
		event:      event,
		dispatcher: d,
	}
	if err := d.queue.Submit(job); err != nil {
		d.logger.WithError(err).WithFields(logrus.Fields{"job_id": event.JobID, "event": event.Type}).
			Error("Failed to queue lifecycle notification")
		d.recorder.RecordSideEffect("notification_queue", false)
	}
}

// deliveryJob is the worker.Job that performs the delivery steps of one event.
type deliveryJob struct {
	id         string
	base       context.Context
	event      lifecycle.Event
	dispatcher *Dispatcher
}

func (j *deliveryJob) ID() string { return j.id }

// Execute runs every step; a failing step never stops the next one.
// It only reports an error when all steps failed.
func (j *deliveryJob) Execute(workerCtx context.Context) error {
	ctx, cancel := context.WithCancel(j.base)
	defer cancel()
	stop := context.AfterFunc(workerCtx, cancel)
	defer stop()

	d := j.dispatcher
	log := d.logger.WithFields(logrus.Fields{"job_id": j.event.JobID, "event": j.event.Type})

	steps := d.steps(j.event)
	failed := 0
	for _, s := range steps {
		stepCtx, stepCancel := context.WithTimeout(ctx, stepTimeout)
		err := s.run(stepCtx)
		stepCancel()

		d.recorder.RecordSideEffect(s.name, err == nil)
		if err != nil {
			failed++
			log.WithError(err).WithField("step", s.name).Warn("Notification step failed")
			continue
		}
		log.WithField("step", s.name).Debug("Notification step delivered")
	}
	if failed > 0 && failed == len(steps) {
		return fmt.Errorf("all %d notification steps failed for job %s", failed, j.event.JobID)
	}
	return nil
}

type step struct {
	name string
	run  func(ctx context.Context) error
}

func (d *Dispatcher) steps(event lifecycle.Event) []step {
	steps := []step{{name: "status_history", run: func(ctx context.Context) error {
		return d.history.AppendStatusHistory(ctx, historyEntry(event))
	}}}

	if event.Type == lifecycle.EventJobCompleted {
		steps = append(steps, step{name: "broadcast_job", run: func(ctx context.Context) error {
			return d.broadcaster.Broadcast(ctx, realtime.JobChannel(event.JobID), realtime.EventJobCompleted, map[string]interface{}{
				"job_id":       event.JobID,
				"completed_at": event.OccurredAt,
				"completed_by": event.Actor,
			})
		}})
	} else {
		steps = append(steps, step{name: "broadcast_job", run: func(ctx context.Context) error {
			return d.broadcaster.Broadcast(ctx, realtime.JobChannel(event.JobID), realtime.EventJobStatusChanged, map[string]interface{}{
				"job_id":          event.JobID,
				"status":          event.Status,
				"previous_status": event.PreviousStatus,
				"changed_by":      event.Actor,
				"changed_at":      event.OccurredAt,
			})
		}})
	}

	if event.EngineerID != nil {
		if tracking, ok := trackingEvent(event.Status); ok {
			engineerID := *event.EngineerID
			steps = append(steps, step{name: "broadcast_engineer", run: func(ctx context.Context) error {
				return d.broadcaster.Broadcast(ctx, realtime.EngineerChannel(engineerID), tracking, map[string]interface{}{
					"job_id":    event.JobID,
					"timestamp": event.OccurredAt,
				})
			}})
		}
	}
	return steps
}

// trackingEvent maps a new job status to the location tracking command for
// the engineer's device, if any.
func trackingEvent(status models.JobStatus) (string, bool) {
	switch status {
	case models.JobStatusTravelling:
		return realtime.EventStartLocationTracking, true
	case models.JobStatusCompleted, models.JobStatusCancelled:
		return realtime.EventStopLocationTracking, true
	}
	return "", false
}

func historyEntry(event lifecycle.Event) *models.StatusHistoryEntry {
	entry := &models.StatusHistoryEntry{
		JobID:     event.JobID,
		Status:    event.Status,
		ChangedBy: event.Actor,
		CreatedAt: event.OccurredAt,
	}
	if event.Notes != "" {
		notes := event.Notes
		entry.Notes = &notes
	}
	return entry
}

type nopRecorder struct{}

func (nopRecorder) RecordSideEffect(string, bool) {}
