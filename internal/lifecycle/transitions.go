package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"fieldops/api-gateway/internal/apperr"
	"fieldops/api-gateway/internal/authz"
	"fieldops/api-gateway/internal/session"
	"fieldops/api-gateway/models"
)

// transitions lists the moves Transition may apply. Completion has its own
// workflow and is not reachable from here.
var transitions = map[models.JobStatus][]models.JobStatus{
	models.JobStatusAssigned:   {models.JobStatusAccepted, models.JobStatusCancelled},
	models.JobStatusAccepted:   {models.JobStatusTravelling, models.JobStatusCancelled},
	models.JobStatusTravelling: {models.JobStatusOnsite, models.JobStatusCancelled},
	models.JobStatusOnsite:     {models.JobStatusCancelled},
}

// CheckTransition rejects moves that the lifecycle does not define.
func CheckTransition(from, to models.JobStatus) error {
	if from.IsTerminal() {
		return apperr.Conflict(fmt.Sprintf("Job is already %s", from)).
			WithDetails(map[string]interface{}{"current_status": string(from)})
	}
	for _, next := range transitions[from] {
		if next == to {
			return nil
		}
	}
	return apperr.Conflict(fmt.Sprintf("Cannot move job from %s to %s", from, to)).
		WithDetails(map[string]interface{}{
			"current_status":   string(from),
			"requested_status": string(to),
		})
}

// availabilityFor returns the engineer availability implied by a job moving to status.
func availabilityFor(status models.JobStatus) (models.EngineerAvailability, bool) {
	switch status {
	case models.JobStatusAccepted:
		return models.EngineerOnJob, true
	case models.JobStatusCancelled:
		return models.EngineerAvailable, true
	}
	return "", false
}

// Transition applies a non-completion status change to a job.
func (s *Service) Transition(ctx context.Context, sess *session.Session, jobID uuid.UUID, req TransitionRequest) (job *models.Job, err error) {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, "lifecycle.Transition")
	span.SetAttributes(
		attribute.String("job.id", jobID.String()),
		attribute.String("job.requested_status", string(req.Status)),
	)
	defer func() {
		s.finish("transition", start, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, apperr.From(err).Kind.Code())
		}
		span.End()
	}()

	if err := validateStruct(&req); err != nil {
		return nil, err
	}
	if req.Status == models.JobStatusCompleted {
		return nil, apperr.Validation("Use the completion endpoint to complete a job").
			WithDetails(map[string]interface{}{"field": "status"})
	}
	if !req.Status.Valid() {
		return nil, apperr.Validation(fmt.Sprintf("Unknown job status %q", req.Status)).
			WithDetails(map[string]interface{}{"field": "status"})
	}

	current, err := s.fetchJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(sess, authz.ActionJobWrite, authz.JobResource(current)); err != nil {
		return nil, err
	}
	if err := CheckTransition(current.Status, req.Status); err != nil {
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{"job_id": jobID, "actor": sess.UserID, "status": req.Status})
	now := s.now().UTC()
	updated, err := s.jobs.UpdateJobStatus(ctx, current.ID, current.Status, map[string]interface{}{
		"status":     req.Status,
		"updated_at": now,
	})
	if err != nil {
		if errors.Is(err, models.ErrStaleStatus) {
			return nil, apperr.Wrap(apperr.KindConflict, err, "Job status changed concurrently; reload and retry")
		}
		log.WithError(err).Error("Failed to persist job status")
		return nil, apperr.Dependency(err, "Failed to update job status")
	}
	log.Infof("Job moved from %s to %s", current.Status, req.Status)

	if availability, ok := availabilityFor(req.Status); ok && current.AssignedEngineerID != nil {
		s.setEngineerAvailability(ctx, log, *current.AssignedEngineerID, availability)
	}

	notes := ""
	if req.Notes != nil {
		notes = *req.Notes
	}
	s.notifier.Notify(ctx, Event{
		Type:           EventJobStatusChanged,
		JobID:          current.ID,
		Status:         req.Status,
		PreviousStatus: current.Status,
		Actor:          sess.UserID,
		EngineerID:     current.AssignedEngineerID,
		Notes:          notes,
		OccurredAt:     now,
	})
	return updated, nil
}

// GetJob returns a job the caller may read.
func (s *Service) GetJob(ctx context.Context, sess *session.Session, jobID uuid.UUID) (*models.Job, error) {
	if err := authz.Authorize(sess, authz.ActionJobRead, nil); err != nil {
		return nil, err
	}
	job, err := s.fetchJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(sess, authz.ActionJobRead, authz.JobResource(job)); err != nil {
		return nil, err
	}
	return job, nil
}

// History returns the status history of a job the caller may read, oldest first.
func (s *Service) History(ctx context.Context, sess *session.Session, jobID uuid.UUID) ([]models.StatusHistoryEntry, error) {
	if _, err := s.GetJob(ctx, sess, jobID); err != nil {
		return nil, err
	}
	entries, err := s.history.ListStatusHistory(ctx, jobID)
	if err != nil {
		s.logger.WithField("job_id", jobID).WithError(err).Error("Failed to list status history")
		return nil, apperr.Dependency(err, "Failed to list job status history")
	}
	if entries == nil {
		entries = []models.StatusHistoryEntry{}
	}
	return entries, nil
}
