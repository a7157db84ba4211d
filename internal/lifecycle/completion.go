package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"fieldops/api-gateway/internal/apperr"
	"fieldops/api-gateway/internal/authz"
	"fieldops/api-gateway/internal/session"
	"fieldops/api-gateway/models"
)

// CompletionMetadata reports when and by whom a job was completed and which
// side effects landed.
type CompletionMetadata struct {
	CompletedAt                  time.Time `json:"completed_at"`
	CompletedBy                  uuid.UUID `json:"completed_by"`
	SignatureUploaded            bool      `json:"signature_uploaded"`
	ChecklistValidated           bool      `json:"checklist_validated"`
	EngineerAvailabilityRestored bool      `json:"engineer_availability_restored"`
	PaymentCreated               bool      `json:"payment_created"`
}

// CompletionResult is the outcome of a successful completion. Payment is nil
// when no payment was needed or its creation failed.
type CompletionResult struct {
	Job      *models.Job        `json:"job"`
	Payment  *models.Payment    `json:"payment"`
	Metadata CompletionMetadata `json:"metadata"`
}

// Complete moves a job to completed. Only the job update is fatal; the
// engineer, payment and notification side effects are best effort and are
// reported through the result metadata.
func (s *Service) Complete(ctx context.Context, sess *session.Session, jobID uuid.UUID, req CompleteJobRequest) (result *CompletionResult, err error) {
	start := s.now()
	ctx, span := s.tracer.Start(ctx, "lifecycle.Complete")
	span.SetAttributes(attribute.String("job.id", jobID.String()))
	defer func() {
		s.finish("complete", start, err)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, apperr.From(err).Kind.Code())
		}
		span.End()
	}()

	job, err := s.fetchJob(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := authz.Authorize(sess, authz.ActionJobWrite, authz.JobResource(job)); err != nil {
		return nil, err
	}
	if err := CheckCompletable(job.Status); err != nil {
		return nil, err
	}
	if err := s.validateCompletion(&req); err != nil {
		return nil, err
	}
	if err := CheckChecklist(req.Checklist); err != nil {
		return nil, err
	}

	log := s.logger.WithFields(logrus.Fields{"job_id": jobID, "actor": sess.UserID})
	completedAt := s.now().UTC()

	updated, err := s.jobs.UpdateJobStatus(ctx, job.ID, job.Status, completionFields(&req, completedAt))
	if err != nil {
		if errors.Is(err, models.ErrStaleStatus) {
			return nil, apperr.Wrap(apperr.KindConflict, err, "Job status changed while completing; reload and retry")
		}
		log.WithError(err).Error("Failed to persist job completion")
		return nil, apperr.Dependency(err, "Failed to complete job")
	}
	span.AddEvent("job.completed")
	log.Info("Job marked as completed")

	// Engineer and payment updates do not depend on each other.
	var (
		wg       sync.WaitGroup
		restored bool
		payment  *models.Payment
	)
	if job.AssignedEngineerID != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			restored = s.setEngineerAvailability(ctx, log, *job.AssignedEngineerID, models.EngineerAvailable)
		}()
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		payment = s.initiatePayment(ctx, log, job, completedAt)
	}()
	wg.Wait()

	s.notifier.Notify(ctx, Event{
		Type:           EventJobCompleted,
		JobID:          job.ID,
		Status:         models.JobStatusCompleted,
		PreviousStatus: job.Status,
		Actor:          sess.UserID,
		EngineerID:     job.AssignedEngineerID,
		Notes:          completionNote,
		OccurredAt:     completedAt,
	})

	return &CompletionResult{
		Job:     updated,
		Payment: payment,
		Metadata: CompletionMetadata{
			CompletedAt:                  completedAt,
			CompletedBy:                  sess.UserID,
			SignatureUploaded:            true,
			ChecklistValidated:           req.Checklist != nil,
			EngineerAvailabilityRestored: restored,
			PaymentCreated:               payment != nil,
		},
	}, nil
}

// completionFields builds the single update applied to the job row. Optional
// artifacts are only written when supplied.
func completionFields(req *CompleteJobRequest, completedAt time.Time) map[string]interface{} {
	fields := map[string]interface{}{
		"status":               models.JobStatusCompleted,
		"completed_at":         completedAt,
		"client_signature_url": req.SignatureURL,
		"updated_at":           completedAt,
	}
	if req.Checklist != nil {
		fields["checklist"] = req.Checklist
	}
	if req.PartsUsed != nil {
		fields["parts_used"] = req.PartsUsed
	}
	if req.EngineerNotes != nil {
		fields["engineer_notes"] = *req.EngineerNotes
	}
	return fields
}

func (s *Service) fetchJob(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.jobs.GetJob(ctx, jobID)
	if err != nil {
		if errors.Is(err, models.ErrRecordNotFound) {
			return nil, apperr.NotFound("Job not found").
				WithDetails(map[string]interface{}{"job_id": jobID.String()})
		}
		s.logger.WithField("job_id", jobID).WithError(err).Error("Failed to fetch job")
		return nil, apperr.Dependency(err, "Failed to fetch job")
	}
	return job, nil
}

func (s *Service) finish(operation string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = apperr.From(err).Kind.Code()
	}
	s.recorder.RecordRequest(operation, outcome, s.now().Sub(start))
}
