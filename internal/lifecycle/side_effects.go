package lifecycle

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fieldops/api-gateway/models"
)

const (
	effectEngineerAvailability = "engineer_availability"
	effectPayment              = "payment"
)

// setEngineerAvailability is non-fatal: failures are logged and reported as false.
func (s *Service) setEngineerAvailability(ctx context.Context, log logrus.FieldLogger, engineerID uuid.UUID, availability models.EngineerAvailability) bool {
	log = log.WithFields(logrus.Fields{"effect": effectEngineerAvailability, "engineer_id": engineerID})
	if err := s.engineers.SetEngineerAvailability(ctx, engineerID, availability); err != nil {
		log.WithError(err).Warnf("Failed to set engineer availability to %s", availability)
		s.recorder.RecordSideEffect(effectEngineerAvailability, false)
		return false
	}
	s.recorder.RecordSideEffect(effectEngineerAvailability, true)
	log.Debugf("Engineer availability set to %s", availability)
	return true
}

// initiatePayment creates a pending payment when the job has a positive fee
// and an agency to attribute it to. It returns nil when skipped or on failure.
func (s *Service) initiatePayment(ctx context.Context, log logrus.FieldLogger, job *models.Job, now time.Time) *models.Payment {
	if job.Fee() <= 0 || job.AssignedAgencyID == nil {
		log.Debug("No payment needed for job")
		return nil
	}

	log = log.WithField("effect", effectPayment)
	created, err := s.payments.CreatePayment(ctx, &models.Payment{
		JobID:     job.ID,
		AgencyID:  *job.AssignedAgencyID,
		Amount:    job.Fee(),
		Status:    models.PaymentStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		log.WithError(err).Warn("Failed to create payment for completed job")
		s.recorder.RecordSideEffect(effectPayment, false)
		return nil
	}
	s.recorder.RecordSideEffect(effectPayment, true)
	log.WithField("amount", created.Amount).Info("Pending payment created")
	return created
}
