// Package lifecycle implements the job lifecycle: the status transitions of a
// dispatched job and the completion workflow with its side effects.
package lifecycle

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"fieldops/api-gateway/models"
)

const tracerName = "fieldops/api-gateway/internal/lifecycle"

// JobStore reads jobs and applies conditional status updates.
type JobStore interface {
	GetJob(ctx context.Context, id uuid.UUID) (*models.Job, error)
	// UpdateJobStatus applies fields only while the job still has status
	// expected. It returns models.ErrStaleStatus when no row matched.
	UpdateJobStatus(ctx context.Context, id uuid.UUID, expected models.JobStatus, fields map[string]interface{}) (*models.Job, error)
}

// EngineerStore updates engineer availability.
type EngineerStore interface {
	SetEngineerAvailability(ctx context.Context, id uuid.UUID, availability models.EngineerAvailability) error
}

// PaymentStore creates payment records.
type PaymentStore interface {
	CreatePayment(ctx context.Context, payment *models.Payment) (*models.Payment, error)
}

// HistoryReader lists the audit trail of a job.
type HistoryReader interface {
	ListStatusHistory(ctx context.Context, jobID uuid.UUID) ([]models.StatusHistoryEntry, error)
}

// Notifier announces lifecycle events. Implementations must not block the
// caller on delivery and never report failures back.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// SignatureValidator checks a client signature reference.
type SignatureValidator interface {
	Validate(ref string) error
}

// Recorder receives operation outcomes for metrics.
type Recorder interface {
	RecordRequest(operation, outcome string, duration time.Duration)
	RecordSideEffect(effect string, ok bool)
}

// Deps are the collaborators of a Service. Notifier, Signatures, Recorder,
// Logger and Now are optional.
type Deps struct {
	Jobs       JobStore
	Engineers  EngineerStore
	Payments   PaymentStore
	History    HistoryReader
	Notifier   Notifier
	Signatures SignatureValidator
	Recorder   Recorder
	Logger     logrus.FieldLogger
	Now        func() time.Time
}

// Service runs lifecycle operations for one request at a time; it holds no
// per-request state and is safe for concurrent use.
type Service struct {
	jobs       JobStore
	engineers  EngineerStore
	payments   PaymentStore
	history    HistoryReader
	notifier   Notifier
	signatures SignatureValidator
	recorder   Recorder
	logger     logrus.FieldLogger
	now        func() time.Time
	tracer     trace.Tracer
}

// NewService creates a Service from its dependencies.
func NewService(deps Deps) *Service {
	s := &Service{
		jobs:       deps.Jobs,
		engineers:  deps.Engineers,
		payments:   deps.Payments,
		history:    deps.History,
		notifier:   deps.Notifier,
		signatures: deps.Signatures,
		recorder:   deps.Recorder,
		logger:     deps.Logger,
		now:        deps.Now,
		tracer:     otel.Tracer(tracerName),
	}
	if s.notifier == nil {
		s.notifier = nopNotifier{}
	}
	if s.recorder == nil {
		s.recorder = nopRecorder{}
	}
	if s.logger == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		s.logger = l
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) {}

type nopRecorder struct{}

func (nopRecorder) RecordRequest(string, string, time.Duration) {}
func (nopRecorder) RecordSideEffect(string, bool)               {}
