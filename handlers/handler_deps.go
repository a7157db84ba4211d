package handlers

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"fieldops/api-gateway/internal/lifecycle"
	"fieldops/api-gateway/internal/session"
	"fieldops/api-gateway/models"
)

// JobLifecycle defines the operations handlers expect from the lifecycle service.
// This allows for decoupling and easier testing.
type JobLifecycle interface {
	Complete(ctx context.Context, sess *session.Session, jobID uuid.UUID, req lifecycle.CompleteJobRequest) (*lifecycle.CompletionResult, error)
	Transition(ctx context.Context, sess *session.Session, jobID uuid.UUID, req lifecycle.TransitionRequest) (*models.Job, error)
	GetJob(ctx context.Context, sess *session.Session, jobID uuid.UUID) (*models.Job, error)
	History(ctx context.Context, sess *session.Session, jobID uuid.UUID) ([]models.StatusHistoryEntry, error)
}

// DependencyReporter lists dependencies that failed their last readiness check.
type DependencyReporter interface {
	Failures() map[string]string
}

// ApplicationHandler holds shared dependencies for handlers.
type ApplicationHandler struct {
	Jobs   JobLifecycle
	Health DependencyReporter // optional
	Logger logrus.FieldLogger
}

// NewApplicationHandler creates a new ApplicationHandler with the given dependencies.
func NewApplicationHandler(jobs JobLifecycle, health DependencyReporter, logger logrus.FieldLogger) *ApplicationHandler {
	return &ApplicationHandler{
		Jobs:   jobs,
		Health: health,
		Logger: logger,
	}
}
