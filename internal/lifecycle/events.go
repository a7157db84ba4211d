package lifecycle

import (
	"time"

	"github.com/google/uuid"

	"fieldops/api-gateway/models"
)

// EventType names a lifecycle announcement.
type EventType string

const (
	EventJobCompleted     EventType = "job_completed"
	EventJobStatusChanged EventType = "job_status_changed"
)

// Event describes a persisted status change. EngineerID is the engineer
// assigned when the job was read, before the change.
type Event struct {
	Type           EventType
	JobID          uuid.UUID
	Status         models.JobStatus
	PreviousStatus models.JobStatus
	Actor          uuid.UUID
	EngineerID     *uuid.UUID
	Notes          string
	OccurredAt     time.Time
}

const completionNote = "Job completed with client signature"
