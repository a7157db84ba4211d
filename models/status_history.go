package models

import (
	"time"

	"github.com/google/uuid"
)

// StatusHistoryEntry is one append-only audit row of the job_status_history table.
type StatusHistoryEntry struct {
	ID        *uuid.UUID `json:"id,omitempty"`
	JobID     uuid.UUID  `json:"job_id"`
	Status    JobStatus  `json:"status"`
	ChangedBy uuid.UUID  `json:"changed_by"`
	Notes     *string    `json:"notes,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}
