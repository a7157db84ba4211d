package models

import (
	"time"

	"github.com/google/uuid"
)

// JobStatus is the lifecycle state of a dispatched job.
type JobStatus string

const (
	JobStatusAssigned   JobStatus = "assigned"
	JobStatusAccepted   JobStatus = "accepted"
	JobStatusTravelling JobStatus = "travelling"
	JobStatusOnsite     JobStatus = "onsite"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// IsTerminal reports whether no transition is defined out of the status.
func (s JobStatus) IsTerminal() bool {
	return s == JobStatusCompleted || s == JobStatusCancelled
}

// Valid reports whether s is one of the known job statuses.
func (s JobStatus) Valid() bool {
	switch s {
	case JobStatusAssigned, JobStatusAccepted, JobStatusTravelling, JobStatusOnsite, JobStatusCompleted, JobStatusCancelled:
		return true
	}
	return false
}

// ChecklistItem is one line of the on-site checklist an engineer works through.
type ChecklistItem struct {
	Item      string  `json:"item" validate:"required"`
	Completed bool    `json:"completed"`
	Notes     *string `json:"notes,omitempty"`
}

// PartUsed records a part consumed while doing the job.
type PartUsed struct {
	Name     string  `json:"name" validate:"required"`
	Quantity float64 `json:"quantity" validate:"gt=0"`
	Cost     float64 `json:"cost" validate:"gte=0"`
}

// Job represents the structure of a job row in the database.
// Completion fields stay nil until the job is completed.
type Job struct {
	ID                 uuid.UUID       `json:"id"`
	Title              string          `json:"title"`
	Description        *string         `json:"description,omitempty"`
	Status             JobStatus       `json:"status"`
	AssignedEngineerID *uuid.UUID      `json:"assigned_engineer_id,omitempty"` // Nullable foreign key
	AssignedAgencyID   *uuid.UUID      `json:"assigned_agency_id,omitempty"`   // Nullable foreign key
	ServiceFee         *float64        `json:"service_fee,omitempty"`          // Nullable NUMERIC
	CompletedAt        *time.Time      `json:"completed_at,omitempty"`
	ClientSignatureURL *string         `json:"client_signature_url,omitempty"`
	Checklist          []ChecklistItem `json:"checklist,omitempty"`  // Nullable JSONB
	PartsUsed          []PartUsed      `json:"parts_used,omitempty"` // Nullable JSONB
	EngineerNotes      *string         `json:"engineer_notes,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Fee returns the service fee, treating a NULL column as zero.
func (j *Job) Fee() float64 {
	if j.ServiceFee == nil {
		return 0
	}
	return *j.ServiceFee
}
