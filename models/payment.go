package models

import (
	"time"

	"github.com/google/uuid"
)

// PaymentStatus is the settlement state of a payment record.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment represents the structure of a payment row in the database.
// The ID is left empty on insert so the database can generate it.
type Payment struct {
	ID        *uuid.UUID    `json:"id,omitempty"`
	JobID     uuid.UUID     `json:"job_id"`
	AgencyID  uuid.UUID     `json:"agency_id"`
	Amount    float64       `json:"amount"`
	Status    PaymentStatus `json:"status"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}
