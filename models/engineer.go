package models

import (
	"time"

	"github.com/google/uuid"
)

// EngineerAvailability is the dispatch availability of field personnel.
type EngineerAvailability string

const (
	EngineerAvailable EngineerAvailability = "available"
	EngineerOnJob     EngineerAvailability = "on_job"
	EngineerOffline   EngineerAvailability = "offline"
	EngineerOnBreak   EngineerAvailability = "on_break"
)

// Engineer represents the structure of an engineer row in the database.
// The engineer id is the auth user id of the engineer's account.
type Engineer struct {
	ID                 uuid.UUID            `json:"id"`
	AgencyID           *uuid.UUID           `json:"agency_id,omitempty"`
	FullName           string               `json:"full_name"`
	AvailabilityStatus EngineerAvailability `json:"availability_status"`
	UpdatedAt          time.Time            `json:"updated_at"`
}
