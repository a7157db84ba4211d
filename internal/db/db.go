// Package db persists jobs, engineers, payments and the job status history
// through the Supabase PostgREST API.
package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	postgrest "github.com/supabase-community/postgrest-go"

	"fieldops/api-gateway/internal/lifecycle"
	"fieldops/api-gateway/models"
)

const (
	jobsTable          = "jobs"
	engineersTable     = "engineers"
	paymentsTable      = "payments"
	statusHistoryTable = "job_status_history"
)

// Queryer starts a PostgREST query on a table. Both *supabase.Client and
// *postgrest.Client satisfy it.
type Queryer interface {
	From(table string) *postgrest.QueryBuilder
}

// Ensure Store implements the lifecycle store interfaces at compile time.
var (
	_ lifecycle.JobStore      = (*Store)(nil)
	_ lifecycle.EngineerStore = (*Store)(nil)
	_ lifecycle.PaymentStore  = (*Store)(nil)
	_ lifecycle.HistoryReader = (*Store)(nil)
)

// Store is the PostgREST-backed record store.
// The postgrest client does not take a context; request timeouts are governed
// by its HTTP client.
type Store struct {
	q      Queryer
	logger logrus.FieldLogger
}

// NewStore creates a Store on top of a Supabase or PostgREST client.
func NewStore(q Queryer, logger logrus.FieldLogger) *Store {
	return &Store{q: q, logger: logger}
}

// Ping checks that the jobs table is reachable.
func (s *Store) Ping(_ context.Context) error {
	_, _, err := s.q.From(jobsTable).
		Select("id", "", false).
		Limit(1, "").
		Execute()
	if err != nil {
		return fmt.Errorf("postgrest ping failed: %w", err)
	}
	return nil
}

// GetJob fetches a job by id. It returns models.ErrRecordNotFound when no row matches.
func (s *Store) GetJob(_ context.Context, id uuid.UUID) (*models.Job, error) {
	body, _, err := s.q.From(jobsTable).
		Select("*", "", false).
		Eq("id", id.String()).
		Limit(1, ""). // Ensure we only get one job
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to fetch job %s: %w", id, err)
	}

	var jobs []models.Job // PostgREST always answers with an array
	if err := json.Unmarshal(body, &jobs); err != nil {
		return nil, fmt.Errorf("failed to decode job %s: %w", id, err)
	}
	if len(jobs) == 0 {
		return nil, models.ErrRecordNotFound
	}
	return &jobs[0], nil
}

// UpdateJobStatus applies fields to the job only while its status is still
// expected, in a single PATCH. It returns models.ErrStaleStatus when no row
// matched the id and status filter.
func (s *Store) UpdateJobStatus(_ context.Context, id uuid.UUID, expected models.JobStatus, fields map[string]interface{}) (*models.Job, error) {
	body, _, err := s.q.From(jobsTable).
		Update(fields, "representation", "").
		Eq("id", id.String()).
		Eq("status", string(expected)).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to update job %s: %w", id, err)
	}

	var results []models.Job
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to decode updated job %s: %w", id, err)
	}
	if len(results) == 0 {
		return nil, models.ErrStaleStatus
	}

	s.logger.WithFields(logrus.Fields{"job_id": id, "from": expected, "to": results[0].Status}).
		Debug("Job status updated")
	return &results[0], nil
}

// SetEngineerAvailability updates the availability of an engineer. It returns
// models.ErrRecordNotFound when the engineer does not exist.
func (s *Store) SetEngineerAvailability(_ context.Context, id uuid.UUID, availability models.EngineerAvailability) error {
	body, _, err := s.q.From(engineersTable).
		Update(map[string]interface{}{"availability_status": availability}, "representation", "").
		Eq("id", id.String()).
		Execute()
	if err != nil {
		return fmt.Errorf("failed to update engineer %s: %w", id, err)
	}

	var results []models.Engineer
	if err := json.Unmarshal(body, &results); err != nil {
		return fmt.Errorf("failed to decode updated engineer %s: %w", id, err)
	}
	if len(results) == 0 {
		return fmt.Errorf("engineer %s: %w", id, models.ErrRecordNotFound)
	}
	return nil
}

// CreatePayment inserts a payment and returns the stored row.
func (s *Store) CreatePayment(_ context.Context, payment *models.Payment) (*models.Payment, error) {
	var results []models.Payment
	body, _, err := s.q.From(paymentsTable).
		Insert(payment, false, "", "representation", "").
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to insert payment for job %s: %w", payment.JobID, err)
	}
	if err := json.Unmarshal(body, &results); err != nil {
		return nil, fmt.Errorf("failed to decode payment for job %s: %w", payment.JobID, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no payment returned after insert for job %s", payment.JobID)
	}
	return &results[0], nil
}

// AppendStatusHistory inserts one audit row.
func (s *Store) AppendStatusHistory(_ context.Context, entry *models.StatusHistoryEntry) error {
	_, _, err := s.q.From(statusHistoryTable).
		Insert(entry, false, "", "minimal", "").
		Execute()
	if err != nil {
		return fmt.Errorf("failed to insert status history for job %s: %w", entry.JobID, err)
	}
	return nil
}

// ListStatusHistory returns the audit rows of a job, oldest first.
func (s *Store) ListStatusHistory(_ context.Context, jobID uuid.UUID) ([]models.StatusHistoryEntry, error) {
	body, _, err := s.q.From(statusHistoryTable).
		Select("*", "", false).
		Eq("job_id", jobID.String()).
		Order("created_at", &postgrest.OrderOpts{Ascending: true}).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("failed to list status history for job %s: %w", jobID, err)
	}

	var entries []models.StatusHistoryEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode status history for job %s: %w", jobID, err)
	}
	return entries, nil
}
