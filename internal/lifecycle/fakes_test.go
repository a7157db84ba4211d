package lifecycle

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"fieldops/api-gateway/models"
)

var errStoreDown = errors.New("store unavailable")

// fakeStore is an in-memory implementation of every store the Service uses.
type fakeStore struct {
	mu sync.Mutex

	jobs         map[uuid.UUID]*models.Job
	availability map[uuid.UUID]models.EngineerAvailability
	payments     []*models.Payment
	history      map[uuid.UUID][]models.StatusHistoryEntry

	getErr      error
	updateErr   error
	engineerErr error
	paymentErr  error
	historyErr  error

	updates      []map[string]interface{}
	engineerSets int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		jobs:         make(map[uuid.UUID]*models.Job),
		availability: make(map[uuid.UUID]models.EngineerAvailability),
		history:      make(map[uuid.UUID][]models.StatusHistoryEntry),
	}
}

func (f *fakeStore) put(job *models.Job) {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *job
	f.jobs[job.ID] = &clone
}

func (f *fakeStore) job(id uuid.UUID) *models.Job {
	f.mu.Lock()
	defer f.mu.Unlock()
	clone := *f.jobs[id]
	return &clone
}

func (f *fakeStore) GetJob(_ context.Context, id uuid.UUID) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	job, ok := f.jobs[id]
	if !ok {
		return nil, models.ErrRecordNotFound
	}
	clone := *job
	return &clone, nil
}

func (f *fakeStore) UpdateJobStatus(_ context.Context, id uuid.UUID, expected models.JobStatus, fields map[string]interface{}) (*models.Job, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	job, ok := f.jobs[id]
	if !ok || job.Status != expected {
		return nil, models.ErrStaleStatus
	}
	f.updates = append(f.updates, fields)

	if v, ok := fields["status"].(models.JobStatus); ok {
		job.Status = v
	}
	if v, ok := fields["completed_at"].(time.Time); ok {
		job.CompletedAt = &v
	}
	if v, ok := fields["client_signature_url"].(string); ok {
		job.ClientSignatureURL = &v
	}
	if v, ok := fields["checklist"].([]models.ChecklistItem); ok {
		job.Checklist = v
	}
	if v, ok := fields["parts_used"].([]models.PartUsed); ok {
		job.PartsUsed = v
	}
	if v, ok := fields["engineer_notes"].(string); ok {
		job.EngineerNotes = &v
	}
	if v, ok := fields["updated_at"].(time.Time); ok {
		job.UpdatedAt = v
	}
	clone := *job
	return &clone, nil
}

func (f *fakeStore) SetEngineerAvailability(_ context.Context, id uuid.UUID, availability models.EngineerAvailability) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.engineerSets++
	if f.engineerErr != nil {
		return f.engineerErr
	}
	f.availability[id] = availability
	return nil
}

func (f *fakeStore) CreatePayment(_ context.Context, p *models.Payment) (*models.Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.paymentErr != nil {
		return nil, f.paymentErr
	}
	id := uuid.New()
	created := *p
	created.ID = &id
	f.payments = append(f.payments, &created)
	return &created, nil
}

func (f *fakeStore) ListStatusHistory(_ context.Context, jobID uuid.UUID) ([]models.StatusHistoryEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.historyErr != nil {
		return nil, f.historyErr
	}
	return f.history[jobID], nil
}

func (f *fakeStore) paymentCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.payments)
}

// recordingNotifier keeps every event it receives.
type recordingNotifier struct {
	mu     sync.Mutex
	events []Event
}

func (r *recordingNotifier) Notify(_ context.Context, ev Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingNotifier) all() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Event(nil), r.events...)
}

// countingRecorder tallies metric callbacks.
type countingRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
	effects  map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{outcomes: map[string]int{}, effects: map[string]int{}}
}

func (c *countingRecorder) RecordRequest(operation, outcome string, _ time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes[operation+"/"+outcome]++
}

func (c *countingRecorder) RecordSideEffect(effect string, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := effect + "/ok"
	if !ok {
		key = effect + "/failed"
	}
	c.effects[key]++
}
