package db

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	postgrest "github.com/supabase-community/postgrest-go"

	"fieldops/api-gateway/models"
)

// recordedRequest is one call the fake PostgREST server received.
type recordedRequest struct {
	Method string
	Path   string
	Query  map[string]string
	Prefer string
	Body   map[string]interface{}
}

// fakePostgREST answers with canned bodies keyed by "METHOD /table".
type fakePostgREST struct {
	mu        sync.Mutex
	responses map[string]string
	status    map[string]int
	requests  []recordedRequest
}

func newFakePostgREST(t *testing.T) (*fakePostgREST, *Store) {
	t.Helper()
	f := &fakePostgREST{responses: map[string]string{}, status: map[string]int{}}
	srv := httptest.NewServer(http.HandlerFunc(f.serve))
	t.Cleanup(srv.Close)

	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return f, NewStore(postgrest.NewClient(srv.URL, "public", nil), logger)
}

func (f *fakePostgREST) serve(w http.ResponseWriter, r *http.Request) {
	key := r.Method + " " + r.URL.Path

	rec := recordedRequest{Method: r.Method, Path: r.URL.Path, Query: map[string]string{}, Prefer: r.Header.Get("Prefer")}
	for k, v := range r.URL.Query() {
		rec.Query[k] = v[0]
	}
	if raw, _ := io.ReadAll(r.Body); len(raw) > 0 {
		_ = json.Unmarshal(raw, &rec.Body)
	}

	f.mu.Lock()
	f.requests = append(f.requests, rec)
	body, ok := f.responses[key]
	status := f.status[key]
	f.mu.Unlock()

	if status == 0 {
		status = http.StatusOK
	}
	if !ok {
		body = "[]"
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func (f *fakePostgREST) respond(key string, status int, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[key] = body
	f.status[key] = status
}

func (f *fakePostgREST) last() recordedRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.requests[len(f.requests)-1]
}

func TestGetJob(t *testing.T) {
	f, store := newFakePostgREST(t)
	id := uuid.New()
	f.respond("GET /jobs", http.StatusOK, `[{"id":"`+id.String()+`","title":"Boiler service","status":"onsite","service_fee":120.5,"checklist":[{"item":"Check pressure","completed":true}],"created_at":"2026-01-02T10:00:00Z","updated_at":"2026-01-02T10:00:00Z"}]`)

	job, err := store.GetJob(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, id, job.ID)
	assert.Equal(t, models.JobStatusOnsite, job.Status)
	assert.InDelta(t, 120.5, job.Fee(), 0.001)
	require.Len(t, job.Checklist, 1)

	req := f.last()
	assert.Equal(t, "/jobs", req.Path)
	assert.Equal(t, "eq."+id.String(), req.Query["id"])
	assert.Equal(t, "1", req.Query["limit"])
}

func TestGetJobNotFound(t *testing.T) {
	_, store := newFakePostgREST(t)

	_, err := store.GetJob(context.Background(), uuid.New())
	assert.ErrorIs(t, err, models.ErrRecordNotFound)
}

func TestGetJobServerError(t *testing.T) {
	f, store := newFakePostgREST(t)
	f.respond("GET /jobs", http.StatusInternalServerError, `{"code":"XX000","message":"boom"}`)

	_, err := store.GetJob(context.Background(), uuid.New())
	require.Error(t, err)
	assert.NotErrorIs(t, err, models.ErrRecordNotFound)
	assert.Contains(t, err.Error(), "boom")
}

func TestUpdateJobStatusFiltersOnExpectedStatus(t *testing.T) {
	f, store := newFakePostgREST(t)
	id := uuid.New()
	f.respond("PATCH /jobs", http.StatusOK, `[{"id":"`+id.String()+`","title":"Boiler service","status":"completed","created_at":"2026-01-02T10:00:00Z","updated_at":"2026-01-02T11:00:00Z"}]`)

	job, err := store.UpdateJobStatus(context.Background(), id, models.JobStatusOnsite, map[string]interface{}{
		"status":     models.JobStatusCompleted,
		"updated_at": time.Date(2026, 1, 2, 11, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusCompleted, job.Status)

	req := f.last()
	assert.Equal(t, http.MethodPatch, req.Method)
	assert.Equal(t, "eq."+id.String(), req.Query["id"])
	assert.Equal(t, "eq.onsite", req.Query["status"])
	assert.Contains(t, req.Prefer, "return=representation")
	assert.Equal(t, "completed", req.Body["status"])
}

func TestUpdateJobStatusStale(t *testing.T) {
	_, store := newFakePostgREST(t)

	_, err := store.UpdateJobStatus(context.Background(), uuid.New(), models.JobStatusOnsite, map[string]interface{}{"status": "completed"})
	assert.ErrorIs(t, err, models.ErrStaleStatus)
}

func TestSetEngineerAvailability(t *testing.T) {
	f, store := newFakePostgREST(t)
	id := uuid.New()
	f.respond("PATCH /engineers", http.StatusOK, `[{"id":"`+id.String()+`","full_name":"Sam","availability_status":"available","updated_at":"2026-01-02T10:00:00Z"}]`)

	require.NoError(t, store.SetEngineerAvailability(context.Background(), id, models.EngineerAvailable))

	req := f.last()
	assert.Equal(t, "/engineers", req.Path)
	assert.Equal(t, "eq."+id.String(), req.Query["id"])
	assert.Equal(t, "available", req.Body["availability_status"])
}

func TestSetEngineerAvailabilityMissingEngineer(t *testing.T) {
	_, store := newFakePostgREST(t)

	err := store.SetEngineerAvailability(context.Background(), uuid.New(), models.EngineerOnJob)
	assert.ErrorIs(t, err, models.ErrRecordNotFound)
}

func TestCreatePayment(t *testing.T) {
	f, store := newFakePostgREST(t)
	jobID, agencyID, paymentID := uuid.New(), uuid.New(), uuid.New()
	f.respond("POST /payments", http.StatusCreated, `[{"id":"`+paymentID.String()+`","job_id":"`+jobID.String()+`","agency_id":"`+agencyID.String()+`","amount":99.5,"status":"pending","created_at":"2026-01-02T10:00:00Z","updated_at":"2026-01-02T10:00:00Z"}]`)

	payment, err := store.CreatePayment(context.Background(), &models.Payment{
		JobID:    jobID,
		AgencyID: agencyID,
		Amount:   99.5,
		Status:   models.PaymentStatusPending,
	})
	require.NoError(t, err)
	require.NotNil(t, payment.ID)
	assert.Equal(t, paymentID, *payment.ID)

	req := f.last()
	assert.Equal(t, http.MethodPost, req.Method)
	assert.NotContains(t, req.Body, "id")
	assert.Equal(t, "pending", req.Body["status"])
}

func TestCreatePaymentRejected(t *testing.T) {
	f, store := newFakePostgREST(t)
	f.respond("POST /payments", http.StatusConflict, `{"code":"23505","message":"duplicate key value"}`)

	_, err := store.CreatePayment(context.Background(), &models.Payment{JobID: uuid.New(), AgencyID: uuid.New(), Amount: 10})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate key value")
}

func TestAppendStatusHistory(t *testing.T) {
	f, store := newFakePostgREST(t)
	f.respond("POST /job_status_history", http.StatusCreated, "")
	notes := "Job completed with client signature"
	entry := &models.StatusHistoryEntry{JobID: uuid.New(), Status: models.JobStatusCompleted, ChangedBy: uuid.New(), Notes: &notes}

	require.NoError(t, store.AppendStatusHistory(context.Background(), entry))

	req := f.last()
	assert.Equal(t, "/job_status_history", req.Path)
	assert.Contains(t, req.Prefer, "return=minimal")
	assert.Equal(t, notes, req.Body["notes"])
}

func TestListStatusHistoryOrdersOldestFirst(t *testing.T) {
	f, store := newFakePostgREST(t)
	jobID := uuid.New()
	f.respond("GET /job_status_history", http.StatusOK, `[
		{"job_id":"`+jobID.String()+`","status":"accepted","changed_by":"`+uuid.NewString()+`","created_at":"2026-01-02T10:00:00Z"},
		{"job_id":"`+jobID.String()+`","status":"travelling","changed_by":"`+uuid.NewString()+`","created_at":"2026-01-02T10:30:00Z"}
	]`)

	entries, err := store.ListStatusHistory(context.Background(), jobID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, models.JobStatusAccepted, entries[0].Status)

	req := f.last()
	assert.Equal(t, "eq."+jobID.String(), req.Query["job_id"])
	assert.True(t, strings.HasPrefix(req.Query["order"], "created_at.asc"))
}

func TestPing(t *testing.T) {
	f, store := newFakePostgREST(t)
	require.NoError(t, store.Ping(context.Background()))
	assert.Equal(t, "id", f.last().Query["select"])

	f.respond("GET /jobs", http.StatusServiceUnavailable, `{"code":"PGRST000","message":"database unavailable"}`)
	assert.Error(t, store.Ping(context.Background()))
}
