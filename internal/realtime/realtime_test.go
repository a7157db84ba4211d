package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	channel string
	body    []byte
}

type fakePublisher struct {
	mu    sync.Mutex
	err   error
	calls []published
}

func (f *fakePublisher) Publish(_ context.Context, channel string, message interface{}) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, _ := message.([]byte)
	f.calls = append(f.calls, published{channel: channel, body: body})
	if f.err != nil {
		return redis.NewIntResult(0, f.err)
	}
	return redis.NewIntResult(1, nil)
}

func newTestBroadcaster(pub Publisher) *Broadcaster {
	l := logrus.New()
	l.SetOutput(io.Discard)
	b := NewBroadcaster(pub, l)
	b.now = func() time.Time { return time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC) }
	return b
}

func TestChannelNames(t *testing.T) {
	id := uuid.MustParse("7d1f3a52-1c7b-4a55-9f34-2f0d1f5a0b6e")
	assert.Equal(t, "job:7d1f3a52-1c7b-4a55-9f34-2f0d1f5a0b6e", JobChannel(id))
	assert.Equal(t, "engineer:7d1f3a52-1c7b-4a55-9f34-2f0d1f5a0b6e", EngineerChannel(id))
}

func TestBroadcastPublishesMessage(t *testing.T) {
	pub := &fakePublisher{}
	b := newTestBroadcaster(pub)
	jobID := uuid.New()

	err := b.Broadcast(context.Background(), JobChannel(jobID), EventJobCompleted, map[string]interface{}{"job_id": jobID})
	require.NoError(t, err)

	require.Len(t, pub.calls, 1)
	assert.Equal(t, JobChannel(jobID), pub.calls[0].channel)

	var msg Message
	require.NoError(t, json.Unmarshal(pub.calls[0].body, &msg))
	assert.Equal(t, EventJobCompleted, msg.Event)
	assert.Equal(t, jobID.String(), msg.Payload["job_id"])
	assert.True(t, msg.SentAt.Equal(time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)))
}

func TestBroadcastReturnsPublishError(t *testing.T) {
	pub := &fakePublisher{err: errors.New("connection refused")}
	b := newTestBroadcaster(pub)

	err := b.Broadcast(context.Background(), "job:x", EventJobStatusChanged, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	pub := &fakePublisher{err: errors.New("connection refused")}
	b := newTestBroadcaster(pub)

	for i := 0; i < 5; i++ {
		_ = b.Broadcast(context.Background(), "job:x", EventJobStatusChanged, nil)
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	err := b.Broadcast(context.Background(), "job:x", EventJobStatusChanged, nil)
	assert.ErrorIs(t, err, gobreaker.ErrOpenState)
	assert.Len(t, pub.calls, 5, "open breaker must not reach redis")
}

func TestConnectRequiresAddress(t *testing.T) {
	_, err := Connect(context.Background(), Options{})
	assert.Error(t, err)
}
