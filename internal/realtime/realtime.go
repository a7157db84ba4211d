// Package realtime broadcasts lifecycle events on named Redis pub/sub
// channels that mobile and dashboard clients subscribe to.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
)

// Event names published on the channels.
const (
	EventJobCompleted          = "job_completed"
	EventJobStatusChanged      = "job_status_changed"
	EventStartLocationTracking = "start_location_tracking"
	EventStopLocationTracking  = "stop_location_tracking"
)

// JobChannel is the channel job watchers subscribe to.
func JobChannel(jobID uuid.UUID) string {
	return "job:" + jobID.String()
}

// EngineerChannel is the channel an engineer's device subscribes to.
func EngineerChannel(engineerID uuid.UUID) string {
	return "engineer:" + engineerID.String()
}

// Message is the JSON document published on a channel.
type Message struct {
	Event   string                 `json:"event"`
	Payload map[string]interface{} `json:"payload"`
	SentAt  time.Time              `json:"sent_at"`
}

// Publisher is the subset of *redis.Client used for broadcasting.
type Publisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// Broadcaster publishes messages through a circuit breaker so an unreachable
// Redis fails fast instead of stalling the notification workers.
type Broadcaster struct {
	pub     Publisher
	breaker *gobreaker.CircuitBreaker
	logger  logrus.FieldLogger
	now     func() time.Time
}

// NewBroadcaster creates a Broadcaster on top of a Redis client.
func NewBroadcaster(pub Publisher, logger logrus.FieldLogger) *Broadcaster {
	b := &Broadcaster{pub: pub, logger: logger, now: time.Now}
	b.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "realtime-broadcast",
		MaxRequests: 1,
		Interval:    30 * time.Second,
		Timeout:     10 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(logrus.Fields{"breaker": name, "from": from.String(), "to": to.String()}).
				Warn("Broadcast circuit breaker changed state")
		},
	})
	return b
}

// Broadcast publishes event with payload on channel. It returns
// gobreaker.ErrOpenState without contacting Redis while the breaker is open.
func (b *Broadcaster) Broadcast(ctx context.Context, channel, event string, payload map[string]interface{}) error {
	body, err := json.Marshal(Message{Event: event, Payload: payload, SentAt: b.now().UTC()})
	if err != nil {
		return fmt.Errorf("failed to encode %s message: %w", event, err)
	}

	_, err = b.breaker.Execute(func() (interface{}, error) {
		return b.pub.Publish(ctx, channel, body).Result()
	})
	if err != nil {
		return fmt.Errorf("failed to publish %s on %s: %w", event, channel, err)
	}

	b.logger.WithFields(logrus.Fields{"channel": channel, "event": event}).Debug("Broadcast sent")
	return nil
}

// State reports the circuit breaker state.
func (b *Broadcaster) State() gobreaker.State {
	return b.breaker.State()
}

// Options configures the Redis connection.
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient creates a Redis client without contacting the server.
func NewClient(opts Options) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         opts.Addr,
		Password:     opts.Password,
		DB:           opts.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})
}

// Connect opens a Redis client and verifies it with a ping.
func Connect(ctx context.Context, opts Options) (*redis.Client, error) {
	if opts.Addr == "" {
		return nil, fmt.Errorf("redis: address is empty")
	}

	client := NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis: failed to ping server: %w", err)
	}
	return client, nil
}
