// Package events fans attempt lifecycle changes out to live session monitors
// over Redis Pub/Sub.
package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-assessment/internal/config"
)

// Type names a monitor event.
type Type string

const (
	TypeAttemptStarted   Type = "attempt_started"
	TypeAttemptSubmitted Type = "attempt_submitted"
	TypeAttemptExpired   Type = "attempt_expired"
	TypeSessionUpdated   Type = "session_updated"
)

// Event is the JSON payload published on a session's monitor channel.
type Event struct {
	Type            Type      `json:"type"`
	SessionID       uuid.UUID `json:"session_id"`
	AttemptID       uuid.UUID `json:"attempt_id,omitzero"`
	StudentID       uuid.UUID `json:"student_id,omitzero"`
	AttemptNumber   int       `json:"attempt_number,omitempty"`
	Score           float64   `json:"score,omitempty"`
	TotalPoints     float64   `json:"total_points,omitempty"`
	ScorePercentage float64   `json:"score_percentage,omitempty"`
	IsActive        *bool     `json:"is_active,omitempty"`
	OccurredAt      time.Time `json:"occurred_at"`
}

// RedisPublisher publishes events on config.CacheKey.SessionMonitorChannel.
// Publishing is best-effort: failures are logged and never reach the caller,
// since the state change has already been committed.
type RedisPublisher struct {
	rdb *redis.Client
	log zerolog.Logger
}

// NewRedisPublisher creates a new RedisPublisher.
func NewRedisPublisher(rdb *redis.Client, log zerolog.Logger) *RedisPublisher {
	return &RedisPublisher{
		rdb: rdb,
		log: log.With().Str("component", "event_publisher").Logger(),
	}
}

// Publish sends e to the monitor channel of e.SessionID.
func (p *RedisPublisher) Publish(ctx context.Context, e Event) {
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now().UTC()
	}
	payload, err := json.Marshal(e)
	if err != nil {
		p.log.Error().Err(err).Str("type", string(e.Type)).Msg("Marshal monitor event failed")
		return
	}

	// The request context may already be closing once the response is written.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
	defer cancel()

	channel := config.CacheKey.SessionMonitorChannel(e.SessionID)
	if err := p.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		p.log.Warn().Err(err).Str("channel", channel).Msg("Publish monitor event failed")
	}
}

// Subscribe opens a subscription to the monitor channel of a session.
// The caller must Close the returned PubSub.
func Subscribe(ctx context.Context, rdb *redis.Client, sessionID uuid.UUID) *redis.PubSub {
	return rdb.Subscribe(ctx, config.CacheKey.SessionMonitorChannel(sessionID))
}

// Nop discards events. Used when Redis is not configured.
type Nop struct{}

// Publish does nothing.
func (Nop) Publish(context.Context, Event) {}
