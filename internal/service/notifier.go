package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// GradingCompletedEvent is broadcast when a grading pass over an assignment
// finishes.
type GradingCompletedEvent struct {
	AssignmentID   uint      `json:"assignment_id"`
	AssignmentName string    `json:"assignment_name"`
	ClassID        uint      `json:"class_id"`
	Graded         int       `json:"graded"`
	Failed         int       `json:"failed"`
	CompletedAt    time.Time `json:"completed_at"`
}

// Notifier fans grading events out to interested consumers.
type Notifier interface {
	GradingCompleted(ctx context.Context, event GradingCompletedEvent)
}

type eventNotifier struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsSubject  string
	logger       zerolog.Logger
}

// NewEventNotifier builds a notifier over redis pub/sub and NATS. Either
// transport may be absent; publishing is best effort on both.
func NewEventNotifier(redisClient *redis.Client, natsConn *nats.Conn, logger zerolog.Logger) Notifier {
	return &eventNotifier{
		redis:        redisClient,
		redisChannel: "pergi:grading:completed",
		nats:         natsConn,
		natsSubject:  "pergi.grading.completed",
		logger:       logger.With().Str("component", "event_notifier").Logger(),
	}
}

func (n *eventNotifier) GradingCompleted(ctx context.Context, event GradingCompletedEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error().Err(err).Msg("failed to encode grading event")
		return
	}

	if n.redis != nil {
		if err := n.redis.Publish(ctx, n.redisChannel, payload).Err(); err != nil {
			n.logger.Warn().Err(err).Msg("failed to publish grading event to redis")
		}
	}

	if n.nats != nil {
		if err := n.nats.Publish(n.natsSubject, payload); err != nil {
			n.logger.Warn().Err(err).Msg("failed to publish grading event to nats")
		}
	}

	n.logger.Info().
		Uint("assignment_id", event.AssignmentID).
		Int("graded", event.Graded).
		Int("failed", event.Failed).
		Msg("grading completed event published")
}
