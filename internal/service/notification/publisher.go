package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/nkiryanov/sharefin/internal/metrics"
	"github.com/nkiryanov/sharefin/internal/models"
)

const channelPrefix = "notifications:"

// Channel notifications of the user are published to
func Channel(userID uuid.UUID) string {
	return channelPrefix + userID.String()
}

// Message published to the realtime channel
type Message struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

// Publishes notifications to redis pub/sub
type RedisPublisher struct {
	client redis.UniversalClient
}

func NewRedisPublisher(client redis.UniversalClient) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (p *RedisPublisher) Publish(ctx context.Context, n models.Notification) error {
	data, err := json.Marshal(Message{
		ID:        n.ID,
		UserID:    n.UserID,
		Title:     n.Title,
		Message:   n.Message,
		Type:      n.Type,
		CreatedAt: n.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("can't marshal notification. Err: %w", err)
	}

	if err := p.client.Publish(ctx, Channel(n.UserID), string(data)).Err(); err != nil {
		metrics.RecordNotificationPublished("failed")
		return fmt.Errorf("can't publish notification. Err: %w", err)
	}

	metrics.RecordNotificationPublished("ok")
	return nil
}

// Used when realtime delivery is not configured
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.Notification) error {
	return nil
}
