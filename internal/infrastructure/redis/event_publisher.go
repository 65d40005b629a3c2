package redis

import (
	"context"
	"encoding/json"

	"github.com/go-redis/redis/v8"

	"viewora-deals/internal/domain"
)

const dealEventsChannel = "deal_events"

// RedisEventPublisher feeds downstream consumers (email workers, analytics)
// with lifecycle events. Delivery is best-effort.
type RedisEventPublisher struct {
	client *redis.Client
}

func NewRedisEventPublisher(client *redis.Client) *RedisEventPublisher {
	return &RedisEventPublisher{client: client}
}

func (r *RedisEventPublisher) PublishDealEvent(ctx context.Context, event *domain.DealEvent) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return r.client.Publish(ctx, dealEventsChannel, payload).Err()
}
