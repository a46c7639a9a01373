package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisNotifier publica eventos JSON en un canal pub/sub de Redis.
type RedisNotifier struct {
	client  redisPublisher
	channel string
}

func NewRedisNotifier(client *redis.Client, channel string) *RedisNotifier {
	if channel == "" {
		channel = "user.verification"
	}
	n := &RedisNotifier{channel: channel}
	if client != nil {
		n.client = client
	}
	return n
}

func (n *RedisNotifier) PublishVerification(ctx context.Context, event VerificationEvent) error {
	if n == nil || n.client == nil {
		return ErrDisabled
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal verification event: %w", err)
	}
	if err := n.client.Publish(ctx, n.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish verification event: %w", err)
	}
	return nil
}
