package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const channelPrefix = "chat:user:"

// Relay carries events to users connected to other instances.
type Relay interface {
	Publish(ctx context.Context, userID string, ev Event) error
}

type RedisRelay struct {
	client   *redis.Client
	registry *Registry
	logger   *zap.Logger
}

func NewRedisRelay(client *redis.Client, registry *Registry, logger *zap.Logger) *RedisRelay {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRelay{client: client, registry: registry, logger: logger}
}

func (r *RedisRelay) Publish(ctx context.Context, userID string, ev Event) error {
	body, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("marshal chat event: %w", err)
	}
	if err := r.client.Publish(ctx, channelPrefix+userID, body).Err(); err != nil {
		return fmt.Errorf("publish chat event: %w", err)
	}
	return nil
}

// Run forwards relayed events to locally connected users until ctx ends.
func (r *RedisRelay) Run(ctx context.Context) error {
	sub := r.client.PSubscribe(ctx, channelPrefix+"*")
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("chat relay subscribe: %w", err)
	}
	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			userID := strings.TrimPrefix(msg.Channel, channelPrefix)
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				r.logger.Warn("dropping malformed chat event", zap.String("channel", msg.Channel), zap.Error(err))
				continue
			}
			r.registry.Deliver(userID, ev)
		}
	}
}
