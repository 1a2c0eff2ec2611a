package realtime

import (
	"context"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisBus is a Bus backed by Redis PUB/SUB, for deployments where websocket
// connections and task writes land on different instances.
type RedisBus struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisBus creates a Redis-backed message bus.
func NewRedisBus(client *redis.Client, logger *zap.Logger) *RedisBus {
	return &RedisBus{
		client: client,
		logger: logger,
	}
}

// Publish sends payload on the Redis channel named after the group.
func (b *RedisBus) Publish(ctx context.Context, group string, payload []byte) error {
	return b.client.Publish(ctx, group, payload).Err()
}

// Subscribe joins the group's Redis channel. The returned cancel function
// closes the underlying subscription; the receive channel closes after it.
func (b *RedisBus) Subscribe(ctx context.Context, group string) (<-chan []byte, func(), error) {
	pubsub := b.client.Subscribe(ctx, group)

	// Confirm the subscription before handing out the channel.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, err
	}

	out := make(chan []byte, subscriberBuffer)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			select {
			case out <- []byte(msg.Payload):
			default:
				b.logger.Warn("Dropping realtime message for slow subscriber",
					zap.String("group", group))
			}
		}
	}()

	cancel := func() {
		if err := pubsub.Close(); err != nil {
			b.logger.Warn("Failed to close pubsub subscription",
				zap.String("group", group),
				zap.Error(err))
		}
	}

	return out, cancel, nil
}

// Close closes the underlying Redis client.
func (b *RedisBus) Close() error {
	return b.client.Close()
}
