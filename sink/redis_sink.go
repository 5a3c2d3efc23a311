package sink

import (
	"context"
	"log/slog"
	"space-chat/contract"
	"space-chat/domain/event"

	"github.com/redis/go-redis/v9"
)

var _ contract.EventSink = RedisSink{}

// RedisSink bridges every dispatched event to Redis Pub/Sub, one channel per topic,
// so that services outside the process can follow rooms and personal feeds.
// The payload is the same envelope clients receive on the websocket.
type RedisSink struct {
	client *redis.Client
	prefix string
	log    *slog.Logger
}

func NewRedisSink(client *redis.Client, prefix string, log *slog.Logger) RedisSink {
	return RedisSink{client: client, prefix: prefix, log: log}
}

func (r RedisSink) Consume(ctx context.Context, e event.DomainEvent) error {
	payload, err := event.Encode(e)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.Channel(e.Topic()), payload).Err()
}

func (r RedisSink) Channel(topic event.Topic) string {
	return r.prefix + string(topic)
}
