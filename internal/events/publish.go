package events

import (
	"context"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
)

// Publisher receives committed board events.
type Publisher interface {
	Publish(ctx context.Context, ev Event)
}

// RedisPublisher broadcasts events on a Redis pub/sub channel. Delivery is
// best-effort: failures are logged and dropped.
type RedisPublisher struct {
	client  *redis.Client
	channel string
	log     *log.Logger
}

func NewRedisPublisher(client *redis.Client, channel string, logger *log.Logger) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &RedisPublisher{client: client, channel: channel, log: logger}
}

func (p *RedisPublisher) Publish(ctx context.Context, ev Event) {
	payload, err := Encode(ev)
	if err != nil {
		p.log.WithError(err).WithField("event", ev.ID).Error("encode board event")
		return
	}
	if err := p.client.Publish(ctx, p.channel, payload).Err(); err != nil {
		p.log.WithFields(log.Fields{
			"channel": p.channel,
			"event":   ev.ID,
			"type":    ev.Type,
		}).WithError(err).Error("unable to publish board event")
	}
}

// Fanout forwards every event to each publisher in order.
type Fanout []Publisher

func (f Fanout) Publish(ctx context.Context, ev Event) {
	for _, p := range f {
		if p != nil {
			p.Publish(ctx, ev)
		}
	}
}
