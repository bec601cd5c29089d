package subscription

import (
	"context"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"taskboard/internal/events"
	"taskboard/stream-service/domain"
)

// reconnectDelay is the pause before resubscribing after the pub/sub
// channel closes.
var reconnectDelay = time.Second

// SubscribeUpdates listens for board events and broadcasts them to the
// owner's clients. It resubscribes until ctx is done.
func SubscribeUpdates(
	ctx context.Context,
	logger *log.Logger,
	rc *redis.Client,
	channel string,
	broadcast func(userID string, data []byte),
) {
	if channel == "" {
		channel = events.DefaultChannel
	}
	for {
		sub := rc.Subscribe(ctx, channel)
		consume(ctx, logger, sub.Channel(), channel, broadcast)
		_ = sub.Close()
		if ctx.Err() != nil {
			return
		}
		logger.WithField("channel", channel).Error("pubsub channel closed, reconnecting")
		select {
		case <-ctx.Done():
			return
		case <-time.After(reconnectDelay):
		}
	}
}

func consume(ctx context.Context, logger *log.Logger, ch <-chan *redis.Message, channel string, broadcast func(string, []byte)) {
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			ev, err := events.Decode([]byte(msg.Payload))
			if err != nil {
				logger.WithError(err).Error("unable to parse update")
				continue
			}
			if ev.UserID == "" {
				logger.WithField("event", ev.ID).Warn("event without user, ignoring it")
				continue
			}
			update, err := domain.FromEvent(ev)
			if err != nil {
				logger.WithError(err).WithFields(log.Fields{
					"channel": channel,
					"type":    ev.Type,
				}).Warn("ignoring event")
				continue
			}
			data, err := sonic.Marshal(update)
			if err != nil {
				logger.WithError(err).Error("marshal update")
				continue
			}
			broadcast(ev.UserID, data)
		}
	}
}
