package main

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	log "github.com/sirupsen/logrus"

	"taskboard/activity-updater/domain"
	"taskboard/internal/events"
)

type eventApplier interface {
	Apply(ctx context.Context, ev events.Event) error
}

type eventQueue interface {
	Dequeue(ctx context.Context, n int32) ([]*azqueue.DequeuedMessage, error)
	Delete(ctx context.Context, id, receipt string) error
}

type pollConfig struct {
	batch        int32
	idle         time.Duration
	retryInitial time.Duration
	retryMax     time.Duration
}

// processMessage applies one queued event. The message is deleted once the
// event is recorded or found to be unprocessable; other failures leave it on
// the queue for redelivery.
func processMessage(ctx context.Context, logger *log.Logger, h eventApplier, q eventQueue, msg *azqueue.DequeuedMessage) error {
	if msg == nil || msg.MessageID == nil || msg.PopReceipt == nil {
		return nil
	}
	fields := log.Fields{"message": *msg.MessageID}
	if msg.DequeueCount != nil {
		fields["dequeue_count"] = *msg.DequeueCount
	}
	var text string
	if msg.MessageText != nil {
		text = *msg.MessageText
	}
	ev, err := events.Decode([]byte(text))
	if err == nil {
		fields["event"] = ev.ID
		fields["type"] = ev.Type
		err = h.Apply(ctx, ev)
	} else {
		err = errors.Join(domain.ErrPoison, err)
	}
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrPoison):
		logger.WithFields(fields).WithError(err).Error("dropping unprocessable event")
	default:
		logger.WithFields(fields).WithError(err).Warn("apply failed, message will be retried")
		return err
	}
	if err := q.Delete(ctx, *msg.MessageID, *msg.PopReceipt); err != nil {
		logger.WithFields(fields).WithError(err).Error("delete message")
		return err
	}
	return nil
}

// run polls the queue until ctx is done. Empty polls wait cfg.idle; queue
// errors back off exponentially.
func run(ctx context.Context, logger *log.Logger, h eventApplier, q eventQueue, cfg pollConfig) {
	attempt := 0
	for {
		msgs, err := q.Dequeue(ctx, cfg.batch)
		var wait time.Duration
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return
			}
			attempt++
			wait = exponentialBackoff(attempt, cfg.retryInitial, cfg.retryMax)
			logger.WithError(err).WithField("retry_in", wait.String()).Error("receive")
		case len(msgs) == 0:
			attempt = 0
			wait = cfg.idle
		default:
			attempt = 0
			for _, msg := range msgs {
				_ = processMessage(ctx, logger, h, q, msg)
			}
		}
		if wait == 0 {
			if ctx.Err() != nil {
				return
			}
			continue
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func exponentialBackoff(attempt int, initial, max time.Duration) time.Duration {
	if initial <= 0 {
		initial = time.Second
	}
	if attempt <= 0 {
		return initial
	}
	if max <= 0 {
		max = 10 * time.Second
	}
	backoff := float64(initial) * math.Pow(2, float64(attempt-1))
	if backoff > float64(max) {
		backoff = float64(max)
	}
	jitter := 0.2 * backoff
	return time.Duration(backoff + (rand.Float64()-0.5)*2*jitter)
}
