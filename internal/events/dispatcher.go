package events

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
)

// Sender delivers one event to durable storage.
type Sender interface {
	Send(ctx context.Context, ev Event) error
}

// DispatcherConfig sizes the worker pool of a Dispatcher.
type DispatcherConfig struct {
	Workers        int
	Buffer         int
	Timeout        time.Duration
	HandoffTimeout time.Duration
}

func (c DispatcherConfig) withDefaults() DispatcherConfig {
	if c.Workers <= 0 {
		c.Workers = 4
	}
	if c.Buffer < 0 {
		c.Buffer = 0
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.HandoffTimeout < 0 {
		c.HandoffTimeout = 0
	}
	return c
}

// Dispatcher hands events to a bounded pool of workers that forward them to
// a Sender. When the buffer stays full for longer than the handoff timeout
// the event is sent inline by the caller instead.
type Dispatcher struct {
	sender Sender
	cfg    DispatcherConfig
	jobs   chan Event
	log    *log.Logger
	wg     sync.WaitGroup
	once   sync.Once
}

func NewDispatcher(sender Sender, cfg DispatcherConfig, logger *log.Logger) *Dispatcher {
	if logger == nil {
		logger = log.StandardLogger()
	}
	cfg = cfg.withDefaults()
	d := &Dispatcher{
		sender: sender,
		cfg:    cfg,
		jobs:   make(chan Event, cfg.Buffer),
		log:    logger,
	}
	for i := 0; i < cfg.Workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	logger.Infof("event dispatcher started, workers: %d, buffer: %d, timeout: %v, handoff: %v",
		cfg.Workers, cfg.Buffer, cfg.Timeout, cfg.HandoffTimeout)
	return d
}

// Publish queues ev for delivery. It never blocks longer than the handoff
// timeout plus one inline send.
func (d *Dispatcher) Publish(ctx context.Context, ev Event) {
	if d.tryHandoff(ev) {
		return
	}
	d.log.WithFields(log.Fields{"event": ev.ID, "type": ev.Type}).Warn("event dispatcher saturated, sending inline")
	d.send(context.WithoutCancel(ctx), -1, ev)
}

// Close stops accepting events and waits until the buffered ones are sent.
func (d *Dispatcher) Close() {
	d.once.Do(func() {
		close(d.jobs)
	})
	d.wg.Wait()
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for ev := range d.jobs {
		d.send(context.Background(), id, ev)
	}
}

func (d *Dispatcher) send(parent context.Context, worker int, ev Event) {
	ctx, cancel := context.WithTimeout(parent, d.cfg.Timeout)
	err := d.sender.Send(ctx, ev)
	cancel()
	if err != nil {
		d.log.WithFields(log.Fields{
			"event":  ev.ID,
			"type":   ev.Type,
			"user":   ev.UserID,
			"worker": worker,
		}).WithError(err).Error("event delivery failed")
	}
}

func (d *Dispatcher) tryHandoff(ev Event) bool {
	if ok, closed := trySendNonBlocking(d.jobs, ev); closed {
		return false
	} else if ok {
		return true
	}

	if d.cfg.HandoffTimeout <= 0 {
		return false
	}

	timer := time.NewTimer(d.cfg.HandoffTimeout)
	defer timer.Stop()

	ok, closed := sendWithTimer(d.jobs, ev, timer.C)
	if closed {
		return false
	}
	return ok
}

func trySendNonBlocking(ch chan Event, ev Event) (ok bool, closed bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			closed = true
		}
	}()

	select {
	case ch <- ev:
		return true, false
	default:
		return false, false
	}
}

func sendWithTimer(ch chan Event, ev Event, timer <-chan time.Time) (ok bool, closed bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
			closed = true
		}
	}()

	select {
	case ch <- ev:
		return true, false
	case <-timer:
		return false, false
	}
}
