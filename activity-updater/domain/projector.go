package domain

import (
	"context"
	"errors"
	"fmt"

	log "github.com/sirupsen/logrus"

	"taskboard/internal/activity"
	"taskboard/internal/events"
)

var (
	// ErrDuplicate is returned by Storage when the entry already exists.
	ErrDuplicate = errors.New("activity entry already exists")
	// ErrPoison marks events that can never be applied.
	ErrPoison = errors.New("unprocessable event")
)

// Storage persists activity entries.
type Storage interface {
	InsertEntry(ctx context.Context, ent activity.Entry) error
}

// Projector turns board events into activity log entries.
type Projector struct {
	st  Storage
	log *log.Logger
}

func NewProjector(st Storage, logger *log.Logger) Projector {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return Projector{st: st, log: logger}
}

// Apply records ev. Replays of an already recorded event are not an error.
func (p Projector) Apply(ctx context.Context, ev events.Event) error {
	ent, err := activity.NewEntry(ev)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrPoison, err)
	}
	if err := p.st.InsertEntry(ctx, ent); err != nil {
		if errors.Is(err, ErrDuplicate) {
			p.log.WithFields(log.Fields{"event": ev.ID, "type": ev.Type}).Debug("event already recorded")
			return nil
		}
		return err
	}
	return nil
}
