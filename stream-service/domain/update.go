package domain

import (
	"errors"
	"fmt"

	"taskboard/internal/events"
)

var ErrUnknownEntity = errors.New("unknown entity type")

// Update is the payload pushed to stream clients for one board event.
type Update struct {
	ID         string           `json:"id"`
	Type       string           `json:"type"`
	EntityType string           `json:"entityType"`
	EntityID   string           `json:"entityId"`
	ProjectID  string           `json:"projectId,omitempty"`
	TaskID     string           `json:"taskId,omitempty"`
	Title      string           `json:"title,omitempty"`
	From       *events.Location `json:"from,omitempty"`
	To         *events.Location `json:"to,omitempty"`
	Shifted    int              `json:"shifted"`
	Time       int64            `json:"time"`
}

// FromEvent converts a board event into a client update.
func FromEvent(ev events.Event) (Update, error) {
	switch ev.EntityType {
	case "task", "checklist", "project":
	default:
		return Update{}, fmt.Errorf("%w %q", ErrUnknownEntity, ev.EntityType)
	}
	change, err := ev.Change()
	if err != nil {
		return Update{}, fmt.Errorf("parse %s payload: %w", ev.Type, err)
	}
	return Update{
		ID:         ev.ID,
		Type:       ev.Type,
		EntityType: ev.EntityType,
		EntityID:   ev.EntityID,
		ProjectID:  change.ProjectID,
		TaskID:     change.TaskID,
		Title:      change.Title,
		From:       change.From,
		To:         change.To,
		Shifted:    change.Shifted,
		Time:       ev.Time,
	}, nil
}
