// Package activity maps board events to rows of the activity table.
package activity

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"taskboard/internal/events"
)

const EdmInt64 = "Edm.Int64"

// Entry is one row of the activity table. Rows of a user share a partition
// and sort newest first by RowKey.
type Entry struct {
	PartitionKey       string `json:"PartitionKey"`
	RowKey             string `json:"RowKey"`
	EventID            string `json:"EventId"`
	EventType          string `json:"EventType"`
	EntityType         string `json:"EntityType"`
	EntityID           string `json:"EntityId"`
	ProjectID          string `json:"ProjectId,omitempty"`
	TaskID             string `json:"TaskId,omitempty"`
	Title              string `json:"Title,omitempty"`
	FromContainer      string `json:"FromContainer,omitempty"`
	FromPosition       *int   `json:"FromPosition,omitempty"`
	ToContainer        string `json:"ToContainer,omitempty"`
	ToPosition         *int   `json:"ToPosition,omitempty"`
	Shifted            int    `json:"Shifted"`
	EventTimestamp     int64  `json:"EventTimestamp,string"`
	EventTimestampType string `json:"EventTimestamp@odata.type"`
}

// Item is the API shape of an Entry.
type Item struct {
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

var errIncompleteEvent = errors.New("event is missing its id or user")

// NewEntry builds the activity row recorded for ev.
func NewEntry(ev events.Event) (Entry, error) {
	if ev.ID == "" || ev.UserID == "" {
		return Entry{}, errIncompleteEvent
	}
	change, err := ev.Change()
	if err != nil {
		return Entry{}, fmt.Errorf("decode %s payload: %w", ev.Type, err)
	}
	e := Entry{
		PartitionKey:       ev.UserID,
		RowKey:             RowKey(ev.Time, ev.ID),
		EventID:            ev.ID,
		EventType:          ev.Type,
		EntityType:         ev.EntityType,
		EntityID:           ev.EntityID,
		ProjectID:          change.ProjectID,
		TaskID:             change.TaskID,
		Title:              change.Title,
		Shifted:            change.Shifted,
		EventTimestamp:     ev.Time,
		EventTimestampType: EdmInt64,
	}
	if change.From != nil {
		pos := change.From.Position
		e.FromContainer = change.From.Container
		e.FromPosition = &pos
	}
	if change.To != nil {
		pos := change.To.Position
		e.ToContainer = change.To.Container
		e.ToPosition = &pos
	}
	return e, nil
}

// Item converts the row to its API shape.
func (e Entry) Item() Item {
	it := Item{
		ID:         e.EventID,
		Type:       e.EventType,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		ProjectID:  e.ProjectID,
		TaskID:     e.TaskID,
		Title:      e.Title,
		Shifted:    e.Shifted,
		Time:       e.EventTimestamp,
	}
	if e.FromPosition != nil {
		it.From = toLocation(e.FromContainer, *e.FromPosition)
	}
	if e.ToPosition != nil {
		it.To = toLocation(e.ToContainer, *e.ToPosition)
	}
	return it
}

// toLocation reads the status back out of a "task:<project>:<status>" container.
func toLocation(container string, pos int) *events.Location {
	loc := &events.Location{Container: container, Position: pos}
	if parts := strings.Split(container, ":"); len(parts) == 3 && parts[0] == "task" {
		loc.Status = parts[2]
	}
	return loc
}

// RowKey orders rows newest first; the event id keeps replays of the same
// event on the same key.
func RowKey(unixMilli int64, eventID string) string {
	return fmt.Sprintf("%019d_%s", math.MaxInt64-unixMilli, eventID)
}

// PartitionFilter is the table query selecting every row of userID.
func PartitionFilter(userID string) string {
	return "PartitionKey eq '" + strings.ReplaceAll(userID, "'", "''") + "'"
}
