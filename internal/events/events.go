// Package events defines the board change notifications shared by the
// task service, the stream service and the activity updater.
package events

import (
	"encoding/json"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
)

const (
	TaskCreated        = "task-created"
	TaskUpdated        = "task-updated"
	TaskMoved          = "task-moved"
	TaskDeleted        = "task-deleted"
	ChecklistCreated   = "checklist-item-created"
	ChecklistUpdated   = "checklist-item-updated"
	ChecklistDeleted   = "checklist-item-deleted"
	ChecklistReordered = "checklist-reordered"
	ProjectCreated     = "project-created"
	ProjectUpdated     = "project-updated"
	ProjectDeleted     = "project-deleted"
	ProjectsReordered  = "projects-reordered"
)

// DefaultChannel is the Redis channel board events are published on.
const DefaultChannel = "board-events"

// Event represents a committed change to a board.
type Event struct {
	ID         string          `json:"Id"`
	EntityID   string          `json:"EntityId"`
	EntityType string          `json:"EntityType"`
	Type       string          `json:"Type"`
	Data       json.RawMessage `json:"Data"`
	Time       int64           `json:"Time"`
	UserID     string          `json:"UserId"`
}

// Location is where an item sat before or after a change.
type Location struct {
	Container string `json:"container"`
	Status    string `json:"status,omitempty"`
	Position  int    `json:"position"`
}

// ChangeData is the payload carried by every board event.
type ChangeData struct {
	ProjectID string    `json:"projectId,omitempty"`
	TaskID    string    `json:"taskId,omitempty"`
	Title     string    `json:"title,omitempty"`
	From      *Location `json:"from,omitempty"`
	To        *Location `json:"to,omitempty"`
	Shifted   int       `json:"shifted"`
}

// New builds an event stamped with a fresh id and the current time.
func New(eventType, entityType, entityID, userID string, data ChangeData) (Event, error) {
	raw, err := sonic.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{
		ID:         uuid.NewString(),
		EntityID:   entityID,
		EntityType: entityType,
		Type:       eventType,
		Data:       raw,
		Time:       time.Now().UnixMilli(),
		UserID:     userID,
	}, nil
}

// Decode parses an encoded event.
func Decode(b []byte) (Event, error) {
	var ev Event
	err := sonic.Unmarshal(b, &ev)
	return ev, err
}

// Encode serializes ev for the wire.
func Encode(ev Event) ([]byte, error) {
	return sonic.Marshal(ev)
}

// Change decodes the event payload.
func (e Event) Change() (ChangeData, error) {
	var d ChangeData
	if len(e.Data) == 0 {
		return d, nil
	}
	err := sonic.Unmarshal(e.Data, &d)
	return d, err
}
