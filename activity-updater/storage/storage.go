package storage

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/data/aztables"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"

	"taskboard/activity-updater/domain"
	"taskboard/internal/activity"
	"taskboard/internal/events"
)

// visibilityTimeout hides a dequeued message from other readers while it is
// being applied. Messages that are not deleted reappear afterwards.
const visibilityTimeout int32 = 60

// Storage wraps the Azure clients used by the service.
type Storage struct {
	queue *azqueue.QueueClient
	table *aztables.Client
}

// New creates a Storage from connection parameters.
func New(connStr, eventsQueue, activityTable string) (*Storage, error) {
	queue, err := azqueue.NewQueueClientFromConnectionString(connStr, eventsQueue, events.QueueClientOptions())
	if err != nil {
		return nil, err
	}
	svc, err := aztables.NewServiceClientFromConnectionString(connStr, activity.TableClientOptions())
	if err != nil {
		return nil, err
	}
	return &Storage{queue: queue, table: svc.NewClient(activityTable)}, nil
}

// Dequeue retrieves up to n messages from the events queue.
func (s *Storage) Dequeue(ctx context.Context, n int32) ([]*azqueue.DequeuedMessage, error) {
	vt := visibilityTimeout
	resp, err := s.queue.DequeueMessages(ctx, &azqueue.DequeueMessagesOptions{
		NumberOfMessages:  &n,
		VisibilityTimeout: &vt,
	})
	if err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// Delete removes a processed message from the queue.
func (s *Storage) Delete(ctx context.Context, id, receipt string) error {
	_, err := s.queue.DeleteMessage(ctx, id, receipt, nil)
	return err
}

// InsertEntry adds an activity row. An existing row with the same keys is
// reported as domain.ErrDuplicate.
func (s *Storage) InsertEntry(ctx context.Context, ent activity.Entry) error {
	payload, err := json.Marshal(ent)
	if err != nil {
		return err
	}
	_, err = s.table.AddEntity(ctx, payload, nil)
	if isConflict(err) {
		return domain.ErrDuplicate
	}
	return err
}

func isConflict(err error) bool {
	var respErr *azcore.ResponseError
	return errors.As(err, &respErr) && respErr.StatusCode == http.StatusConflict
}
