package events

import (
	"context"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
)

// QueueClientOptions are the retry settings shared by every queue client of
// the board services.
func QueueClientOptions() *azqueue.ClientOptions {
	return &azqueue.ClientOptions{
		ClientOptions: azcore.ClientOptions{
			Retry: policy.RetryOptions{
				MaxRetries:    5,
				TryTimeout:    time.Minute * 5,
				RetryDelay:    time.Second * 1,
				MaxRetryDelay: time.Second * 60,
				StatusCodes:   []int{408, 429, 500, 502, 503, 504},
			},
		},
	}
}

// QueueSender writes events to an Azure storage queue.
type QueueSender struct {
	queue *azqueue.QueueClient
}

// NewQueueSender connects to queueName using an Azure storage connection string.
func NewQueueSender(connStr, queueName string) (*QueueSender, error) {
	q, err := azqueue.NewQueueClientFromConnectionString(connStr, queueName, QueueClientOptions())
	if err != nil {
		return nil, err
	}
	return &QueueSender{queue: q}, nil
}

// Send enqueues ev as one JSON message.
func (s *QueueSender) Send(ctx context.Context, ev Event) error {
	data, err := Encode(ev)
	if err != nil {
		return err
	}
	_, err = s.queue.EnqueueMessage(ctx, string(data), nil)
	return err
}
