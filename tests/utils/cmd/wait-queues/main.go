package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azqueue"
	log "github.com/sirupsen/logrus"

	"taskboard/internal/events"
)

type queueList []string

func (q *queueList) String() string {
	if q == nil {
		return ""
	}
	return strings.Join(*q, ",")
}

func (q *queueList) Set(value string) error {
	if value == "" {
		return errors.New("queue name cannot be empty")
	}
	*q = append(*q, value)
	return nil
}

type queueProps interface {
	GetProperties(ctx context.Context, o *azqueue.GetQueuePropertiesOptions) (azqueue.GetQueuePropertiesResponse, error)
}

// pollQueues returns once every queue reported zero pending messages on
// stableRequired consecutive polls.
func pollQueues(ctx context.Context, interval time.Duration, stableRequired int, clients map[string]queueProps) error {
	if stableRequired < 1 {
		stableRequired = 1
	}
	stableCounts := make(map[string]int, len(clients))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Infof("waiting for %d queue(s) to drain", len(clients))

	checkOnce := func() (bool, error) {
		allStable := true
		for name, client := range clients {
			resp, err := client.GetProperties(ctx, nil)
			if err != nil {
				return false, fmt.Errorf("failed to get properties for %s: %w", name, err)
			}
			count := int32(0)
			if resp.ApproximateMessagesCount != nil {
				count = *resp.ApproximateMessagesCount
			}
			if count > 0 {
				log.WithField("queue", name).Infof("%d pending message(s)", count)
				stableCounts[name] = 0
				allStable = false
				continue
			}
			stableCounts[name]++
			if stableCounts[name] < stableRequired {
				allStable = false
			}
		}
		return allStable, nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		done, err := checkOnce()
		if err != nil {
			return err
		}
		if done {
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func main() {
	log.SetOutput(os.Stderr)
	var (
		connStr        string
		timeout        time.Duration
		interval       time.Duration
		stableRequired int
		queues         queueList
	)
	flag.StringVar(&connStr, "connection-string", os.Getenv("STORAGE_CONNECTION_STRING"), "Azure Storage connection string")
	flag.DurationVar(&timeout, "timeout", 2*time.Minute, "maximum time to wait for queues to drain")
	flag.DurationVar(&interval, "interval", 2*time.Second, "polling interval")
	flag.IntVar(&stableRequired, "stable", 3, "number of consecutive empty polls required per queue")
	flag.Var(&queues, "queue", "queue name to monitor (repeatable, defaults to $EVENTS_QUEUE)")
	flag.Parse()

	if connStr == "" {
		log.Fatal("connection-string is required")
	}
	if len(queues) == 0 {
		name := os.Getenv("EVENTS_QUEUE")
		if name == "" {
			log.Fatal("at least one queue must be specified")
		}
		queues = append(queues, name)
	}

	clients := make(map[string]queueProps, len(queues))
	for _, name := range queues {
		client, err := azqueue.NewQueueClientFromConnectionString(connStr, name, events.QueueClientOptions())
		if err != nil {
			log.WithError(err).Fatalf("failed to create client for %s", name)
		}
		clients[name] = client
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := pollQueues(ctx, interval, stableRequired, clients); err != nil {
		log.WithError(err).Fatal("queue wait failed")
	}

	log.Info("all queues drained")
}
