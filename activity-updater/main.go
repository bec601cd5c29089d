package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"taskboard/activity-updater/domain"
	"taskboard/activity-updater/storage"
)

func main() {
	logger := log.New()
	if dbg, err := strconv.ParseBool(os.Getenv("DEBUG")); err == nil && dbg {
		logger.SetLevel(log.DebugLevel)
	}
	logger.Info("activity updater starting")

	connStr := os.Getenv("STORAGE_CONNECTION_STRING")
	eventsQueue := os.Getenv("EVENTS_QUEUE")
	activityTable := os.Getenv("ACTIVITY_TABLE")
	if connStr == "" || eventsQueue == "" || activityTable == "" {
		logger.Fatal("missing storage config")
	}
	st, err := storage.New(connStr, eventsQueue, activityTable)
	if err != nil {
		logger.Fatalf("storage: %v", err)
	}

	cfg := pollConfig{batch: 16, idle: time.Second, retryInitial: time.Second, retryMax: 10 * time.Second}
	if v := os.Getenv("DEQUEUE_BATCH"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 32 {
			logger.Fatalf("invalid DEQUEUE_BATCH: %q", v)
		}
		cfg.batch = int32(n)
	}
	if v := os.Getenv("POLL_INTERVAL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			logger.Fatalf("invalid POLL_INTERVAL: %q", v)
		}
		cfg.idle = d
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	run(ctx, logger, domain.NewProjector(st, logger), st, cfg)
	logger.Info("activity updater stopped")
}
