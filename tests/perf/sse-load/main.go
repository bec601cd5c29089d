package main

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"taskboard/tests/internal/httpclient"
	testutil "taskboard/tests/utils"
)

var statuses = []string{"todo", "in_progress", "review", "done"}

func getenv(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func getenvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}

type counters struct {
	events   atomic.Uint64
	attempts atomic.Uint64
	failures atomic.Uint64
	moves    atomic.Uint64
}

// listen keeps one stream open for the user, reconnecting with backoff until
// ctx ends.
func listen(ctx context.Context, client *http.Client, streamURL, token string, c *counters) {
	backoff := time.Second
	fail := func() {
		c.failures.Add(1)
		time.Sleep(backoff)
		backoff = min(backoff*2, 5*time.Second)
	}
	for ctx.Err() == nil {
		c.attempts.Add(1)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, streamURL+"?token="+url.QueryEscape(token), nil)
		if err != nil {
			fail()
			continue
		}
		resp, err := client.Do(req)
		if err != nil || resp.StatusCode != http.StatusOK {
			if resp != nil {
				resp.Body.Close()
			}
			if ctx.Err() != nil {
				return
			}
			fail()
			continue
		}
		backoff = time.Second
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			if strings.HasPrefix(scanner.Text(), "data:") {
				c.events.Add(1)
			}
			if ctx.Err() != nil {
				resp.Body.Close()
				return
			}
		}
		resp.Body.Close()
		if ctx.Err() != nil {
			return
		}
		fail()
	}
}

// drive creates a project with one task and keeps moving it across columns
// so the user's streams have something to receive.
func drive(ctx context.Context, api *httpclient.Client, interval time.Duration, c *counters) error {
	var project struct {
		ID string `json:"id"`
	}
	if _, err := api.PostJSON("/api/projects", map[string]any{"name": "sse load"}, &project); err != nil {
		return err
	}
	var task struct {
		ID string `json:"id"`
	}
	if _, err := api.PostJSON("/api/tasks/project/"+project.ID, map[string]any{"title": "moving"}, &task); err != nil {
		return err
	}
	if project.ID == "" || task.ID == "" {
		return fmt.Errorf("setup rejected by %s", api.BaseURL)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for i := 1; ; i++ {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		resp, err := api.PatchJSON("/api/tasks/"+task.ID+"/reorder", map[string]any{"status": statuses[i%len(statuses)], "position": 0}, nil)
		if err == nil && resp.StatusCode == http.StatusOK {
			c.moves.Add(1)
		}
	}
}

func main() {
	streamURL := getenv("STREAM_URL", "http://localhost:9000/stream")
	apiBase := getenv("API_BASE", "http://localhost:8080")
	users := max(getenvInt("SSE_USERS", 10), 1)
	conns := getenvInt("SSE_CONNECTIONS", 200)
	duration := time.Duration(getenvInt("DURATION_SEC", 120)) * time.Second
	moveEvery := time.Duration(getenvInt("MOVE_INTERVAL_MS", 500)) * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), duration)
	defer cancel()

	var c counters
	client := &http.Client{}
	var wg sync.WaitGroup
	for u := range users {
		token, err := testutil.TestToken(fmt.Sprintf("sse-load-%d", u))
		if err != nil {
			log.WithError(err).Fatal("unable to sign token")
		}
		for i := u; i < conns; i += users {
			wg.Add(1)
			go func() {
				defer wg.Done()
				listen(ctx, client, streamURL, token, &c)
			}()
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := drive(ctx, httpclient.New(apiBase, token), moveEvery, &c); err != nil {
				log.WithError(err).WithField("user", u).Error("event driver stopped")
			}
		}()
	}

	go func() {
		select {
		case <-time.After(60 * time.Second):
			if c.events.Load() == 0 {
				log.Error("no events received in 60s")
				os.Exit(1)
			}
		case <-ctx.Done():
		}
	}()

	wg.Wait()
	failures := c.failures.Load()
	attempts := c.attempts.Load()
	events := c.events.Load()
	failureRate := 0.0
	if attempts > 0 {
		failureRate = float64(failures) / float64(attempts)
	}
	fmt.Printf("connections=%d users=%d duration_sec=%d moves=%d events_received=%d connection_failures=%d\n",
		conns, users, int(duration.Seconds()), c.moves.Load(), events, failures)
	if events == 0 || failureRate > 0.01 {
		os.Exit(1)
	}
}
