package scenarios

import (
	"fmt"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"taskboard/tests/internal/httpclient"
	testutil "taskboard/tests/utils"
)

type project struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

type task struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Status   string `json:"status"`
	Position int    `json:"position"`
}

type column struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
	Tasks  []task `json:"tasks"`
}

type boardView struct {
	Columns []column `json:"columns"`
}

type activityItem struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	EntityID string `json:"entityId"`
}

// newClient returns a client for a fresh user so scenarios never share boards.
func newClient(t *testing.T) *httpclient.Client {
	t.Helper()
	base := os.Getenv("API_BASE")
	if base == "" {
		base = "http://localhost:8080"
	}
	if _, err := http.Get(base + "/healthz"); err != nil {
		t.Skipf("skipping, API not reachable: %v", err)
	}
	tok, err := testutil.TestToken("it-" + uuid.NewString())
	if err != nil {
		t.Skipf("skipping, cannot sign token: %v", err)
	}
	return httpclient.New(base, tok)
}

func expectStatus(t *testing.T, resp *http.Response, err error, want int) {
	t.Helper()
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	if resp.StatusCode != want {
		t.Fatalf("want status %d, got %d", want, resp.StatusCode)
	}
}

func createProject(t *testing.T, c *httpclient.Client, name string) project {
	t.Helper()
	var p project
	resp, err := c.PostJSON("/api/projects", map[string]any{"name": name}, &p)
	expectStatus(t, resp, err, http.StatusCreated)
	return p
}

func createTasks(t *testing.T, c *httpclient.Client, projectID, status string, n int) []task {
	t.Helper()
	out := make([]task, n)
	for i := range out {
		resp, err := c.PostJSON("/api/tasks/project/"+projectID, map[string]any{
			"title":  fmt.Sprintf("%s %d", status, i),
			"status": status,
		}, &out[i])
		expectStatus(t, resp, err, http.StatusCreated)
	}
	return out
}

func loadBoard(t *testing.T, c *httpclient.Client, projectID string) map[string][]task {
	t.Helper()
	var view boardView
	resp, err := c.GetJSON("/api/tasks/project/"+projectID+"/board", &view)
	expectStatus(t, resp, err, http.StatusOK)
	out := make(map[string][]task, len(view.Columns))
	for _, col := range view.Columns {
		out[col.Status] = col.Tasks
	}
	return out
}

// assertDense fails unless every column holds positions 0..n-1 in order.
func assertDense(t *testing.T, board map[string][]task) {
	t.Helper()
	for status, tasks := range board {
		for i, tk := range tasks {
			if tk.Position != i {
				t.Fatalf("column %s not dense: task %s at %d, want %d", status, tk.ID, tk.Position, i)
			}
		}
	}
}

func ids(tasks []task) []string {
	out := make([]string, len(tasks))
	for i, tk := range tasks {
		out[i] = tk.ID
	}
	return out
}

func activitySLA() time.Duration {
	if v := os.Getenv("ACTIVITY_SLA"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			return d
		}
	}
	return 15 * time.Second
}
