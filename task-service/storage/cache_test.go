package storage

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"taskboard/task-service/domain"
)

type stubReader struct {
	listTasksFn    func(ctx context.Context, ownerID, projectID string, filter domain.TaskFilter) ([]domain.Task, error)
	listProjectsFn func(ctx context.Context, ownerID string) ([]domain.ProjectSummary, error)
	getTaskFn      func(ctx context.Context, ownerID, taskID string) (domain.Task, error)
}

func (s *stubReader) ListTasks(ctx context.Context, ownerID, projectID string, filter domain.TaskFilter) ([]domain.Task, error) {
	if s.listTasksFn == nil {
		return nil, errors.New("unexpected ListTasks call")
	}
	return s.listTasksFn(ctx, ownerID, projectID, filter)
}

func (s *stubReader) ListProjects(ctx context.Context, ownerID string) ([]domain.ProjectSummary, error) {
	if s.listProjectsFn == nil {
		return nil, errors.New("unexpected ListProjects call")
	}
	return s.listProjectsFn(ctx, ownerID)
}

func (s *stubReader) GetTask(ctx context.Context, ownerID, taskID string) (domain.Task, error) {
	if s.getTaskFn == nil {
		return domain.Task{}, domain.ErrNotFound
	}
	return s.getTaskFn(ctx, ownerID, taskID)
}

func (s *stubReader) CountByStatus(ctx context.Context, ownerID, projectID string) (domain.StatusCounts, error) {
	return domain.StatusCounts{}, errors.New("unexpected CountByStatus call")
}

func (s *stubReader) GetProject(ctx context.Context, ownerID, projectID string) (domain.ProjectSummary, error) {
	return domain.ProjectSummary{}, errors.New("unexpected GetProject call")
}

func (s *stubReader) ListChecklist(ctx context.Context, ownerID, taskID string) ([]domain.ChecklistItem, error) {
	return nil, errors.New("unexpected ListChecklist call")
}

func (s *stubReader) GetChecklistItem(ctx context.Context, ownerID, itemID string) (domain.ChecklistItem, error) {
	return domain.ChecklistItem{}, errors.New("unexpected GetChecklistItem call")
}

func newMiniredis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestCacheListTasksMissThenHit(t *testing.T) {
	mr, client := newMiniredis(t)
	ctx := context.Background()
	expected := []domain.Task{{ID: "t1", Title: "Write code", Status: domain.StatusTodo, Position: 0}}

	var calls int
	cache := NewCache(&stubReader{
		listTasksFn: func(ctx context.Context, ownerID, projectID string, filter domain.TaskFilter) ([]domain.Task, error) {
			calls++
			if ownerID != "user-1" || projectID != "p1" {
				t.Fatalf("unexpected args %s %s", ownerID, projectID)
			}
			return append([]domain.Task(nil), expected...), nil
		},
	}, client, time.Minute)

	for i := 0; i < 2; i++ {
		tasks, err := cache.ListTasks(ctx, "user-1", "p1", domain.TaskFilter{})
		if err != nil {
			t.Fatalf("list tasks: %v", err)
		}
		if len(tasks) != 1 || tasks[0].ID != "t1" || tasks[0].Title != "Write code" {
			t.Fatalf("unexpected tasks: %#v", tasks)
		}
	}
	if calls != 1 {
		t.Fatalf("expected 1 call to backend, got %d", calls)
	}
	if ttl := mr.TTL(cacheKey("user-1")); ttl <= 0 || ttl > time.Minute {
		t.Fatalf("unexpected TTL: %v", ttl)
	}
}

func TestCacheSeparatesFilters(t *testing.T) {
	_, client := newMiniredis(t)
	ctx := context.Background()
	var calls int
	cache := NewCache(&stubReader{
		listTasksFn: func(ctx context.Context, ownerID, projectID string, filter domain.TaskFilter) ([]domain.Task, error) {
			calls++
			return []domain.Task{{ID: string(filter.Status)}}, nil
		},
	}, client, time.Minute)

	todo, _ := cache.ListTasks(ctx, "u", "p", domain.TaskFilter{Status: domain.StatusTodo})
	done, _ := cache.ListTasks(ctx, "u", "p", domain.TaskFilter{Status: domain.StatusDone})
	if calls != 2 || todo[0].ID != "todo" || done[0].ID != "done" {
		t.Fatalf("filters share a cache entry: calls=%d todo=%v done=%v", calls, todo, done)
	}
}

func TestCacheEvictDropsOwnerEntries(t *testing.T) {
	mr, client := newMiniredis(t)
	ctx := context.Background()
	var calls int
	cache := NewCache(&stubReader{
		listProjectsFn: func(ctx context.Context, ownerID string) ([]domain.ProjectSummary, error) {
			calls++
			return []domain.ProjectSummary{{Project: domain.Project{ID: "p", Name: "Home"}}}, nil
		},
	}, client, time.Minute)

	if _, err := cache.ListProjects(ctx, "user-1"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if !mr.Exists(cacheKey("user-1")) {
		t.Fatalf("expected cached entry")
	}
	if err := cache.Evict(ctx, "user-1"); err != nil {
		t.Fatalf("evict: %v", err)
	}
	if mr.Exists(cacheKey("user-1")) {
		t.Fatalf("expected entry to be evicted")
	}
	if _, err := cache.ListProjects(ctx, "user-1"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected reload after eviction, got %d calls", calls)
	}
}

func TestCacheDoesNotStoreErrors(t *testing.T) {
	mr, client := newMiniredis(t)
	cache := NewCache(&stubReader{}, client, time.Minute)

	if _, err := cache.GetTask(context.Background(), "user-1", "t1"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if mr.Exists(cacheKey("user-1")) {
		t.Fatalf("errors must not be cached")
	}
}

func TestCacheIgnoresCorruptEntries(t *testing.T) {
	mr, client := newMiniredis(t)
	mr.HSet(cacheKey("user-1"), "projects", "{not json")
	want := []domain.ProjectSummary{{Project: domain.Project{ID: "p"}}}
	cache := NewCache(&stubReader{
		listProjectsFn: func(ctx context.Context, ownerID string) ([]domain.ProjectSummary, error) {
			return want, nil
		},
	}, client, time.Minute)

	got, err := cache.ListProjects(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected projects %#v", got)
	}
}

func TestCacheZeroTTLDisablesStores(t *testing.T) {
	mr, client := newMiniredis(t)
	cache := NewCache(&stubReader{
		listProjectsFn: func(ctx context.Context, ownerID string) ([]domain.ProjectSummary, error) {
			return nil, nil
		},
	}, client, 0)
	if _, err := cache.ListProjects(context.Background(), "user-1"); err != nil {
		t.Fatalf("list: %v", err)
	}
	if mr.Exists(cacheKey("user-1")) {
		t.Fatalf("zero TTL should skip caching")
	}
}

func TestCacheSkipsWriteBackOfLoadOlderThanEviction(t *testing.T) {
	mr, client := newMiniredis(t)
	ctx := context.Background()

	var (
		mu        sync.Mutex
		committed = 2
	)
	loading := make(chan struct{})
	release := make(chan struct{})
	first := true
	cache := NewCache(&stubReader{
		getTaskFn: func(ctx context.Context, ownerID, taskID string) (domain.Task, error) {
			mu.Lock()
			pos, block := committed, first
			first = false
			mu.Unlock()
			if block {
				close(loading)
				<-release
			}
			return domain.Task{ID: taskID, Position: pos}, nil
		},
	}, client, time.Minute)

	stale := make(chan domain.Task, 1)
	go func() {
		task, _ := cache.GetTask(ctx, "user-1", "t1")
		stale <- task
	}()
	<-loading

	// a move commits position 0 and evicts while the read above is in flight
	mu.Lock()
	committed = 0
	mu.Unlock()
	if err := cache.Evict(ctx, "user-1"); err != nil {
		t.Fatalf("evict: %v", err)
	}
	close(release)
	if task := <-stale; task.Position != 2 {
		t.Fatalf("expected the in-flight read to see position 2, got %d", task.Position)
	}
	if mr.Exists(cacheKey("user-1")) {
		t.Fatalf("load older than the eviction was written back")
	}

	task, err := cache.GetTask(ctx, "user-1", "t1")
	if err != nil {
		t.Fatalf("get task: %v", err)
	}
	if task.Position != 0 {
		t.Fatalf("read after commit and eviction returned position %d, want 0", task.Position)
	}
	if !mr.Exists(cacheKey("user-1")) {
		t.Fatalf("expected a fresh load to be cached")
	}
}

func TestCacheEvictBumpsGeneration(t *testing.T) {
	mr, client := newMiniredis(t)
	cache := NewCache(&stubReader{}, client, time.Minute)
	for i := 0; i < 2; i++ {
		if err := cache.Evict(context.Background(), "user-1"); err != nil {
			t.Fatalf("evict: %v", err)
		}
	}
	if got, _ := mr.Get(generationKey("user-1")); got != "2" {
		t.Fatalf("expected generation 2, got %q", got)
	}
	if ttl := mr.TTL(generationKey("user-1")); ttl < time.Hour {
		t.Fatalf("generation must outlive cached entries, ttl %v", ttl)
	}
}
