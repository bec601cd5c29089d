package storage

import (
	"context"
	"errors"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"taskboard/task-service/board"
	"taskboard/task-service/domain"
)

// Cache wraps a board.Reader with Redis-backed read-through caching. All
// entries of one owner live in a single hash so a write evicts them at once.
type Cache struct {
	base  board.Reader
	redis *redis.Client
	ttl   time.Duration
}

// NewCache creates a caching reader using the provided Redis client and TTL.
func NewCache(base board.Reader, client *redis.Client, ttl time.Duration) *Cache {
	if base == nil {
		panic("storage.NewCache: base reader is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	return &Cache{base: base, redis: client, ttl: ttl}
}

func (c *Cache) ListTasks(ctx context.Context, ownerID, projectID string, filter domain.TaskFilter) ([]domain.Task, error) {
	return cached(ctx, c, ownerID, "tasks:"+projectID+":"+filter.CacheKey(), func() ([]domain.Task, error) {
		return c.base.ListTasks(ctx, ownerID, projectID, filter)
	})
}

func (c *Cache) GetTask(ctx context.Context, ownerID, taskID string) (domain.Task, error) {
	return cached(ctx, c, ownerID, "task:"+taskID, func() (domain.Task, error) {
		return c.base.GetTask(ctx, ownerID, taskID)
	})
}

func (c *Cache) CountByStatus(ctx context.Context, ownerID, projectID string) (domain.StatusCounts, error) {
	return cached(ctx, c, ownerID, "counts:"+projectID, func() (domain.StatusCounts, error) {
		return c.base.CountByStatus(ctx, ownerID, projectID)
	})
}

func (c *Cache) ListProjects(ctx context.Context, ownerID string) ([]domain.ProjectSummary, error) {
	return cached(ctx, c, ownerID, "projects", func() ([]domain.ProjectSummary, error) {
		return c.base.ListProjects(ctx, ownerID)
	})
}

func (c *Cache) GetProject(ctx context.Context, ownerID, projectID string) (domain.ProjectSummary, error) {
	return cached(ctx, c, ownerID, "project:"+projectID, func() (domain.ProjectSummary, error) {
		return c.base.GetProject(ctx, ownerID, projectID)
	})
}

func (c *Cache) ListChecklist(ctx context.Context, ownerID, taskID string) ([]domain.ChecklistItem, error) {
	return cached(ctx, c, ownerID, "checklist:"+taskID, func() ([]domain.ChecklistItem, error) {
		return c.base.ListChecklist(ctx, ownerID, taskID)
	})
}

func (c *Cache) GetChecklistItem(ctx context.Context, ownerID, itemID string) (domain.ChecklistItem, error) {
	return cached(ctx, c, ownerID, "checklist-item:"+itemID, func() (domain.ChecklistItem, error) {
		return c.base.GetChecklistItem(ctx, ownerID, itemID)
	})
}

// Evict drops every cached read of ownerID and bumps the owner's generation
// so loads that started before the eviction are not written back.
func (c *Cache) Evict(ctx context.Context, ownerID string) error {
	if c.redis == nil {
		return nil
	}
	pipe := c.redis.TxPipeline()
	pipe.Incr(ctx, generationKey(ownerID))
	pipe.Expire(ctx, generationKey(ownerID), c.generationTTL())
	pipe.Del(ctx, cacheKey(ownerID))
	_, err := pipe.Exec(ctx)
	return err
}

// cached serves field from the owner's hash, falling back to load on a miss.
// Redis failures never fail the read.
func cached[T any](ctx context.Context, c *Cache, ownerID, field string, load func() (T, error)) (T, error) {
	if v, ok := lookup[T](ctx, c, ownerID, field); ok {
		return v, nil
	}
	gen, genErr := c.generation(ctx, ownerID)
	v, err := load()
	if err != nil {
		return v, err
	}
	if genErr == nil {
		c.store(ctx, ownerID, field, gen, v)
	}
	return v, nil
}

func lookup[T any](ctx context.Context, c *Cache, ownerID, field string) (T, bool) {
	var v T
	if c.redis == nil {
		return v, false
	}
	data, err := c.redis.HGet(ctx, cacheKey(ownerID), field).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			// On redis errors fall back to the database without failing.
			_ = c.redis.HDel(ctx, cacheKey(ownerID), field).Err()
		}
		return v, false
	}
	if err := sonic.Unmarshal(data, &v); err != nil {
		_ = c.redis.HDel(ctx, cacheKey(ownerID), field).Err()
		return v, false
	}
	return v, true
}

func (c *Cache) generation(ctx context.Context, ownerID string) (int64, error) {
	if c.redis == nil {
		return 0, nil
	}
	return readGeneration(ctx, c.redis, ownerID)
}

func readGeneration(ctx context.Context, r redis.Cmdable, ownerID string) (int64, error) {
	gen, err := r.Get(ctx, generationKey(ownerID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// store writes v back only while the owner's generation is still gen.
func (c *Cache) store(ctx context.Context, ownerID, field string, gen int64, v any) {
	if c.redis == nil || c.ttl == 0 {
		return
	}
	data, err := sonic.Marshal(v)
	if err != nil {
		return
	}
	key := cacheKey(ownerID)
	_ = c.redis.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx, ownerID)
		if err != nil || current != gen {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.HSet(ctx, key, field, data)
			pipe.Expire(ctx, key, c.ttl)
			return nil
		})
		return err
	}, generationKey(ownerID))
}

// generationTTL outlives any cached entry so a counter never resets while a
// load that read it is still running.
func (c *Cache) generationTTL() time.Duration {
	if d := 4 * c.ttl; d > time.Hour {
		return d
	}
	return time.Hour
}

func cacheKey(ownerID string) string {
	return "board:" + ownerID
}

func generationKey(ownerID string) string {
	return "board-gen:" + ownerID
}
