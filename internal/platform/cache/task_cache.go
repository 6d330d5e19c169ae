package cache

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
	"github.com/taskboard/taskboard/internal/domain"
	"github.com/taskboard/taskboard/internal/events"
	"github.com/taskboard/taskboard/internal/platform/logger"
	"github.com/taskboard/taskboard/internal/redact"
	"github.com/taskboard/taskboard/internal/store"
)

// KeyPrefix namespaces every key written by the cache.
const KeyPrefix = "taskboard:tasks:"

const generationKey = KeyPrefix + "gen"

// TaskCache wraps a store.TaskStore and caches List and Statistics results
// in Redis. Writes go straight to the wrapped store; invalidation happens
// through HandleEvent.
type TaskCache struct {
	base   store.TaskStore
	redis  redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

var (
	_ store.TaskStore     = (*TaskCache)(nil)
	_ events.EventHandler = (*TaskCache)(nil)
)

type listPayload struct {
	Total int           `json:"total"`
	Tasks []domain.Task `json:"tasks"`
}

// NewTaskCache creates a caching wrapper. A nil client or a non-positive ttl
// disables caching and every call reaches base.
func NewTaskCache(base store.TaskStore, client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *TaskCache {
	if base == nil {
		panic("cache.NewTaskCache: base store is nil")
	}
	if ttl < 0 {
		ttl = 0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskCache{
		base:   base,
		redis:  client,
		ttl:    ttl,
		logger: logger.With(slog.String("component", "task_cache")),
	}
}

func (c *TaskCache) enabled() bool {
	return c.redis != nil && c.ttl > 0
}

// List returns a cached page when one exists for the current generation.
func (c *TaskCache) List(ctx context.Context, filter store.ListFilter) ([]domain.Task, int, error) {
	filter = filter.Normalize()
	if !c.enabled() {
		return c.base.List(ctx, filter)
	}

	gen, ok := c.generation(ctx)
	if !ok {
		return c.base.List(ctx, filter)
	}
	key := listKey(gen, filter)

	var payload listPayload
	if c.load(ctx, key, &payload) {
		return payload.Tasks, payload.Total, nil
	}

	tasks, total, err := c.base.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	c.save(ctx, key, listPayload{Total: total, Tasks: tasks})
	return tasks, total, nil
}

// Statistics returns cached counters when available.
func (c *TaskCache) Statistics(ctx context.Context) (domain.Statistics, error) {
	if !c.enabled() {
		return c.base.Statistics(ctx)
	}

	gen, ok := c.generation(ctx)
	if !ok {
		return c.base.Statistics(ctx)
	}
	key := statsKey(gen)

	var stats domain.Statistics
	if c.load(ctx, key, &stats) {
		return stats, nil
	}

	stats, err := c.base.Statistics(ctx)
	if err != nil {
		return domain.Statistics{}, err
	}
	c.save(ctx, key, stats)
	return stats, nil
}

// HandleEvent bumps the generation so all cached reads become stale.
func (c *TaskCache) HandleEvent(ctx context.Context, event *events.TaskChanged) error {
	return c.Invalidate(ctx)
}

// Invalidate bumps the generation number.
func (c *TaskCache) Invalidate(ctx context.Context) error {
	if c.redis == nil {
		return nil
	}
	if err := c.redis.Incr(ctx, generationKey).Err(); err != nil {
		logger.FromContextOrDefault(ctx, c.logger).Warn("failed to invalidate task cache", redact.Attr(err))
		return fmt.Errorf("invalidate task cache: %w", err)
	}
	return nil
}

func (c *TaskCache) generation(ctx context.Context) (int64, bool) {
	raw, err := c.redis.Get(ctx, generationKey).Result()
	if errors.Is(err, redis.Nil) {
		return 0, true
	}
	if err != nil {
		logger.FromContextOrDefault(ctx, c.logger).Debug("task cache unavailable", redact.Attr(err))
		return 0, false
	}
	gen, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return gen, true
}

func (c *TaskCache) load(ctx context.Context, key string, dst any) bool {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	if err := sonic.Unmarshal(data, dst); err != nil {
		// Corrupt entries are dropped so the next read repopulates them.
		_ = c.redis.Del(ctx, key).Err()
		return false
	}
	return true
}

func (c *TaskCache) save(ctx context.Context, key string, value any) {
	data, err := sonic.Marshal(value)
	if err != nil {
		logger.FromContextOrDefault(ctx, c.logger).Warn("failed to encode cache payload", redact.Attr(err))
		return
	}
	_ = c.redis.Set(ctx, key, data, c.ttl).Err()
}

// Create implements store.TaskStore.
func (c *TaskCache) Create(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	return c.base.Create(ctx, draft)
}

// GetByID implements store.TaskStore.
func (c *TaskCache) GetByID(ctx context.Context, id int64) (*domain.Task, error) {
	return c.base.GetByID(ctx, id)
}

// Update implements store.TaskStore.
func (c *TaskCache) Update(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	return c.base.Update(ctx, id, patch)
}

// Delete implements store.TaskStore.
func (c *TaskCache) Delete(ctx context.Context, id int64) error {
	return c.base.Delete(ctx, id)
}

// BulkUpdateStatus implements store.TaskStore.
func (c *TaskCache) BulkUpdateStatus(ctx context.Context, ids []int64, status domain.Status) (int, error) {
	return c.base.BulkUpdateStatus(ctx, ids, status)
}

// BulkUpdatePriority implements store.TaskStore.
func (c *TaskCache) BulkUpdatePriority(ctx context.Context, ids []int64, priority domain.Priority) (int, error) {
	return c.base.BulkUpdatePriority(ctx, ids, priority)
}

// WithTx returns the transactional store uncached. Reads inside a
// transaction must see its own writes.
func (c *TaskCache) WithTx(tx *sql.Tx) store.TaskStore {
	return c.base.WithTx(tx)
}

func listKey(gen int64, filter store.ListFilter) string {
	return KeyPrefix + "list:" + strconv.FormatInt(gen, 10) + ":" + FilterDigest(filter)
}

func statsKey(gen int64) string {
	return KeyPrefix + "stats:" + strconv.FormatInt(gen, 10)
}

// FilterDigest returns a stable digest of a normalized filter. Filters that
// select the same page produce the same digest.
func FilterDigest(filter store.ListFilter) string {
	var b strings.Builder
	if filter.Status != nil {
		b.WriteString("status=" + filter.Status.String())
	}
	b.WriteString("|")
	if filter.Priority != nil {
		b.WriteString("priority=" + filter.Priority.String())
	}
	b.WriteString("|search=" + strings.ToLower(filter.Search))
	b.WriteString("|")
	if filter.DueDateFrom != nil {
		b.WriteString("from=" + filter.DueDateFrom.String())
	}
	b.WriteString("|")
	if filter.DueDateTo != nil {
		b.WriteString("to=" + filter.DueDateTo.String())
	}
	if filter.Overdue {
		b.WriteString("|overdue=" + filter.Today.String())
	}
	fmt.Fprintf(&b, "|ordering=%s|page=%d|size=%d", filter.Ordering, filter.Page, filter.PageSize)

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:16])
}
