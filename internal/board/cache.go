package board

import (
	"context"
	"fmt"
	"sync"

	"github.com/taskboard/taskboard/internal/client"
	"github.com/taskboard/taskboard/internal/domain"
)

// Lister fetches the full task list.
type Lister interface {
	ListAll(ctx context.Context, q client.Query) ([]domain.Task, error)
}

// FetchError reports a failed Load.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("load tasks: %v", e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Auth reports whether the load was rejected because of the API key, in
// which case the session should be terminated.
func (e *FetchError) Auth() bool {
	return client.IsAuthFailure(e.Err)
}

// Cache is the ordered, in-memory mirror of the server's task list. Order
// is the server response order.
type Cache struct {
	source Lister

	mu    sync.RWMutex
	tasks []domain.Task
}

// NewCache creates an empty cache filled from source.
func NewCache(source Lister) *Cache {
	// ALLOW-PANIC
	if source == nil {
		panic("board: nil task source")
	}
	return &Cache{source: source}
}

// Load replaces the cache with the server's task list. On failure the cache
// is left untouched and a *FetchError is returned.
func (c *Cache) Load(ctx context.Context) ([]domain.Task, error) {
	tasks, err := c.source.ListAll(ctx, client.Query{})
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	c.Replace(tasks)
	return c.Tasks(), nil
}

// Replace swaps in a new snapshot.
func (c *Cache) Replace(tasks []domain.Task) {
	snapshot := make([]domain.Task, len(tasks))
	copy(snapshot, tasks)

	c.mu.Lock()
	c.tasks = snapshot
	c.mu.Unlock()
}

// Tasks returns a copy of the cached tasks.
func (c *Cache) Tasks() []domain.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]domain.Task, len(c.tasks))
	copy(out, c.tasks)
	return out
}

// Find returns the cached task with id.
func (c *Cache) Find(id int64) (domain.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.index(id); i >= 0 {
		return c.tasks[i], true
	}
	return domain.Task{}, false
}

// SetStatus rewrites the status of task id and returns the previous one.
func (c *Cache) SetStatus(id int64, status domain.Status) (domain.Status, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(id)
	if i < 0 {
		return "", false
	}
	previous := c.tasks[i].Status
	c.tasks[i].Status = status
	return previous, true
}

// Move sets the status of task id and repositions it so that it is the
// index-th task of its new column. An index past the end of the column
// places it last.
func (c *Cache) Move(id int64, status domain.Status, index int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(id)
	if i < 0 {
		return false
	}
	moved := c.tasks[i]
	moved.Status = status

	rest := make([]domain.Task, 0, len(c.tasks))
	rest = append(rest, c.tasks[:i]...)
	rest = append(rest, c.tasks[i+1:]...)

	at := len(rest)
	seen := 0
	for j, t := range rest {
		if t.Status != status {
			continue
		}
		if seen == index {
			at = j
			break
		}
		seen++
		at = j + 1
	}

	out := make([]domain.Task, 0, len(c.tasks))
	out = append(out, rest[:at]...)
	out = append(out, moved)
	out = append(out, rest[at:]...)
	c.tasks = out
	return true
}

func (c *Cache) index(id int64) int {
	for i, t := range c.tasks {
		if t.ID == id {
			return i
		}
	}
	return -1
}
