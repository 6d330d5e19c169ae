package board

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/taskboard/taskboard/internal/client"
	"github.com/taskboard/taskboard/internal/domain"
	"github.com/taskboard/taskboard/internal/redact"
)

// DefaultLogoutDelay is how long the auth failure message stays visible
// before the session is terminated.
const DefaultLogoutDelay = 1500 * time.Millisecond

// Remote is the subset of the API client the coordinator calls.
type Remote interface {
	Lister
	Create(ctx context.Context, draft domain.TaskDraft) (*domain.Task, error)
	Update(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error)
	Delete(ctx context.Context, id int64) error
}

// Outcome reports what a coordinator operation did.
type Outcome int

const (
	// Applied means the remote call succeeded and the cache reflects it.
	Applied Outcome = iota
	// Failed means the remote call failed and the cache was reconciled.
	Failed
	// Noop means nothing was sent.
	Noop
	// Superseded means a newer mutation of the same task was issued before
	// the response arrived, so the response was not applied.
	Superseded
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case Failed:
		return "failed"
	case Noop:
		return "noop"
	case Superseded:
		return "superseded"
	default:
		return "unknown"
	}
}

// Position is a slot on the board: a column and an index within it.
type Position struct {
	Status domain.Status
	Index  int
}

// Coordinator applies user intents to the cache and the server. Failures
// are reported through the Notifier and never returned.
type Coordinator struct {
	cache    *Cache
	remote   Remote
	notifier Notifier
	logout   func()
	logger   *slog.Logger

	logoutDelay time.Duration
	afterFunc   func(time.Duration, func())
	loggingOut  atomic.Bool

	supersede   bool
	mu          sync.Mutex
	generations map[int64]uint64
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithLogoutDelay changes the delay between an auth failure and logout.
func WithLogoutDelay(d time.Duration) Option {
	return func(c *Coordinator) {
		c.logoutDelay = d
	}
}

// WithAfterFunc replaces time.AfterFunc for scheduling the logout.
func WithAfterFunc(fn func(time.Duration, func())) Option {
	return func(c *Coordinator) {
		c.afterFunc = fn
	}
}

// WithSupersede drops responses for a task once a newer mutation of the
// same task has been issued. Without it the last response to arrive wins.
func WithSupersede() Option {
	return func(c *Coordinator) {
		c.supersede = true
	}
}

// WithLogger sets the coordinator's logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// NewCoordinator creates a Coordinator. logout is called after an auth
// failure and may be nil.
func NewCoordinator(cache *Cache, remote Remote, notifier Notifier, logout func(), opts ...Option) *Coordinator {
	// ALLOW-PANIC
	if cache == nil || remote == nil {
		panic("board: coordinator needs a cache and a remote")
	}
	if notifier == nil {
		notifier = NotifierFuncs{}
	}
	c := &Coordinator{
		cache:       cache,
		remote:      remote,
		notifier:    notifier,
		logout:      logout,
		logger:      slog.Default(),
		logoutDelay: DefaultLogoutDelay,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
		generations: make(map[int64]uint64),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With(slog.String("component", "board_coordinator"))
	return c
}

// Cache returns the cache the coordinator maintains.
func (c *Coordinator) Cache() *Cache {
	return c.cache
}

// Refresh reloads the cache. A failure is notified and, unlike the other
// operations, also returned so the caller can decide whether to render.
func (c *Coordinator) Refresh(ctx context.Context) error {
	_, err := c.cache.Load(ctx)
	if err != nil {
		c.fail(ctx, ActionLoad, err)
	}
	return err
}

// Create sends draft to the server and reloads the cache on success.
func (c *Coordinator) Create(ctx context.Context, draft domain.TaskDraft) Outcome {
	return c.create(ctx, ActionCreate, draft)
}

// QuickAdd creates a task directly in a column.
func (c *Coordinator) QuickAdd(ctx context.Context, status domain.Status, title string, priority domain.Priority) Outcome {
	return c.create(ctx, ActionQuickAdd, domain.TaskDraft{
		Title:    title,
		Status:   status,
		Priority: priority,
	})
}

func (c *Coordinator) create(ctx context.Context, action Action, draft domain.TaskDraft) Outcome {
	if _, err := c.remote.Create(ctx, draft); err != nil {
		c.fail(ctx, action, err)
		return Failed
	}
	c.confirm(ctx, action)
	return Applied
}

// Update sends a partial update and reloads the cache on success.
func (c *Coordinator) Update(ctx context.Context, id int64, patch domain.TaskPatch) Outcome {
	gen := c.begin(id)
	_, err := c.remote.Update(ctx, id, patch)
	if c.superseded(id, gen) {
		return c.drop(ctx, ActionUpdate, err)
	}
	if err != nil {
		c.fail(ctx, ActionUpdate, err)
		return Failed
	}
	c.confirm(ctx, ActionUpdate)
	return Applied
}

// Delete removes a task and reloads the cache on success.
func (c *Coordinator) Delete(ctx context.Context, id int64) Outcome {
	gen := c.begin(id)
	err := c.remote.Delete(ctx, id)
	if c.superseded(id, gen) {
		return c.drop(ctx, ActionDelete, err)
	}
	if err != nil {
		c.fail(ctx, ActionDelete, err)
		return Failed
	}
	c.confirm(ctx, ActionDelete)
	return Applied
}

// QuickStatusChange moves a task to status immediately and restores the
// previous status if the server rejects the change.
func (c *Coordinator) QuickStatusChange(ctx context.Context, id int64, status domain.Status) Outcome {
	previous, ok := c.cache.SetStatus(id, status)
	if !ok {
		c.notifier.Failure(ActionStatusChange, client.NotFoundFailure, "Task not found. It may have been deleted.")
		return Failed
	}
	gen := c.begin(id)

	_, err := c.remote.Update(ctx, id, domain.StatusPatch(status))
	if c.superseded(id, gen) {
		return c.drop(ctx, ActionStatusChange, err)
	}
	if err != nil {
		c.cache.SetStatus(id, previous)
		c.fail(ctx, ActionStatusChange, err)
		return Failed
	}
	c.notifier.Success(ActionStatusChange)
	return Applied
}

// DragMove moves a task between board positions. Dropping a task where it
// was picked up does nothing. A rejected move is rolled back by reloading
// the cache.
func (c *Coordinator) DragMove(ctx context.Context, id int64, from, to Position) Outcome {
	if from == to {
		return Noop
	}
	if !c.cache.Move(id, to.Status, to.Index) {
		c.notifier.Failure(ActionMove, client.NotFoundFailure, "Task not found. It may have been deleted.")
		return Failed
	}
	gen := c.begin(id)

	_, err := c.remote.Update(ctx, id, domain.StatusPatch(to.Status))
	if c.superseded(id, gen) {
		return c.drop(ctx, ActionMove, err)
	}
	if err != nil {
		if _, loadErr := c.cache.Load(ctx); loadErr != nil {
			c.logger.WarnContext(ctx, "rollback reload failed",
				slog.Int64("task_id", id),
				redact.Attr(loadErr))
		}
		c.fail(ctx, ActionMove, err)
		return Failed
	}
	c.notifier.Success(ActionMove)
	return Applied
}

// confirm reloads the cache after a successful mutation and notifies.
func (c *Coordinator) confirm(ctx context.Context, action Action) {
	_, err := c.cache.Load(ctx)
	c.notifier.Success(action)
	if err != nil {
		c.fail(ctx, ActionLoad, err)
	}
}

// fail notifies a failure and starts the logout timer for auth failures.
func (c *Coordinator) fail(ctx context.Context, action Action, err error) {
	kind := failureKind(err)
	c.logger.DebugContext(ctx, "action failed",
		slog.String("action", string(action)),
		slog.String("kind", kind.String()),
		redact.Attr(err))
	c.notifier.Failure(action, kind, FailureMessage(action, err))
	if kind == client.AuthFailure {
		c.scheduleLogout()
	}
}

// drop discards a superseded response. Auth failures still end the session.
func (c *Coordinator) drop(ctx context.Context, action Action, err error) Outcome {
	c.logger.DebugContext(ctx, "superseded response dropped", slog.String("action", string(action)))
	if err != nil && client.IsAuthFailure(err) {
		c.fail(ctx, action, err)
	}
	return Superseded
}

func (c *Coordinator) scheduleLogout() {
	if c.logout == nil || !c.loggingOut.CompareAndSwap(false, true) {
		return
	}
	c.afterFunc(c.logoutDelay, func() {
		defer c.loggingOut.Store(false)
		c.logout()
	})
}

// begin records a new mutation of task id and returns its generation.
func (c *Coordinator) begin(id int64) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generations[id]++
	return c.generations[id]
}

func (c *Coordinator) superseded(id int64, gen uint64) bool {
	if !c.supersede {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.generations[id] != gen
}
