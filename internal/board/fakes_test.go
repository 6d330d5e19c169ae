package board

import (
	"context"
	"sync"
	"time"

	"github.com/taskboard/taskboard/internal/client"
	"github.com/taskboard/taskboard/internal/domain"
)

// fakeRemote is an in-memory server.
type fakeRemote struct {
	mu     sync.Mutex
	tasks  []domain.Task
	nextID int64

	listErr   error
	createErr error
	updateErr error
	deleteErr error

	// UpdateFn, when set, replaces the default Update behavior.
	UpdateFn func(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error)

	listCalls   int
	createCalls int
	updateCalls int
	deleteCalls int
	drafts      []domain.TaskDraft
}

func newFakeRemote(tasks ...domain.Task) *fakeRemote {
	return &fakeRemote{tasks: tasks, nextID: 100}
}

func (f *fakeRemote) ListAll(_ context.Context, _ client.Query) ([]domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]domain.Task, len(f.tasks))
	copy(out, f.tasks)
	return out, nil
}

func (f *fakeRemote) Create(_ context.Context, draft domain.TaskDraft) (*domain.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	f.drafts = append(f.drafts, draft)
	if f.createErr != nil {
		return nil, f.createErr
	}
	draft = draft.Normalize()
	t := domain.Task{
		ID:       f.nextID,
		Title:    draft.Title,
		Status:   draft.Status,
		Priority: draft.Priority,
	}
	f.nextID++
	f.tasks = append([]domain.Task{t}, f.tasks...)
	return &t, nil
}

func (f *fakeRemote) Update(ctx context.Context, id int64, patch domain.TaskPatch) (*domain.Task, error) {
	f.mu.Lock()
	f.updateCalls++
	fn := f.UpdateFn
	f.mu.Unlock()
	if fn != nil {
		return fn(ctx, id, patch)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks[i] = patch.Apply(t)
			updated := f.tasks[i]
			return &updated, nil
		}
	}
	return nil, &client.Error{Op: "update task", Kind: client.NotFoundFailure, StatusCode: 404}
}

func (f *fakeRemote) Delete(_ context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleteCalls++
	if f.deleteErr != nil {
		return f.deleteErr
	}
	for i, t := range f.tasks {
		if t.ID == id {
			f.tasks = append(f.tasks[:i], f.tasks[i+1:]...)
			return nil
		}
	}
	return &client.Error{Op: "delete task", Kind: client.NotFoundFailure, StatusCode: 404}
}

func (f *fakeRemote) calls() (list, create, update, del int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls, f.createCalls, f.updateCalls, f.deleteCalls
}

type failure struct {
	action  Action
	kind    client.Kind
	message string
}

type recordingNotifier struct {
	mu        sync.Mutex
	successes []Action
	failures  []failure
}

func (n *recordingNotifier) Success(action Action) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.successes = append(n.successes, action)
}

func (n *recordingNotifier) Failure(action Action, kind client.Kind, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.failures = append(n.failures, failure{action, kind, message})
}

// scheduler captures the logout timer instead of starting one.
type scheduler struct {
	delays []time.Duration
	funcs  []func()
}

func (s *scheduler) afterFunc(d time.Duration, f func()) {
	s.delays = append(s.delays, d)
	s.funcs = append(s.funcs, f)
}

func (s *scheduler) fire() {
	funcs := s.funcs
	s.funcs = nil
	for _, f := range funcs {
		f()
	}
}

func mkTask(id int64, title string, status domain.Status, priority domain.Priority) domain.Task {
	return domain.Task{ID: id, Title: title, Status: status, Priority: priority}
}

func serverError(op string) error {
	return &client.Error{Op: op, Kind: client.ServerFailure, StatusCode: 500}
}

func authError(op string) error {
	return &client.Error{Op: op, Kind: client.AuthFailure, StatusCode: 403}
}

func ids(tasks []domain.Task) []int64 {
	out := make([]int64, len(tasks))
	for i, t := range tasks {
		out[i] = t.ID
	}
	return out
}
