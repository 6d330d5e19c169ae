package board

import (
	"fmt"
	"sort"
	"strings"

	"github.com/taskboard/taskboard/internal/client"
)

// Action names a user intent for notifications.
type Action string

// Actions reported to the Notifier.
const (
	ActionLoad         Action = "load"
	ActionCreate       Action = "create"
	ActionUpdate       Action = "update"
	ActionDelete       Action = "delete"
	ActionStatusChange Action = "status_change"
	ActionMove         Action = "move"
	ActionQuickAdd     Action = "quick_add"
)

// Notifier shows the outcome of an action to the user.
type Notifier interface {
	Success(action Action)
	Failure(action Action, kind client.Kind, message string)
}

// NotifierFuncs adapts plain functions to Notifier. Nil fields are skipped.
type NotifierFuncs struct {
	OnSuccess func(action Action)
	OnFailure func(action Action, kind client.Kind, message string)
}

// Success implements Notifier.
func (n NotifierFuncs) Success(action Action) {
	if n.OnSuccess != nil {
		n.OnSuccess(action)
	}
}

// Failure implements Notifier.
func (n NotifierFuncs) Failure(action Action, kind client.Kind, message string) {
	if n.OnFailure != nil {
		n.OnFailure(action, kind, message)
	}
}

// SuccessMessage is the text shown after action succeeds.
func (a Action) SuccessMessage() string {
	switch a {
	case ActionCreate, ActionQuickAdd:
		return "Task created successfully!"
	case ActionUpdate:
		return "Task updated successfully!"
	case ActionDelete:
		return "Task deleted successfully!"
	case ActionStatusChange, ActionMove:
		return "Task status updated!"
	default:
		return "Tasks loaded."
	}
}

// verb completes "Failed to ..." for action.
func (a Action) verb() string {
	switch a {
	case ActionCreate, ActionQuickAdd:
		return "create task"
	case ActionUpdate:
		return "update task"
	case ActionDelete:
		return "delete task"
	case ActionStatusChange, ActionMove:
		return "update task status"
	default:
		return "load tasks"
	}
}

// FailureMessage describes a failed action in general terms. Validation
// failures list the field messages returned by the server.
func FailureMessage(action Action, err error) string {
	switch client.KindOf(err) {
	case client.AuthFailure:
		return "Authentication failed. Please log in again."
	case client.NotFoundFailure:
		return "Task not found. It may have been deleted."
	case client.RateLimitFailure:
		return "Too many requests. Please wait a moment and try again."
	case client.ValidationFailure:
		if fields := client.FieldErrors(err); len(fields) > 0 {
			return fmt.Sprintf("Failed to %s: %s", action.verb(), joinFields(fields))
		}
		return fmt.Sprintf("Failed to %s. Please check your input.", action.verb())
	default:
		return fmt.Sprintf("Failed to %s. Please try again.", action.verb())
	}
}

func joinFields(fields map[string]string) string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+fields[k])
	}
	return strings.Join(parts, "; ")
}

// failureKind classifies err for the Notifier. Errors that did not come
// from the client are reported as server failures.
func failureKind(err error) client.Kind {
	if k := client.KindOf(err); k != client.UnknownFailure {
		return k
	}
	return client.ServerFailure
}
