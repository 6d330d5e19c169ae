package domain

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Status is the board column a task sits in.
type Status string

// Board columns, in display order.
const (
	StatusBacklog    Status = "BACKLOG"
	StatusInProgress Status = "IN_PROGRESS"
	StatusDone       Status = "DONE"
)

var allStatuses = []Status{StatusBacklog, StatusInProgress, StatusDone}

// AllStatuses returns every status in column order.
func AllStatuses() []Status {
	out := make([]Status, len(allStatuses))
	copy(out, allStatuses)
	return out
}

// ParseStatus converts s into a Status. Unknown values are rejected.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	if !st.Valid() {
		return "", NewValidationError("status", choiceMessage("status", statusNames()), ErrInvalidStatus)
	}
	return st, nil
}

// Valid reports whether s is one of the board columns.
func (s Status) Valid() bool {
	switch s {
	case StatusBacklog, StatusInProgress, StatusDone:
		return true
	}
	return false
}

func (s Status) String() string {
	return string(s)
}

// Key is the lower-case name used in aggregate responses.
func (s Status) Key() string {
	return strings.ToLower(string(s))
}

// Label is the human readable column title.
func (s Status) Label() string {
	switch s {
	case StatusBacklog:
		return "Backlog"
	case StatusInProgress:
		return "In Progress"
	case StatusDone:
		return "Done"
	}
	return string(s)
}

// MarshalJSON implements json.Marshaler.
func (s Status) MarshalJSON() ([]byte, error) {
	if !s.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, string(s))
	}
	return json.Marshal(string(s))
}

// UnmarshalJSON implements json.Unmarshaler and rejects unknown values.
func (s *Status) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return NewValidationError("status", "must be a string", ErrInvalidFormat)
	}
	st, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = st
	return nil
}

// Priority is the urgency level of a task.
type Priority string

// Priority levels, lowest first.
const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

var allPriorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh}

// AllPriorities returns every priority, lowest first.
func AllPriorities() []Priority {
	out := make([]Priority, len(allPriorities))
	copy(out, allPriorities)
	return out
}

// ParsePriority converts s into a Priority. Unknown values are rejected.
func ParsePriority(s string) (Priority, error) {
	p := Priority(s)
	if !p.Valid() {
		return "", NewValidationError("priority", choiceMessage("priority", priorityNames()), ErrInvalidPriority)
	}
	return p, nil
}

// Valid reports whether p is a known priority.
func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

func (p Priority) String() string {
	return string(p)
}

// Key is the lower-case name used in aggregate responses.
func (p Priority) Key() string {
	return strings.ToLower(string(p))
}

// Rank orders priorities numerically (LOW=1, MEDIUM=2, HIGH=3).
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 1
	case PriorityMedium:
		return 2
	case PriorityHigh:
		return 3
	}
	return 0
}

// MarshalJSON implements json.Marshaler.
func (p Priority) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriority, string(p))
	}
	return json.Marshal(string(p))
}

// UnmarshalJSON implements json.Unmarshaler and rejects unknown values.
func (p *Priority) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return NewValidationError("priority", "must be a string", ErrInvalidFormat)
	}
	parsed, err := ParsePriority(raw)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

func statusNames() []string {
	names := make([]string, len(allStatuses))
	for i, s := range allStatuses {
		names[i] = string(s)
	}
	return names
}

func priorityNames() []string {
	names := make([]string, len(allPriorities))
	for i, p := range allPriorities {
		names[i] = string(p)
	}
	return names
}

func choiceMessage(kind string, names []string) string {
	return fmt.Sprintf("Invalid %s. Must be one of: %s", kind, strings.Join(names, ", "))
}
