package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// MaxTitleLength is the maximum number of characters in a task title.
const MaxTitleLength = 255

// Defaults applied to new tasks when the caller leaves the field empty.
const (
	DefaultStatus   = StatusBacklog
	DefaultPriority = PriorityMedium
)

// Task is a single card on the board.
type Task struct {
	ID          int64     `json:"id"`
	Title       string    `json:"title"`
	Description *string   `json:"description"`
	Status      Status    `json:"status"`
	Priority    Priority  `json:"priority"`
	DueDate     *Date     `json:"due_date"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsOverdue reports whether the task has a due date before today and is not done.
func (t Task) IsOverdue(today Date) bool {
	return t.DueDate != nil && t.DueDate.Before(today) && t.Status != StatusDone
}

// Validate checks the invariants every stored task satisfies.
func (t Task) Validate() error {
	var errs ValidationErrors
	errs.Add(validateTitle(t.Title))
	if !t.Status.Valid() {
		errs.Add(NewValidationError("status", choiceMessage("status", statusNames()), ErrInvalidStatus))
	}
	if !t.Priority.Valid() {
		errs.Add(NewValidationError("priority", choiceMessage("priority", priorityNames()), ErrInvalidPriority))
	}
	return errs.Err()
}

// NormalizeTitle trims surrounding whitespace from a title.
func NormalizeTitle(title string) string {
	return strings.TrimSpace(title)
}

func validateTitle(title string) *ValidationError {
	if NormalizeTitle(title) == "" {
		return NewValidationError("title", "Title cannot be empty.", ErrEmptyTitle)
	}
	if utf8.RuneCountInString(NormalizeTitle(title)) > MaxTitleLength {
		return NewValidationError("title",
			fmt.Sprintf("Ensure this field has no more than %d characters.", MaxTitleLength), ErrTitleTooLong)
	}
	return nil
}

// TaskDraft holds the fields of a task that has not been created yet.
type TaskDraft struct {
	Title       string   `json:"title"`
	Description *string  `json:"description,omitempty"`
	Status      Status   `json:"status,omitempty"`
	Priority    Priority `json:"priority,omitempty"`
	DueDate     *Date    `json:"due_date,omitempty"`
}

// Normalize trims the title and fills in default status and priority.
func (d TaskDraft) Normalize() TaskDraft {
	d.Title = NormalizeTitle(d.Title)
	if d.Status == "" {
		d.Status = DefaultStatus
	}
	if d.Priority == "" {
		d.Priority = DefaultPriority
	}
	return d
}

// Validate reports every invalid field of the draft. Empty status and
// priority are accepted since Normalize supplies defaults.
func (d TaskDraft) Validate() error {
	var errs ValidationErrors
	errs.Add(validateTitle(d.Title))
	if d.Status != "" && !d.Status.Valid() {
		errs.Add(NewValidationError("status", choiceMessage("status", statusNames()), ErrInvalidStatus))
	}
	if d.Priority != "" && !d.Priority.Valid() {
		errs.Add(NewValidationError("priority", choiceMessage("priority", priorityNames()), ErrInvalidPriority))
	}
	return errs.Err()
}

// UnmarshalJSON decodes a draft and reports all invalid fields together.
// Read-only and unknown fields are ignored.
func (d *TaskDraft) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}
	var patch TaskPatch
	errs := patch.decodeFields(fields)
	if _, ok := fields["title"]; !ok {
		errs.Add(NewValidationError("title", "This field is required.", ErrEmptyTitle))
	}
	if err := errs.Err(); err != nil {
		return err
	}
	*d = patch.Draft()
	return nil
}

// TaskPatch is a partial update. Nil pointers and unset Nullables leave the
// stored value unchanged; a null Nullable clears it.
type TaskPatch struct {
	Title       *string
	Description Nullable[string]
	Status      *Status
	Priority    *Priority
	DueDate     Nullable[Date]
}

// StatusPatch builds a patch that only changes the status.
func StatusPatch(s Status) TaskPatch {
	return TaskPatch{Status: &s}
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && !p.Description.IsSet() && p.Status == nil &&
		p.Priority == nil && !p.DueDate.IsSet()
}

// Normalize trims the title if one is set.
func (p TaskPatch) Normalize() TaskPatch {
	if p.Title != nil {
		t := NormalizeTitle(*p.Title)
		p.Title = &t
	}
	return p
}

// Validate reports every invalid field present in the patch.
func (p TaskPatch) Validate() error {
	var errs ValidationErrors
	if p.Title != nil {
		errs.Add(validateTitle(*p.Title))
	}
	if p.Status != nil && !p.Status.Valid() {
		errs.Add(NewValidationError("status", choiceMessage("status", statusNames()), ErrInvalidStatus))
	}
	if p.Priority != nil && !p.Priority.Valid() {
		errs.Add(NewValidationError("priority", choiceMessage("priority", priorityNames()), ErrInvalidPriority))
	}
	return errs.Err()
}

// Apply returns a copy of t with the patch applied. Timestamps are untouched.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = NormalizeTitle(*p.Title)
	}
	if p.Description.IsSet() {
		t.Description = p.Description.Ptr()
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate.IsSet() {
		t.DueDate = p.DueDate.Ptr()
	}
	return t
}

// Draft converts the patch into a draft, leaving unset fields at their zero value.
func (p TaskPatch) Draft() TaskDraft {
	var d TaskDraft
	if p.Title != nil {
		d.Title = *p.Title
	}
	d.Description = p.Description.Ptr()
	if p.Status != nil {
		d.Status = *p.Status
	}
	if p.Priority != nil {
		d.Priority = *p.Priority
	}
	d.DueDate = p.DueDate.Ptr()
	return d
}

// MarshalJSON writes only the fields present in the patch.
func (p TaskPatch) MarshalJSON() ([]byte, error) {
	out := make(map[string]any, 5)
	if p.Title != nil {
		out["title"] = *p.Title
	}
	if p.Description.IsSet() {
		out["description"] = p.Description
	}
	if p.Status != nil {
		out["status"] = *p.Status
	}
	if p.Priority != nil {
		out["priority"] = *p.Priority
	}
	if p.DueDate.IsSet() {
		out["due_date"] = p.DueDate
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes a partial update and reports all invalid fields together.
func (p *TaskPatch) UnmarshalJSON(data []byte) error {
	fields, err := decodeObject(data)
	if err != nil {
		return err
	}
	var decoded TaskPatch
	if err := decoded.decodeFields(fields).Err(); err != nil {
		return err
	}
	*p = decoded
	return nil
}

func (p *TaskPatch) decodeFields(fields map[string]json.RawMessage) ValidationErrors {
	var errs ValidationErrors

	if raw, ok := fields["title"]; ok {
		var title string
		if isNull(raw) || json.Unmarshal(raw, &title) != nil {
			errs.Add(NewValidationError("title", "Title cannot be empty.", ErrEmptyTitle))
		} else {
			p.Title = &title
		}
	}

	if raw, ok := fields["description"]; ok {
		if isNull(raw) {
			p.Description = Null[string]()
		} else {
			var desc string
			if err := json.Unmarshal(raw, &desc); err != nil {
				errs.Add(NewValidationError("description", "Not a valid string.", ErrInvalidFormat))
			} else {
				p.Description = Some(desc)
			}
		}
	}

	if raw, ok := fields["status"]; ok {
		var st Status
		if err := st.UnmarshalJSON(raw); err != nil {
			errs.Add(asValidationError("status", err))
		} else {
			p.Status = &st
		}
	}

	if raw, ok := fields["priority"]; ok {
		var pr Priority
		if err := pr.UnmarshalJSON(raw); err != nil {
			errs.Add(asValidationError("priority", err))
		} else {
			p.Priority = &pr
		}
	}

	if raw, ok := fields["due_date"]; ok {
		if isNull(raw) {
			p.DueDate = Null[Date]()
		} else {
			var due Date
			if err := due.UnmarshalJSON(raw); err != nil {
				errs.Add(asValidationError("due_date", err))
			} else {
				p.DueDate = Some(due)
			}
		}
	}

	if p.Title != nil {
		errs.Add(validateTitle(*p.Title))
	}
	return errs
}

func decodeObject(data []byte) (map[string]json.RawMessage, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return nil, NewValidationError("", "Invalid data. Expected a JSON object.", ErrInvalidFormat)
	}
	return fields, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func asValidationError(field string, err error) *ValidationError {
	if ve, ok := err.(*ValidationError); ok {
		return ve
	}
	return NewValidationError(field, err.Error(), ErrInvalidFormat)
}

// StatusCounts holds per-column totals.
type StatusCounts struct {
	Backlog    int `json:"backlog"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
}

// PriorityCounts holds per-priority totals.
type PriorityCounts struct {
	Low    int `json:"low"`
	Medium int `json:"medium"`
	High   int `json:"high"`
}

// Statistics summarizes the board.
type Statistics struct {
	Total      int            `json:"total"`
	ByStatus   StatusCounts   `json:"by_status"`
	ByPriority PriorityCounts `json:"by_priority"`
}

// AddStatus increments the counter for s by n.
func (s *Statistics) AddStatus(st Status, n int) {
	switch st {
	case StatusBacklog:
		s.ByStatus.Backlog += n
	case StatusInProgress:
		s.ByStatus.InProgress += n
	case StatusDone:
		s.ByStatus.Done += n
	}
}

// AddPriority increments the counter for p by n.
func (s *Statistics) AddPriority(p Priority, n int) {
	switch p {
	case PriorityLow:
		s.ByPriority.Low += n
	case PriorityMedium:
		s.ByPriority.Medium += n
	case PriorityHigh:
		s.ByPriority.High += n
	}
}

// ComputeStatistics aggregates a set of tasks.
func ComputeStatistics(tasks []Task) Statistics {
	var s Statistics
	for _, t := range tasks {
		s.Total++
		s.AddStatus(t.Status, 1)
		s.AddPriority(t.Priority, 1)
	}
	return s
}
