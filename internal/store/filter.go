package store

import (
	"fmt"
	"strings"

	"github.com/taskboard/taskboard/internal/domain"
)

// Paging limits for List.
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	DefaultOrdering = "-created_at"
)

// orderable maps the public ordering keys onto their columns.
var orderable = map[string]string{
	"created_at": "created_at",
	"updated_at": "updated_at",
	"due_date":   "due_date",
	"priority":   "priority",
	"status":     "status",
	"title":      "title",
	"id":         "id",
}

// ListFilter selects and pages tasks. Zero values mean "no constraint"
// except for paging, which Normalize fills in.
type ListFilter struct {
	Status      *domain.Status
	Priority    *domain.Priority
	Search      string
	DueDateFrom *domain.Date
	DueDateTo   *domain.Date
	// Overdue restricts to tasks due before Today that are not done.
	Overdue bool
	// Today anchors Overdue; the zero value means the current UTC date.
	Today    domain.Date
	Ordering string
	Page     int
	PageSize int
}

// Normalize applies paging defaults and caps the page size.
func (f ListFilter) Normalize() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	switch {
	case f.PageSize <= 0:
		f.PageSize = DefaultPageSize
	case f.PageSize > MaxPageSize:
		f.PageSize = MaxPageSize
	}
	f.Search = strings.TrimSpace(f.Search)
	if f.Ordering == "" {
		f.Ordering = DefaultOrdering
	}
	if f.Overdue && f.Today.IsZero() {
		f.Today = domain.Today()
	}
	return f
}

// Offset is the number of rows skipped before the current page.
func (f ListFilter) Offset() int {
	return (f.Page - 1) * f.PageSize
}

// OrderBy resolves the ordering key into a column and direction. Keys may
// be prefixed with '-' for descending order.
func (f ListFilter) OrderBy() (column string, desc bool, err error) {
	key := f.Ordering
	if key == "" {
		key = DefaultOrdering
	}
	if strings.HasPrefix(key, "-") {
		desc = true
		key = key[1:]
	}
	column, ok := orderable[key]
	if !ok {
		return "", false, fmt.Errorf("%w: unsupported ordering %q", ErrInvalidFilter, f.Ordering)
	}
	return column, desc, nil
}

// Matches reports whether t satisfies every predicate of the filter. Stores
// that cannot push predicates into a query use it directly.
func (f ListFilter) Matches(t domain.Task) bool {
	if f.Status != nil && t.Status != *f.Status {
		return false
	}
	if f.Priority != nil && t.Priority != *f.Priority {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		desc := ""
		if t.Description != nil {
			desc = *t.Description
		}
		if !strings.Contains(strings.ToLower(t.Title), needle) &&
			!strings.Contains(strings.ToLower(desc), needle) {
			return false
		}
	}
	if f.DueDateFrom != nil && (t.DueDate == nil || t.DueDate.Before(*f.DueDateFrom)) {
		return false
	}
	if f.DueDateTo != nil && (t.DueDate == nil || t.DueDate.After(*f.DueDateTo)) {
		return false
	}
	if f.Overdue && !t.IsOverdue(f.Today) {
		return false
	}
	return true
}
