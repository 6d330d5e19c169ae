package client

import (
	"bytes"
	"encoding/json"
	"net/url"
	"strconv"

	"github.com/taskboard/taskboard/internal/domain"
)

// Query selects tasks for List and ListAll. Zero values are omitted.
type Query struct {
	Page        int
	PageSize    int
	Status      *domain.Status
	Priority    *domain.Priority
	Search      string
	Ordering    string
	DueDateFrom *domain.Date
	DueDateTo   *domain.Date
	Overdue     bool
}

// Values encodes q as list query parameters.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PageSize > 0 {
		v.Set("page_size", strconv.Itoa(q.PageSize))
	}
	if q.Status != nil {
		v.Set("status", q.Status.String())
	}
	if q.Priority != nil {
		v.Set("priority", q.Priority.String())
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Ordering != "" {
		v.Set("ordering", q.Ordering)
	}
	if q.DueDateFrom != nil {
		v.Set("due_date_from", q.DueDateFrom.String())
	}
	if q.DueDateTo != nil {
		v.Set("due_date_to", q.DueDateTo.String())
	}
	if q.Overdue {
		v.Set("overdue", "true")
	}
	return v
}

// Page is one page of list results. A server that does not paginate may
// answer with a plain array, which decodes as a single complete page.
type Page struct {
	Count    int           `json:"count"`
	Next     *string       `json:"next"`
	Previous *string       `json:"previous"`
	Results  []domain.Task `json:"results"`
}

// UnmarshalJSON accepts both the page envelope and a bare task array.
func (p *Page) UnmarshalJSON(data []byte) error {
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '[' {
		var tasks []domain.Task
		if err := json.Unmarshal(trimmed, &tasks); err != nil {
			return err
		}
		*p = Page{Count: len(tasks), Results: tasks}
		return nil
	}
	type envelope Page
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	*p = Page(env)
	return nil
}

// BulkResult reports the outcome of a bulk update.
type BulkResult struct {
	Success      bool            `json:"success"`
	UpdatedCount int             `json:"updated_count"`
	Status       domain.Status   `json:"status,omitempty"`
	Priority     domain.Priority `json:"priority,omitempty"`
}
