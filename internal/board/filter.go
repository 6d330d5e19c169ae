package board

import (
	"strings"

	"github.com/taskboard/taskboard/internal/domain"
)

// AllPriorities is the PriorityFilter value that matches every task.
const AllPriorities PriorityFilter = "ALL"

// PriorityFilter is either AllPriorities or a single priority.
type PriorityFilter string

// ParsePriorityFilter accepts "ALL" (or an empty string) and the priority
// names.
func ParsePriorityFilter(s string) (PriorityFilter, error) {
	if s == "" || s == string(AllPriorities) {
		return AllPriorities, nil
	}
	p, err := domain.ParsePriority(s)
	if err != nil {
		return "", err
	}
	return PriorityFilter(p), nil
}

// Matches reports whether p passes the filter.
func (f PriorityFilter) Matches(p domain.Priority) bool {
	return f == AllPriorities || f == "" || domain.Priority(f) == p
}

// Filter returns the tasks whose title contains search, ignoring case, and
// whose priority passes priority. The input is not modified.
func Filter(tasks []domain.Task, search string, priority PriorityFilter) []domain.Task {
	needle := strings.ToLower(search)
	out := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if needle != "" && !strings.Contains(strings.ToLower(t.Title), needle) {
			continue
		}
		if !priority.Matches(t.Priority) {
			continue
		}
		out = append(out, t)
	}
	return out
}

// GroupByStatus partitions tasks into board columns, keeping their relative
// order. Every status has an entry, possibly empty.
func GroupByStatus(tasks []domain.Task) map[domain.Status][]domain.Task {
	columns := make(map[domain.Status][]domain.Task, len(domain.AllStatuses()))
	for _, s := range domain.AllStatuses() {
		columns[s] = []domain.Task{}
	}
	for _, t := range tasks {
		columns[t.Status] = append(columns[t.Status], t)
	}
	return columns
}
