package board

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/taskboard/taskboard/internal/domain"
)

func sampleBoard() []domain.Task {
	return []domain.Task{
		mkTask(1, "Buy milk", domain.StatusBacklog, domain.PriorityLow),
		mkTask(2, "Write report", domain.StatusInProgress, domain.PriorityHigh),
		mkTask(3, "Review report draft", domain.StatusBacklog, domain.PriorityMedium),
		mkTask(4, "WRITE tests", domain.StatusDone, domain.PriorityHigh),
	}
}

func TestFilterSearchScenario(t *testing.T) {
	tasks := []domain.Task{
		mkTask(1, "Buy milk", domain.StatusBacklog, domain.PriorityMedium),
		mkTask(2, "Write report", domain.StatusBacklog, domain.PriorityMedium),
	}

	got := Filter(tasks, "wri", AllPriorities)

	require.Len(t, got, 1)
	assert.Equal(t, "Write report", got[0].Title)
}

func TestFilter(t *testing.T) {
	tests := []struct {
		name     string
		search   string
		priority PriorityFilter
		want     []int64
	}{
		{"empty search matches all", "", AllPriorities, []int64{1, 2, 3, 4}},
		{"case insensitive", "write", AllPriorities, []int64{2, 4}},
		{"substring", "report", AllPriorities, []int64{2, 3}},
		{"priority only", "", PriorityFilter(domain.PriorityHigh), []int64{2, 4}},
		{"search and priority", "report", PriorityFilter(domain.PriorityHigh), []int64{2}},
		{"no match", "groceries", AllPriorities, []int64{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ids(Filter(sampleBoard(), tt.search, tt.priority)))
		})
	}
}

func TestFilterProperties(t *testing.T) {
	tasks := sampleBoard()
	for _, search := range []string{"", "r", "REPORT", "milk", "zzz"} {
		for _, p := range []PriorityFilter{AllPriorities, "LOW", "MEDIUM", "HIGH"} {
			first := Filter(tasks, search, p)
			second := Filter(tasks, search, p)
			assert.Equal(t, first, second, "idempotent for %q/%s", search, p)

			for _, got := range first {
				assert.Contains(t, tasks, got)
				assert.True(t, strings.Contains(strings.ToLower(got.Title), strings.ToLower(search)))
				assert.True(t, p == AllPriorities || got.Priority == domain.Priority(p))
			}
		}
	}
	assert.Equal(t, sampleBoard(), tasks, "input is not modified")
}

func TestParsePriorityFilter(t *testing.T) {
	f, err := ParsePriorityFilter("ALL")
	require.NoError(t, err)
	assert.Equal(t, AllPriorities, f)

	f, err = ParsePriorityFilter("")
	require.NoError(t, err)
	assert.Equal(t, AllPriorities, f)

	f, err = ParsePriorityFilter("HIGH")
	require.NoError(t, err)
	assert.True(t, f.Matches(domain.PriorityHigh))
	assert.False(t, f.Matches(domain.PriorityLow))

	_, err = ParsePriorityFilter("URGENT")
	assert.Error(t, err)
}

func TestGroupByStatus(t *testing.T) {
	columns := GroupByStatus(sampleBoard())

	require.Len(t, columns, 3)
	assert.Equal(t, []int64{1, 3}, ids(columns[domain.StatusBacklog]))
	assert.Equal(t, []int64{2}, ids(columns[domain.StatusInProgress]))
	assert.Equal(t, []int64{4}, ids(columns[domain.StatusDone]))

	empty := GroupByStatus(nil)
	for _, s := range domain.AllStatuses() {
		col, ok := empty[s]
		assert.True(t, ok, "column %s present", s)
		assert.Empty(t, col)
	}
}
