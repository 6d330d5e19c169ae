package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func TestTaskDraftNormalize(t *testing.T) {
	t.Parallel()

	d := TaskDraft{Title: "  Buy milk  "}.Normalize()
	assert.Equal(t, "Buy milk", d.Title)
	assert.Equal(t, StatusBacklog, d.Status)
	assert.Equal(t, PriorityMedium, d.Priority)

	d = TaskDraft{Title: "x", Status: StatusDone, Priority: PriorityHigh}.Normalize()
	assert.Equal(t, StatusDone, d.Status)
	assert.Equal(t, PriorityHigh, d.Priority)
}

func TestTaskDraftValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		draft  TaskDraft
		fields []string
	}{
		{name: "valid", draft: TaskDraft{Title: "Write report"}},
		{name: "blank title", draft: TaskDraft{Title: "   "}, fields: []string{"title"}},
		{name: "long title", draft: TaskDraft{Title: strings.Repeat("a", MaxTitleLength+1)}, fields: []string{"title"}},
		{name: "max title", draft: TaskDraft{Title: strings.Repeat("é", MaxTitleLength)}},
		{
			name:   "bad enums",
			draft:  TaskDraft{Title: "ok", Status: "LATER", Priority: "NOW"},
			fields: []string{"priority", "status"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.draft.Validate()
			if len(tc.fields) == 0 {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrValidation))
			fields := FieldErrors(err)
			for _, f := range tc.fields {
				assert.Contains(t, fields, f)
			}
			assert.Len(t, fields, len(tc.fields))
		})
	}
}

func TestTaskDraftUnmarshal(t *testing.T) {
	t.Parallel()

	var d TaskDraft
	err := json.Unmarshal([]byte(`{"title":" Plan ","priority":"HIGH","due_date":"2024-03-01","id":99}`), &d)
	require.NoError(t, err)
	assert.Equal(t, " Plan ", d.Title)
	assert.Equal(t, PriorityHigh, d.Priority)
	require.NotNil(t, d.DueDate)
	assert.Equal(t, "2024-03-01", d.DueDate.String())

	err = json.Unmarshal([]byte(`{"status":"NOPE","due_date":"03/01/2024"}`), &d)
	require.Error(t, err)
	fields := FieldErrors(err)
	assert.Equal(t, "This field is required.", fields["title"])
	assert.Equal(t, "Invalid status. Must be one of: BACKLOG, IN_PROGRESS, DONE", fields["status"])
	assert.Contains(t, fields, "due_date")

	err = json.Unmarshal([]byte(`[1,2]`), &d)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestTaskPatchTriState(t *testing.T) {
	t.Parallel()

	var p TaskPatch
	require.NoError(t, json.Unmarshal([]byte(`{"description":null,"status":"DONE"}`), &p))
	assert.True(t, p.Description.IsNull())
	assert.False(t, p.DueDate.IsSet())
	require.NotNil(t, p.Status)
	assert.Equal(t, StatusDone, *p.Status)
	assert.Nil(t, p.Title)

	due := NewDate(2024, time.May, 2)
	task := Task{ID: 1, Title: "a", Description: strPtr("keep?"), Status: StatusBacklog, Priority: PriorityLow, DueDate: &due}
	got := p.Apply(task)
	assert.Nil(t, got.Description)
	assert.Equal(t, StatusDone, got.Status)
	require.NotNil(t, got.DueDate)
	assert.Equal(t, due, *got.DueDate)

	// original must be untouched
	assert.Equal(t, StatusBacklog, task.Status)
}

func TestTaskPatchMarshalOmitsAbsentFields(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(StatusPatch(StatusInProgress))
	require.NoError(t, err)
	assert.JSONEq(t, `{"status":"IN_PROGRESS"}`, string(data))

	p := TaskPatch{Title: strPtr("t"), Description: Null[string](), DueDate: Some(NewDate(2025, time.January, 9))}
	data, err = json.Marshal(p)
	require.NoError(t, err)
	assert.JSONEq(t, `{"title":"t","description":null,"due_date":"2025-01-09"}`, string(data))

	assert.True(t, TaskPatch{}.IsEmpty())
	assert.False(t, p.IsEmpty())
}

func TestTaskPatchRejectsEmptyTitle(t *testing.T) {
	t.Parallel()

	var p TaskPatch
	err := json.Unmarshal([]byte(`{"title":"  "}`), &p)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmptyTitle)
	assert.Equal(t, "Title cannot be empty.", FieldErrors(err)["title"])
}

func TestTaskIsOverdue(t *testing.T) {
	t.Parallel()

	today := NewDate(2024, time.June, 10)
	yesterday := today.AddDays(-1)

	assert.True(t, Task{Status: StatusBacklog, DueDate: &yesterday}.IsOverdue(today))
	assert.False(t, Task{Status: StatusDone, DueDate: &yesterday}.IsOverdue(today))
	assert.False(t, Task{Status: StatusBacklog, DueDate: &today}.IsOverdue(today))
	assert.False(t, Task{Status: StatusBacklog}.IsOverdue(today))
}

func TestComputeStatistics(t *testing.T) {
	t.Parallel()

	stats := ComputeStatistics([]Task{
		{Status: StatusBacklog, Priority: PriorityHigh},
		{Status: StatusBacklog, Priority: PriorityLow},
		{Status: StatusDone, Priority: PriorityHigh},
	})
	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, StatusCounts{Backlog: 2, Done: 1}, stats.ByStatus)
	assert.Equal(t, PriorityCounts{Low: 1, High: 2}, stats.ByPriority)

	data, err := json.Marshal(stats)
	require.NoError(t, err)
	assert.JSONEq(t,
		`{"total":3,"by_status":{"backlog":2,"in_progress":0,"done":1},"by_priority":{"low":1,"medium":0,"high":2}}`,
		string(data))
}

func TestDate(t *testing.T) {
	t.Parallel()

	d, err := ParseDate("2024-02-29")
	require.NoError(t, err)
	assert.Equal(t, "2024-02-29", d.String())
	assert.Equal(t, "2024-03-01", d.AddDays(1).String())
	assert.True(t, d.Before(d.AddDays(1)))

	_, err = ParseDate("2023-02-29")
	assert.ErrorIs(t, err, ErrInvalidFormat)

	var task Task
	require.NoError(t, json.Unmarshal([]byte(`{"id":4,"title":"x","status":"DONE","priority":"LOW","due_date":null,"description":null}`), &task))
	assert.Nil(t, task.DueDate)
	assert.Nil(t, task.Description)
}
