package domain

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseStatus(t *testing.T) {
	t.Parallel()

	for _, s := range AllStatuses() {
		got, err := ParseStatus(string(s))
		if err != nil {
			t.Fatalf("ParseStatus(%q) returned error: %v", s, err)
		}
		if got != s {
			t.Errorf("ParseStatus(%q) = %q", s, got)
		}
	}

	for _, bad := range []string{"", "done", "ARCHIVED", " DONE"} {
		_, err := ParseStatus(bad)
		if !errors.Is(err, ErrInvalidStatus) {
			t.Errorf("ParseStatus(%q) error = %v, want ErrInvalidStatus", bad, err)
		}
		if !errors.Is(err, ErrValidation) {
			t.Errorf("ParseStatus(%q) error should match ErrValidation", bad)
		}
	}
}

func TestParseStatusMessageListsChoices(t *testing.T) {
	t.Parallel()

	_, err := ParseStatus("nope")
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
	want := "Invalid status. Must be one of: BACKLOG, IN_PROGRESS, DONE"
	if ve.Message != want {
		t.Errorf("message = %q, want %q", ve.Message, want)
	}
	if ve.Field != "status" {
		t.Errorf("field = %q, want status", ve.Field)
	}
}

func TestAllStatusesOrderAndCopy(t *testing.T) {
	t.Parallel()

	got := AllStatuses()
	want := []Status{StatusBacklog, StatusInProgress, StatusDone}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("AllStatuses()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
	got[0] = "MUTATED"
	if AllStatuses()[0] != StatusBacklog {
		t.Error("AllStatuses must return a copy")
	}
}

func TestStatusJSON(t *testing.T) {
	t.Parallel()

	var s Status
	if err := json.Unmarshal([]byte(`"IN_PROGRESS"`), &s); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if s != StatusInProgress {
		t.Errorf("got %q", s)
	}

	if err := json.Unmarshal([]byte(`"SOMEDAY"`), &s); !errors.Is(err, ErrInvalidStatus) {
		t.Errorf("unknown status error = %v", err)
	}
	if err := json.Unmarshal([]byte(`3`), &s); !errors.Is(err, ErrInvalidFormat) {
		t.Errorf("non-string status error = %v", err)
	}

	if _, err := json.Marshal(Status("BOGUS")); err == nil {
		t.Error("marshalling an invalid status should fail")
	}
}

func TestParsePriority(t *testing.T) {
	t.Parallel()

	p, err := ParsePriority("HIGH")
	if err != nil || p != PriorityHigh {
		t.Fatalf("ParsePriority(HIGH) = %q, %v", p, err)
	}
	if _, err := ParsePriority("URGENT"); !errors.Is(err, ErrInvalidPriority) {
		t.Errorf("ParsePriority(URGENT) error = %v", err)
	}
	if PriorityLow.Rank() >= PriorityMedium.Rank() || PriorityMedium.Rank() >= PriorityHigh.Rank() {
		t.Error("priority ranks must increase LOW < MEDIUM < HIGH")
	}
}

func TestStatusKeysAndLabels(t *testing.T) {
	t.Parallel()

	if StatusInProgress.Key() != "in_progress" {
		t.Errorf("Key() = %q", StatusInProgress.Key())
	}
	if StatusInProgress.Label() != "In Progress" {
		t.Errorf("Label() = %q", StatusInProgress.Label())
	}
}
