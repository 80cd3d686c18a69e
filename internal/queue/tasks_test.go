package queue

import (
	"encoding/json"
	"testing"
	"time"
)

func TestRollupPayloadDaysExplicit(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	days, err := RollupPayload{Day: "2026-03-14"}.Days(now)
	if err != nil {
		t.Fatalf("Days: %v", err)
	}
	if len(days) != 1 {
		t.Fatalf("got %d days, want 1", len(days))
	}
	want := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	if !days[0].Equal(want) {
		t.Fatalf("day = %v, want %v", days[0], want)
	}
}

func TestRollupPayloadDaysDefault(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 0, 30, 0, 0, time.UTC)
	days, err := RollupPayload{}.Days(now)
	if err != nil {
		t.Fatalf("Days: %v", err)
	}
	if len(days) != 2 {
		t.Fatalf("got %d days, want 2", len(days))
	}
	if days[0].Day() != 14 || days[1].Day() != 13 {
		t.Fatalf("default days = %v and %v, want today then yesterday", days[0], days[1])
	}
}

func TestRollupPayloadDaysBadFormat(t *testing.T) {
	t.Parallel()

	for _, bad := range []string{"14-03-2026", "2026/03/14", "yesterday"} {
		if _, err := (RollupPayload{Day: bad}).Days(time.Now()); err == nil {
			t.Errorf("Days accepted %q", bad)
		}
	}
}

func TestNewRollupTaskPayloadRoundTrip(t *testing.T) {
	t.Parallel()

	task, err := NewRollupTask(RollupPayload{Day: "2026-03-14"})
	if err != nil {
		t.Fatalf("NewRollupTask: %v", err)
	}
	if task.Type() != TypeAnalyticsRollup {
		t.Fatalf("task type = %q, want %q", task.Type(), TypeAnalyticsRollup)
	}

	var p RollupPayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	if p.Day != "2026-03-14" {
		t.Fatalf("payload day = %q", p.Day)
	}
}
