package schedule

import (
	"reflect"
	"testing"
)

func ev(id, instructorID, date, start, end string) TimedEvent {
	return TimedEvent{ID: id, InstructorID: instructorID, Date: date, StartTime: start, EndTime: end}
}

func TestFindConflicts_OverlapIsSymmetric(t *testing.T) {
	events := []TimedEvent{
		ev("a", "i1", "2025-03-01", "09:00", "11:00"),
		ev("b", "i1", "2025-03-01", "10:00", "12:00"),
		ev("c", "i1", "2025-03-01", "13:00", "14:00"),
	}

	got := FindConflicts(events)
	want := []string{"a", "b"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestFindConflicts_DifferentInstructorOrDate(t *testing.T) {
	cases := []struct {
		name   string
		events []TimedEvent
	}{
		{
			name: "different instructors",
			events: []TimedEvent{
				ev("a", "i1", "2025-03-01", "09:00", "11:00"),
				ev("b", "i2", "2025-03-01", "10:00", "12:00"),
			},
		},
		{
			name: "different dates",
			events: []TimedEvent{
				ev("a", "i1", "2025-03-01", "09:00", "11:00"),
				ev("b", "i1", "2025-03-02", "09:00", "11:00"),
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FindConflicts(tc.events); len(got) != 0 {
				t.Fatalf("expected no conflicts, got %v", got)
			}
		})
	}
}

func TestFindConflicts_BackToBackIsNotOverlap(t *testing.T) {
	events := []TimedEvent{
		ev("a", "i1", "2025-03-01", "08:00", "10:00"),
		ev("b", "i1", "2025-03-01", "10:00", "12:00"),
	}
	if got := FindConflicts(events); len(got) != 0 {
		t.Fatalf("back-to-back events reported as conflict: %v", got)
	}
}

func TestFindConflicts_UnassignedEventsAreExempt(t *testing.T) {
	events := []TimedEvent{
		ev("a", "", "2025-03-01", "09:00", "11:00"),
		ev("b", "", "2025-03-01", "09:30", "10:30"),
	}
	if got := FindConflicts(events); len(got) != 0 {
		t.Fatalf("unassigned events reported as conflict: %v", got)
	}
}

func TestFindConflicts_ContainedInterval(t *testing.T) {
	events := []TimedEvent{
		ev("outer", "i1", "2025-03-01", "09:00", "17:00"),
		ev("inner", "i1", "2025-03-01", "12:00", "13:00"),
	}
	got := FindConflicts(events)
	if !reflect.DeepEqual(got, []string{"inner", "outer"}) {
		t.Fatalf("containment not detected: %v", got)
	}
}

func TestFindConflictsFor_ExcludesOwnPriorVersion(t *testing.T) {
	existing := []TimedEvent{
		ev("a", "i1", "2025-03-01", "09:00", "11:00"),
		ev("b", "i1", "2025-03-01", "14:00", "15:00"),
	}
	// Editing event "a" to shift by half an hour; its stored version still
	// overlaps the edit but must not count against itself.
	candidate := ev("a", "i1", "2025-03-01", "09:30", "11:30")

	got := FindConflictsFor(candidate, existing, "a")
	if len(got) != 0 {
		t.Fatalf("candidate conflicts with its own prior version: %v", got)
	}
}

func TestFindConflictsFor_ReportsOverlappingEvents(t *testing.T) {
	existing := []TimedEvent{
		ev("a", "i1", "2025-03-01", "09:00", "11:00"),
		ev("b", "i1", "2025-03-01", "10:30", "12:00"),
		ev("c", "i2", "2025-03-01", "10:00", "11:00"),
	}
	candidate := ev("", "i1", "2025-03-01", "10:00", "10:45")

	got := FindConflictsFor(candidate, existing, "")
	if len(got) != 2 || got[0].ID != "a" || got[1].ID != "b" {
		t.Fatalf("expected conflicts with a and b, got %v", got)
	}
}

func TestFindConflictsFor_UnassignedCandidateNeverConflicts(t *testing.T) {
	existing := []TimedEvent{
		ev("a", "i1", "2025-03-01", "09:00", "11:00"),
	}
	candidate := ev("", "", "2025-03-01", "09:00", "11:00")
	if got := FindConflictsFor(candidate, existing, ""); got != nil {
		t.Fatalf("unassigned candidate reported conflicts: %v", got)
	}
}

func TestValidateTimes(t *testing.T) {
	cases := []struct {
		name    string
		event   TimedEvent
		wantErr bool
	}{
		{"valid", ev("a", "i1", "2025-03-01", "09:00", "11:00"), false},
		{"bad date", ev("a", "i1", "2025-13-01", "09:00", "11:00"), true},
		{"unpadded hour", ev("a", "i1", "2025-03-01", "9:00", "11:00"), true},
		{"end before start", ev("a", "i1", "2025-03-01", "11:00", "09:00"), true},
		{"zero length", ev("a", "i1", "2025-03-01", "09:00", "09:00"), true},
		{"bad minutes", ev("a", "i1", "2025-03-01", "09:61", "11:00"), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.event.ValidateTimes()
			if tc.wantErr && err == nil {
				t.Fatalf("expected error")
			}
			if !tc.wantErr && err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}
