package workflow

import "testing"

// A small three-state machine: draft -> open -> closed, with closed terminal
// and an abandon branch out of draft.
func testMachine() Machine[string] {
	return New(
		map[string][]string{
			"draft":     {"open", "abandoned"},
			"open":      {"closed"},
			"closed":    {},
			"abandoned": {},
		},
		map[string]string{
			"draft": "open",
			"open":  "closed",
		},
	)
}

func TestCanTransition_SelfIsAlwaysIllegal(t *testing.T) {
	m := testMachine()
	for _, s := range []string{"draft", "open", "closed", "abandoned"} {
		if m.CanTransition(s, s) {
			t.Fatalf("self-transition allowed for %q", s)
		}
	}
}

func TestCanTransition_TerminalClosure(t *testing.T) {
	m := testMachine()
	for _, s := range []string{"closed", "abandoned"} {
		if !m.IsTerminal(s) {
			t.Fatalf("expected %q terminal", s)
		}
		for _, to := range []string{"draft", "open", "closed", "abandoned"} {
			if m.CanTransition(s, to) {
				t.Fatalf("terminal %q allows transition to %q", s, to)
			}
		}
	}
}

func TestNextStatuses_ReturnsCopy(t *testing.T) {
	m := testMachine()
	next := m.NextStatuses("draft")
	if len(next) != 2 {
		t.Fatalf("expected 2 next statuses, got %d", len(next))
	}
	next[0] = "corrupted"
	if got := m.NextStatuses("draft")[0]; got != "open" {
		t.Fatalf("table mutated through returned slice: %q", got)
	}
}

func TestAutoAdvance_AbsentAtTerminal(t *testing.T) {
	m := testMachine()
	if next, ok := m.AutoAdvance("draft"); !ok || next != "open" {
		t.Fatalf("expected draft -> open, got %q ok=%v", next, ok)
	}
	if _, ok := m.AutoAdvance("closed"); ok {
		t.Fatalf("terminal status has an auto-advance step")
	}
}

func TestCanTransition_UnknownStatusIsClosed(t *testing.T) {
	m := testMachine()
	if m.CanTransition("bogus", "open") {
		t.Fatalf("unknown status allowed a transition")
	}
	if !m.IsTerminal("bogus") {
		t.Fatalf("unknown status should behave as closed")
	}
}
