package application

import "testing"

func TestWorkflow_MustPassThroughReviewing(t *testing.T) {
	if Workflow.CanTransition(StatusSubmitted, StatusApproved) {
		t.Fatalf("submitted -> approved must pass through reviewing")
	}
	if Workflow.CanTransition(StatusSubmitted, StatusCancelled) {
		t.Fatalf("submitted -> cancelled must pass through reviewing")
	}
	if !Workflow.CanTransition(StatusSubmitted, StatusReviewing) {
		t.Fatalf("submitted -> reviewing should be legal")
	}
}

func TestWorkflow_SubmittedHasSingleNextStatus(t *testing.T) {
	next := Workflow.NextStatuses(StatusSubmitted)
	if len(next) != 1 || next[0] != StatusReviewing {
		t.Fatalf("expected [reviewing], got %v", next)
	}
}

func TestWorkflow_DecisionsAreTerminal(t *testing.T) {
	all := []Status{StatusSubmitted, StatusReviewing, StatusApproved, StatusRejected, StatusCancelled}
	for _, s := range []Status{StatusApproved, StatusRejected, StatusCancelled} {
		if !Workflow.IsTerminal(s) {
			t.Fatalf("%s should be terminal", s)
		}
		for _, to := range all {
			if Workflow.CanTransition(s, to) {
				t.Fatalf("terminal %s allows %s", s, to)
			}
		}
	}
}

func TestWorkflow_SelfTransitionIllegal(t *testing.T) {
	for _, s := range []Status{StatusSubmitted, StatusReviewing, StatusApproved, StatusRejected, StatusCancelled} {
		if Workflow.CanTransition(s, s) {
			t.Fatalf("self-transition allowed for %s", s)
		}
	}
}

func TestWorkflow_AutoAdvance(t *testing.T) {
	if next, ok := Workflow.AutoAdvance(StatusSubmitted); !ok || next != StatusReviewing {
		t.Fatalf("expected submitted -> reviewing, got %s ok=%v", next, ok)
	}
	if next, ok := Workflow.AutoAdvance(StatusReviewing); !ok || next != StatusApproved {
		t.Fatalf("expected reviewing -> approved, got %s ok=%v", next, ok)
	}
	if _, ok := Workflow.AutoAdvance(StatusRejected); ok {
		t.Fatalf("terminal status has an auto-advance step")
	}
}

func TestRequiresReason(t *testing.T) {
	if !requiresReason(StatusRejected) || !requiresReason(StatusCancelled) {
		t.Fatalf("rejected and cancelled require a reason")
	}
	if requiresReason(StatusApproved) || requiresReason(StatusReviewing) {
		t.Fatalf("forward transitions do not require a reason")
	}
}

func TestParseStatus_RejectsForeignStatus(t *testing.T) {
	if _, err := ParseStatus("reviewing"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseStatus("calculated"); err == nil {
		t.Fatalf("settlement status accepted as application status")
	}
}
