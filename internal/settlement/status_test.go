package settlement

import "testing"

func TestWorkflow_HappyPath(t *testing.T) {
	path := []Status{StatusPending, StatusCalculated, StatusApproved, StatusPaid}
	for i := 0; i < len(path)-1; i++ {
		if !Workflow.CanTransition(path[i], path[i+1]) {
			t.Fatalf("%s -> %s should be legal", path[i], path[i+1])
		}
		next, ok := Workflow.AutoAdvance(path[i])
		if !ok || next != path[i+1] {
			t.Fatalf("auto-advance from %s: got %s ok=%v, want %s", path[i], next, ok, path[i+1])
		}
	}
}

func TestWorkflow_CancellableUntilPaid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusCalculated, StatusApproved} {
		if !Workflow.CanTransition(s, StatusCancelled) {
			t.Fatalf("%s -> cancelled should be legal", s)
		}
	}
	if Workflow.CanTransition(StatusPaid, StatusCancelled) {
		t.Fatalf("paid settlements cannot be cancelled")
	}
}

func TestWorkflow_PaidIsTerminal(t *testing.T) {
	for _, s := range []Status{StatusPaid, StatusCancelled} {
		if !Workflow.IsTerminal(s) {
			t.Fatalf("%s should be terminal", s)
		}
		for _, to := range []Status{StatusPending, StatusCalculated, StatusApproved, StatusPaid, StatusCancelled} {
			if Workflow.CanTransition(s, to) {
				t.Fatalf("terminal %s allows %s", s, to)
			}
		}
	}
}

func TestWorkflow_NoSkippingApproval(t *testing.T) {
	if Workflow.CanTransition(StatusPending, StatusApproved) {
		t.Fatalf("pending -> approved must pass through calculated")
	}
	if Workflow.CanTransition(StatusCalculated, StatusPaid) {
		t.Fatalf("calculated -> paid must pass through approved")
	}
}

func TestParseStatus(t *testing.T) {
	if _, err := ParseStatus("calculated"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ParseStatus("reviewing"); err == nil {
		t.Fatalf("application status accepted as settlement status")
	}
}
