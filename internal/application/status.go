package application

import (
	"fmt"

	"eduops/internal/workflow"
)

type Status string

const (
	StatusSubmitted Status = "submitted"
	StatusReviewing Status = "reviewing"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusCancelled Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusSubmitted, StatusReviewing, StatusApproved, StatusRejected, StatusCancelled:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown application status: %s", s)
	}
}

// Workflow: submitted -> reviewing -> approved/rejected/cancelled. Every
// application passes through reviewing before any outcome, including
// cancellation. All three outcomes are terminal; reopening a decided
// application is an admin override, not a transition.
var Workflow = workflow.New(
	map[Status][]Status{
		StatusSubmitted: {StatusReviewing},
		StatusReviewing: {StatusApproved, StatusRejected, StatusCancelled},
		StatusApproved:  {},
		StatusRejected:  {},
		StatusCancelled: {},
	},
	map[Status]Status{
		StatusSubmitted: StatusReviewing,
		StatusReviewing: StatusApproved,
	},
)

// requiresReason reports whether a transition into the status must carry an
// operator-supplied reason.
func requiresReason(to Status) bool {
	return to == StatusRejected || to == StatusCancelled
}
