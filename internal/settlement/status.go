package settlement

import (
	"fmt"

	"eduops/internal/workflow"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusCalculated Status = "calculated"
	StatusApproved   Status = "approved"
	StatusPaid       Status = "paid"
	StatusCancelled  Status = "cancelled"
)

func ParseStatus(s string) (Status, error) {
	switch Status(s) {
	case StatusPending, StatusCalculated, StatusApproved, StatusPaid, StatusCancelled:
		return Status(s), nil
	default:
		return "", fmt.Errorf("unknown settlement status: %s", s)
	}
}

// Workflow: pending -> calculated -> approved -> paid, with cancellation
// possible until payment. paid and cancelled are terminal.
var Workflow = workflow.New(
	map[Status][]Status{
		StatusPending:    {StatusCalculated, StatusCancelled},
		StatusCalculated: {StatusApproved, StatusCancelled},
		StatusApproved:   {StatusPaid, StatusCancelled},
		StatusPaid:       {},
		StatusCancelled:  {},
	},
	map[Status]Status{
		StatusPending:    StatusCalculated,
		StatusCalculated: StatusApproved,
		StatusApproved:   StatusPaid,
	},
)
