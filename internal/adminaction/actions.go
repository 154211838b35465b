package adminaction

type ActionType string

const (
	// ActionMarkSettlementPaid records payment without waiting for the
	// approval step (e.g. paid manually outside the system).
	ActionMarkSettlementPaid ActionType = "MARK_SETTLEMENT_PAID"

	// ActionReopenApplication pulls a decided application back to reviewing.
	// Reopening is deliberately not a workflow transition: decided statuses
	// are terminal and only an audited override may leave them.
	ActionReopenApplication ActionType = "REOPEN_APPLICATION"
)
