package program

import (
	"encoding/json"
	"time"
)

// Program is one education program run for a school, funded by a sponsor.
// SettlementRule is the JSONB rule configuration driving settlement amounts
// for the program's instructors; it is validated fail-closed on write.
type Program struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	SchoolName     string          `json:"schoolName,omitempty"`
	SponsorName    string          `json:"sponsorName,omitempty"`
	StartsOn       string          `json:"startsOn,omitempty"` // YYYY-MM-DD
	EndsOn         string          `json:"endsOn,omitempty"`
	SettlementRule json.RawMessage `json:"settlementRule,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}
