package settlement

import (
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"
)

type TransportMode string

const (
	TransportNone     TransportMode = "none"
	TransportDistance TransportMode = "distance"
	TransportFixed    TransportMode = "fixed"
)

type AccommodationMode string

const (
	AccommodationNone   AccommodationMode = "none"
	AccommodationFixed  AccommodationMode = "fixed"
	AccommodationActual AccommodationMode = "actual"
)

// Rule is the externally supplied configuration driving settlement amounts.
// It is stored as JSONB on the program record; keep it versioned so it can
// evolve without breaking persisted snapshots.
type Rule struct {
	Version       int               `json:"version"`
	InstructorFee InstructorFeeRule `json:"instructorFee"`
	Transport     TransportRule     `json:"transportation"`
	Accommodation AccommodationRule `json:"accommodation"`
}

type InstructorFeeRule struct {
	DefaultAmount decimal.Decimal `json:"defaultAmount"`
}

type TransportRule struct {
	Enabled             bool            `json:"enabled"`
	Mode                TransportMode   `json:"mode"`
	DistanceThresholdKm int64           `json:"distanceThresholdKm,omitempty"`
	RatePerKm           decimal.Decimal `json:"ratePerKm,omitempty"`
	FixedAmount         decimal.Decimal `json:"fixedAmount,omitempty"`
}

type AccommodationRule struct {
	Enabled     bool              `json:"enabled"`
	Mode        AccommodationMode `json:"mode"`
	FixedAmount decimal.Decimal   `json:"fixedAmount,omitempty"`
	// MaxAmount caps actual-cost accommodation when present.
	MaxAmount *decimal.Decimal `json:"maxAmount,omitempty"`
}

type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	if e.Code == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// ParseRule decodes and validates a rule configuration. Validation is
// fail-closed: a rule that enables a mode without its required parameter is
// rejected here, at load time, so a bad rule never silently computes a zero
// or wrong amount.
func ParseRule(raw json.RawMessage) (Rule, error) {
	var rule Rule
	if err := json.Unmarshal(raw, &rule); err != nil {
		return Rule{}, ValidationError{Code: "VALIDATION_FAILED", Message: "invalid rule json"}
	}
	if rule.Version == 0 {
		rule.Version = 1
	}
	if err := ValidateRule(rule); err != nil {
		return Rule{}, err
	}
	return rule, nil
}

// ValidateRule enforces the rule contract. All monetary amounts are
// non-negative whole currency units (smallest denomination, no fractions).
func ValidateRule(rule Rule) error {
	if err := checkAmount("instructorFee.defaultAmount", rule.InstructorFee.DefaultAmount); err != nil {
		return err
	}

	if rule.Transport.Enabled {
		switch rule.Transport.Mode {
		case TransportDistance:
			if rule.Transport.RatePerKm.LessThanOrEqual(decimal.Zero) {
				return ValidationError{Code: "RULE_TRANSPORT_RATE_REQUIRED", Message: "distance mode requires ratePerKm > 0"}
			}
			if !rule.Transport.RatePerKm.IsInteger() {
				return ValidationError{Code: "RULE_AMOUNT_FRACTIONAL", Message: "ratePerKm must be a whole currency amount"}
			}
			if rule.Transport.DistanceThresholdKm < 0 {
				return ValidationError{Code: "RULE_TRANSPORT_THRESHOLD_INVALID", Message: "distanceThresholdKm must be >= 0"}
			}
		case TransportFixed:
			if rule.Transport.FixedAmount.LessThanOrEqual(decimal.Zero) {
				return ValidationError{Code: "RULE_TRANSPORT_FIXED_REQUIRED", Message: "fixed mode requires fixedAmount > 0"}
			}
			if !rule.Transport.FixedAmount.IsInteger() {
				return ValidationError{Code: "RULE_AMOUNT_FRACTIONAL", Message: "fixedAmount must be a whole currency amount"}
			}
		case TransportNone:
			return ValidationError{Code: "RULE_TRANSPORT_MODE_INVALID", Message: "transportation enabled with mode none"}
		default:
			return ValidationError{Code: "RULE_TRANSPORT_MODE_INVALID", Message: "transportation mode must be distance or fixed"}
		}
	}

	if rule.Accommodation.Enabled {
		switch rule.Accommodation.Mode {
		case AccommodationFixed:
			if rule.Accommodation.FixedAmount.LessThanOrEqual(decimal.Zero) {
				return ValidationError{Code: "RULE_ACCOMMODATION_FIXED_REQUIRED", Message: "fixed mode requires fixedAmount > 0"}
			}
			if !rule.Accommodation.FixedAmount.IsInteger() {
				return ValidationError{Code: "RULE_AMOUNT_FRACTIONAL", Message: "fixedAmount must be a whole currency amount"}
			}
		case AccommodationActual:
			if rule.Accommodation.MaxAmount != nil {
				if err := checkAmount("accommodation.maxAmount", *rule.Accommodation.MaxAmount); err != nil {
					return err
				}
			}
		case AccommodationNone:
			return ValidationError{Code: "RULE_ACCOMMODATION_MODE_INVALID", Message: "accommodation enabled with mode none"}
		default:
			return ValidationError{Code: "RULE_ACCOMMODATION_MODE_INVALID", Message: "accommodation mode must be fixed or actual"}
		}
	}

	return nil
}

func checkAmount(field string, amount decimal.Decimal) error {
	if amount.IsNegative() {
		return ValidationError{Code: "RULE_AMOUNT_NEGATIVE", Message: field + " must be >= 0"}
	}
	if !amount.IsInteger() {
		return ValidationError{Code: "RULE_AMOUNT_FRACTIONAL", Message: field + " must be a whole currency amount"}
	}
	return nil
}
