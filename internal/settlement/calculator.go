package settlement

import (
	"github.com/shopspring/decimal"
)

type LineKind string

const (
	LineInstructorFee LineKind = "instructor_fee"
	LineTransport     LineKind = "transportation"
	LineAccommodation LineKind = "accommodation"
)

type LineItem struct {
	Kind   LineKind        `json:"kind"`
	Label  string          `json:"label"`
	Amount decimal.Decimal `json:"amount"`
}

type Breakdown struct {
	Items []LineItem      `json:"items"`
	Total decimal.Decimal `json:"total"`
}

// Input carries the per-case values for one settlement. Overrides are
// pointers so that an explicit zero stays distinguishable from absent.
type Input struct {
	BaseFeeOverride *decimal.Decimal `json:"baseFeeOverride,omitempty"`
	DistanceKm      int64            `json:"distanceKm,omitempty"`
	Nights          int              `json:"nights,omitempty"`
	// AccommodationOverride is the actual accommodation cost in actual mode.
	// Fixed mode ignores it: changing a fixed amount requires changing the
	// rule's mode, not the input.
	AccommodationOverride *decimal.Decimal `json:"accommodationOverride,omitempty"`
}

// Validate checks the input shape at the boundary, before anything reaches
// the calculator. Monetary overrides follow the same contract as rule
// amounts: non-negative whole currency units.
func (in Input) Validate() error {
	if in.DistanceKm < 0 {
		return ValidationError{Code: "VALIDATION_FAILED", Message: "distanceKm must be >= 0"}
	}
	if in.Nights < 0 {
		return ValidationError{Code: "VALIDATION_FAILED", Message: "nights must be >= 0"}
	}
	if in.BaseFeeOverride != nil {
		if err := checkAmount("baseFeeOverride", *in.BaseFeeOverride); err != nil {
			return err
		}
	}
	if in.AccommodationOverride != nil {
		if err := checkAmount("accommodationOverride", *in.AccommodationOverride); err != nil {
			return err
		}
	}
	return nil
}

// Calculate computes the settlement line items and total for one case. It is
// a pure function of the rule and input; callers validate the rule via
// ParseRule/ValidateRule and the input via Input.Validate before either
// reaches calculation.
func Calculate(rule Rule, in Input) Breakdown {
	var items []LineItem

	fee := rule.InstructorFee.DefaultAmount
	if in.BaseFeeOverride != nil {
		fee = *in.BaseFeeOverride
	}
	items = append(items, LineItem{Kind: LineInstructorFee, Label: "Instructor fee", Amount: fee})

	if rule.Transport.Enabled {
		switch rule.Transport.Mode {
		case TransportDistance:
			// Threshold is exclusive: exactly at the threshold pays nothing.
			if in.DistanceKm > rule.Transport.DistanceThresholdKm {
				amount := decimal.NewFromInt(in.DistanceKm).Mul(rule.Transport.RatePerKm)
				items = append(items, LineItem{Kind: LineTransport, Label: "Transportation", Amount: amount})
			}
		case TransportFixed:
			items = append(items, LineItem{Kind: LineTransport, Label: "Transportation", Amount: rule.Transport.FixedAmount})
		}
	}

	if rule.Accommodation.Enabled {
		switch rule.Accommodation.Mode {
		case AccommodationFixed:
			items = append(items, LineItem{Kind: LineAccommodation, Label: "Accommodation", Amount: rule.Accommodation.FixedAmount})
		case AccommodationActual:
			if in.AccommodationOverride != nil {
				amount := *in.AccommodationOverride
				if rule.Accommodation.MaxAmount != nil && amount.GreaterThan(*rule.Accommodation.MaxAmount) {
					amount = *rule.Accommodation.MaxAmount
				}
				items = append(items, LineItem{Kind: LineAccommodation, Label: "Accommodation", Amount: amount})
			}
		}
	}

	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.Amount)
	}

	return Breakdown{Items: items, Total: total}
}
