package settlement

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func baseRule() Rule {
	return Rule{
		Version:       1,
		InstructorFee: InstructorFeeRule{DefaultAmount: decimal.NewFromInt(200000)},
	}
}

func dec(n int64) *decimal.Decimal {
	d := decimal.NewFromInt(n)
	return &d
}

func TestCalculate_DistanceAboveThreshold(t *testing.T) {
	rule := baseRule()
	rule.Transport = TransportRule{
		Enabled:             true,
		Mode:                TransportDistance,
		DistanceThresholdKm: 60,
		RatePerKm:           decimal.NewFromInt(100),
	}

	got := Calculate(rule, Input{DistanceKm: 80})
	if len(got.Items) != 2 {
		t.Fatalf("expected fee + transportation, got %d items", len(got.Items))
	}
	if !got.Items[1].Amount.Equal(decimal.NewFromInt(8000)) {
		t.Fatalf("expected transportation 8000, got %s", got.Items[1].Amount)
	}
	if !got.Total.Equal(decimal.NewFromInt(208000)) {
		t.Fatalf("expected total 208000, got %s", got.Total)
	}
}

func TestCalculate_DistanceThresholdBoundary(t *testing.T) {
	rule := baseRule()
	rule.Transport = TransportRule{
		Enabled:             true,
		Mode:                TransportDistance,
		DistanceThresholdKm: 60,
		RatePerKm:           decimal.NewFromInt(100),
	}

	// Exactly at the threshold: excluded.
	if got := Calculate(rule, Input{DistanceKm: 60}); len(got.Items) != 1 {
		t.Fatalf("distance 60 should exclude transportation, got %d items", len(got.Items))
	}
	// One past the threshold: included.
	if got := Calculate(rule, Input{DistanceKm: 61}); len(got.Items) != 2 {
		t.Fatalf("distance 61 should include transportation, got %d items", len(got.Items))
	}
}

func TestCalculate_FixedAccommodationIgnoresOverride(t *testing.T) {
	rule := baseRule()
	rule.Accommodation = AccommodationRule{
		Enabled:     true,
		Mode:        AccommodationFixed,
		FixedAmount: decimal.NewFromInt(80000),
	}

	got := Calculate(rule, Input{AccommodationOverride: dec(999999)})
	if len(got.Items) != 2 {
		t.Fatalf("expected fee + accommodation, got %d items", len(got.Items))
	}
	if !got.Items[1].Amount.Equal(decimal.NewFromInt(80000)) {
		t.Fatalf("fixed accommodation overridden: %s", got.Items[1].Amount)
	}
}

func TestCalculate_ActualAccommodationCapped(t *testing.T) {
	rule := baseRule()
	rule.Accommodation = AccommodationRule{
		Enabled:   true,
		Mode:      AccommodationActual,
		MaxAmount: dec(100000),
	}

	got := Calculate(rule, Input{Nights: 2, AccommodationOverride: dec(150000)})
	if !got.Items[1].Amount.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("expected capped 100000, got %s", got.Items[1].Amount)
	}

	// Under the cap: passed through.
	got = Calculate(rule, Input{Nights: 1, AccommodationOverride: dec(70000)})
	if !got.Items[1].Amount.Equal(decimal.NewFromInt(70000)) {
		t.Fatalf("expected 70000, got %s", got.Items[1].Amount)
	}
}

func TestCalculate_ActualAccommodationWithoutCostOmitsLine(t *testing.T) {
	rule := baseRule()
	rule.Accommodation = AccommodationRule{Enabled: true, Mode: AccommodationActual}

	got := Calculate(rule, Input{Nights: 2})
	if len(got.Items) != 1 {
		t.Fatalf("actual mode without a supplied cost should omit the line, got %d items", len(got.Items))
	}
}

func TestCalculate_BaseFeeOverride(t *testing.T) {
	got := Calculate(baseRule(), Input{BaseFeeOverride: dec(250000)})
	if !got.Items[0].Amount.Equal(decimal.NewFromInt(250000)) {
		t.Fatalf("expected overridden fee 250000, got %s", got.Items[0].Amount)
	}
}

func TestCalculate_TotalEqualsSumOfItems(t *testing.T) {
	rule := baseRule()
	rule.Transport = TransportRule{Enabled: true, Mode: TransportFixed, FixedAmount: decimal.NewFromInt(30000)}
	rule.Accommodation = AccommodationRule{Enabled: true, Mode: AccommodationFixed, FixedAmount: decimal.NewFromInt(80000)}

	got := Calculate(rule, Input{})
	sum := decimal.Zero
	for _, item := range got.Items {
		sum = sum.Add(item.Amount)
	}
	if !got.Total.Equal(sum) {
		t.Fatalf("total %s != sum of items %s", got.Total, sum)
	}
	if !got.Total.Equal(decimal.NewFromInt(310000)) {
		t.Fatalf("expected 310000, got %s", got.Total)
	}
}

func TestInputValidate_RejectsBadAmounts(t *testing.T) {
	cases := []struct {
		name string
		in   Input
		code string
	}{
		{name: "negative base fee override", in: Input{BaseFeeOverride: dec(-500000)}, code: "RULE_AMOUNT_NEGATIVE"},
		{name: "negative accommodation override", in: Input{AccommodationOverride: dec(-1)}, code: "RULE_AMOUNT_NEGATIVE"},
		{name: "negative distance", in: Input{DistanceKm: -10}, code: "VALIDATION_FAILED"},
		{name: "negative nights", in: Input{Nights: -1}, code: "VALIDATION_FAILED"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.in.Validate()
			if err == nil {
				t.Fatalf("expected error")
			}
			var verr ValidationError
			if !errors.As(err, &verr) || verr.Code != tc.code {
				t.Fatalf("expected code %s, got %v", tc.code, err)
			}
		})
	}
}

func TestInputValidate_RejectsFractionalOverride(t *testing.T) {
	half := decimal.NewFromFloat(150000.5)
	err := Input{BaseFeeOverride: &half}.Validate()
	var verr ValidationError
	if !errors.As(err, &verr) || verr.Code != "RULE_AMOUNT_FRACTIONAL" {
		t.Fatalf("expected RULE_AMOUNT_FRACTIONAL, got %v", err)
	}
}

func TestInputValidate_AcceptsWholeAmounts(t *testing.T) {
	in := Input{BaseFeeOverride: dec(250000), DistanceKm: 80, Nights: 2, AccommodationOverride: dec(70000)}
	if err := in.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestParseRule_FailsClosed(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		code string
	}{
		{
			name: "distance mode without rate",
			raw:  `{"instructorFee":{"defaultAmount":"200000"},"transportation":{"enabled":true,"mode":"distance","distanceThresholdKm":60}}`,
			code: "RULE_TRANSPORT_RATE_REQUIRED",
		},
		{
			name: "fixed transport without amount",
			raw:  `{"instructorFee":{"defaultAmount":"200000"},"transportation":{"enabled":true,"mode":"fixed"}}`,
			code: "RULE_TRANSPORT_FIXED_REQUIRED",
		},
		{
			name: "enabled transport with mode none",
			raw:  `{"instructorFee":{"defaultAmount":"200000"},"transportation":{"enabled":true,"mode":"none"}}`,
			code: "RULE_TRANSPORT_MODE_INVALID",
		},
		{
			name: "fixed accommodation without amount",
			raw:  `{"instructorFee":{"defaultAmount":"200000"},"accommodation":{"enabled":true,"mode":"fixed"}}`,
			code: "RULE_ACCOMMODATION_FIXED_REQUIRED",
		},
		{
			name: "fractional amount",
			raw:  `{"instructorFee":{"defaultAmount":"200000.50"}}`,
			code: "RULE_AMOUNT_FRACTIONAL",
		},
		{
			name: "negative fee",
			raw:  `{"instructorFee":{"defaultAmount":"-1"}}`,
			code: "RULE_AMOUNT_NEGATIVE",
		},
		{
			name: "not json",
			raw:  `{`,
			code: "VALIDATION_FAILED",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ParseRule(json.RawMessage(tc.raw))
			if err == nil {
				t.Fatalf("expected error")
			}
			var verr ValidationError
			if !errors.As(err, &verr) || verr.Code != tc.code {
				t.Fatalf("expected code %s, got %v", tc.code, err)
			}
		})
	}
}

func TestParseRule_ValidRuleRoundTrips(t *testing.T) {
	raw := `{
		"instructorFee":{"defaultAmount":"200000"},
		"transportation":{"enabled":true,"mode":"distance","distanceThresholdKm":60,"ratePerKm":"100"},
		"accommodation":{"enabled":true,"mode":"actual","maxAmount":"100000"}
	}`
	rule, err := ParseRule(json.RawMessage(raw))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rule.Version != 1 {
		t.Fatalf("expected version defaulted to 1, got %d", rule.Version)
	}
	if rule.Accommodation.MaxAmount == nil || !rule.Accommodation.MaxAmount.Equal(decimal.NewFromInt(100000)) {
		t.Fatalf("maxAmount not decoded: %+v", rule.Accommodation)
	}
}
