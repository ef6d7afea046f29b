package billing

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCalculateAppliesRulesInOrder(t *testing.T) {
	rules := []Rule{
		{FieldName: "service_charge", FieldLabel: "Service Charge", FieldType: FieldTypePercentage, FieldValue: 10, AppliesTo: AppliesToSubtotal, CalculationOrder: 1},
		{FieldName: "gst", FieldLabel: "GST", FieldType: FieldTypeTax, FieldValue: 5, AppliesTo: AppliesToTotal, CalculationOrder: 2},
		{FieldName: "packing", FieldLabel: "Packing", FieldType: FieldTypeFixedAmount, FieldValue: 20, AppliesTo: AppliesToTotal, CalculationOrder: 3},
	}

	got := Calculate(1000, rules)

	if len(got.Adjustments) != 3 {
		t.Fatalf("expected 3 adjustments, got %d", len(got.Adjustments))
	}
	if !almostEqual(got.Adjustments[0].Amount, 100) {
		t.Fatalf("expected service charge 100, got %v", got.Adjustments[0].Amount)
	}
	// Tax applies to the running total (1000 + 100).
	if !almostEqual(got.Adjustments[1].Amount, 55) {
		t.Fatalf("expected tax 55, got %v", got.Adjustments[1].Amount)
	}
	if !almostEqual(got.Adjustments[2].Amount, 20) {
		t.Fatalf("expected fixed charge 20, got %v", got.Adjustments[2].Amount)
	}
	if !almostEqual(got.Total, 1175) {
		t.Fatalf("expected total 1175, got %v", got.Total)
	}
}

func TestCalculateSortsByCalculationOrder(t *testing.T) {
	rules := []Rule{
		{FieldName: "gst", FieldLabel: "GST", FieldType: FieldTypeTax, FieldValue: 10, AppliesTo: AppliesToTotal, CalculationOrder: 2},
		{FieldName: "service_charge", FieldLabel: "Service", FieldType: FieldTypeFixedAmount, FieldValue: 100, AppliesTo: AppliesToTotal, CalculationOrder: 1},
	}

	got := Calculate(500, rules)

	if got.Adjustments[0].Label != "Service" {
		t.Fatalf("expected service applied first, got %s", got.Adjustments[0].Label)
	}
	// Tax base is 500 + 100 because the fixed charge runs first.
	if !almostEqual(got.Adjustments[1].Amount, 60) {
		t.Fatalf("expected tax 60, got %v", got.Adjustments[1].Amount)
	}
	if !almostEqual(got.Total, 660) {
		t.Fatalf("expected total 660, got %v", got.Total)
	}
}

func TestCalculateDiscountCoercion(t *testing.T) {
	cases := []struct {
		name   string
		rule   Rule
		amount float64
	}{
		{
			name:   "percentage discount negated",
			rule:   Rule{FieldName: "loyalty_discount", FieldLabel: "Loyalty", FieldType: FieldTypePercentage, FieldValue: 10, AppliesTo: AppliesToSubtotal},
			amount: -100,
		},
		{
			name:   "fixed discount negated",
			rule:   Rule{FieldName: "discount_flat", FieldLabel: "Flat", FieldType: FieldTypeFixedAmount, FieldValue: 50, AppliesTo: AppliesToTotal},
			amount: -50,
		},
		{
			name:   "already negative discount untouched",
			rule:   Rule{FieldName: "discount_manual", FieldLabel: "Manual", FieldType: FieldTypeFixedAmount, FieldValue: -30, AppliesTo: AppliesToTotal},
			amount: -30,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Calculate(1000, []Rule{tc.rule})
			if !almostEqual(got.Adjustments[0].Amount, tc.amount) {
				t.Fatalf("expected adjustment %v, got %v", tc.amount, got.Adjustments[0].Amount)
			}
			if got.Adjustments[0].Amount > 0 {
				t.Fatalf("discount rule produced a positive adjustment")
			}
		})
	}
}

func TestCalculateTotalNeverNegative(t *testing.T) {
	rules := []Rule{
		{FieldName: "discount_big", FieldLabel: "Big Discount", FieldType: FieldTypeFixedAmount, FieldValue: 500, AppliesTo: AppliesToTotal, CalculationOrder: 1},
	}

	got := Calculate(100, rules)
	if got.Total != 0 {
		t.Fatalf("expected total clamped to 0, got %v", got.Total)
	}
	if !almostEqual(got.Adjustments[0].Amount, -500) {
		t.Fatalf("expected adjustment -500, got %v", got.Adjustments[0].Amount)
	}
}

func TestCalculateDeterministic(t *testing.T) {
	rules := []Rule{
		{FieldName: "service_charge", FieldLabel: "Service", FieldType: FieldTypePercentage, FieldValue: 7.5, AppliesTo: AppliesToSubtotal, CalculationOrder: 1},
		{FieldName: "festival_discount", FieldLabel: "Festival", FieldType: FieldTypePercentage, FieldValue: 12, AppliesTo: AppliesToTotal, CalculationOrder: 2},
		{FieldName: "gst", FieldLabel: "GST", FieldType: FieldTypeTax, FieldValue: 18, AppliesTo: AppliesToTotal, CalculationOrder: 3},
	}

	first := Calculate(1234.56, rules)
	for i := 0; i < 50; i++ {
		again := Calculate(1234.56, rules)
		if again.Total != first.Total || len(again.Adjustments) != len(first.Adjustments) {
			t.Fatalf("calculation diverged on run %d", i)
		}
		for j := range again.Adjustments {
			if again.Adjustments[j] != first.Adjustments[j] {
				t.Fatalf("adjustment %d diverged on run %d", j, i)
			}
		}
	}
}

func TestCalculateEmptyRules(t *testing.T) {
	got := Calculate(420, nil)
	if got.Total != 420 || len(got.Adjustments) != 0 {
		t.Fatalf("expected pass-through total, got %+v", got)
	}
}

func TestValidateRule(t *testing.T) {
	valid := Rule{FieldName: "gst", FieldLabel: "GST", FieldType: FieldTypeTax, AppliesTo: AppliesToTotal}
	if err := ValidateRule(valid); err != nil {
		t.Fatalf("expected valid rule, got %v", err)
	}

	cases := []struct {
		name string
		rule Rule
		code ErrorCode
	}{
		{"missing name", Rule{FieldLabel: "X", FieldType: FieldTypeTax, AppliesTo: AppliesToTotal}, ErrRuleMissingDetails},
		{"bad type", Rule{FieldName: "x", FieldLabel: "X", FieldType: "flat", AppliesTo: AppliesToTotal}, ErrRuleInvalidType},
		{"bad target", Rule{FieldName: "x", FieldLabel: "X", FieldType: FieldTypeTax, AppliesTo: "grand_total"}, ErrRuleInvalidTarget},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRule(tc.rule)
			if err == nil {
				t.Fatalf("expected error")
			}
			if err.Code != tc.code {
				t.Fatalf("expected code %s, got %s", tc.code, err.Code)
			}
		})
	}
}
