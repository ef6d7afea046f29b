package billing

import (
	"sort"
	"strings"
)

type FieldType string

const (
	FieldTypePercentage  FieldType = "percentage"
	FieldTypeFixedAmount FieldType = "fixed_amount"
	FieldTypeTax         FieldType = "tax"
)

type AppliesTo string

const (
	AppliesToSubtotal AppliesTo = "subtotal"
	AppliesToTotal    AppliesTo = "total"
)

// Rule is one configured billing adjustment (surcharge, discount, or tax).
type Rule struct {
	ID               int64     `json:"id"`
	FieldName        string    `json:"fieldName"`
	FieldLabel       string    `json:"fieldLabel"`
	FieldType        FieldType `json:"fieldType"`
	FieldValue       float64   `json:"fieldValue"`
	AppliesTo        AppliesTo `json:"appliesTo"`
	IsActive         bool      `json:"isActive"`
	CalculationOrder int       `json:"calculationOrder"`
	IsSystemField    bool      `json:"isSystemField"`
}

type Adjustment struct {
	Label  string    `json:"label"`
	Amount float64   `json:"amount"`
	Type   FieldType `json:"type"`
}

type Breakdown struct {
	Subtotal    float64      `json:"subtotal"`
	Adjustments []Adjustment `json:"adjustments"`
	Total       float64      `json:"total"`
}

// Calculate applies the rules to a subtotal in ascending calculation_order
// and returns the itemized adjustments and final total.
//
// Percentage and tax rules compute base*value/100, where base is the subtotal
// or the running total depending on applies_to; fixed_amount rules add the
// configured value. A rule whose field_name contains "discount" is coerced to
// a negative adjustment when its computed amount is positive. The final total
// is clamped at zero.
func Calculate(subtotal float64, rules []Rule) Breakdown {
	ordered := make([]Rule, len(rules))
	copy(ordered, rules)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CalculationOrder < ordered[j].CalculationOrder
	})

	running := subtotal
	adjustments := make([]Adjustment, 0, len(ordered))

	for _, rule := range ordered {
		base := running
		if rule.AppliesTo == AppliesToSubtotal {
			base = subtotal
		}

		var amount float64
		switch rule.FieldType {
		case FieldTypePercentage, FieldTypeTax:
			amount = base * rule.FieldValue / 100
		case FieldTypeFixedAmount:
			amount = rule.FieldValue
		}

		if strings.Contains(rule.FieldName, "discount") && amount > 0 {
			amount = -amount
		}

		adjustments = append(adjustments, Adjustment{
			Label:  rule.FieldLabel,
			Amount: amount,
			Type:   rule.FieldType,
		})
		running += amount
	}

	total := running
	if total < 0 {
		total = 0
	}

	return Breakdown{
		Subtotal:    subtotal,
		Adjustments: adjustments,
		Total:       total,
	}
}
