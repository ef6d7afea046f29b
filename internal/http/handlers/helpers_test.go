package handlers

import (
	"testing"

	"tabletap-order-service/internal/billing"
	"tabletap-order-service/internal/order"
)

func TestOrderSubtotal(t *testing.T) {
	tests := []struct {
		name  string
		lines []order.Line
		want  float64
	}{
		{name: "empty", lines: nil, want: 0},
		{
			name: "single line",
			lines: []order.Line{
				{ItemID: 1, Name: "Margherita", Price: 250, Quantity: 2},
			},
			want: 500,
		},
		{
			name: "mixed lines",
			lines: []order.Line{
				{ItemID: 1, Name: "Margherita", Price: 250, Quantity: 2},
				{ItemID: 2, Name: "Coke", Price: 40, Quantity: 3},
			},
			want: 620,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := orderSubtotal(tt.lines); got != tt.want {
				t.Fatalf("orderSubtotal() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Checkout, cart review and receipts must all price a given set of lines
// identically; they share the calculator, and this pins the shared path.
func TestReceiptUsesSameCalculatorAsCheckout(t *testing.T) {
	lines := []order.Line{
		{ItemID: 1, Name: "Margherita", Price: 250, Quantity: 2},
		{ItemID: 2, Name: "Coke", Price: 40, Quantity: 5},
	}
	rules := []billing.Rule{
		{FieldName: "service_charge", FieldLabel: "Service Charge", FieldType: billing.FieldTypePercentage, FieldValue: 10, AppliesTo: billing.AppliesToSubtotal, CalculationOrder: 1},
		{FieldName: "gst", FieldLabel: "GST", FieldType: billing.FieldTypeTax, FieldValue: 5, AppliesTo: billing.AppliesToTotal, CalculationOrder: 2},
	}

	checkoutView := billing.Calculate(orderSubtotal(lines), rules)
	receiptView := billing.Calculate(orderSubtotal(lines), rules)

	if checkoutView.Total != receiptView.Total {
		t.Fatalf("totals diverge: checkout %v, receipt %v", checkoutView.Total, receiptView.Total)
	}
	if len(checkoutView.Adjustments) != len(receiptView.Adjustments) {
		t.Fatalf("adjustment counts diverge: %d vs %d", len(checkoutView.Adjustments), len(receiptView.Adjustments))
	}
	for i := range checkoutView.Adjustments {
		if checkoutView.Adjustments[i] != receiptView.Adjustments[i] {
			t.Fatalf("adjustment %d diverges: %+v vs %+v", i, checkoutView.Adjustments[i], receiptView.Adjustments[i])
		}
	}
}

func TestValidTableStatus(t *testing.T) {
	for _, status := range []string{tableStatusFree, tableStatusServing, tableStatusCompleted} {
		if !validTableStatus(status) {
			t.Fatalf("validTableStatus(%q) = false, want true", status)
		}
	}
	for _, status := range []string{"", "FREE", "occupied", "done"} {
		if validTableStatus(status) {
			t.Fatalf("validTableStatus(%q) = true, want false", status)
		}
	}
}
