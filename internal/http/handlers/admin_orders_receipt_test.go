package handlers

import (
	"bytes"
	"html/template"
	"strings"
	"testing"
)

func sampleReceiptData() receiptData {
	return receiptData{
		OrderID:     42,
		TableNumber: 7,
		Status:      "completed",
		PlacedAt:    "2026-03-01 19:30",
		Lines: []receiptLine{
			{Name: "Margherita", Quantity: 2, Unit: "250.00", Subtotal: "500.00", Note: "extra cheese"},
			{Name: "Coke", Quantity: 1, Unit: "40.00", Subtotal: "40.00"},
		},
		Subtotal: "540.00",
		Adjustments: []receiptAdjustment{
			{Label: "Service Charge", Amount: "54.00"},
			{Label: "GST", Amount: "29.70"},
		},
		Total: "623.70",
	}
}

func TestReceiptHTMLTemplateRenders(t *testing.T) {
	tmpl, err := template.New("receipt").Parse(receiptHTMLTemplate)
	if err != nil {
		t.Fatalf("parse template: %v", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, sampleReceiptData()); err != nil {
		t.Fatalf("execute template: %v", err)
	}

	html := buf.String()
	for _, want := range []string{"Order #42", "Table 7", "2 x Margherita", "extra cheese", "Service Charge", "623.70"} {
		if !strings.Contains(html, want) {
			t.Errorf("rendered receipt missing %q", want)
		}
	}
}

func TestRenderReceiptPDF(t *testing.T) {
	buf, err := renderReceiptPDF(sampleReceiptData())
	if err != nil {
		t.Fatalf("renderReceiptPDF: %v", err)
	}
	if buf.Len() == 0 {
		t.Fatal("empty PDF output")
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF")) {
		t.Fatal("output does not look like a PDF")
	}
}

func TestFormatAmount(t *testing.T) {
	if got := formatAmount(623.7); got != "623.70" {
		t.Fatalf("formatAmount(623.7) = %q", got)
	}
	if got := formatAmount(0); got != "0.00" {
		t.Fatalf("formatAmount(0) = %q", got)
	}
}
