package handlers

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"tabletap-order-service/internal/billing"
	"tabletap-order-service/internal/order"
	"tabletap-order-service/pkg/response"

	"github.com/phpdave11/gofpdf"
)

type receiptLine struct {
	Name     string
	Quantity int
	Unit     string
	Subtotal string
	Note     string
}

type receiptAdjustment struct {
	Label  string
	Amount string
}

type receiptData struct {
	OrderID     int64
	TableNumber int
	Status      string
	PlacedAt    string
	Lines       []receiptLine
	Subtotal    string
	Adjustments []receiptAdjustment
	Total       string
}

const receiptHTMLTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <title>Receipt #{{.OrderID}}</title>
  <style>
    * { box-sizing: border-box; }
    body { font-family: 'Courier New', monospace; font-size: 12px; padding: 12px; color: #000; }
    .header { text-align: center; border-bottom: 1px dashed #000; padding-bottom: 8px; margin-bottom: 8px; }
    .title { font-size: 16px; font-weight: bold; }
    .meta { text-align: center; margin-bottom: 8px; }
    .section { border-top: 1px dashed #999; padding-top: 6px; margin-top: 6px; }
    .row { display: flex; justify-content: space-between; margin: 2px 0; }
    .items { margin-top: 8px; }
    .item-name { font-weight: 600; }
    .note { margin-left: 12px; font-size: 10px; font-style: italic; color: #555; }
    .total { font-weight: bold; font-size: 14px; }
  </style>
</head>
<body>
  <div class="header">
    <div class="title">TableTap</div>
  </div>
  <div class="meta">
    <div>Order #{{.OrderID}} · Table {{.TableNumber}}</div>
    <div>{{.Status}}</div>
    <div>Placed: {{.PlacedAt}}</div>
  </div>
  <div class="items">
    {{range .Lines}}
      <div class="row">
        <div class="item-name">{{.Quantity}} x {{.Name}}</div>
        <div>{{.Subtotal}}</div>
      </div>
      {{if .Unit}}<div class="note">Unit: {{.Unit}}</div>{{end}}
      {{if .Note}}<div class="note">{{.Note}}</div>{{end}}
    {{end}}
  </div>
  <div class="section">
    <div class="row"><div>Subtotal</div><div>{{.Subtotal}}</div></div>
    {{range .Adjustments}}
      <div class="row"><div>{{.Label}}</div><div>{{.Amount}}</div></div>
    {{end}}
    <div class="row total"><div>Total</div><div>{{.Total}}</div></div>
  </div>
</body>
</html>`

func formatAmount(amount float64) string {
	return fmt.Sprintf("%.2f", amount)
}

// buildReceiptData assembles the printable view of an order. Adjustment lines
// run through the same calculator as checkout and cart review; the total is
// the amount frozen on the order, never recomputed, so a merged order prints
// the sum of what each source order promised.
func (h *Handler) buildReceiptData(ctx context.Context, o order.Order) (receiptData, error) {
	rules, err := billing.ActiveRules(ctx, h.DB)
	if err != nil {
		return receiptData{}, err
	}
	breakdown := billing.Calculate(orderSubtotal(o.Items), rules)

	lines := make([]receiptLine, 0, len(o.Items))
	for _, line := range o.Items {
		lines = append(lines, receiptLine{
			Name:     line.Name,
			Quantity: line.Quantity,
			Unit:     formatAmount(line.Price),
			Subtotal: formatAmount(line.Price * float64(line.Quantity)),
			Note:     line.Note,
		})
	}

	adjustments := make([]receiptAdjustment, 0, len(breakdown.Adjustments))
	for _, adj := range breakdown.Adjustments {
		adjustments = append(adjustments, receiptAdjustment{
			Label:  adj.Label,
			Amount: formatAmount(adj.Amount),
		})
	}

	return receiptData{
		OrderID:     o.ID,
		TableNumber: o.TableNumber,
		Status:      string(o.Status),
		PlacedAt:    o.CreatedAt.Format("2006-01-02 15:04"),
		Lines:       lines,
		Adjustments: adjustments,
		Subtotal:    formatAmount(breakdown.Subtotal),
		Total:       formatAmount(o.TotalAmount),
	}, nil
}

func (h *Handler) AdminOrderReceiptHTML(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := readPathInt64(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order ID is required")
		return
	}

	o, err := fetchOrder(ctx, h.DB, orderID)
	if err != nil {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	data, err := h.buildReceiptData(ctx, o)
	if err != nil {
		h.Logger.Error("receipt build failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to render receipt")
		return
	}

	tmpl, err := template.New("receipt").Parse(receiptHTMLTemplate)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to render receipt")
		return
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to render receipt")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func (h *Handler) AdminOrderReceiptPDF(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := readPathInt64(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order ID is required")
		return
	}

	o, err := fetchOrder(ctx, h.DB, orderID)
	if err != nil {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	data, err := h.buildReceiptData(ctx, o)
	if err != nil {
		h.Logger.Error("receipt build failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate receipt")
		return
	}

	buf, err := renderReceiptPDF(data)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate receipt")
		return
	}

	filename := fmt.Sprintf("receipt_order_%d_%s.pdf", data.OrderID, time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", filename))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// AdminOrderPrintBill is the cashier's close-out action: an in-progress
// order (and any sibling orders on its table) is completed and the table
// freed, then the final bill comes back as a PDF. An already completed
// order just reprints its bill.
func (h *Handler) AdminOrderPrintBill(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := readPathInt64(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order ID is required")
		return
	}

	o, err := fetchOrder(ctx, h.DB, orderID)
	if err != nil {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	switch o.Status {
	case order.StatusCompleted:
		// reprint
	case order.StatusInProgress:
		o, _, err = h.completeTableOrders(ctx, orderID)
		if err != nil {
			writeCompletionError(w, err)
			return
		}
	default:
		response.Error(w, http.StatusConflict, "INVALID_TRANSITION", "Only in-progress or completed orders can be billed")
		return
	}

	data, err := h.buildReceiptData(ctx, o)
	if err != nil {
		h.Logger.Error("receipt build failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate receipt")
		return
	}

	buf, err := renderReceiptPDF(data)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to generate receipt")
		return
	}

	filename := fmt.Sprintf("receipt_order_%d_%s.pdf", data.OrderID, time.Now().Format("20060102"))
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=\"%s\"", filename))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

func renderReceiptPDF(data receiptData) (*bytes.Buffer, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(12, 12, 12)
	pdf.AddPage()
	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 8, "TableTap", "", 1, "C", false, 0, "")

	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Order #%d", data.OrderID), "", 1, "C", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Table %d", data.TableNumber), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, data.Status, "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 5, fmt.Sprintf("Placed: %s", data.PlacedAt), "", 1, "C", false, 0, "")

	pdf.Ln(3)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Items", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	for _, line := range data.Lines {
		pdf.CellFormat(0, 5, fmt.Sprintf("%dx %s", line.Quantity, line.Name), "", 1, "L", false, 0, "")
		pdf.CellFormat(0, 5, fmt.Sprintf("Subtotal: %s", line.Subtotal), "", 1, "L", false, 0, "")
		if line.Note != "" {
			pdf.MultiCell(0, 4, fmt.Sprintf("Note: %s", line.Note), "", "L", false)
		}
		pdf.Ln(1)
	}

	pdf.Ln(2)
	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(0, 6, "Totals", "B", 1, "L", false, 0, "")
	pdf.SetFont("Arial", "", 9)
	pdf.CellFormat(0, 5, fmt.Sprintf("Subtotal: %s", data.Subtotal), "", 1, "L", false, 0, "")
	for _, adj := range data.Adjustments {
		pdf.CellFormat(0, 5, fmt.Sprintf("%s: %s", adj.Label, adj.Amount), "", 1, "L", false, 0, "")
	}
	pdf.SetFont("Arial", "B", 11)
	pdf.CellFormat(0, 6, fmt.Sprintf("Total: %s", data.Total), "", 1, "L", false, 0, "")

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, err
	}
	return &out, nil
}
