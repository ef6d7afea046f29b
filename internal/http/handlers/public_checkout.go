package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"tabletap-order-service/internal/billing"
	"tabletap-order-service/internal/order"
	"tabletap-order-service/internal/queue"
	"tabletap-order-service/pkg/response"
)

// CartReview prices the cart with the live billing rules. The same
// calculation runs again at checkout and on every receipt render, so what
// the customer reviews is what gets frozen into the order.
func (h *Handler) CartReview(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tableNumber, ok := h.readCartTable(w, r)
	if !ok {
		return
	}

	current := h.Carts.Get(tableNumber)
	rules, err := billing.ActiveRules(ctx, h.DB)
	if err != nil {
		h.Logger.Error("billing rules query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to price cart")
		return
	}

	breakdown := billing.Calculate(current.Total(), rules)
	response.Success(w, map[string]any{
		"tableNumber": tableNumber,
		"items":       current.Items,
		"billing":     breakdown,
	})
}

func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tableNumber, ok := h.readCartTable(w, r)
	if !ok {
		return
	}

	var payload struct {
		SpecialNotes string `json:"specialNotes"`
	}
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&payload)
	}

	current := h.Carts.Get(tableNumber)
	if len(current.Items) == 0 {
		response.Error(w, http.StatusBadRequest, "CART_EMPTY", "Cart is empty")
		return
	}

	var tableExists bool
	if err := h.DB.QueryRow(ctx, `select exists(select 1 from tables where table_number = $1)`, tableNumber).Scan(&tableExists); err != nil || !tableExists {
		response.Error(w, http.StatusNotFound, "TABLE_NOT_FOUND", "Table not found")
		return
	}

	rules, err := billing.ActiveRules(ctx, h.DB)
	if err != nil {
		h.Logger.Error("billing rules query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to place order")
		return
	}
	breakdown := billing.Calculate(current.Total(), rules)

	itemsJSON, err := json.Marshal(current.Items)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to place order")
		return
	}

	var specialNotes *string
	if trimmed := strings.TrimSpace(payload.SpecialNotes); trimmed != "" {
		specialNotes = &trimmed
	}

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to place order")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now()
	var orderID int64
	insert := `
		insert into orders (table_number, items, total_amount, status, revision, special_notes, created_at, updated_at)
		values ($1, $2, $3, $4, 1, $5, $6, $6)
		returning id
	`
	if err := tx.QueryRow(ctx, insert, tableNumber, itemsJSON, breakdown.Total, order.StatusPending, specialNotes, now).Scan(&orderID); err != nil {
		h.Logger.Error("order insert failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to place order")
		return
	}

	if err := writeStatusLog(ctx, tx, orderID, order.StatusPending, now); err != nil {
		h.Logger.Error("status log insert failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to place order")
		return
	}

	notifyOrderChange(ctx, tx, orderID)

	if err := tx.Commit(ctx); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to place order")
		return
	}

	// The cart is spent once the order exists.
	h.Carts.Clear(tableNumber)

	if h.Queue != nil {
		_ = h.Queue.PublishJSON(ctx, "order.created", queue.Event{
			Type:        "order.created",
			OrderID:     orderID,
			TableNumber: tableNumber,
			Status:      string(order.StatusPending),
			OccurredAt:  now.UTC(),
		})
	}

	response.Created(w, map[string]any{
		"orderId": orderID,
		"status":  order.StatusPending,
		"billing": breakdown,
	})
}
