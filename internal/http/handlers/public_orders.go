package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"tabletap-order-service/internal/order"
	"tabletap-order-service/pkg/response"
)

func (h *Handler) PublicOrder(w http.ResponseWriter, r *http.Request) {
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

	response.Success(w, o)
}

// PublicOrdersByTable returns the open orders for a table so a customer can
// find their way back to a running order after closing the page.
func (h *Handler) PublicOrdersByTable(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tableNumber, ok := h.readCartTable(w, r)
	if !ok {
		return
	}

	query := `
		select ` + orderColumns + `
		from orders
		where table_number = $1 and status in ($2, $3)
		order by created_at desc
	`
	rows, err := h.DB.Query(ctx, query, tableNumber, order.StatusPending, order.StatusInProgress)
	if err != nil {
		h.Logger.Error("orders by table query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch orders")
		return
	}

	orders, err := collectOrders(rows)
	if err != nil {
		h.Logger.Error("orders by table scan failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch orders")
		return
	}

	response.Success(w, orders)
}

func (h *Handler) PublicOrderFeedback(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := readPathInt64(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order ID is required")
		return
	}

	var payload struct {
		Rating   int    `json:"rating"`
		Feedback string `json:"feedback"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if payload.Rating < 1 || payload.Rating > 5 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Rating must be between 1 and 5")
		return
	}

	var feedback *string
	if trimmed := strings.TrimSpace(payload.Feedback); trimmed != "" {
		feedback = &trimmed
	}

	tag, err := h.DB.Exec(ctx, `
		update orders set rating = $2, feedback = $3, updated_at = now()
		where id = $1
	`, orderID, payload.Rating, feedback)
	if err != nil {
		h.Logger.Error("feedback update failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save feedback")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	notifyOrderChange(ctx, h.DB, orderID)
	response.Success(w, map[string]any{"orderId": orderID, "rating": payload.Rating})
}

// PublicOrderMessage lets the customer attach a note to a running order
// without touching its items or total.
func (h *Handler) PublicOrderMessage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := readPathInt64(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order ID is required")
		return
	}

	var payload struct {
		Message string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	var message *string
	if trimmed := strings.TrimSpace(payload.Message); trimmed != "" {
		message = &trimmed
	}

	tag, err := h.DB.Exec(ctx, `
		update orders set customer_message = $2, updated_at = now()
		where id = $1
	`, orderID, message)
	if err != nil {
		h.Logger.Error("customer message update failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to save message")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	notifyOrderChange(ctx, h.DB, orderID)
	response.Success(w, map[string]any{"orderId": orderID})
}
