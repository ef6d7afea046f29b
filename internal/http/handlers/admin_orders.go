package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"tabletap-order-service/internal/order"
	"tabletap-order-service/internal/queue"
	"tabletap-order-service/pkg/response"

	"go.uber.org/zap"
)

func (h *Handler) AdminOrders(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := `select ` + orderColumns + ` from orders order by created_at desc`
	args := []any{}
	if status := r.URL.Query().Get("status"); status != "" {
		if !order.ValidStatus(order.Status(status)) {
			response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown order status")
			return
		}
		query = `select ` + orderColumns + ` from orders where status = $1 order by created_at desc`
		args = append(args, status)
	}

	rows, err := h.DB.Query(ctx, query, args...)
	if err != nil {
		h.Logger.Error("admin orders query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch orders")
		return
	}

	orders, err := collectOrders(rows)
	if err != nil {
		h.Logger.Error("admin orders scan failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch orders")
		return
	}

	response.Success(w, orders)
}

func (h *Handler) AdminOrderStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.DB.Query(ctx, `select status, count(*) from orders group by status`)
	if err != nil {
		h.Logger.Error("order stats query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch stats")
		return
	}
	defer rows.Close()

	stats := map[string]int64{
		string(order.StatusPending):    0,
		string(order.StatusInProgress): 0,
		string(order.StatusCompleted):  0,
		string(order.StatusCancelled):  0,
	}
	var total int64
	for rows.Next() {
		var status string
		var count int64
		if err := rows.Scan(&status, &count); err != nil {
			h.Logger.Error("order stats scan failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch stats")
			return
		}
		stats[status] = count
		total += count
	}

	response.Success(w, map[string]any{
		"total":    total,
		"byStatus": stats,
	})
}

// AdminOrderStatus moves an order along its lifecycle. The caller must send
// the revision it last saw; a stale revision means someone else changed the
// order first and the write is rejected instead of silently overwritten.
func (h *Handler) AdminOrderStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := readPathInt64(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order ID is required")
		return
	}

	var payload struct {
		Status   string `json:"status"`
		Revision int64  `json:"revision"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	next := order.Status(payload.Status)
	if !order.ValidStatus(next) {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Unknown order status")
		return
	}

	if next == order.StatusCompleted {
		// Completion folds the table's open orders into one; it has its own
		// endpoint and transaction.
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Use the complete endpoint to finish an order")
		return
	}

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update order")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	current, err := fetchOrder(ctx, tx, orderID)
	if err != nil {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}
	if !order.IsValidTransition(current.Status, next) {
		response.Error(w, http.StatusConflict, "INVALID_TRANSITION", "Order cannot move from "+string(current.Status)+" to "+string(next))
		return
	}

	now := time.Now()
	tag, err := tx.Exec(ctx, `
		update orders set status = $2, revision = revision + 1, updated_at = $3
		where id = $1 and revision = $4
	`, orderID, next, now, payload.Revision)
	if err != nil {
		h.Logger.Error("order status update failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update order")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusConflict, "REVISION_CONFLICT", "Order was modified by someone else, reload and retry")
		return
	}

	if err := writeStatusLog(ctx, tx, orderID, next, now); err != nil {
		h.Logger.Error("status log insert failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update order")
		return
	}

	notifyOrderChange(ctx, tx, orderID)

	if err := tx.Commit(ctx); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update order")
		return
	}

	// Starting work on an order marks its table as serving. The order update
	// already committed, so a failure here is reported but not fatal.
	tableUpdateFailed := false
	if next == order.StatusInProgress {
		if _, err := h.DB.Exec(ctx, `
			update tables set status = $2 where table_number = $1
		`, current.TableNumber, tableStatusServing); err != nil {
			h.Logger.Warn("table status update failed",
				zap.Int("table_number", current.TableNumber), zapError(err))
			tableUpdateFailed = true
		}
	}

	if h.Queue != nil {
		_ = h.Queue.PublishJSON(ctx, "order.status.updated", queue.Event{
			Type:        "order.status.updated",
			OrderID:     orderID,
			TableNumber: current.TableNumber,
			Status:      string(next),
			OccurredAt:  now.UTC(),
		})
	}

	result := map[string]any{
		"orderId":  orderID,
		"status":   next,
		"revision": payload.Revision + 1,
	}
	if tableUpdateFailed {
		result["tableUpdateFailed"] = true
	}
	response.Success(w, result)
}

var (
	errOrderNotFound    = errors.New("order not found")
	errOrderNotOpen     = errors.New("order not in progress")
	errCompletionFailed = errors.New("completion failed")
)

// completeTableOrders finishes every in-progress order on the order's table
// in one transaction: either the completed order exists and the sources are
// gone, or nothing changed. A lone order is completed in place, keeping its
// id; multiple orders are folded into a fresh completed order. Totals are
// summed from the frozen orders, never recomputed, so billing rule edits
// made mid-meal cannot alter what was already promised.
func (h *Handler) completeTableOrders(ctx context.Context, orderID int64) (order.Order, []int64, error) {
	tx, err := h.DB.Begin(ctx)
	if err != nil {
		return order.Order{}, nil, errCompletionFailed
	}
	defer func() { _ = tx.Rollback(ctx) }()

	target, err := fetchOrder(ctx, tx, orderID)
	if err != nil {
		return order.Order{}, nil, errOrderNotFound
	}
	if target.Status != order.StatusInProgress {
		return order.Order{}, nil, errOrderNotOpen
	}

	rows, err := tx.Query(ctx, `
		select `+orderColumns+`
		from orders
		where table_number = $1 and status = $2
		order by created_at
		for update
	`, target.TableNumber, order.StatusInProgress)
	if err != nil {
		h.Logger.Error("merge select failed", zapError(err))
		return order.Order{}, nil, errCompletionFailed
	}
	sources, err := collectOrders(rows)
	if err != nil {
		h.Logger.Error("merge scan failed", zapError(err))
		return order.Order{}, nil, errCompletionFailed
	}

	now := time.Now()
	merged := order.Merge(sources)
	completedID := target.ID

	if len(sources) == 1 {
		if _, err := tx.Exec(ctx, `
			update orders set status = $2, revision = revision + 1, updated_at = $3
			where id = $1
		`, target.ID, order.StatusCompleted, now); err != nil {
			h.Logger.Error("order complete update failed", zapError(err))
			return order.Order{}, nil, errCompletionFailed
		}
	} else {
		itemsJSON, err := json.Marshal(merged.Items)
		if err != nil {
			return order.Order{}, nil, errCompletionFailed
		}
		if _, err := tx.Exec(ctx, `
			delete from orders where table_number = $1 and status = $2
		`, target.TableNumber, order.StatusInProgress); err != nil {
			h.Logger.Error("merge delete failed", zapError(err))
			return order.Order{}, nil, errCompletionFailed
		}
		insert := `
			insert into orders (table_number, items, total_amount, status, revision, created_at, updated_at)
			values ($1, $2, $3, $4, 1, $5, $6)
			returning id
		`
		if err := tx.QueryRow(ctx, insert,
			target.TableNumber, itemsJSON, merged.TotalAmount,
			order.StatusCompleted, now, merged.UpdatedAt,
		).Scan(&completedID); err != nil {
			h.Logger.Error("merged order insert failed", zapError(err))
			return order.Order{}, nil, errCompletionFailed
		}
	}

	// One completion entry per source order so the audit trail still shows
	// every order that fed the merge.
	for _, sourceID := range merged.SourceIDs {
		if err := writeStatusLog(ctx, tx, sourceID, order.StatusCompleted, now); err != nil {
			h.Logger.Error("status log insert failed", zapError(err))
			return order.Order{}, nil, errCompletionFailed
		}
	}

	if _, err := tx.Exec(ctx, `
		update tables set status = $2 where table_number = $1
	`, target.TableNumber, tableStatusFree); err != nil {
		h.Logger.Error("table release failed", zapError(err))
		return order.Order{}, nil, errCompletionFailed
	}

	notifyOrderChange(ctx, tx, completedID)

	if err := tx.Commit(ctx); err != nil {
		return order.Order{}, nil, errCompletionFailed
	}

	completed, err := fetchOrder(ctx, h.DB, completedID)
	if err != nil {
		h.Logger.Error("completed order fetch failed", zapError(err))
		return order.Order{}, nil, errCompletionFailed
	}

	if h.Queue != nil {
		_ = h.Queue.PublishJSON(ctx, "order.merged", queue.Event{
			Type:        "order.merged",
			OrderID:     completedID,
			TableNumber: target.TableNumber,
			Status:      string(order.StatusCompleted),
			OccurredAt:  now.UTC(),
		})
	}

	return completed, merged.SourceIDs, nil
}

func writeCompletionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, errOrderNotFound):
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
	case errors.Is(err, errOrderNotOpen):
		response.Error(w, http.StatusConflict, "INVALID_TRANSITION", "Only in-progress orders can be completed")
	default:
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to complete order")
	}
}

func (h *Handler) AdminOrderComplete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := readPathInt64(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order ID is required")
		return
	}

	completed, sourceIDs, err := h.completeTableOrders(ctx, orderID)
	if err != nil {
		writeCompletionError(w, err)
		return
	}

	response.Success(w, map[string]any{
		"orderId":     completed.ID,
		"mergedFrom":  sourceIDs,
		"totalAmount": completed.TotalAmount,
		"status":      completed.Status,
	})
}

// AdminOrderMessage sets or clears the note shown to the customer for an
// order.
func (h *Handler) AdminOrderMessage(w http.ResponseWriter, r *http.Request) {
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
		update orders set admin_message = $2, updated_at = now()
		where id = $1
	`, orderID, message)
	if err != nil {
		h.Logger.Error("admin message update failed", zapError(err))
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

func (h *Handler) AdminOrderDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	orderID, err := readPathInt64(r, "orderId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order ID is required")
		return
	}

	tag, err := h.DB.Exec(ctx, `delete from orders where id = $1`, orderID)
	if err != nil {
		h.Logger.Error("order delete failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete order")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "ORDER_NOT_FOUND", "Order not found")
		return
	}

	notifyOrderChange(ctx, h.DB, orderID)
	response.Success(w, map[string]any{"orderId": orderID})
}

func (h *Handler) AdminOrdersClearCompleted(w http.ResponseWriter, r *http.Request) {
	h.clearOrdersByStatus(w, r, order.StatusCompleted)
}

func (h *Handler) AdminOrdersClearCancelled(w http.ResponseWriter, r *http.Request) {
	h.clearOrdersByStatus(w, r, order.StatusCancelled)
}

func (h *Handler) clearOrdersByStatus(w http.ResponseWriter, r *http.Request, status order.Status) {
	ctx := r.Context()

	tag, err := h.DB.Exec(ctx, `delete from orders where status = $1`, status)
	if err != nil {
		h.Logger.Error("bulk order delete failed", zap.String("status", string(status)), zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to clear orders")
		return
	}

	notifyOrderChange(ctx, h.DB, 0)
	response.Success(w, map[string]any{"deleted": tag.RowsAffected()})
}
