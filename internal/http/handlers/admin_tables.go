package handlers

import (
	"encoding/json"
	"net/http"

	"tabletap-order-service/pkg/response"
)

func (h *Handler) AdminTableCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload struct {
		TableNumber int `json:"tableNumber"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if payload.TableNumber <= 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Table number must be positive")
		return
	}

	var table Table
	query := `
		insert into tables (table_number, status)
		values ($1, $2)
		returning id, table_number, status
	`
	if err := h.DB.QueryRow(ctx, query, payload.TableNumber, tableStatusFree).Scan(&table.ID, &table.TableNumber, &table.Status); err != nil {
		response.Error(w, http.StatusConflict, "TABLE_EXISTS", "Table number already exists")
		return
	}

	response.Created(w, table)
}

func (h *Handler) AdminTableStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tableNumber, ok := h.readCartTable(w, r)
	if !ok {
		return
	}

	var payload struct {
		Status string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if !validTableStatus(payload.Status) {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Status must be free, serving or completed")
		return
	}

	tag, err := h.DB.Exec(ctx, `
		update tables set status = $2 where table_number = $1
	`, tableNumber, payload.Status)
	if err != nil {
		h.Logger.Error("table status update failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update table")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "TABLE_NOT_FOUND", "Table not found")
		return
	}

	response.Success(w, map[string]any{"tableNumber": tableNumber, "status": payload.Status})
}

func (h *Handler) AdminTableDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tableNumber, ok := h.readCartTable(w, r)
	if !ok {
		return
	}

	// A table with open orders cannot disappear under them.
	var openOrders int64
	if err := h.DB.QueryRow(ctx, `
		select count(*) from orders
		where table_number = $1 and status in ('pending', 'in_progress')
	`, tableNumber).Scan(&openOrders); err != nil {
		h.Logger.Error("open order count failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete table")
		return
	}
	if openOrders > 0 {
		response.Error(w, http.StatusConflict, "TABLE_HAS_OPEN_ORDERS", "Table has open orders and cannot be deleted")
		return
	}

	tag, err := h.DB.Exec(ctx, `delete from tables where table_number = $1`, tableNumber)
	if err != nil {
		h.Logger.Error("table delete failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete table")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "TABLE_NOT_FOUND", "Table not found")
		return
	}

	h.Carts.Clear(tableNumber)
	response.Success(w, map[string]any{"tableNumber": tableNumber})
}
