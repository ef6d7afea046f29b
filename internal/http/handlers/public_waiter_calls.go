package handlers

import (
	"net/http"
	"time"

	"tabletap-order-service/internal/queue"
	"tabletap-order-service/pkg/response"
)

const (
	waiterCallPending  = "pending"
	waiterCallAttended = "attended"
)

type WaiterCall struct {
	ID          int64      `json:"id"`
	TableNumber int        `json:"tableNumber"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	AttendedAt  *time.Time `json:"attendedAt"`
}

// CallWaiter raises a pending call for a table. A table with a pending call
// keeps that call; repeated taps must not stack up duplicates.
func (h *Handler) CallWaiter(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tableNumber, ok := h.readCartTable(w, r)
	if !ok {
		return
	}

	var tableExists bool
	if err := h.DB.QueryRow(ctx, `select exists(select 1 from tables where table_number = $1)`, tableNumber).Scan(&tableExists); err != nil || !tableExists {
		response.Error(w, http.StatusNotFound, "TABLE_NOT_FOUND", "Table not found")
		return
	}

	var pendingID int64
	err := h.DB.QueryRow(ctx, `
		select id from waiter_calls
		where table_number = $1 and status = $2
		limit 1
	`, tableNumber, waiterCallPending).Scan(&pendingID)
	if err == nil {
		response.Success(w, map[string]any{"callId": pendingID, "status": waiterCallPending})
		return
	}

	now := time.Now()
	var callID int64
	insert := `
		insert into waiter_calls (table_number, status, created_at)
		values ($1, $2, $3)
		returning id
	`
	if err := h.DB.QueryRow(ctx, insert, tableNumber, waiterCallPending, now).Scan(&callID); err != nil {
		h.Logger.Error("waiter call insert failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to call waiter")
		return
	}

	notifyWaiterCallChange(ctx, h.DB, tableNumber)

	if h.Queue != nil {
		_ = h.Queue.PublishJSON(ctx, "waiter.called", queue.Event{
			Type:        "waiter.called",
			TableNumber: tableNumber,
			OccurredAt:  now.UTC(),
		})
	}

	response.Created(w, map[string]any{"callId": callID, "status": waiterCallPending})
}
