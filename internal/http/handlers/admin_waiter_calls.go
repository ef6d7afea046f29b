package handlers

import (
	"net/http"
	"time"

	"tabletap-order-service/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
)

func (h *Handler) AdminWaiterCalls(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := `
		select id, table_number, status, created_at, attended_at
		from waiter_calls
		where status = $1
		order by created_at
	`
	args := []any{waiterCallPending}
	if r.URL.Query().Get("all") == "true" {
		query = `
			select id, table_number, status, created_at, attended_at
			from waiter_calls
			order by created_at desc
		`
		args = nil
	}

	rows, err := h.DB.Query(ctx, query, args...)
	if err != nil {
		h.Logger.Error("waiter calls query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch waiter calls")
		return
	}
	defer rows.Close()

	calls := make([]WaiterCall, 0)
	for rows.Next() {
		var call WaiterCall
		var attendedAt pgtype.Timestamptz
		if err := rows.Scan(&call.ID, &call.TableNumber, &call.Status, &call.CreatedAt, &attendedAt); err != nil {
			h.Logger.Error("waiter calls scan failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch waiter calls")
			return
		}
		if attendedAt.Valid {
			call.AttendedAt = &attendedAt.Time
		}
		calls = append(calls, call)
	}

	response.Success(w, calls)
}

// AdminWaiterCallAttend resolves a pending call. Attending twice is a no-op
// conflict rather than a second timestamp.
func (h *Handler) AdminWaiterCallAttend(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	callID, err := readPathInt64(r, "callId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Call ID is required")
		return
	}

	now := time.Now()
	var tableNumber int
	query := `
		update waiter_calls
		set status = $2, attended_at = $3
		where id = $1 and status = $4
		returning table_number
	`
	if err := h.DB.QueryRow(ctx, query, callID, waiterCallAttended, now, waiterCallPending).Scan(&tableNumber); err != nil {
		response.Error(w, http.StatusConflict, "CALL_NOT_PENDING", "Waiter call not found or already attended")
		return
	}

	notifyWaiterCallChange(ctx, h.DB, tableNumber)

	response.Success(w, map[string]any{
		"callId":      callID,
		"tableNumber": tableNumber,
		"status":      waiterCallAttended,
		"attendedAt":  now,
	})
}
