package handlers

import (
	"net/http"
	"strconv"
	"time"

	"tabletap-order-service/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
)

type notificationEntry struct {
	ID          int64     `json:"id"`
	EventType   string    `json:"eventType"`
	OrderID     *int64    `json:"orderId"`
	TableNumber *int      `json:"tableNumber"`
	Message     string    `json:"message"`
	CreatedAt   time.Time `json:"createdAt"`
}

// AdminNotifications reads the log written by the queue worker, newest
// first.
func (h *Handler) AdminNotifications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 && parsed <= 200 {
			limit = parsed
		}
	}

	rows, err := h.DB.Query(ctx, `
		select id, event_type, order_id, table_number, message, created_at
		from notification_log
		order by created_at desc
		limit $1
	`, limit)
	if err != nil {
		h.Logger.Error("notification log query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch notifications")
		return
	}
	defer rows.Close()

	entries := make([]notificationEntry, 0)
	for rows.Next() {
		var entry notificationEntry
		var orderID pgtype.Int8
		var tableNumber pgtype.Int4
		if err := rows.Scan(&entry.ID, &entry.EventType, &orderID, &tableNumber, &entry.Message, &entry.CreatedAt); err != nil {
			h.Logger.Error("notification log scan failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch notifications")
			return
		}
		if orderID.Valid {
			entry.OrderID = &orderID.Int64
		}
		if tableNumber.Valid {
			v := int(tableNumber.Int32)
			entry.TableNumber = &v
		}
		entries = append(entries, entry)
	}

	response.Success(w, entries)
}
