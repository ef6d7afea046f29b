package handlers

import (
	"net/http"

	"tabletap-order-service/pkg/response"
)

type Table struct {
	ID          int64  `json:"id"`
	TableNumber int    `json:"tableNumber"`
	Status      string `json:"status"`
}

const (
	tableStatusFree      = "free"
	tableStatusServing   = "serving"
	tableStatusCompleted = "completed"
)

func validTableStatus(status string) bool {
	switch status {
	case tableStatusFree, tableStatusServing, tableStatusCompleted:
		return true
	}
	return false
}

func (h *Handler) PublicTables(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.DB.Query(ctx, `select id, table_number, status from tables order by table_number`)
	if err != nil {
		h.Logger.Error("tables query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch tables")
		return
	}
	defer rows.Close()

	tables := make([]Table, 0)
	for rows.Next() {
		var t Table
		if err := rows.Scan(&t.ID, &t.TableNumber, &t.Status); err != nil {
			h.Logger.Error("tables scan failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch tables")
			return
		}
		tables = append(tables, t)
	}

	response.Success(w, tables)
}
