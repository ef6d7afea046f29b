package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"tabletap-order-service/internal/cart"
	"tabletap-order-service/internal/order"
	"tabletap-order-service/internal/utils"
	"tabletap-order-service/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
)

func cartPayload(c cart.Cart) map[string]any {
	return map[string]any{
		"tableNumber": c.TableNumber,
		"items":       c.Items,
		"total":       c.Total(),
		"count":       c.Count(),
	}
}

func (h *Handler) readCartTable(w http.ResponseWriter, r *http.Request) (int, bool) {
	tableNumber, err := readPathInt(r, "tableNumber")
	if err != nil || tableNumber <= 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Table number is required")
		return 0, false
	}
	return tableNumber, true
}

// CartGet returns the cart scoped to a table. Selecting a table is exactly
// this call: each table's cart is independent, so switching tables swaps the
// whole cart rather than merging.
func (h *Handler) CartGet(w http.ResponseWriter, r *http.Request) {
	tableNumber, ok := h.readCartTable(w, r)
	if !ok {
		return
	}
	response.Success(w, cartPayload(h.Carts.Get(tableNumber)))
}

func (h *Handler) CartAddItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tableNumber, ok := h.readCartTable(w, r)
	if !ok {
		return
	}

	var payload struct {
		ItemID   int64  `json:"itemId"`
		Quantity int    `json:"quantity"`
		Note     string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if payload.ItemID <= 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Item ID is required")
		return
	}
	if payload.Quantity <= 0 {
		payload.Quantity = 1
	}

	// Snapshot name and price at add time; later menu edits must not change
	// lines already in a cart.
	var (
		name    string
		price   pgtype.Numeric
		inStock bool
	)
	query := `select name, price, in_stock from menu_items where id = $1`
	if err := h.DB.QueryRow(ctx, query, payload.ItemID).Scan(&name, &price, &inStock); err != nil {
		response.Error(w, http.StatusNotFound, "ITEM_NOT_FOUND", "Menu item not found")
		return
	}
	if !inStock {
		response.Error(w, http.StatusBadRequest, "ITEM_OUT_OF_STOCK", "Menu item is out of stock")
		return
	}

	updated := h.Carts.Add(tableNumber, order.Line{
		ItemID:   payload.ItemID,
		Name:     name,
		Price:    utils.NumericToFloat64(price),
		Quantity: payload.Quantity,
		Note:     strings.TrimSpace(payload.Note),
	})

	response.Success(w, cartPayload(updated))
}

func (h *Handler) CartUpdateItem(w http.ResponseWriter, r *http.Request) {
	tableNumber, ok := h.readCartTable(w, r)
	if !ok {
		return
	}
	itemID, err := readPathInt64(r, "itemId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Item ID is required")
		return
	}

	var payload struct {
		Quantity *int    `json:"quantity"`
		Note     *string `json:"note"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}

	updated := h.Carts.Get(tableNumber)
	if payload.Quantity != nil {
		updated = h.Carts.SetQuantity(tableNumber, itemID, *payload.Quantity)
	}
	if payload.Note != nil {
		updated = h.Carts.SetNote(tableNumber, itemID, strings.TrimSpace(*payload.Note))
	}

	response.Success(w, cartPayload(updated))
}

func (h *Handler) CartRemoveItem(w http.ResponseWriter, r *http.Request) {
	tableNumber, ok := h.readCartTable(w, r)
	if !ok {
		return
	}
	itemID, err := readPathInt64(r, "itemId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Item ID is required")
		return
	}

	response.Success(w, cartPayload(h.Carts.Remove(tableNumber, itemID)))
}

func (h *Handler) CartClear(w http.ResponseWriter, r *http.Request) {
	tableNumber, ok := h.readCartTable(w, r)
	if !ok {
		return
	}
	h.Carts.Clear(tableNumber)
	response.Success(w, cartPayload(h.Carts.Get(tableNumber)))
}
