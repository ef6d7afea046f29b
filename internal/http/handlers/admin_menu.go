package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"tabletap-order-service/pkg/response"
)

type menuItemPayload struct {
	Name         string   `json:"name"`
	Description  *string  `json:"description"`
	Price        float64  `json:"price"`
	Category     string   `json:"category"`
	Tags         []string `json:"tags"`
	InStock      *bool    `json:"inStock"`
	DisplayOrder int      `json:"displayOrder"`
	ImageURL     *string  `json:"imageUrl"`
	Discount     *float64 `json:"discount"`
	DiscountType *string  `json:"discountType"`
}

func (p *menuItemPayload) validate() (string, bool) {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	if p.Name == "" {
		return "Name is required", false
	}
	if p.Price < 0 {
		return "Price must not be negative", false
	}
	if p.Category == "" {
		return "Category is required", false
	}
	if p.DiscountType != nil {
		switch *p.DiscountType {
		case "percentage", "fixed_amount":
		default:
			return "Discount type must be percentage or fixed_amount", false
		}
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	return "", true
}

// AdminMenu lists every item including out-of-stock ones, unlike the public
// menu.
func (h *Handler) AdminMenu(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.DB.Query(ctx, `
		select `+menuItemColumns+`
		from menu_items
		order by display_order, name
	`)
	if err != nil {
		h.Logger.Error("admin menu query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch menu")
		return
	}
	defer rows.Close()

	items := make([]MenuItem, 0)
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			h.Logger.Error("admin menu scan failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch menu")
			return
		}
		items = append(items, item)
	}

	response.Success(w, items)
}

func (h *Handler) AdminMenuCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload menuItemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if msg, ok := payload.validate(); !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", msg)
		return
	}
	inStock := true
	if payload.InStock != nil {
		inStock = *payload.InStock
	}

	query := `
		insert into menu_items (name, description, price, category, tags, in_stock, display_order, image_url, discount, discount_type)
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		returning ` + menuItemColumns
	item, err := scanMenuItem(h.DB.QueryRow(ctx, query,
		payload.Name, payload.Description, payload.Price, payload.Category,
		payload.Tags, inStock, payload.DisplayOrder, payload.ImageURL,
		payload.Discount, payload.DiscountType,
	))
	if err != nil {
		h.Logger.Error("menu item insert failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create menu item")
		return
	}

	response.Created(w, item)
}

func (h *Handler) AdminMenuUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID, err := readPathInt64(r, "itemId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Item ID is required")
		return
	}

	var payload menuItemPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if msg, ok := payload.validate(); !ok {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", msg)
		return
	}
	inStock := true
	if payload.InStock != nil {
		inStock = *payload.InStock
	}

	query := `
		update menu_items
		set name = $2, description = $3, price = $4, category = $5, tags = $6,
			in_stock = $7, display_order = $8, image_url = $9, discount = $10, discount_type = $11
		where id = $1
		returning ` + menuItemColumns
	item, err := scanMenuItem(h.DB.QueryRow(ctx, query,
		itemID, payload.Name, payload.Description, payload.Price, payload.Category,
		payload.Tags, inStock, payload.DisplayOrder, payload.ImageURL,
		payload.Discount, payload.DiscountType,
	))
	if err != nil {
		response.Error(w, http.StatusNotFound, "ITEM_NOT_FOUND", "Menu item not found")
		return
	}

	response.Success(w, item)
}

// AdminMenuToggleStock flips availability without touching the rest of the
// row. Carts that already hold the item keep it; the check happens at add
// time.
func (h *Handler) AdminMenuToggleStock(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID, err := readPathInt64(r, "itemId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Item ID is required")
		return
	}

	var inStock bool
	query := `update menu_items set in_stock = not in_stock where id = $1 returning in_stock`
	if err := h.DB.QueryRow(ctx, query, itemID).Scan(&inStock); err != nil {
		response.Error(w, http.StatusNotFound, "ITEM_NOT_FOUND", "Menu item not found")
		return
	}

	response.Success(w, map[string]any{"itemId": itemID, "inStock": inStock})
}

func (h *Handler) AdminMenuReorder(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var payload struct {
		Order []struct {
			ItemID       int64 `json:"itemId"`
			DisplayOrder int   `json:"displayOrder"`
		} `json:"order"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Invalid request body")
		return
	}
	if len(payload.Order) == 0 {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Order list is required")
		return
	}

	tx, err := h.DB.Begin(ctx)
	if err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to reorder menu")
		return
	}
	defer func() { _ = tx.Rollback(ctx) }()

	for _, entry := range payload.Order {
		if _, err := tx.Exec(ctx, `
			update menu_items set display_order = $2 where id = $1
		`, entry.ItemID, entry.DisplayOrder); err != nil {
			h.Logger.Error("menu reorder failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to reorder menu")
			return
		}
	}

	if err := tx.Commit(ctx); err != nil {
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to reorder menu")
		return
	}

	response.Success(w, map[string]any{"updated": len(payload.Order)})
}

func (h *Handler) AdminMenuDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	itemID, err := readPathInt64(r, "itemId")
	if err != nil {
		response.Error(w, http.StatusBadRequest, "VALIDATION_ERROR", "Item ID is required")
		return
	}

	// Keep the stored image in the object store; orders may still reference
	// the URL from their frozen lines.
	tag, err := h.DB.Exec(ctx, `delete from menu_items where id = $1`, itemID)
	if err != nil {
		h.Logger.Error("menu item delete failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete menu item")
		return
	}
	if tag.RowsAffected() == 0 {
		response.Error(w, http.StatusNotFound, "ITEM_NOT_FOUND", "Menu item not found")
		return
	}

	response.Success(w, map[string]any{"itemId": itemID})
}
