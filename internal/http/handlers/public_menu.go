package handlers

import (
	"net/http"

	"tabletap-order-service/internal/utils"
	"tabletap-order-service/pkg/response"

	"github.com/jackc/pgx/v5/pgtype"
)

type MenuItem struct {
	ID           int64    `json:"id"`
	Name         string   `json:"name"`
	Description  *string  `json:"description"`
	Price        float64  `json:"price"`
	Category     string   `json:"category"`
	Tags         []string `json:"tags"`
	InStock      bool     `json:"inStock"`
	DisplayOrder int      `json:"displayOrder"`
	ImageURL     *string  `json:"imageUrl"`
	Discount     *float64 `json:"discount"`
	DiscountType *string  `json:"discountType"`
}

const menuItemColumns = `
	id, name, description, price, category, tags, in_stock,
	display_order, image_url, discount, discount_type
`

func scanMenuItem(row interface{ Scan(dest ...any) error }) (MenuItem, error) {
	var (
		item         MenuItem
		description  pgtype.Text
		price        pgtype.Numeric
		imageURL     pgtype.Text
		discount     pgtype.Numeric
		discountType pgtype.Text
	)
	if err := row.Scan(
		&item.ID,
		&item.Name,
		&description,
		&price,
		&item.Category,
		&item.Tags,
		&item.InStock,
		&item.DisplayOrder,
		&imageURL,
		&discount,
		&discountType,
	); err != nil {
		return item, err
	}

	item.Price = utils.NumericToFloat64(price)
	if description.Valid {
		item.Description = &description.String
	}
	if imageURL.Valid {
		item.ImageURL = &imageURL.String
	}
	if discount.Valid {
		d := utils.NumericToFloat64(discount)
		item.Discount = &d
	}
	if discountType.Valid {
		item.DiscountType = &discountType.String
	}
	if item.Tags == nil {
		item.Tags = []string{}
	}
	return item, nil
}

// PublicMenu lists purchasable items only: out-of-stock rows are hidden from
// customers but stay visible on the admin surface.
func (h *Handler) PublicMenu(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := `
		select ` + menuItemColumns + `
		from menu_items
		where in_stock = true
		order by display_order, name
	`
	args := []any{}
	if category := r.URL.Query().Get("category"); category != "" {
		query = `
			select ` + menuItemColumns + `
			from menu_items
			where in_stock = true and category = $1
			order by display_order, name
		`
		args = append(args, category)
	}

	rows, err := h.DB.Query(ctx, query, args...)
	if err != nil {
		h.Logger.Error("menu query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch menu")
		return
	}
	defer rows.Close()

	items := make([]MenuItem, 0)
	for rows.Next() {
		item, err := scanMenuItem(rows)
		if err != nil {
			h.Logger.Error("menu scan failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch menu")
			return
		}
		items = append(items, item)
	}

	response.Success(w, items)
}

func (h *Handler) PublicMenuCategories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rows, err := h.DB.Query(ctx, `
		select distinct category from menu_items
		where in_stock = true
		order by category
	`)
	if err != nil {
		h.Logger.Error("categories query failed", zapError(err))
		response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch categories")
		return
	}
	defer rows.Close()

	categories := make([]string, 0)
	for rows.Next() {
		var category string
		if err := rows.Scan(&category); err != nil {
			h.Logger.Error("categories scan failed", zapError(err))
			response.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch categories")
			return
		}
		categories = append(categories, category)
	}

	response.Success(w, categories)
}
