package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"tabletap-order-service/internal/order"
	"tabletap-order-service/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"go.uber.org/zap"
)

var errMissingParam = errors.New("missing param")

func zapError(err error) zap.Field {
	return zap.Error(err)
}

func readPathString(r *http.Request, key string) string {
	return chi.URLParam(r, key)
}

func readPathInt64(r *http.Request, key string) (int64, error) {
	value := readPathString(r, key)
	if value == "" {
		return 0, errMissingParam
	}
	var out int64
	_, err := fmt.Sscan(value, &out)
	return out, err
}

func readPathInt(r *http.Request, key string) (int, error) {
	v, err := readPathInt64(r, key)
	return int(v), err
}

type rowQuerier interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const orderColumns = `
	id, table_number, items, total_amount, status, revision,
	special_notes, admin_message, customer_message, rating, feedback,
	created_at, updated_at
`

func scanOrder(row pgx.Row) (order.Order, error) {
	var (
		o            order.Order
		itemsRaw     []byte
		totalAmount  pgtype.Numeric
		specialNotes pgtype.Text
		adminMsg     pgtype.Text
		customerMsg  pgtype.Text
		rating       pgtype.Int4
		feedback     pgtype.Text
	)

	if err := row.Scan(
		&o.ID,
		&o.TableNumber,
		&itemsRaw,
		&totalAmount,
		&o.Status,
		&o.Revision,
		&specialNotes,
		&adminMsg,
		&customerMsg,
		&rating,
		&feedback,
		&o.CreatedAt,
		&o.UpdatedAt,
	); err != nil {
		return o, err
	}

	o.TotalAmount = utils.NumericToFloat64(totalAmount)
	if len(itemsRaw) > 0 {
		if err := json.Unmarshal(itemsRaw, &o.Items); err != nil {
			return o, err
		}
	}
	if o.Items == nil {
		o.Items = []order.Line{}
	}

	if specialNotes.Valid {
		o.SpecialNotes = &specialNotes.String
	}
	if adminMsg.Valid {
		o.AdminMessage = &adminMsg.String
	}
	if customerMsg.Valid {
		o.CustomerMessage = &customerMsg.String
	}
	if rating.Valid {
		v := int(rating.Int32)
		o.Rating = &v
	}
	if feedback.Valid {
		o.Feedback = &feedback.String
	}

	return o, nil
}

func fetchOrder(ctx context.Context, q rowQuerier, orderID int64) (order.Order, error) {
	query := `select ` + orderColumns + ` from orders where id = $1`
	return scanOrder(q.QueryRow(ctx, query, orderID))
}

func collectOrders(rows pgx.Rows) ([]order.Order, error) {
	defer rows.Close()
	orders := make([]order.Order, 0)
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
	}
	return orders, rows.Err()
}

// notifyOrderChange fires the LISTEN/NOTIFY channel the websocket fan-out
// listens on. Called inside the writing transaction so subscribers only see
// committed state.
func notifyOrderChange(ctx context.Context, q rowQuerier, orderID int64) {
	_, _ = q.Exec(ctx, `select pg_notify('orders_updates', $1::text)`, orderID)
}

func notifyWaiterCallChange(ctx context.Context, q rowQuerier, tableNumber int) {
	_, _ = q.Exec(ctx, `select pg_notify('waiter_calls_updates', $1::text)`, tableNumber)
}

func writeStatusLog(ctx context.Context, q rowQuerier, orderID int64, status order.Status, at time.Time) error {
	_, err := q.Exec(ctx, `
		insert into order_status_logs (order_id, status, created_at)
		values ($1, $2, $3)
	`, orderID, status, at)
	return err
}

func orderSubtotal(lines []order.Line) float64 {
	var subtotal float64
	for _, line := range lines {
		subtotal += line.Price * float64(line.Quantity)
	}
	return subtotal
}
