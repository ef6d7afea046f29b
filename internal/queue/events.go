package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Event struct {
	Type        string    `json:"type"`
	OrderID     int64     `json:"orderId,omitempty"`
	TableNumber int       `json:"tableNumber,omitempty"`
	Status      string    `json:"status,omitempty"`
	OccurredAt  time.Time `json:"occurredAt"`
}

// ProcessEvent translates a queued event into a notification_log row. The
// log is the audit feed the dashboard's notification bell reads from; order
// status history itself lives in order_status_logs and is written in the
// same transaction as the status change.
func ProcessEvent(ctx context.Context, db *pgxpool.Pool, body []byte) error {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		// Malformed payloads are dropped, not retried.
		return nil
	}
	if event.Type == "" {
		return nil
	}

	occurred := event.OccurredAt
	if occurred.IsZero() {
		occurred = time.Now()
	}

	message := notificationMessage(event)
	_, err := db.Exec(ctx, `
		insert into notification_log (event_type, order_id, table_number, message, created_at)
		values ($1, nullif($2, 0), nullif($3, 0), $4, $5)
	`, event.Type, event.OrderID, event.TableNumber, message, occurred)
	return err
}

func notificationMessage(event Event) string {
	switch event.Type {
	case "order.created":
		return fmt.Sprintf("New order for table %d", event.TableNumber)
	case "order.status.updated":
		return fmt.Sprintf("Order %d is now %s", event.OrderID, event.Status)
	case "order.merged":
		return fmt.Sprintf("Orders for table %d merged and completed", event.TableNumber)
	case "waiter.called":
		return fmt.Sprintf("Table %d is calling a waiter", event.TableNumber)
	default:
		return event.Type
	}
}
