package queue

import (
	"testing"
	"time"
)

func TestNotificationMessage(t *testing.T) {
	now := time.Now()
	cases := []struct {
		name  string
		event Event
		want  string
	}{
		{"order created", Event{Type: "order.created", TableNumber: 4, OccurredAt: now}, "New order for table 4"},
		{"status updated", Event{Type: "order.status.updated", OrderID: 12, Status: "in_progress", OccurredAt: now}, "Order 12 is now in_progress"},
		{"merged", Event{Type: "order.merged", TableNumber: 5, OccurredAt: now}, "Orders for table 5 merged and completed"},
		{"waiter called", Event{Type: "waiter.called", TableNumber: 9, OccurredAt: now}, "Table 9 is calling a waiter"},
		{"unknown falls back to type", Event{Type: "something.else", OccurredAt: now}, "something.else"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := notificationMessage(tc.event); got != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, got)
			}
		})
	}
}
