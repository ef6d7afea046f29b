package queue

import (
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
)

func TestDeliveryAttempts(t *testing.T) {
	tests := []struct {
		name    string
		headers amqp.Table
		want    int
	}{
		{"nil headers", nil, 0},
		{"missing header", amqp.Table{"other": 3}, 0},
		{"int", amqp.Table{retryCountHeader: 2}, 2},
		{"int32", amqp.Table{retryCountHeader: int32(4)}, 4},
		{"int64", amqp.Table{retryCountHeader: int64(7)}, 7},
		{"wrong type", amqp.Table{retryCountHeader: "5"}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := deliveryAttempts(tt.headers); got != tt.want {
				t.Fatalf("expected %d, got %d", tt.want, got)
			}
		})
	}
}
