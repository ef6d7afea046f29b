package queue

import (
	"context"
	"errors"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// retryCountHeader carries how many times a delivery has been republished.
const retryCountHeader = "x-retry-count"

type HandlerFunc func(ctx context.Context, body []byte) error

// ConsumeWithRetry drains queueName, handing each delivery to handler.
// Failed deliveries are republished with a bumped retry header after
// retryDelay; once past maxRetries they are nacked without requeue so a
// poison message cannot block the queue. Returns when the delivery channel
// closes.
func (c *Client) ConsumeWithRetry(queueName string, handler HandlerFunc, maxRetries int, retryDelay time.Duration) error {
	deliveries, err := c.ch.Consume(queueName, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	for d := range deliveries {
		ctx := context.Background()
		if err := handler(ctx, d.Body); err == nil {
			_ = d.Ack(false)
			continue
		}

		attempts := deliveryAttempts(d.Headers)
		if attempts >= maxRetries {
			_ = d.Nack(false, false)
			continue
		}

		time.Sleep(retryDelay)
		if err := c.republish(ctx, queueName, d, attempts+1); err != nil {
			// Republish failed; put the original back instead of losing it.
			_ = d.Nack(false, true)
			continue
		}
		_ = d.Ack(false)
	}

	return errors.New("delivery channel closed")
}

func (c *Client) republish(ctx context.Context, queueName string, d amqp.Delivery, attempts int) error {
	headers := d.Headers
	if headers == nil {
		headers = amqp.Table{}
	}
	headers[retryCountHeader] = attempts

	return c.ch.PublishWithContext(ctx, "", queueName, false, false, amqp.Publishing{
		ContentType: d.ContentType,
		Body:        d.Body,
		Headers:     headers,
		Timestamp:   time.Now(),
	})
}

// deliveryAttempts reads the retry header, tolerating the integer widths
// different AMQP clients write.
func deliveryAttempts(headers amqp.Table) int {
	if headers == nil {
		return 0
	}
	switch v := headers[retryCountHeader].(type) {
	case int:
		return v
	case int32:
		return int(v)
	case int64:
		return int(v)
	default:
		return 0
	}
}
