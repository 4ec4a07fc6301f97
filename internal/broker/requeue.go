package broker

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

// RequeueDeadLetters moves up to limit messages from queue's
// dead-letter queue back onto the primary exchange under routingKey,
// for re-processing once the upstream recovers. This is the
// "separate republish tool" spec §4.6 mentions in passing, kept as a
// plain function; cmd/requeue-deadletters is its command-line wrapper.
func RequeueDeadLetters(ctx context.Context, conn *amqp.Connection, exchange, queue, routingKey string, limit int) (int, error) {
	ch, err := conn.Channel()
	if err != nil {
		return 0, fmt.Errorf("broker: open requeue channel: %w", err)
	}
	defer ch.Close()

	dlq := deadLetterQueue(queue)
	requeued := 0

	for requeued < limit {
		msg, ok, err := ch.Get(dlq, false)
		if err != nil {
			return requeued, fmt.Errorf("broker: get from %s: %w", dlq, err)
		}
		if !ok {
			break
		}

		err = ch.PublishWithContext(ctx, exchange, routingKey, false, false, amqp.Publishing{
			ContentType:  msg.ContentType,
			DeliveryMode: amqp.Persistent,
			Body:         msg.Body,
		})
		if err != nil {
			_ = msg.Nack(false, true)
			return requeued, fmt.Errorf("broker: republish from %s: %w", dlq, err)
		}

		if err := msg.Ack(false); err != nil {
			return requeued, fmt.Errorf("broker: ack dead-letter message: %w", err)
		}
		requeued++
	}

	return requeued, nil
}
