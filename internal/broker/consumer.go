package broker

import (
	"context"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Handler processes one delivery's body and reports its outcome.
// Returning a nil error acks the message; returning an error nacks it
// without requeue, sending it to the role's dead-letter queue.
type Handler func(ctx context.Context, body []byte) error

// Consumer binds a durable queue to one routing key on the topic
// exchange, with prefetch=1 and a parallel dead-letter queue.
// Grounded on spec §4.4's consumer invariants.
type Consumer struct {
	channel *amqp.Channel
	queue   string
	logger  zerolog.Logger
}

// NewConsumer declares queue, binds it to routingKey on exchange, sets
// up its dead-letter queue, and configures prefetch=1.
func NewConsumer(conn *amqp.Connection, exchange, queue, routingKey string, logger zerolog.Logger) (*Consumer, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("broker: open consumer channel: %w", err)
	}

	if err := ch.ExchangeDeclare(exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("broker: declare exchange %s: %w", exchange, err)
	}

	dlq := deadLetterQueue(queue)
	if err := ch.ExchangeDeclare(DeadLetterExchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("broker: declare dead-letter exchange: %w", err)
	}
	if _, err := ch.QueueDeclare(dlq, true, false, false, false, nil); err != nil {
		return nil, fmt.Errorf("broker: declare dead-letter queue %s: %w", dlq, err)
	}
	if err := ch.QueueBind(dlq, queue, DeadLetterExchange, false, nil); err != nil {
		return nil, fmt.Errorf("broker: bind dead-letter queue %s: %w", dlq, err)
	}

	if _, err := ch.QueueDeclare(queue, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    DeadLetterExchange,
		"x-dead-letter-routing-key": queue,
	}); err != nil {
		return nil, fmt.Errorf("broker: declare queue %s: %w", queue, err)
	}
	if err := ch.QueueBind(queue, routingKey, exchange, false, nil); err != nil {
		return nil, fmt.Errorf("broker: bind queue %s to %s: %w", queue, routingKey, err)
	}

	if err := ch.Qos(1, 0, false); err != nil {
		return nil, fmt.Errorf("broker: set prefetch for %s: %w", queue, err)
	}

	return &Consumer{channel: ch, queue: queue, logger: logger.With().Str("queue", queue).Logger()}, nil
}

// Run consumes queue until ctx is cancelled. In-flight handlers are
// allowed to finish before the loop exits (graceful shutdown, spec §5).
func (c *Consumer) Run(ctx context.Context, handler Handler) error {
	deliveries, err := c.channel.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("broker: consume %s: %w", c.queue, err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case delivery, ok := <-deliveries:
			if !ok {
				return nil
			}
			c.handleOne(ctx, delivery, handler)
		}
	}
}

func (c *Consumer) handleOne(ctx context.Context, delivery amqp.Delivery, handler Handler) {
	err := handler(ctx, delivery.Body)
	if err != nil {
		c.logger.Error().Err(err).Msg("handler failed, routing to dead-letter queue")
		if nackErr := delivery.Nack(false, false); nackErr != nil {
			c.logger.Error().Err(nackErr).Msg("failed to nack delivery")
		}
		return
	}

	if ackErr := delivery.Ack(false); ackErr != nil {
		c.logger.Error().Err(ackErr).Msg("failed to ack delivery")
	}
}

// Close shuts down the consumer's channel.
func (c *Consumer) Close() error {
	return c.channel.Close()
}
