package broker

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
)

// Publisher declares the exchange lazily on first publish and
// confirms every publish at the broker (not a consumer ack — the
// distinction spec §4.4 draws explicitly).
type Publisher struct {
	conn     *amqp.Connection
	channel  *amqp.Channel
	exchange string
	logger   zerolog.Logger

	declared bool
}

// NewPublisher opens a channel on conn and puts it into publisher-
// confirm mode.
func NewPublisher(conn *amqp.Connection, exchange string, logger zerolog.Logger) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("broker: open publisher channel: %w", err)
	}
	if err := ch.Confirm(false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("broker: enable publisher confirms: %w", err)
	}

	return &Publisher{conn: conn, channel: ch, exchange: exchange, logger: logger.With().Str("subsystem", "broker.publisher").Logger()}, nil
}

func (p *Publisher) ensureTopology() error {
	if p.declared {
		return nil
	}
	if err := p.channel.ExchangeDeclare(p.exchange, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("broker: declare exchange %s: %w", p.exchange, err)
	}
	p.declared = true
	return nil
}

// Publish sends body as JSON under routingKey, waiting for the
// broker's publisher confirmation before returning.
func (p *Publisher) Publish(ctx context.Context, routingKey string, body any) error {
	if err := p.ensureTopology(); err != nil {
		return err
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("broker: marshal message for %s: %w", routingKey, err)
	}

	confirmation, err := p.channel.PublishWithDeferredConfirmWithContext(ctx, p.exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         payload,
	})
	if err != nil {
		return fmt.Errorf("broker: publish %s: %w", routingKey, err)
	}

	ok, err := confirmation.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("broker: wait for confirm on %s: %w", routingKey, err)
	}
	if !ok {
		return fmt.Errorf("broker: broker nacked publish on %s", routingKey)
	}

	p.logger.Debug().Str("routing_key", routingKey).Msg("published")
	return nil
}

// Healthcheck publishes a no-op message to verify broker reachability,
// aborting startup on failure per spec §4.4.
func (p *Publisher) Healthcheck(ctx context.Context) error {
	return p.Publish(ctx, "healthcheck", map[string]string{"status": "ok"})
}

// Close shuts down the publisher's channel.
func (p *Publisher) Close() error {
	return p.channel.Close()
}
