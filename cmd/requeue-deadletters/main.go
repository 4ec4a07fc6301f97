// Command requeue-deadletters moves messages from one queue's
// dead-letter queue back onto the primary exchange for reprocessing,
// for an operator to run once the cause of failure is resolved.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/TeamPew/pewstats-collectors/internal/broker"
	"github.com/TeamPew/pewstats-collectors/internal/config"
	amqp "github.com/rabbitmq/amqp091-go"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	queue := flag.String("queue", "", "queue whose dead-letter queue should be drained")
	routingKey := flag.String("routing-key", "", "routing key to republish under")
	limit := flag.Int("limit", 100, "maximum messages to requeue")
	flag.Parse()

	if *queue == "" || *routingKey == "" {
		return fmt.Errorf("both -queue and -routing-key are required")
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	conn, err := amqp.Dial(cfg.Broker.AMQPURL())
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer conn.Close()

	ctx := context.Background()
	requeued, err := broker.RequeueDeadLetters(ctx, conn, cfg.Broker.Exchange, *queue, *routingKey, *limit)
	if err != nil {
		return fmt.Errorf("requeue dead letters: %w", err)
	}

	fmt.Printf("requeued %d messages from %s.dlq onto %s\n", requeued, *queue, *routingKey)
	return nil
}
