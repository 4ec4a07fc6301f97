// Command worker-processing runs the telemetry processing worker (C8):
// it consumes match.telemetry_downloaded events, decodes the trace
// once, fans it out to every fact processor and the fight engine, and
// publishes match.processing_complete.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/TeamPew/pewstats-collectors/internal/broker"
	"github.com/TeamPew/pewstats-collectors/internal/config"
	"github.com/TeamPew/pewstats-collectors/internal/logging"
	"github.com/TeamPew/pewstats-collectors/internal/store"
	"github.com/TeamPew/pewstats-collectors/internal/workers/processing"
	amqp "github.com/rabbitmq/amqp091-go"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := logging.New("worker-processing", cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gateway, err := store.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	defer gateway.Close()

	conn, err := amqp.Dial(cfg.Broker.AMQPURL())
	if err != nil {
		return fmt.Errorf("dial broker: %w", err)
	}
	defer conn.Close()

	consumer, err := broker.NewConsumer(conn, cfg.Broker.Exchange, broker.QueueProcessingWorker, broker.RoutingMatchTelemetryDownloaded, logger)
	if err != nil {
		return fmt.Errorf("build consumer: %w", err)
	}
	publisher, err := broker.NewPublisher(conn, cfg.Broker.Exchange, logger)
	if err != nil {
		return fmt.Errorf("build publisher: %w", err)
	}

	worker := processing.New(consumer, publisher, gateway, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("shutting down")
		cancel()
	}()

	if err := worker.Run(ctx); err != nil && ctx.Err() == nil {
		return fmt.Errorf("worker stopped: %w", err)
	}
	return nil
}
