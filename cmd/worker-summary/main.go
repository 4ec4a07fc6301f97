// Command worker-summary runs the match summary worker (C6): it
// consumes match.discovered events, fetches each match's participant
// summaries, and publishes match.summary_complete.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/TeamPew/pewstats-collectors/internal/broker"
	"github.com/TeamPew/pewstats-collectors/internal/config"
	"github.com/TeamPew/pewstats-collectors/internal/credpool"
	"github.com/TeamPew/pewstats-collectors/internal/logging"
	"github.com/TeamPew/pewstats-collectors/internal/pubgapi"
	"github.com/TeamPew/pewstats-collectors/internal/store"
	"github.com/TeamPew/pewstats-collectors/internal/workers/summary"
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

	logger := logging.New("worker-summary", cfg.Logging.Level, cfg.Logging.Format)

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

	consumer, err := broker.NewConsumer(conn, cfg.Broker.Exchange, broker.QueueSummaryWorker, broker.RoutingMatchDiscovered, logger)
	if err != nil {
		return fmt.Errorf("build consumer: %w", err)
	}
	publisher, err := broker.NewPublisher(conn, cfg.Broker.Exchange, logger)
	if err != nil {
		return fmt.Errorf("build publisher: %w", err)
	}

	creds := make([]credpool.Credential, len(cfg.Credential.Keys))
	for i, c := range cfg.Credential.Keys {
		creds[i] = credpool.Credential{Key: c.Key, BudgetPerMinute: c.BudgetPerMinute}
	}
	pool, err := credpool.NewPool(creds)
	if err != nil {
		return fmt.Errorf("build credential pool: %w", err)
	}
	apiConfig := pubgapi.DefaultConfig()
	apiConfig.Shard = cfg.Platform
	client := pubgapi.NewClient(pool, apiConfig, logger)

	worker := summary.New(consumer, publisher, client, gateway, logger)

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
