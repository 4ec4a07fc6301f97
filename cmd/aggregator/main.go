// Command aggregator runs the aggregation worker (C11): it polls for
// matches whose telemetry and fights are fully processed but whose
// stats are not yet rolled up, and accumulates the per-player career
// stat tables.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TeamPew/pewstats-collectors/internal/aggregation"
	"github.com/TeamPew/pewstats-collectors/internal/config"
	"github.com/TeamPew/pewstats-collectors/internal/logging"
	"github.com/TeamPew/pewstats-collectors/internal/store"
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

	logger := logging.New("aggregator", cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gateway, err := store.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	defer gateway.Close()

	service := aggregation.New(gateway, 0, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("shutting down")
		cancel()
	}()

	return service.Run(ctx, 30*time.Second)
}
