// Command backfill runs the backfill orchestrator (C12): it drains
// the player_backfill_status queue with bounded parallelism, running
// whichever per-processor stages a historical match hasn't completed
// yet, independent of the live broker pipeline.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/TeamPew/pewstats-collectors/internal/backfill"
	"github.com/TeamPew/pewstats-collectors/internal/config"
	"github.com/TeamPew/pewstats-collectors/internal/credpool"
	"github.com/TeamPew/pewstats-collectors/internal/logging"
	"github.com/TeamPew/pewstats-collectors/internal/pubgapi"
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

	logger := logging.New("backfill", cfg.Logging.Level, cfg.Logging.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	gateway, err := store.New(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connect store: %w", err)
	}
	defer gateway.Close()

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

	orchestrator := backfill.New(client, gateway, cfg.Telemetry.Root, 0, 0, logger)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("shutting down")
		cancel()
	}()

	return orchestrator.Run(ctx, 30*time.Second, 50)
}
