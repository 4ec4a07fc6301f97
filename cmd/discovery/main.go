// Command discovery runs the scheduled match discovery service (C5):
// it sweeps the tracked roster for newly played matches on a fixed
// interval (or once, in single-shot mode) and, when a tournament
// credential is configured, runs a second, tournament-tagged sweep of
// the same roster on that credential (alongside the first in
// continuous mode, after it in single-shot mode).
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
	"github.com/TeamPew/pewstats-collectors/internal/discovery"
	"github.com/TeamPew/pewstats-collectors/internal/logging"
	"github.com/TeamPew/pewstats-collectors/internal/pubgapi"
	"github.com/TeamPew/pewstats-collectors/internal/store"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
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

	logger := logging.New("discovery", cfg.Logging.Level, cfg.Logging.Format)

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

	publisher, err := broker.NewPublisher(conn, cfg.Broker.Exchange, logger)
	if err != nil {
		return fmt.Errorf("build publisher: %w", err)
	}

	rosterPool, err := buildPool(cfg.Credential.Keys)
	if err != nil {
		return fmt.Errorf("build credential pool: %w", err)
	}
	rosterClient := buildClient(rosterPool, cfg.Platform, logger)
	rosterService := discovery.New(rosterClient, gateway, publisher, cfg.Discovery.ChunkSize, logger)

	var tournamentService *discovery.Service
	if cfg.Discovery.TournamentKey != "" {
		tournamentPool, err := credpool.NewPool([]credpool.Credential{{Key: cfg.Discovery.TournamentKey, BudgetPerMinute: 60}})
		if err != nil {
			return fmt.Errorf("build tournament credential pool: %w", err)
		}
		tournamentClient := buildClient(tournamentPool, cfg.Platform, logger)
		tournamentService = discovery.NewTournament(tournamentClient, gateway, publisher, cfg.Discovery.ChunkSize, logger)
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info().Msg("shutting down")
		cancel()
	}()

	if cfg.Discovery.SingleShot {
		return runSingleShot(ctx, rosterService, tournamentService, logger)
	}
	return runContinuous(ctx, rosterService, tournamentService, cfg.Discovery.IntervalSeconds)
}

func runSingleShot(ctx context.Context, roster, tournament *discovery.Service, logger zerolog.Logger) error {
	result, err := roster.RunOnce(ctx)
	if err != nil {
		return fmt.Errorf("roster sweep: %w", err)
	}
	logger.Info().Int("new_matches", result.NewMatches).Msg("roster sweep complete")

	if tournament != nil {
		tResult, err := tournament.RunOnce(ctx)
		if err != nil {
			return fmt.Errorf("tournament sweep: %w", err)
		}
		logger.Info().Int("new_matches", tResult.NewMatches).Msg("tournament sweep complete")
	}
	return nil
}

func runContinuous(ctx context.Context, roster, tournament *discovery.Service, intervalSeconds int) error {
	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		return roster.Run(groupCtx, intervalSeconds)
	})
	if tournament != nil {
		group.Go(func() error {
			return tournament.Run(groupCtx, intervalSeconds)
		})
	}

	if err := group.Wait(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func buildPool(keys []config.Credential) (*credpool.Pool, error) {
	creds := make([]credpool.Credential, len(keys))
	for i, c := range keys {
		creds[i] = credpool.Credential{Key: c.Key, BudgetPerMinute: c.BudgetPerMinute}
	}
	return credpool.NewPool(creds)
}

func buildClient(pool *credpool.Pool, platform string, logger zerolog.Logger) *pubgapi.Client {
	apiConfig := pubgapi.DefaultConfig()
	apiConfig.Shard = platform
	return pubgapi.NewClient(pool, apiConfig, logger)
}
