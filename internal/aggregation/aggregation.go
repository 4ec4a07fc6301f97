// Package aggregation is the aggregation worker (C11): it polls for
// matches whose telemetry and fights are fully processed but whose
// stats are not yet rolled up, buckets each by match type, and
// accumulates the per-player career tables.
package aggregation

import (
	"context"
	"fmt"
	"time"

	"github.com/TeamPew/pewstats-collectors/internal/store"
	"github.com/rs/zerolog"
)

// Service polls matches pending aggregation and rolls their facts up
// into the career stat tables.
type Service struct {
	store *store.Gateway
	limit int
	logger zerolog.Logger
}

// New builds an aggregation Service.
func New(gateway *store.Gateway, batchLimit int, logger zerolog.Logger) *Service {
	if batchLimit <= 0 {
		batchLimit = 50
	}
	return &Service{store: gateway, limit: batchLimit, logger: logger.With().Str("component", "aggregation").Logger()}
}

// RunOnce processes one batch of pending matches, returning the count
// aggregated.
func (s *Service) RunOnce(ctx context.Context) (int, error) {
	matches, err := s.store.MatchesPendingAggregation(ctx, s.limit)
	if err != nil {
		return 0, fmt.Errorf("aggregation: load pending matches: %w", err)
	}

	count := 0
	for _, m := range matches {
		if err := s.aggregateOne(ctx, m); err != nil {
			s.logger.Error().Err(err).Str("match_id", m.MatchID).Msg("failed to aggregate match")
			continue
		}
		count++
	}
	return count, nil
}

// Run polls on a fixed interval until ctx is cancelled.
func (s *Service) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			count, err := s.RunOnce(ctx)
			if err != nil {
				s.logger.Error().Err(err).Msg("aggregation pass failed")
				continue
			}
			if count > 0 {
				s.logger.Info().Int("matches", count).Msg("aggregated matches")
			}
		}
	}
}

// AggregateMatch rolls up a single already-identified match's facts,
// for the backfill orchestrator which aggregates one historical match
// at a time rather than polling the pending-aggregation queue.
func (s *Service) AggregateMatch(ctx context.Context, matchID string) error {
	m, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("aggregation: load match %s: %w", matchID, err)
	}
	return s.aggregateOne(ctx, *m)
}

func (s *Service) aggregateOne(ctx context.Context, m store.Match) error {
	matchTypes := store.MapMatchType(m.GameType)

	damageSums, err := s.store.MatchDamageSums(ctx, m.MatchID)
	if err != nil {
		return fmt.Errorf("load damage sums: %w", err)
	}
	if err := s.store.UpsertDamageStats(ctx, expandDamage(damageSums, matchTypes)); err != nil {
		return fmt.Errorf("upsert damage stats: %w", err)
	}

	weaponSums, err := s.store.MatchWeaponSums(ctx, m.MatchID)
	if err != nil {
		return fmt.Errorf("load weapon sums: %w", err)
	}
	if err := s.store.UpsertWeaponStats(ctx, expandWeapon(weaponSums, matchTypes)); err != nil {
		return fmt.Errorf("upsert weapon stats: %w", err)
	}

	fightSums, err := s.store.MatchFightSums(ctx, m.MatchID)
	if err != nil {
		return fmt.Errorf("load fight sums: %w", err)
	}
	if err := s.store.UpsertAdvancedCareerStats(ctx, expandFights(fightSums, matchTypes)); err != nil {
		return fmt.Errorf("upsert career stats: %w", err)
	}

	if err := s.store.SetStageFlag(ctx, m.MatchID, "stats_aggregated"); err != nil {
		return fmt.Errorf("set stats_aggregated flag: %w", err)
	}
	return nil
}

func expandDamage(sums []store.DamageSumRow, matchTypes []string) []store.DamageStatsContribution {
	out := make([]store.DamageStatsContribution, 0, len(sums)*len(matchTypes))
	for _, s := range sums {
		for _, matchType := range matchTypes {
			out = append(out, store.DamageStatsContribution{
				PlayerID: s.PlayerID, Weapon: s.Weapon, Cause: s.Cause, MatchType: matchType,
				Damage: s.Damage, Hits: s.Hits,
			})
		}
	}
	return out
}

func expandWeapon(sums []store.WeaponSumRow, matchTypes []string) []store.WeaponStatsContribution {
	out := make([]store.WeaponStatsContribution, 0, len(sums)*len(matchTypes))
	for _, s := range sums {
		for _, matchType := range matchTypes {
			out = append(out, store.WeaponStatsContribution{
				PlayerID: s.PlayerID, Weapon: s.Weapon, MatchType: matchType,
				Kills: s.Kills, Headshots: s.Headshots, Knockdowns: s.Knockdowns,
			})
		}
	}
	return out
}

func expandFights(sums []store.FightSumRow, matchTypes []string) []store.AdvancedCareerStatsContribution {
	out := make([]store.AdvancedCareerStatsContribution, 0, len(sums)*len(matchTypes))
	for _, s := range sums {
		for _, matchType := range matchTypes {
			out = append(out, store.AdvancedCareerStatsContribution{
				PlayerID: s.PlayerID, MatchType: matchType,
				Fights: s.Fights, FightWins: s.FightWins,
				TotalMovementDist: s.TotalMovementDist, AvgMobilityRate: s.AvgMobilityRate,
			})
		}
	}
	return out
}
