package store

import (
	"context"
	"fmt"
)

// Match-type aggregation buckets (spec §4.11).
const (
	MatchTypeRanked = "ranked"
	MatchTypeNormal = "normal"
	MatchTypeAll    = "all"
)

// MapMatchType buckets an upstream match type string into the three
// aggregation domains, always including "all" as an additional bucket.
func MapMatchType(upstreamType string) []string {
	switch upstreamType {
	case "competitive", "ranked", "esports":
		return []string{MatchTypeRanked, MatchTypeAll}
	case "normal", "official", "arcade":
		return []string{MatchTypeNormal, MatchTypeAll}
	default:
		return []string{MatchTypeAll}
	}
}

// DamageStatsContribution is one (player, weapon, cause, match-type)
// contribution to player_damage_stats.
type DamageStatsContribution struct {
	PlayerID  string
	Weapon    string
	Cause     string
	MatchType string
	Damage    float64
	Hits      int
}

// WeaponStatsContribution is one (player, weapon, match-type)
// contribution to player_weapon_stats.
type WeaponStatsContribution struct {
	PlayerID   string
	Weapon     string
	MatchType  string
	Kills      int
	Headshots  int
	Knockdowns int
}

// UpsertDamageStats accumulates damage contributions with
// ON CONFLICT DO UPDATE, additive rather than overwritten, so repeated
// aggregation runs across matches sum correctly.
func (g *Gateway) UpsertDamageStats(ctx context.Context, rows []DamageStatsContribution) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin upsert damage stats: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range rows {
		_, err := tx.Exec(ctx, `
			INSERT INTO player_damage_stats (player_id, weapon, cause, match_type, damage, hits)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (player_id, weapon, cause, match_type) DO UPDATE SET
				damage = player_damage_stats.damage + EXCLUDED.damage,
				hits = player_damage_stats.hits + EXCLUDED.hits
		`, r.PlayerID, r.Weapon, r.Cause, r.MatchType, r.Damage, r.Hits)
		if err != nil {
			return fmt.Errorf("store: upsert damage stats row: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// UpsertWeaponStats accumulates kill/headshot/knockdown counts per
// (player, weapon, match-type).
func (g *Gateway) UpsertWeaponStats(ctx context.Context, rows []WeaponStatsContribution) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin upsert weapon stats: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range rows {
		_, err := tx.Exec(ctx, `
			INSERT INTO player_weapon_stats (player_id, weapon, match_type, kills, headshots, knockdowns)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (player_id, weapon, match_type) DO UPDATE SET
				kills = player_weapon_stats.kills + EXCLUDED.kills,
				headshots = player_weapon_stats.headshots + EXCLUDED.headshots,
				knockdowns = player_weapon_stats.knockdowns + EXCLUDED.knockdowns
		`, r.PlayerID, r.Weapon, r.MatchType, r.Kills, r.Headshots, r.Knockdowns)
		if err != nil {
			return fmt.Errorf("store: upsert weapon stats row: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// AdvancedCareerStatsContribution feeds player_advanced_career_stats —
// the fight-derived mobility/engagement aggregates rolled up per
// (player, match-type).
type AdvancedCareerStatsContribution struct {
	PlayerID            string
	MatchType           string
	Fights              int
	FightWins           int
	TotalMovementDist   float64
	AvgMobilityRate     float64
}

// UpsertAdvancedCareerStats accumulates fight-derived career totals.
func (g *Gateway) UpsertAdvancedCareerStats(ctx context.Context, rows []AdvancedCareerStatsContribution) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin upsert career stats: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range rows {
		_, err := tx.Exec(ctx, `
			INSERT INTO player_advanced_career_stats (player_id, match_type, fights, fight_wins, total_movement_dist, avg_mobility_rate)
			VALUES ($1,$2,$3,$4,$5,$6)
			ON CONFLICT (player_id, match_type) DO UPDATE SET
				fights = player_advanced_career_stats.fights + EXCLUDED.fights,
				fight_wins = player_advanced_career_stats.fight_wins + EXCLUDED.fight_wins,
				total_movement_dist = player_advanced_career_stats.total_movement_dist + EXCLUDED.total_movement_dist,
				avg_mobility_rate = (player_advanced_career_stats.avg_mobility_rate + EXCLUDED.avg_mobility_rate) / 2
		`, r.PlayerID, r.MatchType, r.Fights, r.FightWins, r.TotalMovementDist, r.AvgMobilityRate)
		if err != nil {
			return fmt.Errorf("store: upsert career stats row: %w", err)
		}
	}
	return tx.Commit(ctx)
}

// RankedStatsRow mirrors ranked_player_stats.
type RankedStatsRow struct {
	PlayerID   string
	SeasonID   string
	GameMode   string
	RankPoints float64
	Tier       string
	SubTier    string
	Wins       int
	Losses     int
}

// UpsertRankedStats writes per-season ranked records, overwritten in
// full each refresh since the upstream snapshot supersedes prior state.
func (g *Gateway) UpsertRankedStats(ctx context.Context, rows []RankedStatsRow) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin upsert ranked stats: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range rows {
		_, err := tx.Exec(ctx, `
			INSERT INTO ranked_player_stats (player_id, season_id, game_mode, rank_points, tier, sub_tier, wins, losses)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (player_id, season_id, game_mode) DO UPDATE SET
				rank_points = EXCLUDED.rank_points,
				tier = EXCLUDED.tier,
				sub_tier = EXCLUDED.sub_tier,
				wins = EXCLUDED.wins,
				losses = EXCLUDED.losses
		`, r.PlayerID, r.SeasonID, r.GameMode, r.RankPoints, r.Tier, r.SubTier, r.Wins, r.Losses)
		if err != nil {
			return fmt.Errorf("store: upsert ranked stats row: %w", err)
		}
	}
	return tx.Commit(ctx)
}
