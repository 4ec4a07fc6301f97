package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// KillEventRow mirrors player_kill_events.
type KillEventRow struct {
	MatchID      string
	EventID      string
	Timestamp    float64
	KillerID     *string
	VictimID     string
	Weapon       string
	Distance     float64
	Headshot     bool
	KillStealerID *string
}

// DamageEventRow mirrors player_damage_events.
type DamageEventRow struct {
	MatchID      string
	EventID      string
	Timestamp    float64
	AttackerID   *string
	VictimID     string
	Weapon       string
	BodyPart     string
	Amount       float64
	Cause        string
	IsSelfDamage bool
	IsTeamDamage bool
}

// KnockEventRow mirrors player_knock_events, including the "victim
// support" teammate-proximity snapshot from spec §4.9.
type KnockEventRow struct {
	MatchID               string
	EventID                string
	Timestamp              float64
	AttackerID             *string
	VictimID               string
	Weapon                 string
	Distance               float64
	NearestTeammateDist    *float64
	AvgTeammateDist        *float64
	TeammatesWithin50m     int
	TeammatesWithin100m    int
	TeammatesWithin200m    int
	TeammateDistVariance   *float64
	TeammatesAlive         int
}

// LandingRow mirrors player_landings.
type LandingRow struct {
	MatchID   string
	PlayerID  string
	X, Y, Z   float64
	Timestamp float64
}

// WeaponDistributionRow mirrors player_match_weapon_distribution.
type WeaponDistributionRow struct {
	MatchID       string
	PlayerID      string
	WeaponCategory string
	Damage        float64
	Kills         int
	Knocks        int
}

// CirclePositionRow mirrors player_circle_positions (tracked players only).
type CirclePositionRow struct {
	MatchID           string
	PlayerID          string
	ElapsedTime       float64
	ZoneCenterX       float64
	ZoneCenterY       float64
	ZoneRadius        float64
	PlayerX           float64
	PlayerY           float64
	DistanceFromCenter float64
	DistanceFromEdge  float64
	InZone            bool
	TimeOutsideZone   float64
}

// FinishingSummaryRow mirrors player_finishing_summary (item usage).
type FinishingSummaryRow struct {
	MatchID    string
	PlayerID   string
	Heals      int
	Boosts     int
	Throwables int
	Smokes     int
}

// InsertKillEvents bulk-inserts kill facts via CopyFrom. The target
// table carries a unique index on (match_id, event_id). CopyFrom
// cannot target ON CONFLICT DO NOTHING directly, so copyWithDedup
// copies into a temporary table dropped on commit and inserts from it
// with ON CONFLICT DO NOTHING, which skips duplicates from
// reprocessing — grounded on Baldr96-statsiq_aggregate_worker's
// insertClutches CopyFrom shape.
func (g *Gateway) InsertKillEvents(ctx context.Context, rows []KillEventRow) error {
	if len(rows) == 0 {
		return nil
	}
	return g.copyWithDedup(ctx, "player_kill_events", []string{"match_id", "event_id"}, []string{
		"match_id", "event_id", "timestamp", "killer_id", "victim_id", "weapon", "distance", "headshot", "kill_stealer_id",
	}, len(rows), func(i int) ([]any, error) {
		r := rows[i]
		return []any{r.MatchID, r.EventID, r.Timestamp, r.KillerID, r.VictimID, r.Weapon, r.Distance, r.Headshot, r.KillStealerID}, nil
	})
}

// InsertDamageEvents bulk-inserts damage facts.
func (g *Gateway) InsertDamageEvents(ctx context.Context, rows []DamageEventRow) error {
	if len(rows) == 0 {
		return nil
	}
	return g.copyWithDedup(ctx, "player_damage_events", []string{"match_id", "event_id"}, []string{
		"match_id", "event_id", "timestamp", "attacker_id", "victim_id", "weapon", "body_part", "amount", "cause", "is_self_damage", "is_team_damage",
	}, len(rows), func(i int) ([]any, error) {
		r := rows[i]
		return []any{r.MatchID, r.EventID, r.Timestamp, r.AttackerID, r.VictimID, r.Weapon, r.BodyPart, r.Amount, r.Cause, r.IsSelfDamage, r.IsTeamDamage}, nil
	})
}

// InsertKnockEvents bulk-inserts knock facts.
func (g *Gateway) InsertKnockEvents(ctx context.Context, rows []KnockEventRow) error {
	if len(rows) == 0 {
		return nil
	}
	return g.copyWithDedup(ctx, "player_knock_events", []string{"match_id", "event_id"}, []string{
		"match_id", "event_id", "timestamp", "attacker_id", "victim_id", "weapon", "distance",
		"nearest_teammate_dist", "avg_teammate_dist", "teammates_within_50m", "teammates_within_100m",
		"teammates_within_200m", "teammate_dist_variance", "teammates_alive",
	}, len(rows), func(i int) ([]any, error) {
		r := rows[i]
		return []any{
			r.MatchID, r.EventID, r.Timestamp, r.AttackerID, r.VictimID, r.Weapon, r.Distance,
			r.NearestTeammateDist, r.AvgTeammateDist, r.TeammatesWithin50m, r.TeammatesWithin100m,
			r.TeammatesWithin200m, r.TeammateDistVariance, r.TeammatesAlive,
		}, nil
	})
}

// InsertLandings bulk-inserts one row per live player.
func (g *Gateway) InsertLandings(ctx context.Context, rows []LandingRow) error {
	if len(rows) == 0 {
		return nil
	}
	return g.copyWithDedup(ctx, "player_landings", []string{"match_id", "player_id"}, []string{
		"match_id", "player_id", "x", "y", "z", "timestamp",
	}, len(rows), func(i int) ([]any, error) {
		r := rows[i]
		return []any{r.MatchID, r.PlayerID, r.X, r.Y, r.Z, r.Timestamp}, nil
	})
}

// InsertWeaponDistribution bulk-inserts per-(match, player, category) sums.
func (g *Gateway) InsertWeaponDistribution(ctx context.Context, rows []WeaponDistributionRow) error {
	if len(rows) == 0 {
		return nil
	}
	return g.copyWithDedup(ctx, "player_match_weapon_distribution", []string{"match_id", "player_id", "weapon_category"}, []string{
		"match_id", "player_id", "weapon_category", "damage", "kills", "knocks",
	}, len(rows), func(i int) ([]any, error) {
		r := rows[i]
		return []any{r.MatchID, r.PlayerID, r.WeaponCategory, r.Damage, r.Kills, r.Knocks}, nil
	})
}

// InsertCirclePositions bulk-inserts tracked-player position samples.
func (g *Gateway) InsertCirclePositions(ctx context.Context, rows []CirclePositionRow) error {
	if len(rows) == 0 {
		return nil
	}
	return g.copyWithDedup(ctx, "player_circle_positions", []string{"match_id", "player_id", "elapsed_time"}, []string{
		"match_id", "player_id", "elapsed_time", "zone_center_x", "zone_center_y", "zone_radius",
		"player_x", "player_y", "distance_from_center", "distance_from_edge", "in_zone", "time_outside_zone",
	}, len(rows), func(i int) ([]any, error) {
		r := rows[i]
		return []any{
			r.MatchID, r.PlayerID, r.ElapsedTime, r.ZoneCenterX, r.ZoneCenterY, r.ZoneRadius,
			r.PlayerX, r.PlayerY, r.DistanceFromCenter, r.DistanceFromEdge, r.InZone, r.TimeOutsideZone,
		}, nil
	})
}

// InsertFinishingSummaries bulk-inserts item-usage rows.
func (g *Gateway) InsertFinishingSummaries(ctx context.Context, rows []FinishingSummaryRow) error {
	if len(rows) == 0 {
		return nil
	}
	return g.copyWithDedup(ctx, "player_finishing_summary", []string{"match_id", "player_id"}, []string{
		"match_id", "player_id", "heals", "boosts", "throwables", "smokes",
	}, len(rows), func(i int) ([]any, error) {
		r := rows[i]
		return []any{r.MatchID, r.PlayerID, r.Heals, r.Boosts, r.Throwables, r.Smokes}, nil
	})
}

// copyWithDedup stages rows into a temporary table via CopyFrom, then
// moves them into the target with INSERT ... ON CONFLICT DO NOTHING,
// giving bulk-copy throughput with the natural-key idempotency the
// fact tables require on reprocessing. Grounded on
// Baldr96-statsiq_aggregate_worker's CopyFrom usage, extended with the
// staging step since pgx's CopyFrom has no conflict clause of its own.
func (g *Gateway) copyWithDedup(ctx context.Context, table string, conflictCols, columns []string, n int, rowFn func(int) ([]any, error)) error {
	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin copy %s: %w", table, err)
	}
	defer tx.Rollback(ctx)

	stagingTable := "staging_" + table
	createStmt := fmt.Sprintf(`CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP`, stagingTable, table)
	if _, err := tx.Exec(ctx, createStmt); err != nil {
		return fmt.Errorf("store: create staging table for %s: %w", table, err)
	}

	if _, err := tx.CopyFrom(ctx, pgx.Identifier{stagingTable}, columns, pgx.CopyFromSlice(n, rowFn)); err != nil {
		return fmt.Errorf("store: copy into staging %s: %w", table, err)
	}

	insertStmt := fmt.Sprintf(
		`INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) DO NOTHING`,
		table, joinCols(columns), joinCols(columns), stagingTable, joinCols(conflictCols),
	)
	if _, err := tx.Exec(ctx, insertStmt); err != nil {
		return fmt.Errorf("store: merge staging into %s: %w", table, err)
	}

	return tx.Commit(ctx)
}

func joinCols(cols []string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}
