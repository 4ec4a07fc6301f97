package store

import (
	"context"
	"fmt"
)

// DamageSumRow is one (player, weapon, cause) damage/hit total for a
// single match, the aggregation worker's raw input before match-type
// bucketing.
type DamageSumRow struct {
	PlayerID string
	Weapon   string
	Cause    string
	Damage   float64
	Hits     int
}

// MatchDamageSums groups one match's damage facts by (attacker,
// weapon, cause), the unit the career damage-stats table accumulates.
func (g *Gateway) MatchDamageSums(ctx context.Context, matchID string) ([]DamageSumRow, error) {
	rows, err := g.pool.Query(ctx, `
		SELECT attacker_id, weapon, cause, SUM(amount), COUNT(*)
		FROM player_damage_events
		WHERE match_id = $1 AND attacker_id IS NOT NULL
		GROUP BY attacker_id, weapon, cause
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("store: match damage sums: %w", err)
	}
	defer rows.Close()

	var out []DamageSumRow
	for rows.Next() {
		var r DamageSumRow
		if err := rows.Scan(&r.PlayerID, &r.Weapon, &r.Cause, &r.Damage, &r.Hits); err != nil {
			return nil, fmt.Errorf("store: scan damage sum: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// WeaponSumRow is one (player, weapon) kill/headshot/knockdown total
// for a single match.
type WeaponSumRow struct {
	PlayerID   string
	Weapon     string
	Kills      int
	Headshots  int
	Knockdowns int
}

// MatchWeaponSums groups one match's kill and knock facts by (killer,
// weapon).
func (g *Gateway) MatchWeaponSums(ctx context.Context, matchID string) ([]WeaponSumRow, error) {
	rows, err := g.pool.Query(ctx, `
		SELECT killer_id, weapon,
			COUNT(*) FILTER (WHERE true) AS kills,
			COUNT(*) FILTER (WHERE headshot) AS headshots
		FROM player_kill_events
		WHERE match_id = $1 AND killer_id IS NOT NULL
		GROUP BY killer_id, weapon
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("store: match weapon kill sums: %w", err)
	}
	defer rows.Close()

	totals := make(map[string]*WeaponSumRow)
	key := func(player, weapon string) string { return player + "|" + weapon }

	for rows.Next() {
		var playerID, weapon string
		var kills, headshots int
		if err := rows.Scan(&playerID, &weapon, &kills, &headshots); err != nil {
			return nil, fmt.Errorf("store: scan weapon kill sum: %w", err)
		}
		totals[key(playerID, weapon)] = &WeaponSumRow{PlayerID: playerID, Weapon: weapon, Kills: kills, Headshots: headshots}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	knockRows, err := g.pool.Query(ctx, `
		SELECT attacker_id, weapon, COUNT(*)
		FROM player_knock_events
		WHERE match_id = $1 AND attacker_id IS NOT NULL
		GROUP BY attacker_id, weapon
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("store: match weapon knock sums: %w", err)
	}
	defer knockRows.Close()

	for knockRows.Next() {
		var playerID, weapon string
		var knockdowns int
		if err := knockRows.Scan(&playerID, &weapon, &knockdowns); err != nil {
			return nil, fmt.Errorf("store: scan weapon knock sum: %w", err)
		}
		k := key(playerID, weapon)
		if existing, ok := totals[k]; ok {
			existing.Knockdowns = knockdowns
		} else {
			totals[k] = &WeaponSumRow{PlayerID: playerID, Weapon: weapon, Knockdowns: knockdowns}
		}
	}
	if err := knockRows.Err(); err != nil {
		return nil, err
	}

	out := make([]WeaponSumRow, 0, len(totals))
	for _, r := range totals {
		out = append(out, *r)
	}
	return out, nil
}

// FightSumRow is one player's fight-derived contribution for a single
// match, feeding player_advanced_career_stats.
type FightSumRow struct {
	PlayerID          string
	Fights            int
	FightWins         int
	TotalMovementDist float64
	AvgMobilityRate   float64
}

// MatchFightSums rolls up one match's fight_participants rows per
// player: fight count, wins (the participant's team matches the
// fight's winner_team_id), total movement, and average mobility rate.
func (g *Gateway) MatchFightSums(ctx context.Context, matchID string) ([]FightSumRow, error) {
	rows, err := g.pool.Query(ctx, `
		SELECT fp.player_id,
			COUNT(*),
			COUNT(*) FILTER (WHERE fp.team_id = tf.winner_team_id),
			COALESCE(SUM(fp.total_movement_distance), 0),
			COALESCE(AVG(fp.mobility_rate), 0)
		FROM fight_participants fp
		JOIN team_fights tf ON tf.id = fp.fight_id
		WHERE tf.match_id = $1
		GROUP BY fp.player_id
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("store: match fight sums: %w", err)
	}
	defer rows.Close()

	var out []FightSumRow
	for rows.Next() {
		var r FightSumRow
		if err := rows.Scan(&r.PlayerID, &r.Fights, &r.FightWins, &r.TotalMovementDist, &r.AvgMobilityRate); err != nil {
			return nil, fmt.Errorf("store: scan fight sum: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
