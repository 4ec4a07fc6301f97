package store

import (
	"context"
	"fmt"
)

// TrackedPlayer mirrors the players table.
type TrackedPlayer struct {
	AccountID       string
	DisplayName     string
	Platform        string
	TrackingEnabled bool
}

// TrackedPlayers returns every player with tracking_enabled = true, the
// roster the discovery service scans each sweep.
func (g *Gateway) TrackedPlayers(ctx context.Context) ([]TrackedPlayer, error) {
	rows, err := g.pool.Query(ctx, `
		SELECT account_id, display_name, platform, tracking_enabled
		FROM players WHERE tracking_enabled = true
	`)
	if err != nil {
		return nil, fmt.Errorf("store: tracked players: %w", err)
	}
	defer rows.Close()

	var players []TrackedPlayer
	for rows.Next() {
		var p TrackedPlayer
		if err := rows.Scan(&p.AccountID, &p.DisplayName, &p.Platform, &p.TrackingEnabled); err != nil {
			return nil, fmt.Errorf("store: scan tracked player: %w", err)
		}
		players = append(players, p)
	}
	return players, rows.Err()
}

// ParticipantSummary mirrors match_summaries, one row per (match_id,
// participant_id).
type ParticipantSummary struct {
	MatchID        string
	ParticipantID  string
	DisplayName    string
	AccountID      string
	TeamID         int
	Placement      int
	Kills          int
	DamageDealt    float64
	Assists        int
	SurvivalTime   float64
	Heals          int
	Boosts         int
	ThrowablesUsed int
}

// UpsertParticipantSummaries bulk-writes summary rows for one match.
// Keyed on (match_id, participant_id); re-running for the same match
// overwrites rather than duplicates, matching the worker's
// reprocessing requirement.
func (g *Gateway) UpsertParticipantSummaries(ctx context.Context, rows []ParticipantSummary) error {
	if len(rows) == 0 {
		return nil
	}

	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin upsert summaries: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, r := range rows {
		_, err := tx.Exec(ctx, `
			INSERT INTO match_summaries (
				match_id, participant_id, display_name, account_id, team_id, placement,
				kills, damage_dealt, assists, survival_time, heals, boosts, throwables_used
			) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
			ON CONFLICT (match_id, participant_id) DO UPDATE SET
				display_name = EXCLUDED.display_name,
				team_id = EXCLUDED.team_id,
				placement = EXCLUDED.placement,
				kills = EXCLUDED.kills,
				damage_dealt = EXCLUDED.damage_dealt,
				assists = EXCLUDED.assists,
				survival_time = EXCLUDED.survival_time,
				heals = EXCLUDED.heals,
				boosts = EXCLUDED.boosts,
				throwables_used = EXCLUDED.throwables_used
		`, r.MatchID, r.ParticipantID, r.DisplayName, r.AccountID, r.TeamID, r.Placement,
			r.Kills, r.DamageDealt, r.Assists, r.SurvivalTime, r.Heals, r.Boosts, r.ThrowablesUsed)
		if err != nil {
			return fmt.Errorf("store: upsert summary row: %w", err)
		}
	}

	return tx.Commit(ctx)
}
