package store

import (
	"context"
	"fmt"
	"time"
)

// Match mirrors the matches table: identity, upstream metadata, the
// per-stage monotonic flags, and optional tournament context.
type Match struct {
	MatchID               string
	Map                   string
	Mode                  string
	GameType              string
	StartTime             time.Time
	TelemetryURL          string
	Status                string
	ErrorReason           *string
	SummaryComplete       bool
	TelemetryDownloaded   bool
	TelemetryProcessed    bool
	FightsProcessed       bool
	StatsAggregated       bool
	IsTournamentMatch     bool
	TournamentRoundID     *string
	ScheduleMatchID       *string
	ValidationStatus      *string
	TeamCount             *int
	UnmatchedPlayerCount  *int
	DiscoveredBy          string
	DiscoveryPriority     int
}

// Match statuses.
const (
	MatchStatusDiscovered = "discovered"
	MatchStatusProcessing = "processing"
	MatchStatusCompleted  = "completed"
	MatchStatusFailed     = "failed"
)

// InsertMatch inserts a newly discovered match with all per-stage
// flags false. Conflicts on match_id are silently skipped — a match
// can be discovered by more than one concurrent sweep.
func (g *Gateway) InsertMatch(ctx context.Context, m Match) (bool, error) {
	tag, err := g.pool.Exec(ctx, `
		INSERT INTO matches (
			match_id, map, mode, game_type, start_time, telemetry_url, status,
			is_tournament_match, tournament_round_id, schedule_match_id,
			discovered_by, discovery_priority
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (match_id) DO NOTHING
	`, m.MatchID, m.Map, m.Mode, m.GameType, m.StartTime, m.TelemetryURL, MatchStatusDiscovered,
		m.IsTournamentMatch, m.TournamentRoundID, m.ScheduleMatchID, m.DiscoveredBy, m.DiscoveryPriority)
	if err != nil {
		return false, fmt.Errorf("store: insert match: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// KnownMatchIDs returns the set of match ids already present in the
// store, for the discovery service's set-difference step.
func (g *Gateway) KnownMatchIDs(ctx context.Context) (map[string]struct{}, error) {
	rows, err := g.pool.Query(ctx, `SELECT match_id FROM matches`)
	if err != nil {
		return nil, fmt.Errorf("store: known match ids: %w", err)
	}
	defer rows.Close()

	known := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("store: scan match id: %w", err)
		}
		known[id] = struct{}{}
	}
	return known, rows.Err()
}

// SetStageFlag advances exactly one of the monotonic per-stage flags
// and, when every required flag is now true, also sets status to
// completed.
func (g *Gateway) SetStageFlag(ctx context.Context, matchID, flag string) error {
	column, ok := stageFlagColumns[flag]
	if !ok {
		return fmt.Errorf("store: unknown stage flag %q", flag)
	}

	_, err := g.pool.Exec(ctx, fmt.Sprintf(`UPDATE matches SET %s = true WHERE match_id = $1`, column), matchID)
	if err != nil {
		return fmt.Errorf("store: set stage flag %s: %w", flag, err)
	}

	_, err = g.pool.Exec(ctx, `
		UPDATE matches SET status = $2
		WHERE match_id = $1 AND status <> $3
		  AND summary_complete AND telemetry_downloaded AND telemetry_processed
		  AND fights_processed AND stats_aggregated
	`, matchID, MatchStatusCompleted, MatchStatusFailed)
	if err != nil {
		return fmt.Errorf("store: mark completed: %w", err)
	}
	return nil
}

var stageFlagColumns = map[string]string{
	"summary":               "summary_complete",
	"telemetry_downloaded":  "telemetry_downloaded",
	"telemetry_processed":   "telemetry_processed",
	"fights_processed":      "fights_processed",
	"stats_aggregated":      "stats_aggregated",
}

// MarkFailed sets status=failed with a reason, a terminal state the
// pipeline never reverses.
func (g *Gateway) MarkFailed(ctx context.Context, matchID, reason string) error {
	_, err := g.pool.Exec(ctx, `UPDATE matches SET status = $2, error_reason = $3 WHERE match_id = $1`,
		matchID, MatchStatusFailed, reason)
	if err != nil {
		return fmt.Errorf("store: mark failed: %w", err)
	}
	return nil
}

// GetMatch fetches one match row by id.
func (g *Gateway) GetMatch(ctx context.Context, matchID string) (*Match, error) {
	var m Match
	err := g.pool.QueryRow(ctx, `
		SELECT match_id, map, mode, game_type, start_time, telemetry_url, status,
			summary_complete, telemetry_downloaded, telemetry_processed, fights_processed, stats_aggregated,
			is_tournament_match, discovered_by, discovery_priority
		FROM matches WHERE match_id = $1
	`, matchID).Scan(
		&m.MatchID, &m.Map, &m.Mode, &m.GameType, &m.StartTime, &m.TelemetryURL, &m.Status,
		&m.SummaryComplete, &m.TelemetryDownloaded, &m.TelemetryProcessed, &m.FightsProcessed, &m.StatsAggregated,
		&m.IsTournamentMatch, &m.DiscoveredBy, &m.DiscoveryPriority,
	)
	if err != nil {
		return nil, fmt.Errorf("store: get match: %w", err)
	}
	return &m, nil
}

// MatchesPendingAggregation returns matches with stats_aggregated=false
// and every prerequisite flag true, bounded by limit.
func (g *Gateway) MatchesPendingAggregation(ctx context.Context, limit int) ([]Match, error) {
	rows, err := g.pool.Query(ctx, `
		SELECT match_id, mode, game_type
		FROM matches
		WHERE stats_aggregated = false
		  AND telemetry_processed = true
		  AND fights_processed = true
		ORDER BY start_time ASC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: matches pending aggregation: %w", err)
	}
	defer rows.Close()

	var matches []Match
	for rows.Next() {
		var m Match
		if err := rows.Scan(&m.MatchID, &m.Mode, &m.GameType); err != nil {
			return nil, fmt.Errorf("store: scan pending match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}
