package store

import (
	"context"
	"fmt"
)

// Tournament mirrors tournaments.
type Tournament struct {
	ID   string
	Name string
}

// TournamentRound mirrors tournament_rounds.
type TournamentRound struct {
	ID             string
	TournamentID   string
	SeasonID       string
	Name           string
	StartTime      float64
	EndTime        float64
}

// ScheduledMatch mirrors tournament_scheduled_matches — the expected
// roster for a round, against which discovered matches are validated.
type ScheduledMatch struct {
	ID        string
	RoundID   string
	TeamNames []string
	StartTime float64
}

// MatchOverride mirrors tournament_match_overrides — an operator
// correction when automatic match-to-schedule matching fails.
type MatchOverride struct {
	ScheduleMatchID string
	MatchID         string
	Reason          string
}

// TeamStandingsSnapshot mirrors tournament_team_standings_history — a
// point-in-time standings row, one per team per round.
type TeamStandingsSnapshot struct {
	RoundID   string
	TeamName  string
	Points    int
	Placement int
	RecordedAt float64
}

// ScheduledMatchesForRound returns the expected match roster for a
// tournament round, used by the discovery service's tournament-mode
// variant to validate discovered matches against the schedule.
func (g *Gateway) ScheduledMatchesForRound(ctx context.Context, roundID string) ([]ScheduledMatch, error) {
	rows, err := g.pool.Query(ctx, `
		SELECT id, round_id, team_names, start_time
		FROM tournament_scheduled_matches WHERE round_id = $1
	`, roundID)
	if err != nil {
		return nil, fmt.Errorf("store: scheduled matches for round: %w", err)
	}
	defer rows.Close()

	var matches []ScheduledMatch
	for rows.Next() {
		var m ScheduledMatch
		if err := rows.Scan(&m.ID, &m.RoundID, &m.TeamNames, &m.StartTime); err != nil {
			return nil, fmt.Errorf("store: scan scheduled match: %w", err)
		}
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// InsertMatchOverride records an operator correction linking a
// discovered match id to a scheduled match.
func (g *Gateway) InsertMatchOverride(ctx context.Context, o MatchOverride) error {
	_, err := g.pool.Exec(ctx, `
		INSERT INTO tournament_match_overrides (schedule_match_id, match_id, reason)
		VALUES ($1,$2,$3)
		ON CONFLICT (schedule_match_id) DO UPDATE SET match_id = EXCLUDED.match_id, reason = EXCLUDED.reason
	`, o.ScheduleMatchID, o.MatchID, o.Reason)
	if err != nil {
		return fmt.Errorf("store: insert match override: %w", err)
	}
	return nil
}

// InsertStandingsSnapshot appends one standings row; history is
// append-only, never updated in place.
func (g *Gateway) InsertStandingsSnapshot(ctx context.Context, s TeamStandingsSnapshot) error {
	_, err := g.pool.Exec(ctx, `
		INSERT INTO tournament_team_standings_history (round_id, team_name, points, placement, recorded_at)
		VALUES ($1,$2,$3,$4,$5)
	`, s.RoundID, s.TeamName, s.Points, s.Placement, s.RecordedAt)
	if err != nil {
		return fmt.Errorf("store: insert standings snapshot: %w", err)
	}
	return nil
}
