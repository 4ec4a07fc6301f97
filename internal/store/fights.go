package store

import (
	"context"
	"encoding/binary"
	"fmt"
	"hash/fnv"

	"github.com/jackc/pgx/v5"
)

// Fight mirrors team_fights.
type Fight struct {
	ID                string
	MatchID           string
	StartTime         float64
	EndTime           float64
	DurationSecs      float64
	TeamIDs           []int
	EngagementCenterX float64
	EngagementCenterY float64
	FightRadius       float64
	TotalCasualties   int
	TotalDamage       float64
	Outcome           string
	WinnerTeamID      *int
	LoserTeamID       *int
	TeamOutcomes      map[int]string
	ClassificationReason string
}

// FightParticipant mirrors fight_participants.
type FightParticipant struct {
	FightID               string
	PlayerID               string
	TeamID                 int
	DamageDealt            float64
	Knocks                 int
	Kills                  int
	DamageTaken            float64
	Attacks                int
	TotalMovementDistance  float64
	PositionVariance       float64
	SignificantRelocations int
	MobilityRate           float64
	FightRadius            float64
	Survived               bool
	Knocked                bool
	Killed                 bool
}

// WriteFight persists one fight and its participants atomically: the
// fight is inserted, its id obtained, participants inserted against
// that id, all inside one transaction guarded by a per-match advisory
// lock so concurrent reprocessing of the same match cannot interleave
// writes. Grounded directly on
// Baldr96-statsiq_aggregate_worker.AggregateWriter.WriteAll.
func (g *Gateway) WriteFight(ctx context.Context, matchID string, fight Fight, participants []FightParticipant) error {
	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin write fight: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, advisoryLockKey(matchID)); err != nil {
		return fmt.Errorf("store: advisory lock for %s: %w", matchID, err)
	}

	var fightID string
	err = tx.QueryRow(ctx, `
		INSERT INTO team_fights (
			match_id, start_time, end_time, duration_secs, team_ids,
			engagement_center_x, engagement_center_y, fight_radius,
			total_casualties, total_damage, outcome, winner_team_id, loser_team_id,
			classification_reason
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		RETURNING id
	`, matchID, fight.StartTime, fight.EndTime, fight.DurationSecs, fight.TeamIDs,
		fight.EngagementCenterX, fight.EngagementCenterY, fight.FightRadius,
		fight.TotalCasualties, fight.TotalDamage, fight.Outcome, fight.WinnerTeamID, fight.LoserTeamID,
		fight.ClassificationReason,
	).Scan(&fightID)
	if err != nil {
		return fmt.Errorf("store: insert fight: %w", err)
	}

	_, err = tx.CopyFrom(ctx, pgx.Identifier{"fight_participants"},
		[]string{
			"fight_id", "player_id", "team_id", "damage_dealt", "knocks", "kills", "damage_taken",
			"attacks", "total_movement_distance", "position_variance", "significant_relocations",
			"mobility_rate", "fight_radius", "survived", "knocked", "killed",
		},
		pgx.CopyFromSlice(len(participants), func(i int) ([]any, error) {
			p := participants[i]
			return []any{
				fightID, p.PlayerID, p.TeamID, p.DamageDealt, p.Knocks, p.Kills, p.DamageTaken,
				p.Attacks, p.TotalMovementDistance, p.PositionVariance, p.SignificantRelocations,
				p.MobilityRate, p.FightRadius, p.Survived, p.Knocked, p.Killed,
			}, nil
		}),
	)
	if err != nil {
		return fmt.Errorf("store: copy fight participants: %w", err)
	}

	return tx.Commit(ctx)
}

// PurgeFights deletes all fights and participants for a match, used
// before reprocessing to keep the fight table idempotent the same way
// spec §4.10's insertion discipline requires.
func (g *Gateway) PurgeFights(ctx context.Context, matchID string) error {
	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin purge fights: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, advisoryLockKey(matchID)); err != nil {
		return fmt.Errorf("store: advisory lock for purge %s: %w", matchID, err)
	}

	if _, err := tx.Exec(ctx, `
		DELETE FROM fight_participants fp USING team_fights tf
		WHERE fp.fight_id = tf.id AND tf.match_id = $1
	`, matchID); err != nil {
		return fmt.Errorf("store: purge fight participants: %w", err)
	}

	if _, err := tx.Exec(ctx, `DELETE FROM team_fights WHERE match_id = $1`, matchID); err != nil {
		return fmt.Errorf("store: purge fights: %w", err)
	}

	return tx.Commit(ctx)
}

// advisoryLockKey derives a stable int64 lock key from a match id
// string, the same fnv-hash technique the teacher used for uuid.UUID
// keys, applied to our string match ids instead.
func advisoryLockKey(matchID string) int64 {
	h := fnv.New64a()
	h.Write([]byte(matchID))
	sum := h.Sum(nil)
	return int64(binary.BigEndian.Uint64(sum[:8]))
}
