package store

import (
	"context"
	"fmt"
)

// Backfill queue statuses.
const (
	BackfillStatusPending    = "pending"
	BackfillStatusProcessing = "processing"
	BackfillStatusCompleted  = "completed"
	BackfillStatusFailed     = "failed"
	BackfillStatusSkipped    = "skipped"
)

// BackfillItem mirrors player_backfill_status.
type BackfillItem struct {
	PlayerName          string
	MatchID             string
	Status              string
	SummaryDone         bool
	TelemetryDone       bool
	FightsDone          bool
	AggregationDone     bool
	RetryCount          int
	FailureReason       *string
}

// AllProcessorFlagsComplete reports whether every per-processor flag
// on the item is true, the condition that promotes it to completed.
func (b BackfillItem) AllProcessorFlagsComplete() bool {
	return b.SummaryDone && b.TelemetryDone && b.FightsDone && b.AggregationDone
}

// PendingBackfillItems returns up to limit rows with status=pending,
// for the orchestrator's bounded-batch poll loop.
func (g *Gateway) PendingBackfillItems(ctx context.Context, limit int) ([]BackfillItem, error) {
	rows, err := g.pool.Query(ctx, `
		SELECT player_name, match_id, status, summary_done, telemetry_done, fights_done, aggregation_done, retry_count
		FROM player_backfill_status
		WHERE status = $1
		ORDER BY player_name, match_id
		LIMIT $2
	`, BackfillStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("store: pending backfill items: %w", err)
	}
	defer rows.Close()

	var items []BackfillItem
	for rows.Next() {
		var it BackfillItem
		if err := rows.Scan(&it.PlayerName, &it.MatchID, &it.Status, &it.SummaryDone, &it.TelemetryDone, &it.FightsDone, &it.AggregationDone, &it.RetryCount); err != nil {
			return nil, fmt.Errorf("store: scan backfill item: %w", err)
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

// MarkBackfillProcessing transitions pending -> processing.
func (g *Gateway) MarkBackfillProcessing(ctx context.Context, playerName, matchID string) error {
	_, err := g.pool.Exec(ctx, `
		UPDATE player_backfill_status SET status = $3
		WHERE player_name = $1 AND match_id = $2
	`, playerName, matchID, BackfillStatusProcessing)
	if err != nil {
		return fmt.Errorf("store: mark backfill processing: %w", err)
	}
	return nil
}

// SetBackfillProcessorFlag advances one per-processor flag and, if all
// four are now true, promotes the row to completed.
func (g *Gateway) SetBackfillProcessorFlag(ctx context.Context, playerName, matchID, flag string) error {
	column, ok := backfillFlagColumns[flag]
	if !ok {
		return fmt.Errorf("store: unknown backfill flag %q", flag)
	}

	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin set backfill flag: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf(`UPDATE player_backfill_status SET %s = true WHERE player_name = $1 AND match_id = $2`, column),
		playerName, matchID); err != nil {
		return fmt.Errorf("store: set backfill flag %s: %w", flag, err)
	}

	if _, err := tx.Exec(ctx, `
		UPDATE player_backfill_status SET status = $3
		WHERE player_name = $1 AND match_id = $2
		  AND summary_done AND telemetry_done AND fights_done AND aggregation_done
	`, playerName, matchID, BackfillStatusCompleted); err != nil {
		return fmt.Errorf("store: promote backfill item: %w", err)
	}

	return tx.Commit(ctx)
}

var backfillFlagColumns = map[string]string{
	"summary":     "summary_done",
	"telemetry":   "telemetry_done",
	"fights":      "fights_done",
	"aggregation": "aggregation_done",
}

// MarkBackfillFailed increments the retry counter and, if it now
// exceeds maxRetries, terminally fails the row; otherwise returns it
// to pending for another attempt.
func (g *Gateway) MarkBackfillFailed(ctx context.Context, playerName, matchID, reason string, maxRetries int) error {
	tx, err := g.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("store: begin mark backfill failed: %w", err)
	}
	defer tx.Rollback(ctx)

	var retryCount int
	err = tx.QueryRow(ctx, `
		UPDATE player_backfill_status SET retry_count = retry_count + 1, failure_reason = $3
		WHERE player_name = $1 AND match_id = $2
		RETURNING retry_count
	`, playerName, matchID, reason).Scan(&retryCount)
	if err != nil {
		return fmt.Errorf("store: increment retry count: %w", err)
	}

	nextStatus := BackfillStatusPending
	if retryCount > maxRetries {
		nextStatus = BackfillStatusFailed
	}

	if _, err := tx.Exec(ctx, `
		UPDATE player_backfill_status SET status = $3 WHERE player_name = $1 AND match_id = $2
	`, playerName, matchID, nextStatus); err != nil {
		return fmt.Errorf("store: set backfill status: %w", err)
	}

	return tx.Commit(ctx)
}
