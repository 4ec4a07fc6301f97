// Package backfill is the backfill orchestrator (C12): it drains the
// player_backfill_status queue, running whichever per-processor
// stages a row hasn't completed yet against historical matches,
// independent of the live broker pipeline.
package backfill

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/TeamPew/pewstats-collectors/internal/aggregation"
	"github.com/TeamPew/pewstats-collectors/internal/fights"
	"github.com/TeamPew/pewstats-collectors/internal/pubgapi"
	"github.com/TeamPew/pewstats-collectors/internal/store"
	"github.com/TeamPew/pewstats-collectors/internal/telemetry"
	"github.com/TeamPew/pewstats-collectors/internal/telemetry/processors"
	"github.com/TeamPew/pewstats-collectors/internal/workers/download"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// Orchestrator drains the backfill queue with bounded parallelism.
type Orchestrator struct {
	client      *pubgapi.Client
	store       *store.Gateway
	aggregator  *aggregation.Service
	root        string
	concurrency int
	maxRetries  int
	logger      zerolog.Logger
}

// New builds a backfill Orchestrator.
func New(client *pubgapi.Client, gateway *store.Gateway, root string, concurrency, maxRetries int, logger zerolog.Logger) *Orchestrator {
	if concurrency <= 0 {
		concurrency = 4
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	return &Orchestrator{
		client:      client,
		store:       gateway,
		aggregator:  aggregation.New(gateway, 0, logger),
		root:        root,
		concurrency: concurrency,
		maxRetries:  maxRetries,
		logger:      logger.With().Str("component", "backfill").Logger(),
	}
}

// RunOnce drains up to batchSize pending items, dispatching
// o.concurrency of them in parallel.
func (o *Orchestrator) RunOnce(ctx context.Context, batchSize int) (int, error) {
	items, err := o.store.PendingBackfillItems(ctx, batchSize)
	if err != nil {
		return 0, fmt.Errorf("backfill: load pending items: %w", err)
	}
	if len(items) == 0 {
		return 0, nil
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(o.concurrency)

	for _, item := range items {
		item := item
		group.Go(func() error {
			o.processItem(groupCtx, item)
			return nil // item-level failures are recorded on the row, not propagated
		})
	}
	_ = group.Wait()

	return len(items), nil
}

// Run polls on a fixed interval until ctx is cancelled.
func (o *Orchestrator) Run(ctx context.Context, interval time.Duration, batchSize int) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			count, err := o.RunOnce(ctx, batchSize)
			if err != nil {
				o.logger.Error().Err(err).Msg("backfill pass failed")
				continue
			}
			if count > 0 {
				o.logger.Info().Int("items", count).Msg("backfill batch dispatched")
			}
		}
	}
}

func (o *Orchestrator) processItem(ctx context.Context, item store.BackfillItem) {
	if err := o.store.MarkBackfillProcessing(ctx, item.PlayerName, item.MatchID); err != nil {
		o.logger.Error().Err(err).Str("match_id", item.MatchID).Msg("failed to mark backfill item processing")
		return
	}

	if !item.SummaryDone {
		if err := o.runSummary(ctx, item.MatchID); err != nil {
			o.fail(ctx, item, "summary", err)
			return
		}
		if err := o.store.SetBackfillProcessorFlag(ctx, item.PlayerName, item.MatchID, "summary"); err != nil {
			o.fail(ctx, item, "summary", err)
			return
		}
	}

	if !item.TelemetryDone {
		if err := o.runTelemetry(ctx, item.MatchID); err != nil {
			o.fail(ctx, item, "telemetry", err)
			return
		}
		if err := o.store.SetBackfillProcessorFlag(ctx, item.PlayerName, item.MatchID, "telemetry"); err != nil {
			o.fail(ctx, item, "telemetry", err)
			return
		}
	}

	if !item.FightsDone {
		if err := o.runFights(ctx, item.MatchID); err != nil {
			o.fail(ctx, item, "fights", err)
			return
		}
		if err := o.store.SetBackfillProcessorFlag(ctx, item.PlayerName, item.MatchID, "fights"); err != nil {
			o.fail(ctx, item, "fights", err)
			return
		}
	}

	if !item.AggregationDone {
		if err := o.aggregator.AggregateMatch(ctx, item.MatchID); err != nil {
			o.fail(ctx, item, "aggregation", err)
			return
		}
		if err := o.store.SetBackfillProcessorFlag(ctx, item.PlayerName, item.MatchID, "aggregation"); err != nil {
			o.fail(ctx, item, "aggregation", err)
			return
		}
	}
}

func (o *Orchestrator) fail(ctx context.Context, item store.BackfillItem, stage string, err error) {
	o.logger.Error().Err(err).Str("match_id", item.MatchID).Str("stage", stage).Msg("backfill stage failed")
	reason := fmt.Sprintf("%s: %v", stage, err)
	if markErr := o.store.MarkBackfillFailed(ctx, item.PlayerName, item.MatchID, reason, o.maxRetries); markErr != nil {
		o.logger.Error().Err(markErr).Str("match_id", item.MatchID).Msg("failed to record backfill failure")
	}
}

func (o *Orchestrator) runSummary(ctx context.Context, matchID string) error {
	match, err := o.client.GetMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("fetch match: %w", err)
	}

	rows := make([]store.ParticipantSummary, 0, len(match.ParticipantIDs))
	for _, id := range match.ParticipantIDs {
		rows = append(rows, store.ParticipantSummary{MatchID: matchID, ParticipantID: id})
	}
	if err := o.store.UpsertParticipantSummaries(ctx, rows); err != nil {
		return fmt.Errorf("write summaries: %w", err)
	}
	return nil
}

func (o *Orchestrator) runTelemetry(ctx context.Context, matchID string) error {
	match, err := o.store.GetMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("load match: %w", err)
	}

	path := download.TelemetryPath(o.root, matchID)
	if _, statErr := os.Stat(path); statErr != nil {
		payload, err := o.client.FetchTelemetry(ctx, match.TelemetryURL)
		if err != nil {
			return fmt.Errorf("fetch telemetry: %w", err)
		}
		if err := writeTelemetryFile(path, payload); err != nil {
			return err
		}
	}

	raw, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open telemetry file: %w", err)
	}
	defer raw.Close()

	events, err := telemetry.Decode(raw)
	if err != nil {
		return fmt.Errorf("decode telemetry: %w", err)
	}

	trackedPlayers, err := o.trackedPlayerSet(ctx)
	if err != nil {
		return err
	}
	meta := telemetry.MatchMeta{
		MatchID: matchID, Map: match.Map, Mode: match.Mode, GameType: match.GameType,
		TrackedPlayers: trackedPlayers,
	}

	kills, err := processors.Kills(matchID, events, meta)
	if err != nil {
		return err
	}
	if err := o.store.InsertKillEvents(ctx, kills); err != nil {
		return err
	}

	damage, err := processors.Damage(matchID, events, meta)
	if err != nil {
		return err
	}
	if err := o.store.InsertDamageEvents(ctx, damage); err != nil {
		return err
	}

	knocks, err := processors.Knocks(matchID, events, meta)
	if err != nil {
		return err
	}
	if err := o.store.InsertKnockEvents(ctx, knocks); err != nil {
		return err
	}

	landings, err := processors.Landings(matchID, events, meta)
	if err != nil {
		return err
	}
	if err := o.store.InsertLandings(ctx, landings); err != nil {
		return err
	}

	weapons, err := processors.WeaponDistribution(matchID, events, meta)
	if err != nil {
		return err
	}
	if err := o.store.InsertWeaponDistribution(ctx, weapons); err != nil {
		return err
	}

	circles, err := processors.Circles(matchID, events, meta)
	if err != nil {
		return err
	}
	if err := o.store.InsertCirclePositions(ctx, circles); err != nil {
		return err
	}

	items, err := processors.ItemUsage(matchID, events, meta)
	if err != nil {
		return err
	}
	if err := o.store.InsertFinishingSummaries(ctx, items); err != nil {
		return err
	}

	return nil
}

func (o *Orchestrator) runFights(ctx context.Context, matchID string) error {
	path := download.TelemetryPath(o.root, matchID)
	raw, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open telemetry file: %w", err)
	}
	defer raw.Close()

	events, err := telemetry.Decode(raw)
	if err != nil {
		return fmt.Errorf("decode telemetry: %w", err)
	}

	reconstructed := fights.Reconstruct(events)

	if err := o.store.PurgeFights(ctx, matchID); err != nil {
		return fmt.Errorf("purge fights: %w", err)
	}
	for _, f := range reconstructed {
		row, participants := toStoreFight(matchID, f)
		if err := o.store.WriteFight(ctx, matchID, row, participants); err != nil {
			return fmt.Errorf("write fight: %w", err)
		}
	}
	return nil
}

func (o *Orchestrator) trackedPlayerSet(ctx context.Context) (map[string]struct{}, error) {
	players, err := o.store.TrackedPlayers(ctx)
	if err != nil {
		return nil, fmt.Errorf("load tracked players: %w", err)
	}
	set := make(map[string]struct{}, len(players))
	for _, p := range players {
		set[p.AccountID] = struct{}{}
	}
	return set, nil
}

func toStoreFight(matchID string, f fights.Fight) (store.Fight, []store.FightParticipant) {
	row := store.Fight{
		MatchID:              matchID,
		StartTime:            f.StartTime,
		EndTime:              f.EndTime,
		DurationSecs:         f.EndTime - f.StartTime,
		TeamIDs:              f.TeamIDs,
		EngagementCenterX:    f.EngagementCenterX,
		EngagementCenterY:    f.EngagementCenterY,
		FightRadius:          f.FightRadius,
		TotalCasualties:      f.TotalCasualties,
		TotalDamage:          f.TotalDamage,
		Outcome:              f.Outcome,
		WinnerTeamID:         f.WinnerTeamID,
		LoserTeamID:          f.LoserTeamID,
		TeamOutcomes:         f.TeamOutcomes,
		ClassificationReason: f.ClassificationReason,
	}

	participants := make([]store.FightParticipant, 0, len(f.Participants))
	for _, p := range f.Participants {
		participants = append(participants, store.FightParticipant{
			PlayerID: p.PlayerID, TeamID: p.TeamID, DamageDealt: p.DamageDealt,
			Knocks: p.Knocks, Kills: p.Kills, DamageTaken: p.DamageTaken, Attacks: p.Attacks,
			TotalMovementDistance: p.TotalMovementDistance, PositionVariance: p.PositionVariance,
			SignificantRelocations: p.SignificantRelocations, MobilityRate: p.MobilityRate,
			FightRadius: p.FightRadius, Survived: p.Survived, Knocked: p.Knocked, Killed: p.Killed,
		})
	}
	return row, participants
}

func writeTelemetryFile(path string, payload []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create telemetry dir: %w", err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("write telemetry file: %w", err)
	}
	return nil
}
