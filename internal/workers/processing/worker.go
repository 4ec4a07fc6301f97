// Package processing is the telemetry-processing worker (C8): on
// match.telemetry_downloaded it loads the match's raw telemetry blob
// from disk, decodes it exactly once (C9's single-pass requirement),
// runs every fact-table processor and the fight-tracking engine (C10)
// over the shared decoded slice, persists every result, and publishes
// match.processing_complete.
package processing

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/TeamPew/pewstats-collectors/internal/broker"
	"github.com/TeamPew/pewstats-collectors/internal/fights"
	"github.com/TeamPew/pewstats-collectors/internal/store"
	"github.com/TeamPew/pewstats-collectors/internal/telemetry"
	"github.com/TeamPew/pewstats-collectors/internal/telemetry/processors"
	"github.com/TeamPew/pewstats-collectors/internal/workers/download"
	"github.com/rs/zerolog"
)

// Worker consumes match.telemetry_downloaded, decodes the event trace
// once, and fans it out to every processor and the fight engine.
type Worker struct {
	consumer  *broker.Consumer
	publisher *broker.Publisher
	store     *store.Gateway
	logger    zerolog.Logger
}

// New builds a processing Worker.
func New(consumer *broker.Consumer, publisher *broker.Publisher, gateway *store.Gateway, logger zerolog.Logger) *Worker {
	return &Worker{
		consumer:  consumer,
		publisher: publisher,
		store:     gateway,
		logger:    logger.With().Str("component", "worker.processing").Logger(),
	}
}

// Run drives the consume loop until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	return w.consumer.Run(ctx, w.handle)
}

func (w *Worker) handle(ctx context.Context, body []byte) error {
	var event download.MatchTelemetryDownloadedEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("processing: decode event: %w", err)
	}

	match, err := w.store.GetMatch(ctx, event.MatchID)
	if err != nil {
		return fmt.Errorf("processing: load match %s: %w", event.MatchID, err)
	}

	raw, err := os.Open(event.TelemetryPath)
	if err != nil {
		return fmt.Errorf("processing: open telemetry file for %s: %w", event.MatchID, err)
	}
	defer raw.Close()

	events, err := telemetry.Decode(raw)
	if err != nil {
		return fmt.Errorf("processing: decode telemetry for %s: %w", event.MatchID, err)
	}

	trackedPlayers, err := w.trackedPlayerSet(ctx)
	if err != nil {
		return fmt.Errorf("processing: load tracked players: %w", err)
	}
	meta := telemetry.MatchMeta{
		MatchID:        event.MatchID,
		Map:            match.Map,
		Mode:           match.Mode,
		GameType:       match.GameType,
		TrackedPlayers: trackedPlayers,
	}

	if !match.TelemetryProcessed {
		if err := w.runFactProcessors(ctx, event.MatchID, events, meta); err != nil {
			return err
		}
		if err := w.store.SetStageFlag(ctx, event.MatchID, "telemetry_processed"); err != nil {
			return fmt.Errorf("processing: set telemetry_processed for %s: %w", event.MatchID, err)
		}
	}

	if !match.FightsProcessed {
		if err := w.runFightEngine(ctx, event.MatchID, events); err != nil {
			return err
		}
		if err := w.store.SetStageFlag(ctx, event.MatchID, "fights_processed"); err != nil {
			return fmt.Errorf("processing: set fights_processed for %s: %w", event.MatchID, err)
		}
	}

	completeEvent := MatchProcessingCompleteEvent{MatchID: event.MatchID}
	if err := w.publisher.Publish(ctx, broker.RoutingMatchProcessingComplete, completeEvent); err != nil {
		return fmt.Errorf("processing: publish completion for %s: %w", event.MatchID, err)
	}
	return nil
}

func (w *Worker) trackedPlayerSet(ctx context.Context) (map[string]struct{}, error) {
	players, err := w.store.TrackedPlayers(ctx)
	if err != nil {
		return nil, err
	}
	set := make(map[string]struct{}, len(players))
	for _, p := range players {
		set[p.AccountID] = struct{}{}
	}
	return set, nil
}

func (w *Worker) runFactProcessors(ctx context.Context, matchID string, events []telemetry.Event, meta telemetry.MatchMeta) error {
	kills, err := processors.Kills(matchID, events, meta)
	if err != nil {
		return fmt.Errorf("processing: kills processor for %s: %w", matchID, err)
	}
	if err := w.store.InsertKillEvents(ctx, kills); err != nil {
		return fmt.Errorf("processing: write kills for %s: %w", matchID, err)
	}

	damage, err := processors.Damage(matchID, events, meta)
	if err != nil {
		return fmt.Errorf("processing: damage processor for %s: %w", matchID, err)
	}
	if err := w.store.InsertDamageEvents(ctx, damage); err != nil {
		return fmt.Errorf("processing: write damage for %s: %w", matchID, err)
	}

	knocks, err := processors.Knocks(matchID, events, meta)
	if err != nil {
		return fmt.Errorf("processing: knocks processor for %s: %w", matchID, err)
	}
	if err := w.store.InsertKnockEvents(ctx, knocks); err != nil {
		return fmt.Errorf("processing: write knocks for %s: %w", matchID, err)
	}

	landings, err := processors.Landings(matchID, events, meta)
	if err != nil {
		return fmt.Errorf("processing: landings processor for %s: %w", matchID, err)
	}
	if err := w.store.InsertLandings(ctx, landings); err != nil {
		return fmt.Errorf("processing: write landings for %s: %w", matchID, err)
	}

	weapons, err := processors.WeaponDistribution(matchID, events, meta)
	if err != nil {
		return fmt.Errorf("processing: weapon distribution processor for %s: %w", matchID, err)
	}
	if err := w.store.InsertWeaponDistribution(ctx, weapons); err != nil {
		return fmt.Errorf("processing: write weapon distribution for %s: %w", matchID, err)
	}

	circles, err := processors.Circles(matchID, events, meta)
	if err != nil {
		return fmt.Errorf("processing: circles processor for %s: %w", matchID, err)
	}
	if err := w.store.InsertCirclePositions(ctx, circles); err != nil {
		return fmt.Errorf("processing: write circle positions for %s: %w", matchID, err)
	}

	items, err := processors.ItemUsage(matchID, events, meta)
	if err != nil {
		return fmt.Errorf("processing: item usage processor for %s: %w", matchID, err)
	}
	if err := w.store.InsertFinishingSummaries(ctx, items); err != nil {
		return fmt.Errorf("processing: write item usage for %s: %w", matchID, err)
	}

	return nil
}

func (w *Worker) runFightEngine(ctx context.Context, matchID string, events []telemetry.Event) error {
	reconstructed := fights.Reconstruct(events)

	if err := w.store.PurgeFights(ctx, matchID); err != nil {
		return fmt.Errorf("processing: purge fights for %s: %w", matchID, err)
	}

	for _, f := range reconstructed {
		row, participants := toStoreFight(matchID, f)
		if err := w.store.WriteFight(ctx, matchID, row, participants); err != nil {
			return fmt.Errorf("processing: write fight for %s: %w", matchID, err)
		}
	}
	return nil
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
			PlayerID:               p.PlayerID,
			TeamID:                 p.TeamID,
			DamageDealt:            p.DamageDealt,
			Knocks:                 p.Knocks,
			Kills:                  p.Kills,
			DamageTaken:            p.DamageTaken,
			Attacks:                p.Attacks,
			TotalMovementDistance:  p.TotalMovementDistance,
			PositionVariance:       p.PositionVariance,
			SignificantRelocations: p.SignificantRelocations,
			MobilityRate:           p.MobilityRate,
			FightRadius:            p.FightRadius,
			Survived:               p.Survived,
			Knocked:                p.Knocked,
			Killed:                 p.Killed,
		})
	}
	return row, participants
}

// MatchProcessingCompleteEvent is published on
// broker.RoutingMatchProcessingComplete.
type MatchProcessingCompleteEvent struct {
	MatchID string `json:"match_id"`
}
