// Package download is the telemetry-download worker (C7): on
// match.summary_complete it fetches the match's raw gzipped telemetry
// asset and writes it to disk under the configured telemetry root,
// then publishes match.telemetry_downloaded.
package download

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/TeamPew/pewstats-collectors/internal/broker"
	"github.com/TeamPew/pewstats-collectors/internal/pkgerrors"
	"github.com/TeamPew/pewstats-collectors/internal/pubgapi"
	"github.com/TeamPew/pewstats-collectors/internal/store"
	"github.com/TeamPew/pewstats-collectors/internal/workers/summary"
	"github.com/rs/zerolog"
)

// Worker consumes match.summary_complete, downloads the telemetry
// asset, and persists it to the filesystem root shared with the
// processing worker.
type Worker struct {
	consumer  *broker.Consumer
	publisher *broker.Publisher
	client    *pubgapi.Client
	store     *store.Gateway
	root      string
	logger    zerolog.Logger
}

// New builds a download Worker.
func New(consumer *broker.Consumer, publisher *broker.Publisher, client *pubgapi.Client, gateway *store.Gateway, root string, logger zerolog.Logger) *Worker {
	return &Worker{
		consumer:  consumer,
		publisher: publisher,
		client:    client,
		store:     gateway,
		root:      root,
		logger:    logger.With().Str("component", "worker.download").Logger(),
	}
}

// Run drives the consume loop until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	return w.consumer.Run(ctx, w.handle)
}

func (w *Worker) handle(ctx context.Context, body []byte) error {
	var event summary.MatchSummaryCompleteEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return fmt.Errorf("download: decode event: %w", err)
	}

	existing, err := w.store.GetMatch(ctx, event.MatchID)
	if err != nil {
		return fmt.Errorf("download: load match %s: %w", event.MatchID, err)
	}
	if existing.TelemetryDownloaded {
		return nil
	}

	payload, err := w.client.FetchTelemetry(ctx, event.TelemetryURL)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrNotFound) {
			if markErr := w.store.MarkFailed(ctx, event.MatchID, "telemetry asset not found"); markErr != nil {
				w.logger.Error().Err(markErr).Str("match_id", event.MatchID).Msg("failed to mark match failed")
			}
			return nil
		}
		return fmt.Errorf("download: fetch telemetry for %s: %w", event.MatchID, err)
	}

	path := TelemetryPath(w.root, event.MatchID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("download: create telemetry dir for %s: %w", event.MatchID, err)
	}
	if err := os.WriteFile(path, payload, 0o644); err != nil {
		return fmt.Errorf("download: write telemetry for %s: %w", event.MatchID, err)
	}

	if err := w.store.SetStageFlag(ctx, event.MatchID, "telemetry_downloaded"); err != nil {
		return fmt.Errorf("download: set stage flag for %s: %w", event.MatchID, err)
	}

	completeEvent := MatchTelemetryDownloadedEvent{MatchID: event.MatchID, TelemetryPath: path}
	if err := w.publisher.Publish(ctx, broker.RoutingMatchTelemetryDownloaded, completeEvent); err != nil {
		return fmt.Errorf("download: publish completion for %s: %w", event.MatchID, err)
	}
	return nil
}

// TelemetryPath computes the on-disk path for a match's raw telemetry
// blob, sharded by the first two characters of the match id to avoid
// a single flat directory with millions of entries.
func TelemetryPath(root, matchID string) string {
	shard := matchID
	if len(shard) > 2 {
		shard = shard[:2]
	}
	return filepath.Join(root, shard, matchID+".json.gz")
}

// MatchTelemetryDownloadedEvent is published on
// broker.RoutingMatchTelemetryDownloaded.
type MatchTelemetryDownloadedEvent struct {
	MatchID       string `json:"match_id"`
	TelemetryPath string `json:"telemetry_path"`
}
