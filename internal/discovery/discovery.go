// Package discovery is the scheduled match discovery service (C5): it
// scans the tracked player roster for newly played matches, fetches
// their metadata, inserts them into the store, and publishes a
// match.discovered event for each. Grounded on the teacher's scheduled
// summoner-refresh sweep shape (roster scan -> per-player API call ->
// diff against known ids -> persist -> publish), generalized from a
// single summoner-matchlist call to the chunked batch player lookup
// this API offers.
package discovery

import (
	"context"
	"fmt"
	"time"

	"github.com/TeamPew/pewstats-collectors/internal/broker"
	"github.com/TeamPew/pewstats-collectors/internal/pubgapi"
	"github.com/TeamPew/pewstats-collectors/internal/store"
	"github.com/rs/zerolog"
)

const (
	// DiscoveredByRoster marks matches found through the regular
	// tracked-player sweep.
	DiscoveredByRoster = "roster"
	// DiscoveredByTournament marks matches found through the dedicated
	// tournament roster/credential sweep.
	DiscoveredByTournament = "tournament"

	// DiscoveryPriorityNormal and DiscoveryPriorityTournament set the
	// worker queue priority hint carried on the published event.
	DiscoveryPriorityNormal     = 0
	DiscoveryPriorityTournament = 10
)

// Service sweeps the tracked roster for new matches.
type Service struct {
	client    *pubgapi.Client
	store     *store.Gateway
	publisher *broker.Publisher
	chunkSize int
	logger    zerolog.Logger

	discoveredBy      string
	discoveryPriority int
}

// New builds a roster-discovery Service.
func New(client *pubgapi.Client, gateway *store.Gateway, publisher *broker.Publisher, chunkSize int, logger zerolog.Logger) *Service {
	if chunkSize <= 0 {
		chunkSize = 10
	}
	return &Service{
		client:            client,
		store:             gateway,
		publisher:         publisher,
		chunkSize:         chunkSize,
		logger:            logger.With().Str("component", "discovery").Logger(),
		discoveredBy:      DiscoveredByRoster,
		discoveryPriority: DiscoveryPriorityNormal,
	}
}

// NewTournament builds a Service variant for the dedicated tournament
// sweep: a distinct credential (via a differently-configured client),
// tagging every discovered match as tournament-priority. It sweeps the
// same tracked-player roster as New; there is no separate tournament
// roster.
func NewTournament(client *pubgapi.Client, gateway *store.Gateway, publisher *broker.Publisher, chunkSize int, logger zerolog.Logger) *Service {
	svc := New(client, gateway, publisher, chunkSize, logger)
	svc.discoveredBy = DiscoveredByTournament
	svc.discoveryPriority = DiscoveryPriorityTournament
	return svc
}

// SweepResult summarizes one discovery pass.
type SweepResult struct {
	PlayersScanned  int
	CandidateIDs    int
	NewMatches      int
	Failures        int
	StartedAt       time.Time
	FinishedAt      time.Time
}

// Sweep runs one discovery pass: roster -> known ids -> batched
// player lookups -> set-difference -> fetch+insert+publish per new
// match.
func (s *Service) Sweep(ctx context.Context) (SweepResult, error) {
	result := SweepResult{StartedAt: time.Now()}

	players, err := s.store.TrackedPlayers(ctx)
	if err != nil {
		return result, fmt.Errorf("discovery: load tracked players: %w", err)
	}
	result.PlayersScanned = len(players)
	if len(players) == 0 {
		result.FinishedAt = time.Now()
		return result, nil
	}

	known, err := s.store.KnownMatchIDs(ctx)
	if err != nil {
		return result, fmt.Errorf("discovery: load known match ids: %w", err)
	}

	names := make([]string, len(players))
	for i, p := range players {
		names[i] = p.DisplayName
	}

	candidates := map[string]struct{}{}
	for _, chunk := range chunkStrings(names, s.chunkSize) {
		resolved, err := s.client.LookupPlayers(ctx, chunk)
		if err != nil {
			s.logger.Error().Err(err).Strs("chunk", chunk).Msg("player lookup failed")
			result.Failures++
			continue
		}
		for _, p := range resolved {
			for _, matchID := range p.MatchIDs {
				candidates[matchID] = struct{}{}
			}
		}
	}
	result.CandidateIDs = len(candidates)

	for matchID := range candidates {
		if _, seen := known[matchID]; seen {
			continue
		}
		if err := s.discoverOne(ctx, matchID); err != nil {
			s.logger.Error().Err(err).Str("match_id", matchID).Msg("failed to discover match")
			result.Failures++
			continue
		}
		result.NewMatches++
	}

	result.FinishedAt = time.Now()
	s.logger.Info().
		Int("players_scanned", result.PlayersScanned).
		Int("candidates", result.CandidateIDs).
		Int("new_matches", result.NewMatches).
		Int("failures", result.Failures).
		Dur("elapsed", result.FinishedAt.Sub(result.StartedAt)).
		Msg("discovery sweep complete")

	return result, nil
}

func (s *Service) discoverOne(ctx context.Context, matchID string) error {
	match, err := s.client.GetMatch(ctx, matchID)
	if err != nil {
		return fmt.Errorf("fetch match %s: %w", matchID, err)
	}

	row := store.Match{
		MatchID:           match.ID,
		Map:               match.MapName,
		Mode:              match.GameMode,
		GameType:          match.MatchType,
		StartTime:         match.CreatedAt,
		TelemetryURL:      match.TelemetryURL,
		DiscoveredBy:      s.discoveredBy,
		DiscoveryPriority: s.discoveryPriority,
	}

	inserted, err := s.store.InsertMatch(ctx, row)
	if err != nil {
		return fmt.Errorf("insert match %s: %w", matchID, err)
	}
	if !inserted {
		return nil // another concurrent sweep beat us to it
	}

	event := MatchDiscoveredEvent{
		MatchID:           match.ID,
		Map:               match.MapName,
		Mode:              match.GameMode,
		GameType:          match.MatchType,
		TelemetryURL:      match.TelemetryURL,
		DiscoveredBy:      s.discoveredBy,
		DiscoveryPriority: s.discoveryPriority,
	}
	if err := s.publisher.Publish(ctx, broker.RoutingMatchDiscovered, event); err != nil {
		return fmt.Errorf("publish discovery event for %s: %w", matchID, err)
	}
	return nil
}

// MatchDiscoveredEvent is the payload published on
// broker.RoutingMatchDiscovered.
type MatchDiscoveredEvent struct {
	MatchID           string `json:"match_id"`
	Map               string `json:"map"`
	Mode              string `json:"mode"`
	GameType          string `json:"game_type"`
	TelemetryURL      string `json:"telemetry_url"`
	DiscoveredBy      string `json:"discovered_by"`
	DiscoveryPriority int    `json:"discovery_priority"`
}

func chunkStrings(items []string, size int) [][]string {
	var chunks [][]string
	for i := 0; i < len(items); i += size {
		end := i + size
		if end > len(items) {
			end = len(items)
		}
		chunks = append(chunks, items[i:end])
	}
	return chunks
}
