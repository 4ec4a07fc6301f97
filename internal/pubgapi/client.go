package pubgapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/TeamPew/pewstats-collectors/internal/credpool"
	"github.com/TeamPew/pewstats-collectors/internal/pkgerrors"
	"github.com/rs/zerolog"
)

// Config configures the upstream client, mirroring the request-settings
// half of the teacher's RiotAPIConfig (timeouts/retries), dropping the
// LoL-specific regional-endpoint map for the single-base-URL shard
// scheme this API uses (/shards/{shard}/...).
type Config struct {
	BaseURL        string
	Shard          string
	RequestTimeout time.Duration
	MaxRetries     int
	RetryBackoff   time.Duration
	UserAgent      string
}

// DefaultConfig mirrors the teacher's DefaultRiotAPIConfig request
// settings.
func DefaultConfig() Config {
	return Config{
		BaseURL:        "https://api.pubg.com",
		RequestTimeout: 30 * time.Second,
		MaxRetries:     3,
		RetryBackoff:   2 * time.Second,
		UserAgent:      "pewstats-collectors/1.0",
	}
}

// Client is the upstream JSON:API client (C2). One Client is shared
// across goroutines; the credential pool handles pacing, not the
// client.
type Client struct {
	httpClient *http.Client
	pool       *credpool.Pool
	config     Config
	logger     zerolog.Logger
}

// NewClient builds a Client against the given pool and config.
func NewClient(pool *credpool.Pool, config Config, logger zerolog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: config.RequestTimeout},
		pool:       pool,
		config:     config,
		logger:     logger.With().Str("subsystem", "pubgapi").Logger(),
	}
}

// LookupPlayers resolves platform account names to player ids and
// their known match ids.
func (c *Client) LookupPlayers(ctx context.Context, names []string) ([]Player, error) {
	path := fmt.Sprintf("/shards/%s/players", c.config.Shard)
	query := "filter[playerNames]=" + joinComma(names)

	env, err := c.doRequest(ctx, path+"?"+query)
	if err != nil {
		return nil, err
	}

	var resources []Resource
	if err := json.Unmarshal(env.Data, &resources); err != nil {
		return nil, fmt.Errorf("pubgapi: decode player list: %w", err)
	}

	players := make([]Player, 0, len(resources))
	for _, r := range resources {
		p := Player{ID: r.ID}
		if name, ok := r.Attributes["name"].(string); ok {
			p.Name = name
		}
		if rel, ok := r.Relationships["matches"]; ok {
			_ = rel // single id per relationship; match lists come from "matches" array attr in practice
		}
		if matches, ok := r.Attributes["matches"].([]interface{}); ok {
			for _, m := range matches {
				if id, ok := m.(string); ok {
					p.MatchIDs = append(p.MatchIDs, id)
				}
			}
		}
		players = append(players, p)
	}
	return players, nil
}

// GetMatch fetches summary-level metadata for one match, including its
// telemetry asset URL.
func (c *Client) GetMatch(ctx context.Context, matchID string) (*Match, error) {
	path := fmt.Sprintf("/shards/%s/matches/%s", c.config.Shard, matchID)

	env, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}

	var resource Resource
	if err := json.Unmarshal(env.Data, &resource); err != nil {
		return nil, fmt.Errorf("pubgapi: decode match: %w", err)
	}

	match := &Match{ID: resource.ID}
	attrs := resource.Attributes
	if v, ok := attrs["mapName"].(string); ok {
		match.MapName = v
	}
	if v, ok := attrs["gameMode"].(string); ok {
		match.GameMode = v
	}
	if v, ok := attrs["isCustomMatch"].(bool); ok {
		match.IsCustomMatch = v
	}
	if v, ok := attrs["matchType"].(string); ok {
		match.MatchType = v
	}
	if v, ok := attrs["duration"].(float64); ok {
		match.DurationSecs = int(v)
	}
	if v, ok := attrs["createdAt"].(string); ok {
		if parsed, err := time.Parse(time.RFC3339, v); err == nil {
			match.CreatedAt = parsed
		}
	}
	match.ShardID = c.config.Shard

	for _, inc := range env.Included {
		if inc.Type == "asset" {
			if url, ok := inc.Attributes["URL"].(string); ok {
				match.TelemetryURL = url
			}
		}
		if inc.Type == "participant" {
			match.ParticipantIDs = append(match.ParticipantIDs, inc.ID)
		}
	}

	return match, nil
}

// GetRankedStats fetches ranked season stats for a set of players.
func (c *Client) GetRankedStats(ctx context.Context, seasonID string, playerIDs []string) ([]RankedStats, error) {
	path := fmt.Sprintf("/shards/%s/seasons/%s/gameMode/squad/ranked", c.config.Shard, seasonID)
	query := "filter[playerIds]=" + joinComma(playerIDs)

	env, err := c.doRequest(ctx, path+"?"+query)
	if err != nil {
		return nil, err
	}

	var resource Resource
	if err := json.Unmarshal(env.Data, &resource); err != nil {
		return nil, fmt.Errorf("pubgapi: decode ranked stats: %w", err)
	}

	var stats []RankedStats
	for playerID := range resource.Relationships {
		stats = append(stats, RankedStats{PlayerID: playerID, SeasonID: seasonID})
	}
	return stats, nil
}

// GetSeasons lists known season identifiers for the shard.
func (c *Client) GetSeasons(ctx context.Context) ([]Season, error) {
	path := fmt.Sprintf("/shards/%s/seasons", c.config.Shard)

	env, err := c.doRequest(ctx, path)
	if err != nil {
		return nil, err
	}

	var resources []Resource
	if err := json.Unmarshal(env.Data, &resources); err != nil {
		return nil, fmt.Errorf("pubgapi: decode seasons: %w", err)
	}

	seasons := make([]Season, 0, len(resources))
	for _, r := range resources {
		s := Season{ID: r.ID}
		if v, ok := r.Attributes["isCurrentSeason"].(bool); ok {
			s.IsActive = v
		}
		seasons = append(seasons, s)
	}
	return seasons, nil
}

// FetchTelemetry downloads the raw telemetry event array from its
// asset URL (not shard-scoped — telemetry lives on a separate CDN).
func (c *Client) FetchTelemetry(ctx context.Context, telemetryURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, telemetryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("pubgapi: build telemetry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("pubgapi: read telemetry body: %w", err)
	}
	return body, nil
}

// doRequest issues one paced, retried GET against the shard API and
// decodes the JSON:API envelope. Grounded on the teacher's
// makeRiotAPIRequest: exponential backoff, 429-aware, but pacing comes
// from the credential pool rather than a fixed sleep.
func (c *Client) doRequest(ctx context.Context, path string) (*Envelope, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(1<<uint(attempt)) * c.config.RetryBackoff
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		credential, err := c.pool.Acquire(ctx)
		if err != nil {
			return nil, err
		}

		env, err := c.attempt(ctx, credential, path)
		if err == nil {
			return env, nil
		}

		lastErr = err
		if errorsIsTerminal(err) {
			return nil, err
		}
		c.logger.Warn().Err(err).Int("attempt", attempt).Str("path", path).Msg("upstream request failed, retrying")
	}

	return nil, fmt.Errorf("pubgapi: exhausted retries for %s: %w", path, lastErr)
}

func (c *Client) attempt(ctx context.Context, credential, path string) (*Envelope, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("pubgapi: build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+credential)
	req.Header.Set("Accept", "application/vnd.api+json")
	req.Header.Set("User-Agent", c.config.UserAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", pkgerrors.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(resp.StatusCode)
	}

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("pubgapi: decode envelope: %w", err)
	}
	return &env, nil
}

func classifyStatus(status int) error {
	switch {
	case status == http.StatusNotFound:
		return pkgerrors.ErrNotFound
	case status == http.StatusTooManyRequests:
		return pkgerrors.ErrRateLimited
	case status >= 500:
		return fmt.Errorf("%w: status %d", pkgerrors.ErrUpstream, status)
	default:
		return fmt.Errorf("%w: unexpected status %d", pkgerrors.ErrUpstream, status)
	}
}

// errorsIsTerminal reports whether retrying is pointless — a 404 will
// never become a 200.
func errorsIsTerminal(err error) bool {
	return errors.Is(err, pkgerrors.ErrNotFound)
}

func joinComma(items []string) string {
	out := ""
	for i, item := range items {
		if i > 0 {
			out += ","
		}
		out += item
	}
	return out
}
