// Package pubgapi is the upstream client (C2): a JSON:API client for
// the battle-royale title's match/player/season data, grounded on the
// teacher's internal/riot.Client — same retry/backoff/caching shape,
// generalized from League-of-Legends-style REST responses to a
// JSON:API (data/attributes/relationships/included) envelope.
package pubgapi

import (
	"encoding/json"
	"time"
)

// Envelope is the top-level JSON:API response shape every endpoint
// returns. Data is left as raw JSON because list endpoints (player
// lookup, seasons) return an array of resources while single-resource
// endpoints (get match) return one object — callers unmarshal Data
// into whichever shape the endpoint promises.
type Envelope struct {
	Data     json.RawMessage   `json:"data"`
	Included []Resource        `json:"included,omitempty"`
	Links    map[string]string `json:"links,omitempty"`
}

// Resource is one JSON:API resource object.
type Resource struct {
	Type          string                    `json:"type"`
	ID            string                    `json:"id"`
	Attributes    map[string]interface{}    `json:"attributes"`
	Relationships map[string]Relationship   `json:"relationships,omitempty"`
}

// Relationship links a resource to related resources by type/id.
type Relationship struct {
	Data ResourceIdentifier `json:"data"`
}

// ResourceIdentifier is a bare type/id pointer into Included.
type ResourceIdentifier struct {
	Type string `json:"type"`
	ID   string `json:"id"`
}

// Player is a looked-up account, keyed by the platform-specific name.
type Player struct {
	ID      string
	Name    string
	MatchIDs []string
}

// Match is summary-level match metadata — the part available without
// downloading telemetry.
type Match struct {
	ID           string
	ShardID      string
	MapName      string
	GameMode     string
	IsCustomMatch bool
	MatchType    string
	DurationSecs int
	CreatedAt    time.Time
	TelemetryURL string
	ParticipantIDs []string
}

// RankedStats is one player's per-season ranked record.
type RankedStats struct {
	PlayerID  string
	SeasonID  string
	GameMode  string
	RankPoints float64
	Tier      string
	SubTier   string
	Wins      int
	Losses    int
	RoundsPlayed int
	Kills     int
	Damage    float64
}

// Season is a ranked season identifier.
type Season struct {
	ID       string
	IsActive bool
}
