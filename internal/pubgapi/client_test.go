package pubgapi

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/TeamPew/pewstats-collectors/internal/credpool"
	"github.com/TeamPew/pewstats-collectors/internal/pkgerrors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPool(t *testing.T) *credpool.Pool {
	t.Helper()
	pool, err := credpool.NewPool([]credpool.Credential{{Key: "test-key", BudgetPerMinute: 6000}})
	require.NoError(t, err)
	return pool
}

func TestGetMatchParsesAttributesAndTelemetryAsset(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/vnd.api+json")
		w.Write([]byte(`{
			"data": {
				"type": "match",
				"id": "match-1",
				"attributes": {
					"mapName": "Baltic_Main",
					"gameMode": "squad",
					"isCustomMatch": false,
					"matchType": "official",
					"duration": 1800,
					"createdAt": "2026-01-01T00:00:00Z"
				}
			},
			"included": [
				{"type": "asset", "id": "asset-1", "attributes": {"URL": "https://telemetry.example/match-1.json"}},
				{"type": "participant", "id": "participant-1", "attributes": {}}
			]
		}`))
	}))
	defer server.Close()

	client := NewClient(testPool(t), Config{
		BaseURL:        server.URL,
		Shard:          "steam",
		RequestTimeout: 5 * time.Second,
		MaxRetries:     1,
		RetryBackoff:   10 * time.Millisecond,
	}, zerolog.Nop())

	match, err := client.GetMatch(context.Background(), "match-1")
	require.NoError(t, err)
	assert.Equal(t, "match-1", match.ID)
	assert.Equal(t, "Baltic_Main", match.MapName)
	assert.Equal(t, "https://telemetry.example/match-1.json", match.TelemetryURL)
	assert.Equal(t, []string{"participant-1"}, match.ParticipantIDs)
}

func TestGetMatchReturnsNotFoundOn404(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewClient(testPool(t), Config{
		BaseURL:        server.URL,
		Shard:          "steam",
		RequestTimeout: 5 * time.Second,
		MaxRetries:     2,
		RetryBackoff:   1 * time.Millisecond,
	}, zerolog.Nop())

	_, err := client.GetMatch(context.Background(), "missing")
	require.ErrorIs(t, err, pkgerrors.ErrNotFound)
}
