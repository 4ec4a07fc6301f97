package processors

import (
	"testing"

	"github.com/TeamPew/pewstats-collectors/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCirclesDerivesZoneMembershipFromDamageTicksNotGeometry(t *testing.T) {
	meta := telemetry.MatchMeta{TrackedPlayers: map[string]struct{}{"p1": {}}}
	zone := &telemetry.GameStateEvent{
		SafeZoneCenter: telemetry.Vector3{X: 0, Y: 0},
		SafeZoneRadius: 100,
	}

	events := []telemetry.Event{
		{Type: telemetry.EventGameStatePeriodic, Timestamp: 0, GameState: zone},
		{
			// Geometrically inside the circle, but actively taking blue-zone
			// damage — the canonical signal must win over the raw distance test.
			Type:      telemetry.EventPlayerTakeDamage,
			Timestamp: 5,
			Damage: &telemetry.DamageEvent{
				Victim: char("p1", "P1", 1),
				Cause:  "Damage_BlueZone",
				Amount: 5,
			},
		},
		{
			Type:      telemetry.EventPlayerTakeDamage,
			Timestamp: 7,
			Damage: &telemetry.DamageEvent{
				Victim: char("p1", "P1", 1),
				Cause:  "Damage_BlueZone",
				Amount: 5,
			},
		},
		{
			Type:      telemetry.EventPlayerPosition,
			Timestamp: 8,
			Position: &telemetry.PositionEvent{
				Player:   char("p1", "P1", 1),
				Location: telemetry.Vector3{X: 10, Y: 0},
			},
		},
		{
			Type:      telemetry.EventPlayerPosition,
			Timestamp: 31,
			Position: &telemetry.PositionEvent{
				Player:   char("p1", "P1", 1),
				Location: telemetry.Vector3{X: 10, Y: 0},
			},
		},
	}

	rows, err := Circles("m1", events, meta)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.False(t, rows[0].InZone, "a recent blue-zone damage tick means the player is outside the zone even if geometrically within radius")
	assert.Greater(t, rows[0].TimeOutsideZone, 0.0, "consecutive ticks within the window must accumulate time outside the zone")

	assert.True(t, rows[1].InZone, "no damage tick for 24s means the player has returned inside the zone")
}
