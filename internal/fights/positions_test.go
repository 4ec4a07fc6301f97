package fights

import (
	"testing"

	"github.com/TeamPew/pewstats-collectors/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildParticipantsPopulatesCombatCounts(t *testing.T) {
	eng := &engagement{
		startTime:       0,
		lastEventTime:   10,
		center:          telemetry.Vector3{},
		knockedPlayers:  map[string]struct{}{"v1": {}},
		killedPlayers:   map[string]struct{}{},
		participantTeam: map[string]int{"a1": 1, "v1": 2},
		knocksDealt:     map[string]int{"a1": 2},
		killsDealt:      map[string]int{"a1": 1},
		attacksDealt:    map[string]int{"a1": 5},
	}

	_, participants, _ := buildParticipants(eng, map[string][]positionSample{})

	var a1 *Participant
	for i := range participants {
		if participants[i].PlayerID == "a1" {
			a1 = &participants[i]
		}
	}
	require.NotNil(t, a1)
	assert.Equal(t, 2, a1.Knocks)
	assert.Equal(t, 1, a1.Kills)
	assert.Equal(t, 5, a1.Attacks)
}

func TestMobilityAttributionUses3DDistanceAndStandardDeviation(t *testing.T) {
	center := telemetry.Vector3{X: 0, Y: 0, Z: 0}
	samples := []positionSample{
		{timestamp: 0, location: telemetry.Vector3{X: 0, Y: 0, Z: 0}},
		{timestamp: 1, location: telemetry.Vector3{X: 3, Y: 0, Z: 4}}, // 3-4-5 triangle via the Z axis
	}

	movement, stddev, _, radius := mobilityAttribution(center, samples)

	assert.InDelta(t, 5.0, movement, 1e-9, "step distance must include the Z component")
	assert.InDelta(t, 5.0, radius, 1e-9)
	// distances from center are 0 and 5; mean 2.5, variance 6.25, stddev 2.5.
	assert.InDelta(t, 2.5, stddev, 1e-9, "position_variance must be a standard deviation, not a raw variance")
}

func TestReconstructCountsAttacksSeparatelyFromKnocksAndKills(t *testing.T) {
	events := []telemetry.Event{
		{
			Type:      telemetry.EventPlayerMakeGroggy,
			Timestamp: 10,
			Knock: &telemetry.KnockEvent{
				Attacker: charPtr(charAt("t1-a", 1, 0, 0)),
				Victim:   charAt("t2-v1", 2, 5, 0),
			},
		},
		{
			Type:      telemetry.EventPlayerAttack,
			Timestamp: 11,
			Attack: &telemetry.AttackEvent{
				Attacker:   charAt("t1-a", 1, 0, 0),
				Weapon:     "weap_ak47",
				AttackType: "gun",
			},
		},
		{
			Type:      telemetry.EventPlayerMakeGroggy,
			Timestamp: 12,
			Knock: &telemetry.KnockEvent{
				Attacker: charPtr(charAt("t1-a", 1, 0, 0)),
				Victim:   charAt("t2-v2", 2, 5, 0),
			},
		},
	}

	fights := Reconstruct(events)
	require.Len(t, fights, 1)

	var attacker *Participant
	for i := range fights[0].Participants {
		if fights[0].Participants[i].PlayerID == "t1-a" {
			attacker = &fights[0].Participants[i]
		}
	}
	require.NotNil(t, attacker)
	assert.Equal(t, 2, attacker.Knocks)
	assert.Equal(t, 1, attacker.Attacks, "a plain LogPlayerAttack swing must be tallied, not dropped")
}
