package fights

import (
	"testing"

	"github.com/TeamPew/pewstats-collectors/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func charAt(id string, team int, x, y float64) telemetry.Character {
	return telemetry.Character{AccountID: id, Name: id, TeamID: team, Location: telemetry.Vector3{X: x, Y: y}}
}

func charPtr(c telemetry.Character) *telemetry.Character {
	return &c
}

func TestReconstructAlwaysFightOnTwoKnocks(t *testing.T) {
	events := []telemetry.Event{
		{
			Type:      telemetry.EventPlayerMakeGroggy,
			Timestamp: 10,
			Knock: &telemetry.KnockEvent{
				Attacker: charPtr(charAt("a1", 1, 0, 0)),
				Victim:   charAt("v1", 2, 10, 0),
			},
		},
		{
			Type:      telemetry.EventPlayerMakeGroggy,
			Timestamp: 15,
			Knock: &telemetry.KnockEvent{
				Attacker: charPtr(charAt("a1", 1, 0, 0)),
				Victim:   charAt("v2", 2, 12, 0),
			},
		},
	}

	fights := Reconstruct(events)
	require.Len(t, fights, 1)
	assert.Equal(t, "always-fight: 2+ knocks or kills", fights[0].ClassificationReason)
	assert.ElementsMatch(t, []int{1, 2}, fights[0].TeamIDs)
}

func TestReconstructDiscardsUnresistedSingleKill(t *testing.T) {
	events := []telemetry.Event{
		{
			Type:      telemetry.EventPlayerKillV2,
			Timestamp: 10,
			Kill: &telemetry.KillEvent{
				Killer: charPtr(charAt("a1", 1, 0, 0)),
				Victim: charAt("v1", 2, 10, 0),
			},
		},
	}

	fights := Reconstruct(events)
	assert.Empty(t, fights, "a single kill with no victim damage is an execution, not a fight")
}

func TestReconstructKeepsSingleKillWithResistance(t *testing.T) {
	events := []telemetry.Event{
		{
			Type:      telemetry.EventPlayerTakeDamage,
			Timestamp: 5,
			Damage: &telemetry.DamageEvent{
				Attacker: charPtr(charAt("v1", 2, 10, 0)),
				Victim:   charAt("a1", 1, 0, 0),
				Amount:   30,
			},
		},
		{
			Type:      telemetry.EventPlayerKillV2,
			Timestamp: 10,
			Kill: &telemetry.KillEvent{
				Killer: charPtr(charAt("a1", 1, 0, 0)),
				Victim: charAt("v1", 2, 10, 0),
			},
		},
	}

	fights := Reconstruct(events)
	require.Len(t, fights, 1)
	assert.Equal(t, "single instant kill with resistance", fights[0].ClassificationReason)
}

func TestReconstructSkipsNPCParticipants(t *testing.T) {
	events := []telemetry.Event{
		{
			Type:      telemetry.EventPlayerKillV2,
			Timestamp: 10,
			Kill: &telemetry.KillEvent{
				Killer: charPtr(telemetry.Character{AccountID: "ai_bot_1", Name: "ai_bot_1", TeamID: 9}),
				Victim: charAt("v1", 2, 10, 0),
			},
		},
	}

	fights := Reconstruct(events)
	assert.Empty(t, fights)
}

func TestReconstructThirdPartyPicksKillerAsWinner(t *testing.T) {
	// spec scenario: T1 knocks T2, T2 knocks T1, T3 kills 2 on T1 within
	// the window. T3 must win on kills despite never being knocked or
	// damaged itself, and T1 (all its casualties) must lose.
	events := []telemetry.Event{
		{
			Type:      telemetry.EventPlayerMakeGroggy,
			Timestamp: 10,
			Knock: &telemetry.KnockEvent{
				Attacker: charPtr(charAt("t1-a", 1, 0, 0)),
				Victim:   charAt("t2-v", 2, 5, 0),
			},
		},
		{
			Type:      telemetry.EventPlayerMakeGroggy,
			Timestamp: 12,
			Knock: &telemetry.KnockEvent{
				Attacker: charPtr(charAt("t2-a", 2, 5, 0)),
				Victim:   charAt("t1-v1", 1, 0, 0),
			},
		},
		{
			Type:      telemetry.EventPlayerKillV2,
			Timestamp: 14,
			Kill: &telemetry.KillEvent{
				Killer: charPtr(charAt("t3-a", 3, 8, 0)),
				Victim: charAt("t1-v2", 1, 0, 0),
			},
		},
		{
			Type:      telemetry.EventPlayerKillV2,
			Timestamp: 16,
			Kill: &telemetry.KillEvent{
				Killer: charPtr(charAt("t3-a", 3, 8, 0)),
				Victim: charAt("t1-v3", 1, 0, 0),
			},
		},
	}

	fights := Reconstruct(events)
	require.Len(t, fights, 1)
	fight := fights[0]
	assert.Equal(t, OutcomeThirdParty, fight.Outcome)
	require.NotNil(t, fight.WinnerTeamID)
	assert.Equal(t, 3, *fight.WinnerTeamID, "the team that landed the kills must win, not whichever team iterates first")
	require.NotNil(t, fight.LoserTeamID)
	assert.Equal(t, 1, *fight.LoserTeamID)
	assert.Equal(t, map[int]string{1: "LOST", 2: "DRAW", 3: "WON"}, fight.TeamOutcomes)

	var t3Participant *Participant
	for i := range fight.Participants {
		if fight.Participants[i].PlayerID == "t3-a" {
			t3Participant = &fight.Participants[i]
		}
	}
	require.NotNil(t, t3Participant, "the killer from the third team must appear as a fight participant")
	assert.Equal(t, 2, t3Participant.Kills)
}

func TestClassifyTwoTeamWipeIsDecisiveWin(t *testing.T) {
	eng := &engagement{
		knocks: 0, kills: 2,
		teamDamage:      map[int]float64{1: 200, 2: 10},
		totalDamage:     210,
		knockedPlayers:  map[string]struct{}{},
		killedPlayers:   map[string]struct{}{"v1": {}, "v2": {}},
		damagedByPlayer: map[string]float64{},
		participantTeam: map[string]int{"v1": 2, "v2": 2, "a1": 1},
	}

	outcome, winner, loser, teamOutcomes, _, classified := classify(eng)
	require.True(t, classified)
	assert.Equal(t, OutcomeDecisiveWin, outcome)
	require.NotNil(t, winner)
	assert.Equal(t, 1, *winner)
	require.NotNil(t, loser)
	assert.Equal(t, 2, *loser)
	assert.Equal(t, "WON", teamOutcomes[1])
	assert.Equal(t, "LOST", teamOutcomes[2])
}

func TestClassifyMultiTeamIsThirdParty(t *testing.T) {
	eng := &engagement{
		knocks: 3, kills: 0,
		teamDamage:      map[int]float64{1: 50, 2: 50, 3: 150},
		totalDamage:     250,
		knockedPlayers:  map[string]struct{}{"v1": {}, "v2": {}, "v3": {}},
		killedPlayers:   map[string]struct{}{},
		damagedByPlayer: map[string]float64{},
		participantTeam: map[string]int{"v1": 1, "v2": 2, "v3": 3, "a1": 3},
	}

	outcome, _, _, _, _, classified := classify(eng)
	require.True(t, classified)
	assert.Equal(t, OutcomeThirdParty, outcome)
}
