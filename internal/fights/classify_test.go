package fights

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEveryTeamContributesShareRequiresMinimumPerTeam(t *testing.T) {
	eng := &engagement{
		totalDamage: 200,
		teamDamage:  map[int]float64{1: 150, 2: 50},
	}
	assert.True(t, everyTeamContributesShare(eng, 0.20))

	eng.teamDamage = map[int]float64{1: 190, 2: 10}
	assert.False(t, everyTeamContributesShare(eng, 0.20))
}

func TestEveryTeamDealtAtLeastRequiresBothSides(t *testing.T) {
	eng := &engagement{teamDamage: map[int]float64{1: 80, 2: 90}}
	assert.True(t, everyTeamDealtAtLeast(eng, 75))

	eng.teamDamage = map[int]float64{1: 80, 2: 40}
	assert.False(t, everyTeamDealtAtLeast(eng, 75))
}

func TestSingleInstantKillHasResistanceAppliesImbalanceThreshold(t *testing.T) {
	// 4 attackers vs 1 victim: resistance threshold rises to 75.
	eng := &engagement{
		participantTeam: map[string]int{
			"v1": 2,
			"a1": 1, "a2": 1, "a3": 1, "a4": 1,
		},
		killedPlayers:   map[string]struct{}{"v1": {}},
		damagedByPlayer: map[string]float64{"v1": 50},
	}
	assert.False(t, singleInstantKillHasResistance(eng), "50 damage should not clear the 75 threshold at 4v1")

	eng.damagedByPlayer["v1"] = 80
	assert.True(t, singleInstantKillHasResistance(eng))
}

func TestSanitizedTeamsDropsUninvolvedTeams(t *testing.T) {
	eng := &engagement{
		teams:           map[int]struct{}{1: {}, 2: {}, 3: {}},
		participantTeam: map[string]int{"a": 1, "b": 1, "c": 2},
	}
	teams := sanitizedTeams(eng)
	assert.ElementsMatch(t, []int{1, 2}, teams)
}
