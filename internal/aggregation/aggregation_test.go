package aggregation

import (
	"testing"

	"github.com/TeamPew/pewstats-collectors/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestExpandDamageFansOutAcrossMatchTypes(t *testing.T) {
	sums := []store.DamageSumRow{{PlayerID: "p1", Weapon: "weap_ak47", Cause: "damage", Damage: 100, Hits: 4}}
	out := expandDamage(sums, []string{store.MatchTypeRanked, store.MatchTypeAll})
	assert.Len(t, out, 2)
	assert.Equal(t, store.MatchTypeRanked, out[0].MatchType)
	assert.Equal(t, store.MatchTypeAll, out[1].MatchType)
	assert.Equal(t, 100.0, out[0].Damage)
}

func TestExpandFightsCarriesMobilityFields(t *testing.T) {
	sums := []store.FightSumRow{{PlayerID: "p1", Fights: 2, FightWins: 1, TotalMovementDist: 300, AvgMobilityRate: 1.5}}
	out := expandFights(sums, []string{store.MatchTypeAll})
	assert.Len(t, out, 1)
	assert.Equal(t, 2, out[0].Fights)
	assert.Equal(t, 1.5, out[0].AvgMobilityRate)
}
