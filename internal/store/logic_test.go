package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapMatchType(t *testing.T) {
	cases := []struct {
		upstream string
		want     []string
	}{
		{"competitive", []string{MatchTypeRanked, MatchTypeAll}},
		{"ranked", []string{MatchTypeRanked, MatchTypeAll}},
		{"esports", []string{MatchTypeRanked, MatchTypeAll}},
		{"normal", []string{MatchTypeNormal, MatchTypeAll}},
		{"official", []string{MatchTypeNormal, MatchTypeAll}},
		{"arcade", []string{MatchTypeNormal, MatchTypeAll}},
		{"event", []string{MatchTypeAll}},
	}

	for _, tc := range cases {
		t.Run(tc.upstream, func(t *testing.T) {
			assert.Equal(t, tc.want, MapMatchType(tc.upstream))
		})
	}
}

func TestAdvisoryLockKeyIsStableAndDistinguishesMatches(t *testing.T) {
	a := advisoryLockKey("match-1")
	b := advisoryLockKey("match-1")
	c := advisoryLockKey("match-2")

	assert.Equal(t, a, b, "same match id must hash to the same lock key")
	assert.NotEqual(t, a, c, "different match ids should not collide in this test fixture")
}

func TestAllProcessorFlagsComplete(t *testing.T) {
	t.Run("all four done", func(t *testing.T) {
		item := BackfillItem{SummaryDone: true, TelemetryDone: true, FightsDone: true, AggregationDone: true}
		assert.True(t, item.AllProcessorFlagsComplete())
	})

	t.Run("one missing", func(t *testing.T) {
		item := BackfillItem{SummaryDone: true, TelemetryDone: true, FightsDone: true, AggregationDone: false}
		assert.False(t, item.AllProcessorFlagsComplete())
	})
}
