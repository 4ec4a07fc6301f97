package backfill

import (
	"testing"

	"github.com/TeamPew/pewstats-collectors/internal/fights"
	"github.com/stretchr/testify/assert"
)

func TestToStoreFightMapsParticipants(t *testing.T) {
	winner := 1
	f := fights.Fight{
		StartTime: 10, EndTime: 40, TeamIDs: []int{1, 2},
		Outcome: fights.OutcomeDecisiveWin, WinnerTeamID: &winner,
		Participants: []fights.Participant{
			{PlayerID: "p1", TeamID: 1, Kills: 1, Survived: true},
		},
	}

	row, participants := toStoreFight("m1", f)
	assert.Equal(t, "m1", row.MatchID)
	assert.Equal(t, 30.0, row.DurationSecs)
	require := assert.New(t)
	require.Len(participants, 1)
	require.Equal("p1", participants[0].PlayerID)
	require.True(participants[0].Survived)
}
