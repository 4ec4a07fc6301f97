package telemetry

import (
	"bytes"
	"compress/gzip"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gzipJSON(t *testing.T, raw string) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	_, err := w.Write([]byte(raw))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	return &buf
}

func TestDecodeParsesKillAndUnknownEvents(t *testing.T) {
	raw := `[
		{"_T": "LogPlayerKillV2", "elapsedTime": 120.5, "killer": {"accountId": "p1", "name": "Alice", "teamId": 1}, "victim": {"accountId": "p2", "name": "Bob", "teamId": 2}, "damageTypeCategory": "Weapon", "distance": 55.2, "isHeadshot": true},
		{"_T": "LogSomethingUnmodeled", "elapsedTime": 5}
	]`

	events, err := Decode(gzipJSON(t, raw))
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, EventPlayerKillV2, events[0].Type)
	require.NotNil(t, events[0].Kill)
	assert.Equal(t, "Alice", events[0].Kill.Killer.Name)
	assert.True(t, events[0].Kill.Headshot)

	assert.Equal(t, EventOther, events[1].Type)
	assert.NotEmpty(t, events[1].Other)
}

func TestCharacterIsNPC(t *testing.T) {
	cases := []struct {
		name string
		npc  bool
	}{
		{"Commander", true},
		{"ai_drone_07", true},
		{"Alice", false},
	}
	for _, tc := range cases {
		c := Character{Name: tc.name}
		assert.Equal(t, tc.npc, c.IsNPC(), tc.name)
	}
}
