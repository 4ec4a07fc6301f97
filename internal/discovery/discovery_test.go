package discovery

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func zeroLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestChunkStringsSplitsIntoBoundedGroups(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}
	chunks := chunkStrings(items, 2)
	assert.Equal(t, [][]string{{"a", "b"}, {"c", "d"}, {"e"}}, chunks)
}

func TestChunkStringsEmptyInput(t *testing.T) {
	assert.Nil(t, chunkStrings(nil, 10))
}

func TestTournamentServiceTagsDiscoveryPriority(t *testing.T) {
	svc := NewTournament(nil, nil, nil, 10, zeroLogger())
	assert.Equal(t, DiscoveredByTournament, svc.discoveredBy)
	assert.Equal(t, DiscoveryPriorityTournament, svc.discoveryPriority)
}
