// Package processors implements the event-stream processors of spec
// §4.9: one function per fact table, each consuming the already-parsed
// event slice and producing rows for exactly one target table.
//
// Grounded on the processor-per-concern shape of
// Baldr96-statsiq_aggregate_worker's BuildAggregates pipeline (a
// sequence of independent Compute* steps over one parsed match), here
// applied per telemetry event type instead of per aggregate family.
package processors

import (
	"github.com/TeamPew/pewstats-collectors/internal/store"
	"github.com/TeamPew/pewstats-collectors/internal/telemetry"
)

// Landings produces one row per live player's parachute landing spot.
func Landings(matchID string, events []telemetry.Event, _ telemetry.MatchMeta) ([]store.LandingRow, error) {
	var rows []store.LandingRow
	seen := make(map[string]struct{})

	for _, e := range events {
		if e.Type != telemetry.EventParachuteLanding || e.Landing == nil {
			continue
		}
		player := e.Landing.Player
		if player.IsNPC() {
			continue
		}
		if _, ok := seen[player.AccountID]; ok {
			continue // one row per live player
		}
		seen[player.AccountID] = struct{}{}

		rows = append(rows, store.LandingRow{
			MatchID:   matchID,
			PlayerID:  player.AccountID,
			X:         e.Landing.Location.X,
			Y:         e.Landing.Location.Y,
			Z:         e.Landing.Location.Z,
			Timestamp: e.Timestamp,
		})
	}
	return rows, nil
}
