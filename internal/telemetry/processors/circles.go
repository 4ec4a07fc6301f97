package processors

import (
	"strings"

	"github.com/TeamPew/pewstats-collectors/internal/store"
	"github.com/TeamPew/pewstats-collectors/internal/telemetry"
)

// blueZoneTickWindowSeconds is the longest gap between consecutive
// blue-zone damage ticks on the same player that still counts as one
// continuous stretch spent outside the safe zone. PUBG's own zone
// damage ticks every 2-3s; 3s covers tick jitter without bridging two
// separate excursions.
const blueZoneTickWindowSeconds = 3.0

// isBlueZoneDamage reports whether a damage event's cause is the
// upstream's blue-zone/gas damage category.
func isBlueZoneDamage(cause string) bool {
	return strings.Contains(strings.ToLower(cause), "bluezone")
}

// Circles produces position-vs-safe-zone samples, stored only for
// tracked players per spec §4.9. Zone membership and "time outside
// zone" are both derived from the player's own blue-zone damage ticks,
// matching the game's canonical boundary, rather than from a raw
// geometric test against the reported safe-zone radius.
func Circles(matchID string, events []telemetry.Event, meta telemetry.MatchMeta) ([]store.CirclePositionRow, error) {
	var rows []store.CirclePositionRow
	var currentZone *telemetry.GameStateEvent

	lastZoneDamage := make(map[string]float64)
	timeOutsideZone := make(map[string]float64)

	for _, e := range events {
		switch e.Type {
		case telemetry.EventGameStatePeriodic:
			currentZone = e.GameState

		case telemetry.EventPlayerTakeDamage:
			if e.Damage == nil || !isBlueZoneDamage(e.Damage.Cause) {
				continue
			}
			victim := e.Damage.Victim
			if victim.IsNPC() || !meta.IsTracked(victim.AccountID) {
				continue
			}
			if last, ticked := lastZoneDamage[victim.AccountID]; ticked && e.Timestamp-last <= blueZoneTickWindowSeconds {
				timeOutsideZone[victim.AccountID] += e.Timestamp - last
			}
			lastZoneDamage[victim.AccountID] = e.Timestamp

		case telemetry.EventPlayerPosition:
			if e.Position == nil || currentZone == nil {
				continue
			}
			player := e.Position.Player
			if player.IsNPC() || !meta.IsTracked(player.AccountID) {
				continue
			}

			distFromCenter := distance3D(e.Position.Location, currentZone.SafeZoneCenter)
			distFromEdge := currentZone.SafeZoneRadius - distFromCenter

			last, ticked := lastZoneDamage[player.AccountID]
			inZone := !ticked || e.Timestamp-last > blueZoneTickWindowSeconds

			rows = append(rows, store.CirclePositionRow{
				MatchID:            matchID,
				PlayerID:           player.AccountID,
				ElapsedTime:        e.Timestamp,
				ZoneCenterX:        currentZone.SafeZoneCenter.X,
				ZoneCenterY:        currentZone.SafeZoneCenter.Y,
				ZoneRadius:         currentZone.SafeZoneRadius,
				PlayerX:            e.Position.Location.X,
				PlayerY:            e.Position.Location.Y,
				DistanceFromCenter: distFromCenter,
				DistanceFromEdge:   distFromEdge,
				InZone:             inZone,
				TimeOutsideZone:    timeOutsideZone[player.AccountID],
			})
		}
	}
	return rows, nil
}
