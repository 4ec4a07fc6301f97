package processors

import (
	"fmt"

	"github.com/TeamPew/pewstats-collectors/internal/store"
	"github.com/TeamPew/pewstats-collectors/internal/telemetry"
)

// killStealWindowSeconds is the lookback spec §4.9 defines for
// crediting a kill-steal: damage dealt to the victim in this window
// before death, by someone other than the finisher.
const killStealWindowSeconds = 10.0

// Kills produces one row per kill event, with killer nil for suicides
// and blue-zone deaths, and resolves kill-steal credit from the prior
// damage events against the same victim.
func Kills(matchID string, events []telemetry.Event, _ telemetry.MatchMeta) ([]store.KillEventRow, error) {
	var rows []store.KillEventRow

	for i, e := range events {
		if e.Type != telemetry.EventPlayerKillV2 || e.Kill == nil {
			continue
		}
		k := e.Kill
		if k.Victim.IsNPC() {
			continue
		}

		var killerID *string
		if k.Killer != nil && !k.Killer.IsNPC() && k.Killer.AccountID != k.Victim.AccountID {
			id := k.Killer.AccountID
			killerID = &id
		}

		stealer := findKillStealer(events[:i], e.Timestamp, k.Victim.AccountID, killerID)

		rows = append(rows, store.KillEventRow{
			MatchID:       matchID,
			EventID:       killEventID(matchID, k.Victim.AccountID, e.Timestamp),
			Timestamp:     e.Timestamp,
			KillerID:      killerID,
			VictimID:      k.Victim.AccountID,
			Weapon:        k.Weapon,
			Distance:      k.Distance,
			Headshot:      k.Headshot,
			KillStealerID: stealer,
		})
	}
	return rows, nil
}

// findKillStealer scans backward through damage events within
// killStealWindowSeconds of the death, looking for a non-finisher
// attacker who damaged the victim.
func findKillStealer(priorEvents []telemetry.Event, deathTime float64, victimID string, finisherID *string) *string {
	for i := len(priorEvents) - 1; i >= 0; i-- {
		e := priorEvents[i]
		if deathTime-e.Timestamp > killStealWindowSeconds {
			break
		}
		if e.Type != telemetry.EventPlayerTakeDamage || e.Damage == nil {
			continue
		}
		d := e.Damage
		if d.Victim.AccountID != victimID || d.Attacker == nil || d.Attacker.IsNPC() {
			continue
		}
		if finisherID != nil && d.Attacker.AccountID == *finisherID {
			continue
		}
		id := d.Attacker.AccountID
		return &id
	}
	return nil
}

func killEventID(matchID, victimID string, timestamp float64) string {
	return fmt.Sprintf("%s:%s:%0.3f:kill", matchID, victimID, timestamp)
}
