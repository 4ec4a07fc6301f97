package processors

import (
	"fmt"

	"github.com/TeamPew/pewstats-collectors/internal/store"
	"github.com/TeamPew/pewstats-collectors/internal/telemetry"
)

// Damage produces one row per damage event, flagging self-damage and
// team-damage per spec §4.9.
func Damage(matchID string, events []telemetry.Event, _ telemetry.MatchMeta) ([]store.DamageEventRow, error) {
	var rows []store.DamageEventRow

	for i, e := range events {
		if e.Type != telemetry.EventPlayerTakeDamage || e.Damage == nil {
			continue
		}
		d := e.Damage
		if d.Victim.IsNPC() {
			continue
		}

		var attackerID *string
		isTeamDamage := false
		if d.Attacker != nil && !d.Attacker.IsNPC() {
			id := d.Attacker.AccountID
			attackerID = &id
			isTeamDamage = d.Attacker.TeamID == d.Victim.TeamID && d.Attacker.AccountID != d.Victim.AccountID
		}

		rows = append(rows, store.DamageEventRow{
			MatchID:      matchID,
			EventID:      fmt.Sprintf("%s:%d:damage", matchID, i),
			Timestamp:    e.Timestamp,
			AttackerID:   attackerID,
			VictimID:     d.Victim.AccountID,
			Weapon:       d.Weapon,
			BodyPart:     d.BodyPart,
			Amount:       d.Amount,
			Cause:        d.Cause,
			IsSelfDamage: d.SelfDamage,
			IsTeamDamage: isTeamDamage,
		})
	}
	return rows, nil
}
