package fights

import "github.com/TeamPew/pewstats-collectors/internal/telemetry"

// extractCombatEvents converts the match's kill/damage/knock/attack
// events into the clustering engine's combatEvent shape. Events whose
// victim (or, for attacks, attacker) is an NPC are dropped, as are
// self-damage and damage without a non-NPC attacker; an NPC killer or
// knocker is left out of an otherwise kept event.
func extractCombatEvents(events []telemetry.Event) []combatEvent {
	var out []combatEvent

	for _, e := range events {
		switch e.Type {
		case telemetry.EventPlayerKillV2:
			if e.Kill == nil || e.Kill.Victim.IsNPC() {
				continue
			}
			teams := map[int]struct{}{e.Kill.Victim.TeamID: {}}
			killedIDs := []playerTeam{{e.Kill.Victim.AccountID, e.Kill.Victim.TeamID}}
			present := []playerTeam{{e.Kill.Victim.AccountID, e.Kill.Victim.TeamID}}
			attackerDamage := map[int]float64{}
			var killDealtBy *playerTeam
			if e.Kill.Killer != nil && !e.Kill.Killer.IsNPC() {
				teams[e.Kill.Killer.TeamID] = struct{}{}
				present = append(present, playerTeam{e.Kill.Killer.AccountID, e.Kill.Killer.TeamID})
				killDealtBy = &playerTeam{e.Kill.Killer.AccountID, e.Kill.Killer.TeamID}
			}
			out = append(out, combatEvent{
				timestamp: e.Timestamp, teams: teams, position: e.Kill.Victim.Location,
				kills: 1, killedIDs: killedIDs, presentIDs: present, attackerDamage: attackerDamage,
				killDealtBy: killDealtBy,
			})

		case telemetry.EventPlayerMakeGroggy:
			if e.Knock == nil || e.Knock.Victim.IsNPC() {
				continue
			}
			teams := map[int]struct{}{e.Knock.Victim.TeamID: {}}
			knockedIDs := []playerTeam{{e.Knock.Victim.AccountID, e.Knock.Victim.TeamID}}
			present := []playerTeam{{e.Knock.Victim.AccountID, e.Knock.Victim.TeamID}}
			var knockDealtBy *playerTeam
			if e.Knock.Attacker != nil && !e.Knock.Attacker.IsNPC() {
				teams[e.Knock.Attacker.TeamID] = struct{}{}
				present = append(present, playerTeam{e.Knock.Attacker.AccountID, e.Knock.Attacker.TeamID})
				knockDealtBy = &playerTeam{e.Knock.Attacker.AccountID, e.Knock.Attacker.TeamID}
			}
			out = append(out, combatEvent{
				timestamp: e.Timestamp, teams: teams, position: e.Knock.Victim.Location,
				knocks: 1, knockedIDs: knockedIDs, presentIDs: present, attackerDamage: map[int]float64{},
				knockDealtBy: knockDealtBy,
			})

		case telemetry.EventPlayerAttack:
			if e.Attack == nil || e.Attack.Attacker.IsNPC() {
				continue
			}
			attacker := playerTeam{e.Attack.Attacker.AccountID, e.Attack.Attacker.TeamID}
			out = append(out, combatEvent{
				timestamp: e.Timestamp,
				teams:     map[int]struct{}{attacker.teamID: {}},
				position:  e.Attack.Attacker.Location,
				presentIDs:     []playerTeam{attacker},
				attackerDamage: map[int]float64{},
				attackDealtBy:  &attacker,
			})

		case telemetry.EventPlayerTakeDamage:
			if e.Damage == nil || e.Damage.Victim.IsNPC() || e.Damage.Attacker == nil || e.Damage.Attacker.IsNPC() {
				continue
			}
			if e.Damage.SelfDamage || e.Damage.Attacker.AccountID == e.Damage.Victim.AccountID {
				continue
			}
			teams := map[int]struct{}{
				e.Damage.Victim.TeamID:   {},
				e.Damage.Attacker.TeamID: {},
			}
			present := []playerTeam{
				{e.Damage.Victim.AccountID, e.Damage.Victim.TeamID},
				{e.Damage.Attacker.AccountID, e.Damage.Attacker.TeamID},
			}
			out = append(out, combatEvent{
				timestamp: e.Timestamp, teams: teams, position: e.Damage.Victim.Location,
				damage: e.Damage.Amount, presentIDs: present,
				attackerDamage:       map[int]float64{e.Damage.Attacker.TeamID: e.Damage.Amount},
				attackerPlayerDamage: map[string]float64{e.Damage.Attacker.AccountID: e.Damage.Amount},
			})
		}
	}
	return out
}
