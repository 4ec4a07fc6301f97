package processors

import (
	"strings"

	"github.com/TeamPew/pewstats-collectors/internal/store"
	"github.com/TeamPew/pewstats-collectors/internal/telemetry"
)

var noveltyThrowables = map[string]struct{}{
	"item_snowball": {},
	"item_firework": {},
}

func isHeal(item string) bool {
	item = strings.ToLower(item)
	return strings.Contains(item, "bandage") || strings.Contains(item, "firstaid") || strings.Contains(item, "medkit")
}

func isBoost(item string) bool {
	item = strings.ToLower(item)
	return strings.Contains(item, "energy") || strings.Contains(item, "painkiller") || strings.Contains(item, "adrenaline")
}

func isSmoke(item string) bool {
	return strings.Contains(strings.ToLower(item), "smoke")
}

// isThrowable reports a thrown item that counts toward the throwable
// tally — grenades and molotovs, but not flashbangs (which are
// neither smokes nor counted here) and not novelty throwables.
func isThrowable(item string) bool {
	lower := strings.ToLower(item)
	if _, novelty := noveltyThrowables[lower]; novelty {
		return false
	}
	if strings.Contains(lower, "flashbang") {
		return false
	}
	return strings.Contains(lower, "grenade") || strings.Contains(lower, "molotov") || isSmoke(lower)
}

type itemTotals struct {
	heals      int
	boosts     int
	throwables int
	smokes     int
}

// ItemUsage tallies heals, boosts, and thrown items per player,
// excluding novelty throwables; flashbangs are never counted as
// smokes.
func ItemUsage(matchID string, events []telemetry.Event, _ telemetry.MatchMeta) ([]store.FinishingSummaryRow, error) {
	totals := make(map[string]*itemTotals)

	get := func(playerID string) *itemTotals {
		t, ok := totals[playerID]
		if !ok {
			t = &itemTotals{}
			totals[playerID] = t
		}
		return t
	}

	for _, e := range events {
		switch e.Type {
		case telemetry.EventItemUse:
			u := e.ItemUse
			if u == nil || u.Player.IsNPC() {
				continue
			}
			t := get(u.Player.AccountID)
			switch {
			case isHeal(u.Item):
				t.heals++
			case isBoost(u.Item):
				t.boosts++
			}

		case telemetry.EventPlayerAttack:
			a := e.Attack
			if a == nil || a.Attacker.IsNPC() {
				continue
			}
			if !isThrowable(a.Weapon) {
				continue
			}
			t := get(a.Attacker.AccountID)
			t.throwables++
			if isSmoke(a.Weapon) {
				t.smokes++
			}
		}
	}

	var rows []store.FinishingSummaryRow
	for playerID, t := range totals {
		rows = append(rows, store.FinishingSummaryRow{
			MatchID:    matchID,
			PlayerID:   playerID,
			Heals:      t.heals,
			Boosts:     t.boosts,
			Throwables: t.throwables,
			Smokes:     t.smokes,
		})
	}
	return rows, nil
}
