package processors

import (
	"strings"

	"github.com/TeamPew/pewstats-collectors/internal/store"
	"github.com/TeamPew/pewstats-collectors/internal/telemetry"
)

// Weapon categories, a closed set per spec §4.9.
const (
	CategoryAR       = "AR"
	CategoryDMR      = "DMR"
	CategorySR       = "SR"
	CategorySMG      = "SMG"
	CategoryShotgun  = "Shotgun"
	CategoryLMG      = "LMG"
	CategoryPistol   = "Pistol"
	CategoryMelee    = "Melee"
	CategoryThrowable = "Throwable"
	CategoryOther    = "Other"
)

var weaponCategoryByPrefix = map[string]string{
	"weap_ak47":     CategoryAR,
	"weap_m416":     CategoryAR,
	"weap_scar":     CategoryAR,
	"weap_g36c":     CategoryAR,
	"weap_qbz":      CategoryAR,
	"weap_mini14":   CategoryDMR,
	"weap_sks":      CategoryDMR,
	"weap_mk14":     CategoryDMR,
	"weap_slr":      CategoryDMR,
	"weap_awm":      CategorySR,
	"weap_kar98":    CategorySR,
	"weap_m24":      CategorySR,
	"weap_win94":    CategorySR,
	"weap_ump":      CategorySMG,
	"weap_vector":   CategorySMG,
	"weap_uzi":      CategorySMG,
	"weap_tommygun": CategorySMG,
	"weap_s12k":     CategoryShotgun,
	"weap_s686":     CategoryShotgun,
	"weap_s1897":    CategoryShotgun,
	"weap_dbs":      CategoryShotgun,
	"weap_m249":     CategoryLMG,
	"weap_dp28":     CategoryLMG,
	"weap_p92":      CategoryPistol,
	"weap_p1911":    CategoryPistol,
	"weap_r1895":    CategoryPistol,
	"weap_deagle":   CategoryPistol,
	"weap_pan":      CategoryMelee,
	"weap_machete":  CategoryMelee,
	"weap_sickle":   CategoryMelee,
	"weap_grenade":  CategoryThrowable,
	"weap_molotov":  CategoryThrowable,
	"weap_stickbomb": CategoryThrowable,
}

// CategoryFor classifies an upstream weapon item id into one of the
// closed categories, defaulting to Other.
func CategoryFor(itemID string) string {
	lower := strings.ToLower(itemID)
	if category, ok := weaponCategoryByPrefix[lower]; ok {
		return category
	}
	return CategoryOther
}

type weaponTotals struct {
	damage float64
	kills  int
	knocks int
}

// WeaponDistribution aggregates damage, kill, and knock contributions
// per (match, player, weapon category) from the damage and kill
// events.
func WeaponDistribution(matchID string, events []telemetry.Event, _ telemetry.MatchMeta) ([]store.WeaponDistributionRow, error) {
	totals := make(map[string]map[string]*weaponTotals) // playerID -> category -> totals

	bump := func(playerID, category string) *weaponTotals {
		byCategory, ok := totals[playerID]
		if !ok {
			byCategory = make(map[string]*weaponTotals)
			totals[playerID] = byCategory
		}
		t, ok := byCategory[category]
		if !ok {
			t = &weaponTotals{}
			byCategory[category] = t
		}
		return t
	}

	for _, e := range events {
		switch e.Type {
		case telemetry.EventPlayerTakeDamage:
			d := e.Damage
			if d == nil || d.Attacker == nil || d.Attacker.IsNPC() {
				continue
			}
			t := bump(d.Attacker.AccountID, CategoryFor(d.Weapon))
			t.damage += d.Amount

		case telemetry.EventPlayerKillV2:
			k := e.Kill
			if k == nil || k.Killer == nil || k.Killer.IsNPC() {
				continue
			}
			t := bump(k.Killer.AccountID, CategoryFor(k.Weapon))
			t.kills++

		case telemetry.EventPlayerMakeGroggy:
			k := e.Knock
			if k == nil || k.Attacker == nil || k.Attacker.IsNPC() {
				continue
			}
			t := bump(k.Attacker.AccountID, CategoryFor(k.Weapon))
			t.knocks++
		}
	}

	var rows []store.WeaponDistributionRow
	for playerID, byCategory := range totals {
		for category, t := range byCategory {
			rows = append(rows, store.WeaponDistributionRow{
				MatchID:        matchID,
				PlayerID:       playerID,
				WeaponCategory: category,
				Damage:         t.damage,
				Kills:          t.kills,
				Knocks:         t.knocks,
			})
		}
	}
	return rows, nil
}
