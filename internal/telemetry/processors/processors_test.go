package processors

import (
	"testing"

	"github.com/TeamPew/pewstats-collectors/internal/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func char(id, name string, team int) telemetry.Character {
	return telemetry.Character{AccountID: id, Name: name, TeamID: team}
}

func TestKillsCreditsStealerWithinWindow(t *testing.T) {
	events := []telemetry.Event{
		{
			Type:      telemetry.EventPlayerTakeDamage,
			Timestamp: 100.0,
			Damage: &telemetry.DamageEvent{
				Attacker: ptr(char("stealer", "Stealer", 2)),
				Victim:   char("victim", "Victim", 1),
				Weapon:   "weap_ak47",
				Amount:   80,
			},
		},
		{
			Type:      telemetry.EventPlayerKillV2,
			Timestamp: 105.0,
			Kill: &telemetry.KillEvent{
				Killer: ptr(char("finisher", "Finisher", 2)),
				Victim: char("victim", "Victim", 1),
				Weapon: "weap_m416",
			},
		},
	}

	rows, err := Kills("m1", events, telemetry.MatchMeta{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	require.NotNil(t, rows[0].KillStealerID)
	assert.Equal(t, "stealer", *rows[0].KillStealerID)
}

func TestKillsOutsideWindowNotCreditedAsStealer(t *testing.T) {
	events := []telemetry.Event{
		{
			Type:      telemetry.EventPlayerTakeDamage,
			Timestamp: 0.0,
			Damage: &telemetry.DamageEvent{
				Attacker: ptr(char("early", "Early", 2)),
				Victim:   char("victim", "Victim", 1),
				Weapon:   "weap_ak47",
				Amount:   80,
			},
		},
		{
			Type:      telemetry.EventPlayerKillV2,
			Timestamp: 50.0,
			Kill: &telemetry.KillEvent{
				Killer: ptr(char("finisher", "Finisher", 2)),
				Victim: char("victim", "Victim", 1),
				Weapon: "weap_m416",
			},
		},
	}

	rows, err := Kills("m1", events, telemetry.MatchMeta{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].KillStealerID)
}

func TestCategoryForKnownAndUnknownWeapons(t *testing.T) {
	assert.Equal(t, CategoryAR, CategoryFor("weap_ak47"))
	assert.Equal(t, CategorySR, CategoryFor("WEAP_AWM"))
	assert.Equal(t, CategoryOther, CategoryFor("weap_unknown_gadget"))
}

func TestIsThrowableExcludesFlashbangsAndNoveltyItems(t *testing.T) {
	assert.True(t, isThrowable("item_grenade_frag"))
	assert.True(t, isThrowable("item_grenade_smoke"))
	assert.False(t, isThrowable("item_grenade_flashbang"))
	assert.False(t, isThrowable("item_snowball"))
}

func TestIsSmokeOnlyMatchesSmokeNotFlashbang(t *testing.T) {
	assert.True(t, isSmoke("item_grenade_smoke"))
	assert.False(t, isSmoke("item_grenade_flashbang"))
}

func ptr(c telemetry.Character) *telemetry.Character {
	return &c
}
