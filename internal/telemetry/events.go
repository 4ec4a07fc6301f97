// Package telemetry decodes a match's event trace exactly once into a
// typed event slice that every processor (C9) and the fight engine
// (C10) shares by reference, the key efficiency property spec §4.8
// calls out against the legacy per-processor re-read design.
//
// Grounded on the upstream event-trace shape referenced throughout
// spec §4.9 (LogPlayerKillV2, LogPlayerTakeDamage, ...), and on the
// tagged-variant decode pattern used for structured API payloads in
// the pack (HQESports-harvest-api's model.Match / model.Job union of
// job types).
package telemetry

// EventType names the upstream LogEvent types this pipeline cares
// about. Anything else decodes into Other, preserving its raw bytes.
type EventType string

const (
	EventParachuteLanding EventType = "LogParachuteLanding"
	EventPlayerKillV2     EventType = "LogPlayerKillV2"
	EventPlayerTakeDamage EventType = "LogPlayerTakeDamage"
	EventPlayerMakeGroggy EventType = "LogPlayerMakeGroggy"
	EventGameStatePeriodic EventType = "LogGameStatePeriodic"
	EventPlayerPosition   EventType = "LogPlayerPosition"
	EventItemUse          EventType = "LogItemUse"
	EventPlayerAttack     EventType = "LogPlayerAttack"
	EventOther            EventType = "Other"
)

// Vector3 is a 3D position in the map's coordinate space.
type Vector3 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Character identifies a participant (or NPC) at the moment of an event.
type Character struct {
	AccountID string  `json:"accountId"`
	Name      string  `json:"name"`
	TeamID    int     `json:"teamId"`
	Health    float64 `json:"health"`
	Location  Vector3 `json:"location"`
}

// IsNPC reports whether this character is one of the closed set of
// non-player names, or an "ai_"-prefixed identifier, per spec §4.10's
// NPC filter.
func (c Character) IsNPC() bool {
	return isNPCName(c.Name)
}

var npcNames = map[string]struct{}{
	"Commander":     {},
	"Guard":         {},
	"Pillar":        {},
	"SkySoldier":    {},
	"Soldier":       {},
	"PillarSoldier": {},
	"ZombieSoldier": {},
}

func isNPCName(name string) bool {
	if _, ok := npcNames[name]; ok {
		return true
	}
	return len(name) >= 3 && name[:3] == "ai_"
}

// Event is one decoded telemetry record. Exactly one of the typed
// fields is populated, selected by Type; Other carries the raw bytes
// for event types this pipeline does not model.
type Event struct {
	Type      EventType
	Timestamp float64 // seconds since match start

	Kill     *KillEvent
	Damage   *DamageEvent
	Knock    *KnockEvent
	Landing  *LandingEvent
	GameState *GameStateEvent
	Position *PositionEvent
	ItemUse  *ItemUseEvent
	Attack   *AttackEvent
	Other    []byte
}

// KillEvent mirrors LogPlayerKillV2.
type KillEvent struct {
	EventID  string
	Killer   *Character // nil for suicides / blue-zone deaths
	Victim   Character
	Weapon   string
	Distance float64
	Headshot bool
}

// DamageEvent mirrors LogPlayerTakeDamage.
type DamageEvent struct {
	EventID    string
	Attacker   *Character
	Victim     Character
	Weapon     string
	BodyPart   string
	Amount     float64
	Cause      string
	SelfDamage bool
	TeamDamage bool
}

// KnockEvent mirrors LogPlayerMakeGroggy.
type KnockEvent struct {
	EventID  string
	Attacker *Character
	Victim   Character
	Weapon   string
	Distance float64
}

// LandingEvent mirrors LogParachuteLanding.
type LandingEvent struct {
	Player   Character
	Location Vector3
}

// GameStateEvent mirrors LogGameStatePeriodic's safe-zone fields.
type GameStateEvent struct {
	SafeZoneCenter Vector3
	SafeZoneRadius float64
	ElapsedTime    float64
}

// PositionEvent mirrors LogPlayerPosition.
type PositionEvent struct {
	Player   Character
	Location Vector3
}

// ItemUseEvent mirrors LogItemUse.
type ItemUseEvent struct {
	Player Character
	Item   string
}

// AttackEvent mirrors LogPlayerAttack — used for item-usage throwable
// tallies (grenades, smokes) distinct from LogItemUse's heals/boosts.
type AttackEvent struct {
	Attacker Character
	Weapon   string
	AttackType string
}

// MatchMeta carries the match-level context processors need alongside
// the event slice: map, mode, game type, and the tracked-player set
// (circle positions are stored only for tracked players per §4.9).
type MatchMeta struct {
	MatchID        string
	Map            string
	Mode           string
	GameType       string
	TrackedPlayers map[string]struct{}
}

// IsTracked reports whether accountID belongs to a tracked player.
func (m MatchMeta) IsTracked(accountID string) bool {
	_, ok := m.TrackedPlayers[accountID]
	return ok
}
