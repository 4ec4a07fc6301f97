package telemetry

import (
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
)

// rawEvent is the upstream's untyped envelope — every event carries a
// "_T" discriminator and a "_D" timestamp regardless of type.
type rawEvent struct {
	Type      string          `json:"_T"`
	Timestamp string          `json:"_D"`
	Raw       json.RawMessage `json:"-"`
}

// Decode reads a gzipped JSON array of upstream events and parses it
// exactly once into a typed []Event, per spec §4.8's single-parse-pass
// requirement. Unknown event types are preserved as Other rather than
// dropped, so downstream consumers can recover raw bytes if needed.
func Decode(r io.Reader) ([]Event, error) {
	gz, err := gzip.NewReader(r)
	if err != nil {
		return nil, fmt.Errorf("telemetry: open gzip reader: %w", err)
	}
	defer gz.Close()

	var entries []json.RawMessage
	if err := json.NewDecoder(gz).Decode(&entries); err != nil {
		return nil, fmt.Errorf("telemetry: decode event array: %w", err)
	}

	events := make([]Event, 0, len(entries))
	for _, entry := range entries {
		event, err := decodeOne(entry)
		if err != nil {
			return nil, fmt.Errorf("telemetry: decode event: %w", err)
		}
		events = append(events, event)
	}
	return events, nil
}

func decodeOne(raw json.RawMessage) (Event, error) {
	var discriminator struct {
		Type      string  `json:"_T"`
		ElapsedMS float64 `json:"elapsedTime"`
	}
	if err := json.Unmarshal(raw, &discriminator); err != nil {
		return Event{}, err
	}

	switch EventType(discriminator.Type) {
	case EventPlayerKillV2:
		var payload struct {
			Killer   *Character `json:"killer"`
			Victim   Character  `json:"victim"`
			Weapon   string     `json:"damageTypeCategory"`
			Distance float64    `json:"distance"`
			Headshot bool       `json:"isHeadshot"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return Event{}, err
		}
		return Event{Type: EventPlayerKillV2, Timestamp: discriminator.ElapsedMS, Kill: &KillEvent{
			Killer: payload.Killer, Victim: payload.Victim, Weapon: payload.Weapon,
			Distance: payload.Distance, Headshot: payload.Headshot,
		}}, nil

	case EventPlayerTakeDamage:
		var payload struct {
			Attacker   *Character `json:"attacker"`
			Victim     Character  `json:"victim"`
			Weapon     string     `json:"damageCauserName"`
			Cause      string     `json:"damageTypeCategory"`
			BodyPart   string     `json:"damageReason"`
			Amount     float64    `json:"damage"`
			SelfDamage bool       `json:"isSuicide"`
			TeamDamage bool       `json:"isThroughPenetrableWall"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return Event{}, err
		}
		return Event{Type: EventPlayerTakeDamage, Timestamp: discriminator.ElapsedMS, Damage: &DamageEvent{
			Attacker: payload.Attacker, Victim: payload.Victim, Weapon: payload.Weapon, Cause: payload.Cause,
			BodyPart: payload.BodyPart, Amount: payload.Amount, SelfDamage: payload.SelfDamage, TeamDamage: payload.TeamDamage,
		}}, nil

	case EventPlayerMakeGroggy:
		var payload struct {
			Attacker *Character `json:"attacker"`
			Victim   Character  `json:"victim"`
			Weapon   string     `json:"damageCauserName"`
			Distance float64    `json:"distance"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return Event{}, err
		}
		return Event{Type: EventPlayerMakeGroggy, Timestamp: discriminator.ElapsedMS, Knock: &KnockEvent{
			Attacker: payload.Attacker, Victim: payload.Victim, Weapon: payload.Weapon, Distance: payload.Distance,
		}}, nil

	case EventParachuteLanding:
		var payload struct {
			Character Character `json:"character"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return Event{}, err
		}
		return Event{Type: EventParachuteLanding, Timestamp: discriminator.ElapsedMS, Landing: &LandingEvent{
			Player: payload.Character, Location: payload.Character.Location,
		}}, nil

	case EventGameStatePeriodic:
		var payload struct {
			GameState struct {
				SafetyZonePosition Vector3 `json:"safetyZonePosition"`
				SafetyZoneRadius   float64 `json:"safetyZoneRadius"`
				ElapsedTime        float64 `json:"elapsedTime"`
			} `json:"gameState"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return Event{}, err
		}
		return Event{Type: EventGameStatePeriodic, Timestamp: discriminator.ElapsedMS, GameState: &GameStateEvent{
			SafeZoneCenter: payload.GameState.SafetyZonePosition,
			SafeZoneRadius: payload.GameState.SafetyZoneRadius,
			ElapsedTime:    payload.GameState.ElapsedTime,
		}}, nil

	case EventPlayerPosition:
		var payload struct {
			Character Character `json:"character"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return Event{}, err
		}
		return Event{Type: EventPlayerPosition, Timestamp: discriminator.ElapsedMS, Position: &PositionEvent{
			Player: payload.Character, Location: payload.Character.Location,
		}}, nil

	case EventItemUse:
		var payload struct {
			Character Character `json:"character"`
			Item      struct {
				ItemID string `json:"itemId"`
			} `json:"item"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return Event{}, err
		}
		return Event{Type: EventItemUse, Timestamp: discriminator.ElapsedMS, ItemUse: &ItemUseEvent{
			Player: payload.Character, Item: payload.Item.ItemID,
		}}, nil

	case EventPlayerAttack:
		var payload struct {
			Attacker Character `json:"attacker"`
			Weapon   struct {
				ItemID string `json:"itemId"`
			} `json:"weapon"`
			AttackType string `json:"attackType"`
		}
		if err := json.Unmarshal(raw, &payload); err != nil {
			return Event{}, err
		}
		return Event{Type: EventPlayerAttack, Timestamp: discriminator.ElapsedMS, Attack: &AttackEvent{
			Attacker: payload.Attacker, Weapon: payload.Weapon.ItemID, AttackType: payload.AttackType,
		}}, nil

	default:
		return Event{Type: EventOther, Timestamp: discriminator.ElapsedMS, Other: raw}, nil
	}
}
