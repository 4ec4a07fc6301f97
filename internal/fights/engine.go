// Package fights is the fight-tracking engine (C10): it reconstructs
// discrete multi-team engagements from a match's combat events and
// classifies each one. Grounded on the staged-pipeline shape of
// Baldr96-statsiq_aggregate_worker's BuildAggregates (ComputeTrades,
// ComputeEntries, ComputeClutches, ...) — here a single clustering pass
// over time-ordered combat events followed by a per-engagement
// classification step, instead of several independent Compute* passes.
package fights

import (
	"math"

	"github.com/TeamPew/pewstats-collectors/internal/telemetry"
)

// Tuned defaults (spec §4.10).
const (
	EngagementWindowSeconds    = 45.0
	MaxEngagementDistanceMeters = 300.0
	MaxFightDurationSeconds    = 240.0
)

// Outcome classifications.
const (
	OutcomeDecisiveWin = "DECISIVE_WIN"
	OutcomeMarginalWin = "MARGINAL_WIN"
	OutcomeDraw        = "DRAW"
	OutcomeThirdParty  = "THIRD_PARTY"
)

// Fight is one reconstructed engagement, ready for persistence.
type Fight struct {
	StartTime            float64
	EndTime               float64
	TeamIDs               []int
	EngagementCenterX     float64
	EngagementCenterY     float64
	FightRadius           float64
	TotalCasualties       int
	TotalDamage           float64
	Outcome               string
	WinnerTeamID          *int
	LoserTeamID           *int
	TeamOutcomes          map[int]string
	ClassificationReason  string
	Participants          []Participant
}

// Participant is one player's contribution to a fight, including
// mobility attribution.
type Participant struct {
	PlayerID               string
	TeamID                 int
	DamageDealt            float64
	Knocks                 int
	Kills                  int
	DamageTaken            float64
	Attacks                int
	TotalMovementDistance  float64
	PositionVariance       float64
	SignificantRelocations int
	MobilityRate           float64
	FightRadius            float64
	Survived               bool
	Knocked                bool
	Killed                 bool
}

type combatEvent struct {
	timestamp    float64
	teams        map[int]struct{}
	position     telemetry.Vector3
	knocks       int
	kills        int
	damage       float64
	knockedIDs   []playerTeam
	killedIDs    []playerTeam
	presentIDs   []playerTeam // every non-NPC character referenced by this event, casualty or not
	attackerDamage map[int]float64 // per-team damage dealt in this event
	attackerPlayerDamage map[string]float64 // per-player damage dealt in this event
	knockDealtBy  *playerTeam // attacker who landed this knock, if any
	killDealtBy   *playerTeam // attacker who landed this kill, if any
	attackDealtBy *playerTeam // attacker of a plain LogPlayerAttack swing/shot
}

type playerTeam struct {
	playerID string
	teamID   int
}

type engagement struct {
	center        telemetry.Vector3
	startTime     float64
	lastEventTime float64
	teams         map[int]struct{}
	totalCasualties int
	totalDamage   float64
	knocks        int
	kills         int
	teamDamage    map[int]float64 // cumulative damage dealt by each team
	knockedPlayers map[string]struct{}
	killedPlayers  map[string]struct{}
	damagedByPlayer map[string]float64 // cumulative damage a player dealt (for resistance check)

	teamKnocks   map[int]int    // cumulative knocks dealt by each team
	teamKills    map[int]int    // cumulative kills dealt by each team
	knocksDealt  map[string]int // cumulative knocks dealt by each player
	killsDealt   map[string]int // cumulative kills dealt by each player
	attacksDealt map[string]int // cumulative LogPlayerAttack events by each player

	participantTeam map[string]int
}

// Reconstruct clusters one match's combat events into fights and
// classifies each, discarding engagements that fail every
// classification rule (an execution rather than a fight).
func Reconstruct(events []telemetry.Event) []Fight {
	combats := extractCombatEvents(events)
	if len(combats) == 0 {
		return nil
	}

	var open []*engagement
	var closed []*engagement

	for _, ce := range combats {
		open = closeExpired(open, &closed, ce.timestamp)

		admitted := false
		for _, eng := range open {
			if canAdmit(eng, ce) {
				extend(eng, ce)
				admitted = true
				break
			}
		}
		if !admitted {
			open = append(open, newEngagement(ce))
		}
	}
	closed = append(closed, open...)

	positions := indexPositions(events)

	var fights []Fight
	for _, eng := range closed {
		outcome, winner, loser, teamOutcomes, reason, classified := classify(eng)
		if !classified {
			continue
		}

		fight := Fight{
			StartTime:            eng.startTime,
			EndTime:               eng.lastEventTime,
			EngagementCenterX:     eng.center.X,
			EngagementCenterY:     eng.center.Y,
			TotalCasualties:       eng.totalCasualties,
			TotalDamage:           eng.totalDamage,
			Outcome:               outcome,
			WinnerTeamID:          winner,
			LoserTeamID:           loser,
			TeamOutcomes:          teamOutcomes,
			ClassificationReason:  reason,
		}
		fight.TeamIDs, fight.Participants, fight.FightRadius = buildParticipants(eng, positions)
		fights = append(fights, fight)
	}
	return fights
}

func newEngagement(ce combatEvent) *engagement {
	eng := &engagement{
		center:          ce.position,
		startTime:       ce.timestamp,
		lastEventTime:   ce.timestamp,
		teams:           map[int]struct{}{},
		teamDamage:      map[int]float64{},
		knockedPlayers:  map[string]struct{}{},
		killedPlayers:   map[string]struct{}{},
		damagedByPlayer: map[string]float64{},
		teamKnocks:      map[int]int{},
		teamKills:       map[int]int{},
		knocksDealt:     map[string]int{},
		killsDealt:      map[string]int{},
		attacksDealt:    map[string]int{},
		participantTeam: map[string]int{},
	}
	extend(eng, ce)
	return eng
}

func canAdmit(eng *engagement, ce combatEvent) bool {
	if ce.timestamp-eng.lastEventTime > EngagementWindowSeconds {
		return false
	}
	if eng.lastEventTime-eng.startTime >= MaxFightDurationSeconds {
		return false
	}
	if distance2D(eng.center, ce.position) > MaxEngagementDistanceMeters {
		return false
	}
	if !teamsOverlap(eng.teams, ce.teams) {
		return false
	}
	return true
}

func extend(eng *engagement, ce combatEvent) {
	eng.lastEventTime = ce.timestamp
	eng.totalCasualties += ce.knocks + ce.kills
	eng.totalDamage += ce.damage
	eng.knocks += ce.knocks
	eng.kills += ce.kills

	for team := range ce.teams {
		eng.teams[team] = struct{}{}
	}
	for team, dmg := range ce.attackerDamage {
		eng.teamDamage[team] += dmg
	}
	for player, dmg := range ce.attackerPlayerDamage {
		eng.damagedByPlayer[player] += dmg
	}
	for _, pt := range ce.knockedIDs {
		eng.knockedPlayers[pt.playerID] = struct{}{}
		eng.participantTeam[pt.playerID] = pt.teamID
	}
	for _, pt := range ce.killedIDs {
		eng.killedPlayers[pt.playerID] = struct{}{}
		eng.participantTeam[pt.playerID] = pt.teamID
	}
	for _, pt := range ce.presentIDs {
		eng.participantTeam[pt.playerID] = pt.teamID
	}

	if pt := ce.knockDealtBy; pt != nil {
		eng.knocksDealt[pt.playerID]++
		eng.teamKnocks[pt.teamID]++
		eng.participantTeam[pt.playerID] = pt.teamID
	}
	if pt := ce.killDealtBy; pt != nil {
		eng.killsDealt[pt.playerID]++
		eng.teamKills[pt.teamID]++
		eng.participantTeam[pt.playerID] = pt.teamID
	}
	if pt := ce.attackDealtBy; pt != nil {
		eng.attacksDealt[pt.playerID]++
		eng.participantTeam[pt.playerID] = pt.teamID
	}
}

func closeExpired(open []*engagement, closed *[]*engagement, now float64) []*engagement {
	var stillOpen []*engagement
	for _, eng := range open {
		expired := now-eng.lastEventTime > EngagementWindowSeconds || eng.lastEventTime-eng.startTime >= MaxFightDurationSeconds
		if expired {
			*closed = append(*closed, eng)
		} else {
			stillOpen = append(stillOpen, eng)
		}
	}
	return stillOpen
}

func teamsOverlap(a, b map[int]struct{}) bool {
	if len(a) == 0 || len(b) == 0 {
		return true // first event into a fresh engagement
	}
	for team := range b {
		if _, ok := a[team]; ok {
			return true
		}
	}
	return false
}

func distance2D(a, b telemetry.Vector3) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
