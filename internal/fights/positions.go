package fights

import (
	"math"

	"github.com/TeamPew/pewstats-collectors/internal/telemetry"
)

type positionSample struct {
	timestamp float64
	location  telemetry.Vector3
}

// indexPositions groups position samples (from dedicated position
// events, parachute landings, and the characters on damage, knock and
// kill events) by account id. internal/telemetry/processors keeps its
// own, narrower index for the victim-support snapshot (it leaves out
// knock attackers and kill events); this one is scoped to the package
// since fights needs movement history rather than a single
// nearest-sample lookup.
func indexPositions(events []telemetry.Event) map[string][]positionSample {
	byPlayer := make(map[string][]positionSample)

	add := func(c telemetry.Character, ts float64) {
		if c.IsNPC() || c.AccountID == "" {
			return
		}
		byPlayer[c.AccountID] = append(byPlayer[c.AccountID], positionSample{timestamp: ts, location: c.Location})
	}

	for _, e := range events {
		switch e.Type {
		case telemetry.EventPlayerPosition:
			if e.Position != nil {
				add(e.Position.Player, e.Timestamp)
			}
		case telemetry.EventParachuteLanding:
			if e.Landing != nil {
				add(e.Landing.Player, e.Timestamp)
			}
		case telemetry.EventPlayerTakeDamage:
			if e.Damage != nil {
				add(e.Damage.Victim, e.Timestamp)
				if e.Damage.Attacker != nil {
					add(*e.Damage.Attacker, e.Timestamp)
				}
			}
		case telemetry.EventPlayerMakeGroggy:
			if e.Knock != nil {
				add(e.Knock.Victim, e.Timestamp)
				if e.Knock.Attacker != nil {
					add(*e.Knock.Attacker, e.Timestamp)
				}
			}
		case telemetry.EventPlayerKillV2:
			if e.Kill != nil {
				add(e.Kill.Victim, e.Timestamp)
				if e.Kill.Killer != nil {
					add(*e.Kill.Killer, e.Timestamp)
				}
			}
		}
	}
	return byPlayer
}

// samplesInWindow returns a player's samples falling within
// [start, end], ordered by timestamp (input order is already
// chronological since events are decoded in stream order).
func samplesInWindow(samples []positionSample, start, end float64) []positionSample {
	var out []positionSample
	for _, s := range samples {
		if s.timestamp >= start && s.timestamp <= end {
			out = append(out, s)
		}
	}
	return out
}

// significantRelocationMeters is the step distance above which a
// position change counts as a relocation rather than positional noise.
const significantRelocationMeters = 25.0

// buildParticipants sanitizes the engagement's team list down to the
// teams of the non-NPC players present in the engagement (attackers,
// victims, knocked and killed players), and attributes mobility
// metrics to each from their position samples within the fight window.
func buildParticipants(eng *engagement, positions map[string][]positionSample) ([]int, []Participant, float64) {
	teams := sanitizedTeams(eng)

	players := make(map[string]int) // playerID -> teamID
	for playerID, teamID := range eng.participantTeam {
		players[playerID] = teamID
	}

	var participants []Participant
	maxRadius := 0.0

	for playerID, teamID := range players {
		samples := samplesInWindow(positions[playerID], eng.startTime, eng.lastEventTime)

		movement, stddev, relocations, radius := mobilityAttribution(eng.center, samples)
		duration := eng.lastEventTime - eng.startTime
		mobilityRate := 0.0
		if duration > 0 {
			mobilityRate = movement / duration
		}
		if radius > maxRadius {
			maxRadius = radius
		}

		_, knocked := eng.knockedPlayers[playerID]
		_, killed := eng.killedPlayers[playerID]

		participants = append(participants, Participant{
			PlayerID:               playerID,
			TeamID:                 teamID,
			DamageTaken:            0, // attributed from fact-table joins downstream, not tracked per-victim here
			DamageDealt:            eng.damagedByPlayer[playerID],
			Knocks:                 eng.knocksDealt[playerID],
			Kills:                  eng.killsDealt[playerID],
			Attacks:                eng.attacksDealt[playerID],
			TotalMovementDistance:  movement,
			PositionVariance:       stddev,
			SignificantRelocations: relocations,
			MobilityRate:           mobilityRate,
			FightRadius:            radius,
			Survived:               !knocked && !killed,
			Knocked:                knocked,
			Killed:                 killed,
		})
	}

	return teams, participants, maxRadius
}

// mobilityAttribution computes total 3D step distance traveled (spec
// §3: "sum of 3D step distances between consecutive samples"),
// standard deviation of distance-from-center, count of steps exceeding
// the significant relocation threshold, and the max distance from the
// engagement center (the participant's own fight radius).
func mobilityAttribution(center telemetry.Vector3, samples []positionSample) (movement, stddev float64, relocations int, radius float64) {
	if len(samples) == 0 {
		return 0, 0, 0, 0
	}

	distances := make([]float64, 0, len(samples))
	for _, s := range samples {
		d := distance3D(center, s.location)
		distances = append(distances, d)
		if d > radius {
			radius = d
		}
	}

	for i := 1; i < len(samples); i++ {
		step := distance3D(samples[i-1].location, samples[i].location)
		movement += step
		if step > significantRelocationMeters {
			relocations++
		}
	}

	sum := 0.0
	for _, d := range distances {
		sum += d
	}
	mean := sum / float64(len(distances))

	varSum := 0.0
	for _, d := range distances {
		varSum += (d - mean) * (d - mean)
	}
	stddev = math.Sqrt(varSum / float64(len(distances)))

	return movement, stddev, relocations, radius
}

// distance3D is the full 3D step distance the spec's mobility metrics
// are defined over, distinct from engine.go's distance2D which is used
// only for ground-plane engagement clustering.
func distance3D(a, b telemetry.Vector3) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
