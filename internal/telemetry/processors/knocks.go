package processors

import (
	"fmt"
	"math"

	"github.com/TeamPew/pewstats-collectors/internal/store"
	"github.com/TeamPew/pewstats-collectors/internal/telemetry"
)

// teammateSnapshotWindowSeconds is the ±5s window spec §4.9 defines
// for "victim support": the closest-in-time position sample used to
// measure teammate distances at the moment of a knock.
const teammateSnapshotWindowSeconds = 5.0

// Knocks produces one row per knock event including the victim-support
// teammate-proximity snapshot.
func Knocks(matchID string, events []telemetry.Event, _ telemetry.MatchMeta) ([]store.KnockEventRow, error) {
	positions := indexPositionsByPlayer(events)

	var rows []store.KnockEventRow
	for i, e := range events {
		if e.Type != telemetry.EventPlayerMakeGroggy || e.Knock == nil {
			continue
		}
		k := e.Knock
		if k.Victim.IsNPC() {
			continue
		}

		var attackerID *string
		if k.Attacker != nil && !k.Attacker.IsNPC() {
			id := k.Attacker.AccountID
			attackerID = &id
		}

		snapshot := teammateProximity(positions, k.Victim, e.Timestamp)

		rows = append(rows, store.KnockEventRow{
			MatchID:              matchID,
			EventID:               fmt.Sprintf("%s:%d:knock", matchID, i),
			Timestamp:             e.Timestamp,
			AttackerID:            attackerID,
			VictimID:              k.Victim.AccountID,
			Weapon:                k.Weapon,
			Distance:              k.Distance,
			NearestTeammateDist:   snapshot.nearest,
			AvgTeammateDist:       snapshot.average,
			TeammatesWithin50m:    snapshot.within50,
			TeammatesWithin100m:   snapshot.within100,
			TeammatesWithin200m:   snapshot.within200,
			TeammateDistVariance:  snapshot.variance,
			TeammatesAlive:        snapshot.aliveCount,
		})
	}
	return rows, nil
}

type positionSample struct {
	timestamp float64
	location  telemetry.Vector3
	teamID    int
}

// indexPositionsByPlayer groups position samples (from dedicated
// position events, parachute landings, both characters on damage
// events, and knock victims) by account id.
func indexPositionsByPlayer(events []telemetry.Event) map[string][]positionSample {
	byPlayer := make(map[string][]positionSample)

	add := func(c telemetry.Character, ts float64) {
		if c.IsNPC() || c.AccountID == "" {
			return
		}
		byPlayer[c.AccountID] = append(byPlayer[c.AccountID], positionSample{timestamp: ts, location: c.Location, teamID: c.TeamID})
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
			}
		}
	}
	return byPlayer
}

// closestSample finds the sample within the snapshot window nearest
// to targetTime.
func closestSample(samples []positionSample, targetTime float64) (positionSample, bool) {
	var best positionSample
	found := false
	bestDelta := math.MaxFloat64

	for _, s := range samples {
		delta := math.Abs(s.timestamp - targetTime)
		if delta > teammateSnapshotWindowSeconds {
			continue
		}
		if delta < bestDelta {
			bestDelta = delta
			best = s
			found = true
		}
	}
	return best, found
}

type teammateSnapshot struct {
	nearest    *float64
	average    *float64
	variance   *float64
	within50   int
	within100  int
	within200  int
	aliveCount int
}

func teammateProximity(positions map[string][]positionSample, victim telemetry.Character, knockTime float64) teammateSnapshot {
	victimSample, ok := closestSample(positions[victim.AccountID], knockTime)
	if !ok {
		victimSample = positionSample{location: victim.Location}
	}

	var distances []float64
	for playerID, samples := range positions {
		if playerID == victim.AccountID {
			continue
		}
		sample, ok := closestSample(samples, knockTime)
		if !ok {
			continue
		}
		if sample.teamID != victim.TeamID {
			continue
		}
		distances = append(distances, distance3D(victimSample.location, sample.location))
	}

	snapshot := teammateSnapshot{aliveCount: len(distances)}
	if len(distances) == 0 {
		return snapshot
	}

	sum := 0.0
	min := math.MaxFloat64
	for _, d := range distances {
		sum += d
		if d < min {
			min = d
		}
		switch {
		case d <= 50:
			snapshot.within50++
			snapshot.within100++
			snapshot.within200++
		case d <= 100:
			snapshot.within100++
			snapshot.within200++
		case d <= 200:
			snapshot.within200++
		}
	}
	avg := sum / float64(len(distances))

	varianceSum := 0.0
	for _, d := range distances {
		varianceSum += (d - avg) * (d - avg)
	}
	variance := varianceSum / float64(len(distances))

	snapshot.nearest = &min
	snapshot.average = &avg
	snapshot.variance = &variance
	return snapshot
}

func distance3D(a, b telemetry.Vector3) float64 {
	dx, dy, dz := a.X-b.X, a.Y-b.Y, a.Z-b.Z
	return math.Sqrt(dx*dx + dy*dy + dz*dz)
}
