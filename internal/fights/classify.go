package fights

// classify applies the priority-ordered rules of spec §4.10 and, for
// qualifying engagements, the outcome logic. classified is false when
// none of the rules match — the caller discards the engagement as an
// execution, not a fight.
func classify(eng *engagement) (outcome string, winner, loser *int, teamOutcomes map[int]string, reason string, classified bool) {
	if !passesAnyRule(eng, &reason) {
		return "", nil, nil, nil, "", false
	}

	teams := sanitizedTeams(eng)
	if len(teams) < 2 {
		return "", nil, nil, nil, "", false
	}

	if len(teams) == 2 {
		outcome, winner, loser, teamOutcomes = classifyTwoTeam(eng, teams)
		return outcome, winner, loser, teamOutcomes, reason, true
	}

	outcome, winner, loser, teamOutcomes = classifyMultiTeam(eng, teams)
	return outcome, winner, loser, teamOutcomes, reason, true
}

// passesAnyRule evaluates the four priority rules, first match wins,
// and records the reason string.
func passesAnyRule(eng *engagement, reason *string) bool {
	if eng.knocks+eng.kills >= 2 {
		*reason = "always-fight: 2+ knocks or kills"
		return true
	}

	if eng.kills == 1 && eng.knocks == 0 {
		if singleInstantKillHasResistance(eng) {
			*reason = "single instant kill with resistance"
			return true
		}
		return false // execution
	}

	if eng.totalDamage >= 150 && everyTeamContributesShare(eng, 0.20) {
		*reason = "sustained reciprocal damage >= 150 HP, every team >= 20%"
		return true
	}

	if eng.knocks == 1 && eng.kills == 0 && everyTeamDealtAtLeast(eng, 75) {
		*reason = "single knock with return fire"
		return true
	}

	return false
}

// singleInstantKillHasResistance checks the team-size-imbalance
// thresholds: 75 HP when outnumbered 4v1-or-worse, 50 HP at 4v2, 25 HP
// when even.
func singleInstantKillHasResistance(eng *engagement) bool {
	teamSizes := approximateTeamSizes(eng)
	if len(teamSizes) < 2 {
		return false
	}

	victimDamage := 0.0
	for player, dmg := range eng.damagedByPlayer {
		if _, wasKnockedOrKilled := eng.killedPlayers[player]; wasKnockedOrKilled {
			victimDamage += dmg
		}
	}

	maxSize, minSize := 0, 1<<30
	for _, size := range teamSizes {
		if size > maxSize {
			maxSize = size
		}
		if size < minSize {
			minSize = size
		}
	}

	threshold := 25.0
	switch {
	case minSize > 0 && maxSize/minSize >= 4 && maxSize >= 4:
		threshold = 75.0
	case maxSize == 4 && minSize == 2:
		threshold = 50.0
	}

	return victimDamage >= threshold
}

func everyTeamContributesShare(eng *engagement, minShare float64) bool {
	if eng.totalDamage <= 0 {
		return false
	}
	for _, dmg := range eng.teamDamage {
		if dmg/eng.totalDamage < minShare {
			return false
		}
	}
	return len(eng.teamDamage) >= 2
}

func everyTeamDealtAtLeast(eng *engagement, minDamage float64) bool {
	if len(eng.teamDamage) < 2 {
		return false
	}
	for _, dmg := range eng.teamDamage {
		if dmg < minDamage {
			return false
		}
	}
	return true
}

// approximateTeamSizes estimates each involved team's size from the
// distinct players seen contributing damage or being knocked/killed —
// a proxy for roster size since the engine does not carry the full
// match roster.
func approximateTeamSizes(eng *engagement) map[int]int {
	seen := map[int]map[string]struct{}{}
	note := func(team int, player string) {
		if seen[team] == nil {
			seen[team] = map[string]struct{}{}
		}
		seen[team][player] = struct{}{}
	}
	for player, team := range eng.participantTeam {
		note(team, player)
	}

	sizes := map[int]int{}
	for team, players := range seen {
		sizes[team] = len(players)
	}
	return sizes
}

// sanitizedTeams recomputes the team list from non-NPC participants
// actually present (attackers, victims and knocked or killed players
// seen in the engagement's events), per spec §4.10's team-list
// sanitation — never inflated by the raw union of damage-event teams.
func sanitizedTeams(eng *engagement) []int {
	present := map[int]struct{}{}
	for _, team := range eng.participantTeam {
		present[team] = struct{}{}
	}
	teams := make([]int, 0, len(present))
	for team := range present {
		teams = append(teams, team)
	}
	return teams
}

func classifyTwoTeam(eng *engagement, teams []int) (string, *int, *int, map[int]string) {
	teamA, teamB := teams[0], teams[1]
	deathsA, deathsB := countDeaths(eng, teamA), countDeaths(eng, teamB)
	teamSizes := approximateTeamSizes(eng)

	teamOutcomes := map[int]string{}

	wipedA := teamSizes[teamA] > 0 && deathsA >= teamSizes[teamA]
	wipedB := teamSizes[teamB] > 0 && deathsB >= teamSizes[teamB]

	switch {
	case wipedA && !wipedB:
		teamOutcomes[teamA] = "LOST"
		teamOutcomes[teamB] = "WON"
		return OutcomeDecisiveWin, &teamB, &teamA, teamOutcomes
	case wipedB && !wipedA:
		teamOutcomes[teamA] = "WON"
		teamOutcomes[teamB] = "LOST"
		return OutcomeDecisiveWin, &teamA, &teamB, teamOutcomes
	}

	diff := deathsA - deathsB
	if diff < 0 {
		diff = -diff
	}
	totalDeaths := deathsA + deathsB

	switch {
	case diff >= 2:
		winner, loser := &teamB, &teamA
		if deathsA < deathsB {
			winner, loser = &teamA, &teamB
		}
		teamOutcomes[*winner] = "WON"
		teamOutcomes[*loser] = "LOST"
		return OutcomeDecisiveWin, winner, loser, teamOutcomes
	case diff == 1 && totalDeaths >= 2:
		winner, loser := &teamB, &teamA
		if deathsA < deathsB {
			winner, loser = &teamA, &teamB
		}
		teamOutcomes[*winner] = "WON"
		teamOutcomes[*loser] = "LOST"
		return OutcomeMarginalWin, winner, loser, teamOutcomes
	default:
		teamOutcomes[teamA] = "DRAW"
		teamOutcomes[teamB] = "DRAW"
		return OutcomeDraw, nil, nil, teamOutcomes
	}
}

func classifyMultiTeam(eng *engagement, teams []int) (string, *int, *int, map[int]string) {
	teamOutcomes := map[int]string{}

	var loserTeam *int
	maxDeaths := -1
	for _, team := range teams {
		deaths := countDeaths(eng, team)
		if deaths > maxDeaths {
			maxDeaths = deaths
			t := team
			loserTeam = &t
		}
	}

	var winnerTeam *int
	bestKills, bestKnocks, bestDamage := -1, -1, -1.0
	for _, team := range teams {
		kills := countKills(eng, team)
		knocks := countKnocks(eng, team)
		damage := eng.teamDamage[team]
		if kills > bestKills ||
			(kills == bestKills && knocks > bestKnocks) ||
			(kills == bestKills && knocks == bestKnocks && damage > bestDamage) {
			bestKills, bestKnocks, bestDamage = kills, knocks, damage
			t := team
			winnerTeam = &t
		}
	}

	for _, team := range teams {
		switch {
		case loserTeam != nil && team == *loserTeam:
			teamOutcomes[team] = "LOST"
		case winnerTeam != nil && team == *winnerTeam:
			teamOutcomes[team] = "WON"
		default:
			teamOutcomes[team] = "DRAW"
		}
	}

	return OutcomeThirdParty, winnerTeam, loserTeam, teamOutcomes
}

func countDeaths(eng *engagement, team int) int {
	count := 0
	for player := range eng.killedPlayers {
		if eng.participantTeam[player] == team {
			count++
		}
	}
	return count
}

func countKills(eng *engagement, team int) int {
	return eng.teamKills[team]
}

func countKnocks(eng *engagement, team int) int {
	return eng.teamKnocks[team]
}
