package usecase

const (
	// PointsExactScore is awarded when both goal counts match.
	PointsExactScore = 3
	// PointsCorrectOutcome is awarded when only the result category matches.
	PointsCorrectOutcome = 1
	// PointsNoMatch is awarded otherwise.
	PointsNoMatch = 0
)

type matchOutcome int

const (
	outcomeHomeWin matchOutcome = iota
	outcomeDraw
	outcomeAwayWin
)

func outcomeOf(homeGoals, awayGoals int) matchOutcome {
	switch {
	case homeGoals > awayGoals:
		return outcomeHomeWin
	case homeGoals < awayGoals:
		return outcomeAwayWin
	default:
		return outcomeDraw
	}
}

// PredictionPoints scores a predicted scoreline against the final one. The
// function is pure; settlement owns all persistence.
func PredictionPoints(predictedHome, predictedAway, actualHome, actualAway int) int {
	if predictedHome == actualHome && predictedAway == actualAway {
		return PointsExactScore
	}
	if outcomeOf(predictedHome, predictedAway) == outcomeOf(actualHome, actualAway) {
		return PointsCorrectOutcome
	}
	return PointsNoMatch
}
