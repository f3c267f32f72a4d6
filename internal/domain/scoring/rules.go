package scoring

const (
	PointsExact   = 5
	PointsOutcome = 2
	PointsMiss    = 0
)

type Outcome string

const (
	OutcomeHomeWin Outcome = "home-win"
	OutcomeAwayWin Outcome = "away-win"
	OutcomeDraw    Outcome = "draw"
)

// ScorePair is a home/away goal count, either predicted or final.
type ScorePair struct {
	Home int
	Away int
}

func Classify(score ScorePair) Outcome {
	switch {
	case score.Home > score.Away:
		return OutcomeHomeWin
	case score.Home < score.Away:
		return OutcomeAwayWin
	default:
		return OutcomeDraw
	}
}

// Score maps a prediction and a final result to points. First matching rule wins.
func Score(predicted, actual ScorePair) int {
	if predicted == actual {
		return PointsExact
	}
	if Classify(predicted) == Classify(actual) {
		return PointsOutcome
	}
	return PointsMiss
}
