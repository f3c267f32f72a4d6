package memory

import (
	"time"

	"github.com/riskibarqy/score-predictor/internal/domain/fixture"
)

const LeagueTypeScottishPremiership = "spl"

// SeedFixtures returns a handful of upcoming matches so a database-less run has something to predict.
func SeedFixtures(now time.Time) []fixture.Fixture {
	base := now.UTC().Truncate(24 * time.Hour).Add(72 * time.Hour).Add(15 * time.Hour)
	pairs := [][2]string{
		{"Celtic", "Rangers"},
		{"Aberdeen", "Hearts"},
		{"Hibernian", "Motherwell"},
		{"Kilmarnock", "St Mirren"},
		{"Dundee United", "Ross County"},
		{"St Johnstone", "Dundee"},
	}

	out := make([]fixture.Fixture, 0, len(pairs))
	for i, pair := range pairs {
		out = append(out, fixture.Fixture{
			ID:        "seed-" + string(rune('a'+i)),
			LeagueID:  LeagueTypeScottishPremiership,
			Gameweek:  1,
			HomeTeam:  pair[0],
			AwayTeam:  pair[1],
			KickoffAt: base.Add(time.Duration(i/2) * 24 * time.Hour),
			Status:    fixture.StatusUpcoming,
			UpdatedAt: now.UTC(),
		})
	}
	return out
}
