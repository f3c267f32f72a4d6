package leaderboard

import (
	"sort"
	"strings"

	"github.com/riskibarqy/score-predictor/internal/domain/prediction"
)

// Aggregate groups predictions by user and ranks them by total points, then by
// prediction count. Ranks are positional: full ties still get distinct ranks,
// ordered by user id so the output is stable for a given input.
//
// An empty scope aggregates every scoring group. names maps user ids to display
// names; users missing from it are labelled with DisplayName.
func Aggregate(predictions []prediction.Prediction, scope string, names map[string]string) []Entry {
	scope = strings.TrimSpace(scope)

	byUser := make(map[string]*Entry)
	order := make([]string, 0)
	for _, item := range predictions {
		if scope != "" && item.LeagueID != scope {
			continue
		}
		userID := strings.TrimSpace(item.UserID)
		if userID == "" {
			continue
		}

		entry, ok := byUser[userID]
		if !ok {
			entry = &Entry{UserID: userID}
			byUser[userID] = entry
			order = append(order, userID)
		}
		entry.TotalPoints += item.PointsOrZero()
		entry.PredictionCount++
	}

	out := make([]Entry, 0, len(order))
	for _, userID := range order {
		entry := *byUser[userID]
		entry.DisplayName = DisplayName(userID, names[userID])
		out = append(out, entry)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].TotalPoints != out[j].TotalPoints {
			return out[i].TotalPoints > out[j].TotalPoints
		}
		if out[i].PredictionCount != out[j].PredictionCount {
			return out[i].PredictionCount > out[j].PredictionCount
		}
		return out[i].UserID < out[j].UserID
	})

	for i := range out {
		out[i].Rank = i + 1
	}

	return out
}

// DisplayName returns name, or "User " plus the first eight characters of the id.
func DisplayName(userID, name string) string {
	if name = strings.TrimSpace(name); name != "" {
		return name
	}
	short := userID
	if len(short) > 8 {
		short = short[:8]
	}
	return "User " + short
}

// Truncate keeps the first limit entries. A non-positive limit keeps everything.
func Truncate(entries []Entry, limit int) []Entry {
	if limit <= 0 || len(entries) <= limit {
		return entries
	}
	return entries[:limit]
}

// FindUser returns the entry for userID, if ranked.
func FindUser(entries []Entry, userID string) (Entry, bool) {
	for _, entry := range entries {
		if entry.UserID == userID {
			return entry, true
		}
	}
	return Entry{}, false
}
