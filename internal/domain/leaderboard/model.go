package leaderboard

const DefaultLimit = 100

// Entry is one ranked row. It is derived from predictions on every read and never stored.
type Entry struct {
	UserID          string
	DisplayName     string
	TotalPoints     int
	PredictionCount int
	Rank            int
}
