package leaderboard

import (
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/riskibarqy/score-predictor/internal/domain/prediction"
)

func scored(userID, leagueID string, points int) prediction.Prediction {
	p := points
	return prediction.Prediction{UserID: userID, LeagueID: leagueID, Points: &p}
}

func unscored(userID, leagueID string) prediction.Prediction {
	return prediction.Prediction{UserID: userID, LeagueID: leagueID}
}

func TestAggregate_TieBreakOnPredictionCount(t *testing.T) {
	input := []prediction.Prediction{
		scored("user-a", "global", 5),
		scored("user-a", "global", 2),
		scored("user-b", "global", 5),
		scored("user-b", "global", 2),
		scored("user-b", "global", 0),
		scored("user-c", "global", 5),
	}

	got := Aggregate(input, "", map[string]string{"user-a": "Ally", "user-b": "Bo", "user-c": "Cee"})
	want := []Entry{
		{UserID: "user-b", DisplayName: "Bo", TotalPoints: 7, PredictionCount: 3, Rank: 1},
		{UserID: "user-a", DisplayName: "Ally", TotalPoints: 7, PredictionCount: 2, Rank: 2},
		{UserID: "user-c", DisplayName: "Cee", TotalPoints: 5, PredictionCount: 1, Rank: 3},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected leaderboard (-want +got):\n%s", diff)
	}
}

func TestAggregate_ScopeFilter(t *testing.T) {
	input := []prediction.Prediction{
		scored("user-a", "office", 5),
		scored("user-a", "global", 5),
		scored("user-b", "global", 2),
		scored("user-c", "office", 2),
	}

	office := Aggregate(input, "office", nil)
	if len(office) != 2 {
		t.Fatalf("expected 2 office entries, got %d", len(office))
	}
	if office[0].UserID != "user-a" || office[0].TotalPoints != 5 || office[0].PredictionCount != 1 {
		t.Fatalf("unexpected office leader: %+v", office[0])
	}
	if office[1].UserID != "user-c" {
		t.Fatalf("unexpected office runner-up: %+v", office[1])
	}

	all := Aggregate(input, "", nil)
	if len(all) != 3 {
		t.Fatalf("expected 3 global entries, got %d", len(all))
	}
	if all[0].UserID != "user-a" || all[0].TotalPoints != 10 {
		t.Fatalf("unexpected global leader: %+v", all[0])
	}
}

func TestAggregate_UnscoredAndMalformedRecords(t *testing.T) {
	input := []prediction.Prediction{
		unscored("user-a", "global"),
		unscored("user-a", "global"),
		scored("", "global", 5),
		scored("user-b", "global", 2),
	}

	got := Aggregate(input, "", nil)
	want := []Entry{
		{UserID: "user-b", DisplayName: "User user-b", TotalPoints: 2, PredictionCount: 1, Rank: 1},
		{UserID: "user-a", DisplayName: "User user-a", TotalPoints: 0, PredictionCount: 2, Rank: 2},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("unexpected leaderboard (-want +got):\n%s", diff)
	}
}

func TestAggregate_PositionalRanksOnFullTie(t *testing.T) {
	input := []prediction.Prediction{
		scored("user-z", "global", 2),
		scored("user-y", "global", 2),
	}

	got := Aggregate(input, "", nil)
	if got[0].Rank != 1 || got[1].Rank != 2 {
		t.Fatalf("expected distinct positional ranks, got %d and %d", got[0].Rank, got[1].Rank)
	}
	if got[0].UserID != "user-y" {
		t.Fatalf("expected user id order on full tie, got %s first", got[0].UserID)
	}
}

func TestAggregate_DeterministicAcrossInputOrder(t *testing.T) {
	faker := gofakeit.New(uint64(42))

	input := make([]prediction.Prediction, 0, 300)
	for i := 0; i < 300; i++ {
		userID := faker.Numerify("user-##")
		leagueID := "global"
		if faker.Number(0, 3) == 0 {
			leagueID = "office"
		}
		if faker.Number(0, 4) == 0 {
			input = append(input, unscored(userID, leagueID))
			continue
		}
		input = append(input, scored(userID, leagueID, []int{0, 2, 5}[faker.Number(0, 2)]))
	}

	want := Aggregate(input, "", nil)
	for round := 0; round < 5; round++ {
		shuffled := append([]prediction.Prediction(nil), input...)
		faker.ShuffleAnySlice(shuffled)

		if diff := cmp.Diff(want, Aggregate(shuffled, "", nil)); diff != "" {
			t.Fatalf("aggregation depends on input order (-want +got):\n%s", diff)
		}
	}

	for i := 1; i < len(want); i++ {
		prev, cur := want[i-1], want[i]
		if prev.TotalPoints < cur.TotalPoints {
			t.Fatalf("entries not sorted by points at rank %d", cur.Rank)
		}
		if prev.TotalPoints == cur.TotalPoints && prev.PredictionCount < cur.PredictionCount {
			t.Fatalf("tie not broken by prediction count at rank %d", cur.Rank)
		}
		if cur.Rank != i+1 {
			t.Fatalf("expected rank %d, got %d", i+1, cur.Rank)
		}
	}
}

func TestDisplayName(t *testing.T) {
	if got := DisplayName("abcdefghijkl", ""); got != "User abcdefgh" {
		t.Fatalf("unexpected fallback name: %q", got)
	}
	if got := DisplayName("abc", " Rangers Fan "); got != "Rangers Fan" {
		t.Fatalf("unexpected name: %q", got)
	}
}

func TestTruncate(t *testing.T) {
	entries := []Entry{{UserID: "a"}, {UserID: "b"}, {UserID: "c"}}
	if got := Truncate(entries, 2); len(got) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(got))
	}
	if got := Truncate(entries, 0); len(got) != 3 {
		t.Fatalf("expected all entries, got %d", len(got))
	}
}
