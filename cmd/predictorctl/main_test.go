package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/riskibarqy/score-predictor/internal/domain/leaderboard"
	"github.com/riskibarqy/score-predictor/internal/usecase"
)

func TestPrintLeaderboard(t *testing.T) {
	var buf bytes.Buffer
	err := printLeaderboard(&buf, []leaderboard.Entry{
		{UserID: "u-b", DisplayName: "Bea", TotalPoints: 7, PredictionCount: 2, Rank: 1},
		{UserID: "u-a", TotalPoints: 5, PredictionCount: 3, Rank: 2},
	})
	if err != nil {
		t.Fatalf("print: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 rows, got %q", buf.String())
	}
	if !strings.HasPrefix(lines[1], "1") || !strings.Contains(lines[1], "Bea") {
		t.Fatalf("unexpected first row: %q", lines[1])
	}
	if !strings.Contains(lines[2], "u-a") {
		t.Fatalf("expected user id fallback, got %q", lines[2])
	}
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := printJSON(&buf, usecase.PropagationReport{FixtureID: "fx-1", Total: 3, Updated: 2, Failed: 1}); err != nil {
		t.Fatalf("print: %v", err)
	}
	if !strings.Contains(buf.String(), `"fixture_id": "fx-1"`) {
		t.Fatalf("unexpected output: %s", buf.String())
	}
}

func TestSyncRequiresFeed(t *testing.T) {
	t.Setenv("APP_ENV", "dev")
	t.Setenv("DB_URL", "")
	t.Setenv("API_FOOTBALL_ENABLED", "false")

	cliApp := newApp()
	var out bytes.Buffer
	cliApp.Writer = &out
	if err := cliApp.Run([]string{"predictorctl", "sync"}); err == nil || !strings.Contains(err.Error(), "feed client is disabled") {
		t.Fatalf("expected disabled feed error, got %v", err)
	}
}
