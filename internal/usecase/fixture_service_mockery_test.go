package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/riskibarqy/score-predictor/internal/domain/fixture"
	fixturemock "github.com/riskibarqy/score-predictor/internal/mocks/domain/fixture"
	"github.com/stretchr/testify/mock"
)

type staticIDGenerator string

func (g staticIDGenerator) NewID() (string, error) { return string(g), nil }

func TestFixtureService_ListUpcoming_SuccessUsingMockery(t *testing.T) {
	t.Parallel()

	ctx := context.WithValue(context.Background(), "trace_id", "trace-123")
	fixtureRepo := fixturemock.NewRepository(t)
	service := NewFixtureService(fixtureRepo, nil)
	now := time.Date(2026, 8, 1, 9, 0, 0, 0, time.UTC)
	service.now = func() time.Time { return now }

	expected := []fixture.Fixture{
		{
			ID:        "1035042",
			LeagueID:  "spl",
			Gameweek:  1,
			HomeTeam:  "Celtic",
			AwayTeam:  "Rangers",
			KickoffAt: time.Date(2026, 8, 2, 12, 30, 0, 0, time.UTC),
			Status:    fixture.StatusUpcoming,
		},
	}
	fixtureRepo.
		On("ListUpcoming", mock.MatchedBy(func(v context.Context) bool { return v == ctx }), "spl", now, fixture.DefaultUpcomingLimit).
		Return(expected, nil).
		Once()

	got, err := service.ListUpcoming(ctx, " spl ")
	if err != nil {
		t.Fatalf("list upcoming fixtures: %v", err)
	}
	if len(got) != 1 || got[0].ID != expected[0].ID {
		t.Fatalf("unexpected fixtures: %+v", got)
	}
}

func TestFixtureService_Get_NotFoundUsingMockery(t *testing.T) {
	t.Parallel()

	fixtureRepo := fixturemock.NewRepository(t)
	service := NewFixtureService(fixtureRepo, nil)

	fixtureRepo.On("GetByID", mock.Anything, "missing").Return(fixture.Fixture{}, false, nil).Once()

	if _, err := service.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := service.Get(context.Background(), " "); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestFixtureService_Create_GeneratesIDAndDefaultsGameweek(t *testing.T) {
	t.Parallel()

	fixtureRepo := fixturemock.NewRepository(t)
	service := NewFixtureService(fixtureRepo, staticIDGenerator("fx-new"))
	kickoff := time.Date(2026, 8, 9, 15, 0, 0, 0, time.UTC)

	fixtureRepo.On("Upsert", mock.Anything, mock.MatchedBy(func(f fixture.Fixture) bool {
		return f.ID == "fx-new" && f.Gameweek == 1 && f.Status == fixture.StatusUpcoming && f.KickoffAt.Equal(kickoff)
	})).Return(nil).Once()

	got, err := service.Create(context.Background(), CreateFixtureInput{
		LeagueID:  "spl",
		HomeTeam:  "Hearts",
		AwayTeam:  "Hibernian",
		KickoffAt: kickoff,
	})
	if err != nil {
		t.Fatalf("create fixture: %v", err)
	}
	if got.ID != "fx-new" {
		t.Fatalf("unexpected fixture id %q", got.ID)
	}
}

func TestFixtureService_Create_RejectsDuplicateAndInvalid(t *testing.T) {
	t.Parallel()

	fixtureRepo := fixturemock.NewRepository(t)
	service := NewFixtureService(fixtureRepo, nil)
	kickoff := time.Date(2026, 8, 9, 15, 0, 0, 0, time.UTC)

	fixtureRepo.On("GetByID", mock.Anything, "fx-1").Return(fixture.Fixture{ID: "fx-1"}, true, nil).Once()

	_, err := service.Create(context.Background(), CreateFixtureInput{ID: "fx-1", LeagueID: "spl", HomeTeam: "A", AwayTeam: "B", KickoffAt: kickoff})
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict, got %v", err)
	}

	invalid := []CreateFixtureInput{
		{HomeTeam: "A", AwayTeam: "B", KickoffAt: kickoff},
		{LeagueID: "spl", HomeTeam: "A", KickoffAt: kickoff},
		{LeagueID: "spl", HomeTeam: "Celtic", AwayTeam: "celtic", KickoffAt: kickoff},
		{LeagueID: "spl", HomeTeam: "A", AwayTeam: "B"},
		{LeagueID: "spl", HomeTeam: "A", AwayTeam: "B", KickoffAt: kickoff, Gameweek: -2},
	}
	for _, input := range invalid {
		if _, err := service.Create(context.Background(), input); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("expected ErrInvalidInput for %+v, got %v", input, err)
		}
	}
}
