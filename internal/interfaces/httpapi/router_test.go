package httpapi

import (
	"bufio"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/score-predictor/internal/domain/fixture"
	"github.com/riskibarqy/score-predictor/internal/domain/user"
	"github.com/riskibarqy/score-predictor/internal/infrastructure/notify"
	"github.com/riskibarqy/score-predictor/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/score-predictor/internal/platform/logging"
	"github.com/riskibarqy/score-predictor/internal/usecase"
)

type staticVerifier map[string]user.Principal

func (v staticVerifier) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	principal, ok := v[token]
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: unknown token", usecase.ErrUnauthorized)
	}
	return principal, nil
}

type routerFixture struct {
	router http.Handler
	bus    *notify.Bus
}

func newRouterFixture(t *testing.T, cfg RouterConfig) *routerFixture {
	t.Helper()

	logger := logging.NewNop()
	kickoff := time.Now().Add(2 * time.Hour).UTC().Truncate(time.Second)
	fixtures := memory.NewFixtureRepository([]fixture.Fixture{
		{ID: "fx-1", LeagueID: "spl", Gameweek: 3, HomeTeam: "Celtic", AwayTeam: "Rangers", KickoffAt: kickoff, Status: fixture.StatusUpcoming},
	})
	predictions := memory.NewPredictionRepository()
	results := memory.NewResultRepository()
	leagues := memory.NewLeagueRepository(nil)
	users := memory.NewUserRepository()
	bus := notify.NewBus(64, logger)
	t.Cleanup(func() { _ = bus.Close() })

	propagation := usecase.NewPropagationService(predictions, bus, nil, 2, logger)
	handler := NewHandler(Services{
		Fixtures:    usecase.NewFixtureService(fixtures, nil),
		Predictions: usecase.NewPredictionService(fixtures, predictions, results, leagues, bus, logger),
		Results:     usecase.NewResultService(fixtures, results, propagation, nil, nil, logger),
		Leaderboard: usecase.NewLeaderboardService(predictions, users, bus, logger),
		Leagues:     usecase.NewLeagueService(leagues, nil),
		Users:       usecase.NewUserService(users, predictions),
	}, logger)

	verifier := staticVerifier{
		"player-token": {UserID: "user-1", Name: "Ally"},
		"admin-token":  {UserID: "admin-1", Name: "Root"},
	}
	if cfg.AdminUserIDs == nil {
		cfg.AdminUserIDs = []string{"admin-1"}
	}
	if cfg.InternalJobToken == "" {
		cfg.InternalJobToken = "job-secret"
	}
	return &routerFixture{router: NewRouter(handler, verifier, cfg, logger), bus: bus}
}

func (f *routerFixture) do(t *testing.T, method, path, token, body string) (*httptest.ResponseRecorder, googleResponseEnvelope) {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)

	var envelope googleResponseEnvelope
	if rec.Body.Len() > 0 {
		if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
			t.Fatalf("decode %s %s response: %v (%s)", method, path, err, rec.Body.String())
		}
	}
	return rec, envelope
}

func TestRouter_PredictThenScore(t *testing.T) {
	f := newRouterFixture(t, RouterConfig{})

	rec, _ := f.do(t, http.MethodPost, "/v1/predictions", "player-token", `{"fixture_id":"fx-1","home_score":2,"away_score":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit prediction: status %d body %s", rec.Code, rec.Body.String())
	}

	rec, _ = f.do(t, http.MethodPost, "/v1/admin/results", "admin-token", `{"fixture_id":"fx-1","home_score":2,"away_score":1}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("submit result: status %d body %s", rec.Code, rec.Body.String())
	}

	rec, envelope := f.do(t, http.MethodGet, "/v1/leaderboard?league_id=global", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("leaderboard: status %d", rec.Code)
	}
	rows, _ := envelope.Data.([]any)
	if len(rows) != 1 {
		t.Fatalf("expected one leaderboard row, got %v", envelope.Data)
	}
	row, _ := rows[0].(map[string]any)
	if row["user_id"] != "user-1" || row["total_points"] != float64(5) {
		t.Fatalf("unexpected leaderboard row: %v", row)
	}

	rec, _ = f.do(t, http.MethodPost, "/v1/predictions", "player-token", `{"fixture_id":"fx-1","home_score":0,"away_score":0}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected locked prediction to be rejected with 409, got %d", rec.Code)
	}
}

func TestRouter_RequestValidation(t *testing.T) {
	f := newRouterFixture(t, RouterConfig{})

	cases := []struct {
		body string
		want int
	}{
		{`{"fixture_id":"fx-1","home_score":2}`, http.StatusBadRequest},
		{`{"fixture_id":"fx-1","home_score":-1,"away_score":0}`, http.StatusBadRequest},
		{`{"fixture_id":"fx-1","home_score":1,"away_score":0,"extra":true}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
		{`{"fixture_id":"missing","home_score":1,"away_score":0}`, http.StatusNotFound},
	}
	for _, tc := range cases {
		rec, _ := f.do(t, http.MethodPost, "/v1/predictions", "player-token", tc.body)
		if rec.Code != tc.want {
			t.Fatalf("body %s: expected %d, got %d (%s)", tc.body, tc.want, rec.Code, rec.Body.String())
		}
	}
}

func TestRouter_AccessControl(t *testing.T) {
	f := newRouterFixture(t, RouterConfig{})

	if rec, _ := f.do(t, http.MethodGet, "/v1/me", "", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}
	if rec, _ := f.do(t, http.MethodGet, "/v1/me", "bogus", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with unknown token, got %d", rec.Code)
	}
	if rec, _ := f.do(t, http.MethodPost, "/v1/admin/sync", "player-token", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for non-admin, got %d", rec.Code)
	}
	if rec, _ := f.do(t, http.MethodPost, "/v1/admin/sync", "admin-token", ""); rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a feed, got %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/propagate", strings.NewReader(`{"fixture_id":"fx-1"}`))
	req.Header.Set("X-Internal-Job-Token", "wrong")
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad job token, got %d", rec.Code)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/internal/jobs/propagate", strings.NewReader(`{"fixture_id":"fx-1"}`))
	req.Header.Set("X-Internal-Job-Token", "job-secret")
	rec = httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 propagating a fixture without result, got %d", rec.Code)
	}
}

func TestRouter_MeAndLeagues(t *testing.T) {
	f := newRouterFixture(t, RouterConfig{})

	rec, envelope := f.do(t, http.MethodGet, "/v1/me", "player-token", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status %d", rec.Code)
	}
	if me, _ := envelope.Data.(map[string]any); me["display_name"] != "Ally" {
		t.Fatalf("unexpected profile: %v", envelope.Data)
	}

	rec, envelope = f.do(t, http.MethodPost, "/v1/leagues", "admin-token", `{"name":"Office"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create league: status %d body %s", rec.Code, rec.Body.String())
	}
	created, _ := envelope.Data.(map[string]any)
	leagueID, _ := created["id"].(string)
	code, _ := created["invite_code"].(string)

	if rec, _ := f.do(t, http.MethodGet, "/v1/leagues/"+leagueID, "player-token", ""); rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for a private league, got %d", rec.Code)
	}
	if rec, _ := f.do(t, http.MethodPost, "/v1/leagues/join", "player-token", `{"invite_code":"`+code+`"}`); rec.Code != http.StatusOK {
		t.Fatalf("join league: status %d body %s", rec.Code, rec.Body.String())
	}
	rec, envelope = f.do(t, http.MethodGet, "/v1/leagues/me", "player-token", "")
	if rows, _ := envelope.Data.([]any); rec.Code != http.StatusOK || len(rows) != 2 {
		t.Fatalf("expected global plus one league, got %v", envelope.Data)
	}
}

func TestRouter_RateLimit(t *testing.T) {
	f := newRouterFixture(t, RouterConfig{RateLimitPerMinute: 1, RateLimitBurst: 2})

	for i, want := range []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests} {
		req := httptest.NewRequest(http.MethodGet, "/v1/fixtures/upcoming", nil)
		req.RemoteAddr = "203.0.113.7:4040"
		rec := httptest.NewRecorder()
		f.router.ServeHTTP(rec, req)
		if rec.Code != want {
			t.Fatalf("request %d: expected %d, got %d", i, want, rec.Code)
		}
	}
}

func TestRouter_LeaderboardStream(t *testing.T) {
	f := newRouterFixture(t, RouterConfig{})
	server := httptest.NewServer(f.router)
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, server.URL+"/v1/leaderboard/stream", nil)
	resp, err := server.Client().Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("unexpected content type %q", ct)
	}

	reader := bufio.NewReader(resp.Body)
	if first := readEventData(t, reader); first != "[]" {
		t.Fatalf("expected empty initial snapshot, got %s", first)
	}

	if rec, _ := f.do(t, http.MethodPost, "/v1/predictions", "player-token", `{"fixture_id":"fx-1","home_score":1,"away_score":0}`); rec.Code != http.StatusOK {
		t.Fatalf("submit prediction: status %d", rec.Code)
	}
	if next := readEventData(t, reader); !strings.Contains(next, `"user_id":"user-1"`) {
		t.Fatalf("expected the new predictor in the pushed snapshot, got %s", next)
	}
}

func readEventData(t *testing.T, reader *bufio.Reader) string {
	t.Helper()
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read event stream: %v", err)
		}
		if data, ok := strings.CutPrefix(strings.TrimSpace(line), "data: "); ok {
			return data
		}
	}
}
