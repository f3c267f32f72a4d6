package httpapi

import (
	"net/http"
	"strings"
)

type routes struct {
	mux      *http.ServeMux
	handler  *Handler
	verifier TokenVerifier
	observer RequestObserver
}

func (r *routes) handle(pattern string, h http.Handler) {
	route := pattern
	if _, path, ok := strings.Cut(pattern, " "); ok {
		route = path
	}
	r.mux.Handle(pattern, observeRoute(r.observer, route, h))
}

func (r *routes) authorized(h http.HandlerFunc) http.Handler {
	return RequireAuth(r.verifier, h)
}

func (r *routes) registerSystemRoutes(swaggerEnabled bool, metrics http.Handler) {
	r.mux.HandleFunc("GET /healthz", r.handler.Healthz)
	if metrics != nil {
		r.mux.Handle("GET /metrics", metrics)
	}
	if !swaggerEnabled {
		return
	}

	r.mux.HandleFunc("GET /openapi.yaml", r.handler.OpenAPI)
	r.mux.HandleFunc("GET /docs", r.handler.SwaggerUI)
}

func (r *routes) registerPublicRoutes() {
	h := r.handler
	r.handle("GET /v1/fixtures/upcoming", http.HandlerFunc(h.ListUpcomingFixtures))
	r.handle("GET /v1/fixtures/{fixtureID}", http.HandlerFunc(h.GetFixture))
	r.handle("GET /v1/fixtures/{fixtureID}/predictions", http.HandlerFunc(h.ListFixturePredictions))
	r.handle("GET /v1/results", http.HandlerFunc(h.ListResults))
	r.handle("GET /v1/results/{fixtureID}", http.HandlerFunc(h.GetResult))
	r.handle("GET /v1/leaderboard", http.HandlerFunc(h.GetLeaderboard))
	r.mux.HandleFunc("GET /v1/leaderboard/stream", h.StreamLeaderboard)
	r.handle("GET /v1/leagues/public", http.HandlerFunc(h.ListPublicLeagues))
}

func (r *routes) registerAuthorizedRoutes() {
	h := r.handler
	r.handle("GET /v1/me", r.authorized(h.GetMe))
	r.handle("POST /v1/predictions", r.authorized(h.SubmitPrediction))
	r.handle("GET /v1/predictions/me", r.authorized(h.ListMyPredictions))
	r.handle("POST /v1/leagues", r.authorized(h.CreateLeague))
	r.handle("POST /v1/leagues/join", r.authorized(h.JoinLeague))
	r.handle("GET /v1/leagues/me", r.authorized(h.ListMyLeagues))
	r.handle("GET /v1/leagues/{leagueID}", r.authorized(h.GetLeague))
}

func (r *routes) registerAdminRoutes(adminUserIDs []string) {
	h := r.handler
	admin := func(next http.HandlerFunc) http.Handler {
		return RequireAuth(r.verifier, RequireAdmin(adminUserIDs, next))
	}
	r.handle("POST /v1/admin/results", admin(h.SubmitResult))
	r.handle("POST /v1/admin/fixtures", admin(h.CreateFixture))
	r.handle("POST /v1/admin/sync", admin(h.RunSync))
}

func (r *routes) registerInternalJobRoutes(internalJobToken string) {
	h := r.handler
	r.handle("POST /v1/internal/jobs/propagate", RequireInternalJobToken(internalJobToken, http.HandlerFunc(h.RunPropagateJob)))
	r.handle("POST /v1/internal/jobs/sync", RequireInternalJobToken(internalJobToken, http.HandlerFunc(h.RunSync)))
}
