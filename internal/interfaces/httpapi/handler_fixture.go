package httpapi

import (
	"net/http"
	"strings"

	"github.com/riskibarqy/score-predictor/internal/usecase"
)

func (h *Handler) ListUpcomingFixtures(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListUpcomingFixtures")
	defer span.End()

	leagueType := strings.TrimSpace(r.URL.Query().Get("league_type"))
	items, err := h.fixtureService.ListUpcoming(ctx, leagueType)
	if err != nil {
		h.logger.WarnContext(ctx, "list upcoming fixtures failed", "league_type", leagueType, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fixturesToDTO(items))
}

func (h *Handler) GetFixture(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetFixture", attrFixtureID.String(r.PathValue("fixtureID")))
	defer span.End()

	fixtureID := r.PathValue("fixtureID")
	item, err := h.fixtureService.Get(ctx, fixtureID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, fixtureToDTO(item))
}

func (h *Handler) ListFixturePredictions(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListFixturePredictions", attrFixtureID.String(r.PathValue("fixtureID")))
	defer span.End()

	fixtureID := r.PathValue("fixtureID")
	items, err := h.predictionService.ListByFixture(ctx, fixtureID)
	if err != nil {
		h.logger.WarnContext(ctx, "list fixture predictions failed", "fixture_id", fixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, predictionsToDTO(items))
}

func (h *Handler) CreateFixture(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateFixture")
	defer span.End()

	var req createFixtureRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	item, err := h.fixtureService.Create(ctx, usecase.CreateFixtureInput{
		ID:        req.ID,
		LeagueID:  req.LeagueType,
		Gameweek:  req.Gameweek,
		HomeTeam:  req.HomeTeam,
		AwayTeam:  req.AwayTeam,
		KickoffAt: req.KickoffAt,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create fixture failed", "fixture_id", req.ID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, fixtureToDTO(item))
}
