package httpapi

import (
	"net/http"

	"github.com/riskibarqy/score-predictor/internal/usecase"
)

func (h *Handler) ListResults(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListResults")
	defer span.End()

	items, err := h.resultService.ListResults(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "list results failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	out := make([]resultDTO, 0, len(items))
	for _, item := range items {
		out = append(out, resultToDTO(item))
	}
	writeSuccess(ctx, w, http.StatusOK, out)
}

func (h *Handler) GetResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetResult", attrFixtureID.String(r.PathValue("fixtureID")))
	defer span.End()

	item, err := h.resultService.GetResult(ctx, r.PathValue("fixtureID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, resultToDTO(item))
}

// SubmitResult records a final score and returns the propagation report.
func (h *Handler) SubmitResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SubmitResult")
	defer span.End()

	var req submitResultRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	span.SetAttributes(attrFixtureID.String(req.FixtureID))

	report, err := h.resultService.SubmitResult(ctx, usecase.SubmitResultInput{
		FixtureID: req.FixtureID,
		HomeScore: *req.HomeScore,
		AwayScore: *req.AwayScore,
		Overwrite: req.Overwrite,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "submit result failed", "fixture_id", req.FixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}
