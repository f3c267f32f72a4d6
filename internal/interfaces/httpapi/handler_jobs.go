package httpapi

import (
	"fmt"
	"net/http"

	"github.com/riskibarqy/score-predictor/internal/usecase"
)

// RunPropagateJob is the QStash callback for a propagation retry.
func (h *Handler) RunPropagateJob(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunPropagateJob")
	defer span.End()

	var req propagateJobRequest
	if err := decodeJSON(w, r, &req, false); err != nil {
		writeError(ctx, w, err)
		return
	}
	if err := h.validateRequest(ctx, req); err != nil {
		writeError(ctx, w, err)
		return
	}

	span.SetAttributes(attrFixtureID.String(req.FixtureID))

	report, err := h.resultService.RepropagateFixture(ctx, req.FixtureID)
	if err != nil {
		h.logger.WarnContext(ctx, "propagate job failed", "fixture_id", req.FixtureID, "error", err)
		writeError(ctx, w, err)
		return
	}
	if report.Failed > 0 {
		// a 5xx makes QStash deliver the job again
		h.logger.WarnContext(ctx, "propagate job left failed writes", "fixture_id", req.FixtureID, "failed", report.Failed)
		writeError(ctx, w, fmt.Errorf("%w: %d prediction writes failed", usecase.ErrDependencyUnavailable, report.Failed))
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}

// RunSync serves both the admin trigger and the internal job callback.
func (h *Handler) RunSync(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RunSync")
	defer span.End()

	if h.syncService == nil {
		writeError(ctx, w, fmt.Errorf("%w: football feed is not configured", usecase.ErrDependencyUnavailable))
		return
	}

	report, err := h.syncService.SyncAll(ctx)
	if err != nil {
		h.logger.WarnContext(ctx, "sync run failed", "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, report)
}
