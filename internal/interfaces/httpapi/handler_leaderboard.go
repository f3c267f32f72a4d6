package httpapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/riskibarqy/score-predictor/internal/domain/leaderboard"
	"github.com/riskibarqy/score-predictor/internal/domain/prediction"
	"github.com/riskibarqy/score-predictor/internal/usecase"
)

func leaderboardScope(r *http.Request) string {
	scope := strings.TrimSpace(r.URL.Query().Get("league_id"))
	if scope == "" {
		return prediction.GlobalLeagueID
	}
	return scope
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetLeaderboard", attrScope.String(leaderboardScope(r)))
	defer span.End()

	limit, err := queryInt(r, "limit", leaderboard.DefaultLimit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	scope := leaderboardScope(r)
	entries, err := h.leaderboardService.Leaderboard(ctx, scope, limit)
	if err != nil {
		h.logger.WarnContext(ctx, "get leaderboard failed", "league_id", scope, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, leaderboardToDTO(entries))
}

// StreamLeaderboard serves server-sent events: one "leaderboard" event with the
// current standings, then another whenever they may have changed.
func (h *Handler) StreamLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(ctx, w, fmt.Errorf("%w: streaming is not supported", usecase.ErrDependencyUnavailable))
		return
	}

	scope := leaderboardScope(r)
	updates := make(chan []leaderboard.Entry, 1)
	unsubscribe, err := h.leaderboardService.Subscribe(ctx, scope, func(entries []leaderboard.Entry) {
		// keep only the newest snapshot when the client is slow
		select {
		case <-updates:
		default:
		}
		select {
		case updates <- entries:
		default:
		}
	})
	if err != nil {
		writeError(ctx, w, err)
		return
	}
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	heartbeat := time.NewTicker(h.heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-heartbeat.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case entries := <-updates:
			payload, err := sonic.Marshal(leaderboardToDTO(entries))
			if err != nil {
				h.logger.ErrorContext(ctx, "encode leaderboard event failed", "league_id", scope, "error", err)
				return
			}
			if _, err := fmt.Fprintf(w, "event: leaderboard\ndata: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
