package httpapi

import "net/http"

// GetMe upserts the caller's profile from the verified principal, then reports their standing.
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMe")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	if _, err := h.userService.EnsureProfile(ctx, principal); err != nil {
		h.logger.WarnContext(ctx, "ensure profile failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}
	profile, err := h.userService.Profile(ctx, principal.UserID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, profileToDTO(profile))
}
