package handlers

import (
	"errors"
	"net/http"

	"articlemaster/internal/domain"
	"articlemaster/internal/middleware"
)

// GetUsage reports the caller's effective plan and how much of the
// current rolling window is spent. Read-only.
func (a *App) GetUsage(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	status, err := a.Plans.UsageStatus(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("handlers: usage lookup failed")
		a.error(w, http.StatusInternalServerError, "Internal error")
		return
	}
	a.json(w, http.StatusOK, status)
}
