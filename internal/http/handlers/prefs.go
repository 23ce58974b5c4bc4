package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"articlemaster/internal/domain"
	"articlemaster/internal/middleware"
)

const premiumFeatureMessage = "Premium feature: customizable generation preferences."

// premiumPrefsRequest deliberately has no language cap bypass: it reuses
// the same field limits as per-job preferences.
type premiumPrefsRequest struct {
	Language        string `json:"language,omitempty"`
	Tone            string `json:"tone,omitempty"`
	Include         string `json:"include,omitempty"`
	Exclude         string `json:"exclude,omitempty"`
	AdditionalNotes string `json:"additionalNotes,omitempty"`
	SEOKeywords     string `json:"seoKeywords,omitempty"`
}

func (a *App) requirePremium(w http.ResponseWriter, r *http.Request) (string, bool) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized")
		return "", false
	}
	status, err := a.Plans.UsageStatus(r.Context(), userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusUnauthorized, "unauthorized")
			return "", false
		}
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("handlers: plan lookup failed")
		a.error(w, http.StatusInternalServerError, "Internal error")
		return "", false
	}
	if status.Plan != domain.PlanPremium {
		a.error(w, http.StatusForbidden, premiumFeatureMessage)
		return "", false
	}
	return userID, true
}

// GetGenerationPrefs returns the account's persistent preferences. The
// effective plan is recomputed on every call, so an expired subscription
// loses access immediately.
func (a *App) GetGenerationPrefs(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requirePremium(w, r)
	if !ok {
		return
	}
	user, err := a.Users.GetByID(r.Context(), userID)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("handlers: load user failed")
		a.error(w, http.StatusInternalServerError, "Internal error")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"ok": true, "prefs": user.PremiumGenerationPrefs})
}

// UpdateGenerationPrefs replaces the account's persistent preferences.
func (a *App) UpdateGenerationPrefs(w http.ResponseWriter, r *http.Request) {
	userID, ok := a.requirePremium(w, r)
	if !ok {
		return
	}

	var req premiumPrefsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "Invalid request")
		return
	}
	prefs := &domain.GenerationPrefs{
		Language:        req.Language,
		Tone:            req.Tone,
		Include:         req.Include,
		Exclude:         req.Exclude,
		AdditionalNotes: req.AdditionalNotes,
		SEOKeywords:     req.SEOKeywords,
	}
	if err := validatePrefs(prefs); err != nil {
		a.error(w, http.StatusBadRequest, err.Error())
		return
	}
	if prefs.IsZero() {
		prefs = nil
	}

	if err := a.Users.UpdateGenerationPrefs(r.Context(), userID, prefs); err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("handlers: update prefs failed")
		a.error(w, http.StatusInternalServerError, "Internal error")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"ok": true, "prefs": prefs})
}
