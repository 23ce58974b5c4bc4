package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"articlemaster/internal/domain"
	"articlemaster/internal/middleware"
	"articlemaster/internal/plans"
	"articlemaster/internal/youtube"
)

const noTranscriptMessage = "No transcript available for this video. The video may not have captions enabled, or the captions may not be accessible."

type generateRequest struct {
	YoutubeURL      string                  `json:"youtubeUrl"`
	GenerationPrefs *domain.GenerationPrefs `json:"generationPrefs"`
}

type quotaResponse struct {
	Error string          `json:"error"`
	Plan  domain.PlanTier `json:"plan"`
	Used  int             `json:"used"`
	Max   int             `json:"max"`
}

// GenerateArticle admits a new generation job: quota check, video ID
// extraction, transcript fetch, then a PENDING record handed to the
// runner. The response returns immediately; clients poll GetArticle.
func (a *App) GenerateArticle(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.YoutubeURL == "" {
		a.error(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if err := validatePrefs(req.GenerationPrefs); err != nil {
		a.error(w, http.StatusBadRequest, err.Error())
		return
	}

	if _, err := a.Plans.EnforceCanGenerate(r.Context(), userID); err != nil {
		var quotaErr *plans.QuotaError
		if errors.As(err, &quotaErr) {
			a.json(w, http.StatusTooManyRequests, quotaResponse{
				Error: quotaErr.Message,
				Plan:  quotaErr.Status.Plan,
				Used:  quotaErr.Status.Used,
				Max:   quotaErr.Status.Max,
			})
			return
		}
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("handlers: admission check failed")
		a.error(w, http.StatusInternalServerError, "Internal error")
		return
	}

	videoID := youtube.ExtractVideoID(req.YoutubeURL)
	if videoID == "" {
		a.error(w, http.StatusBadRequest, "Please paste a valid YouTube URL")
		return
	}

	res, err := a.Transcripts.Fetch(r.Context(), videoID)
	if err != nil {
		a.Logger.Error().Err(err).Str("video_id", videoID).Msg("handlers: transcript fetch failed")
		a.error(w, http.StatusBadRequest, "Failed to fetch subtitles")
		return
	}
	if res.Transcript == "" {
		a.error(w, http.StatusBadRequest, noTranscriptMessage)
		return
	}

	prefs := req.GenerationPrefs
	if prefs.IsZero() {
		prefs = nil
	}
	article := &domain.Article{
		ID:               uuid.NewString(),
		UserID:           userID,
		SourceURL:        req.YoutubeURL,
		VideoID:          videoID,
		VideoTitle:       res.VideoTitle,
		VideoDescription: res.VideoDescription,
		Transcript:       res.Transcript,
		GenerationPrefs:  prefs,
		Status:           domain.ArticleStatusPending,
	}
	if err := a.Articles.Create(r.Context(), article); err != nil {
		a.Logger.Error().Err(err).Msg("handlers: create article failed")
		a.error(w, http.StatusInternalServerError, "Internal error")
		return
	}

	a.Runner.Dispatch(article.ID)

	a.json(w, http.StatusAccepted, map[string]any{"ok": true, "articleId": article.ID})
}

type articleResponse struct {
	ID               string               `json:"id"`
	Status           domain.ArticleStatus `json:"status"`
	SourceURL        string               `json:"sourceUrl"`
	VideoTitle       string               `json:"videoTitle"`
	ErrorMessage     string               `json:"errorMessage,omitempty"`
	DraftMarkdown    string               `json:"draftMarkdown,omitempty"`
	FinalMarkdown    string               `json:"finalMarkdown,omitempty"`
	WordCount        int                  `json:"wordCount"`
	EstimatedCostUSD float64              `json:"estimatedCostUsd"`
	Progress         int                  `json:"progress"`
	CreatedAt        time.Time            `json:"createdAt"`
	UpdatedAt        time.Time            `json:"updatedAt"`
}

// GetArticle is the polling endpoint. It projects job state without the
// transcript or intermediate structured artifacts.
func (a *App) GetArticle(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	id := chi.URLParam(r, "id")
	article, err := a.Articles.GetByID(r.Context(), id)
	if err != nil || article.UserID != userID {
		if err != nil && !errors.Is(err, domain.ErrNotFound) {
			a.Logger.Error().Err(err).Str("article_id", id).Msg("handlers: load article failed")
			a.error(w, http.StatusInternalServerError, "Internal error")
			return
		}
		a.error(w, http.StatusNotFound, "Not found")
		return
	}

	a.json(w, http.StatusOK, map[string]any{"article": articleResponse{
		ID:               article.ID,
		Status:           article.Status,
		SourceURL:        article.SourceURL,
		VideoTitle:       article.VideoTitle,
		ErrorMessage:     article.ErrorMessage,
		DraftMarkdown:    article.DraftMarkdown,
		FinalMarkdown:    article.FinalMarkdown,
		WordCount:        article.WordCount,
		EstimatedCostUSD: article.EstimatedCostUSD,
		Progress:         article.Progress,
		CreatedAt:        article.CreatedAt,
		UpdatedAt:        article.UpdatedAt,
	}})
}

type articleSummary struct {
	ID         string               `json:"id"`
	Status     domain.ArticleStatus `json:"status"`
	VideoTitle string               `json:"videoTitle"`
	WordCount  int                  `json:"wordCount"`
	Progress   int                  `json:"progress"`
	CreatedAt  time.Time            `json:"createdAt"`
}

// ListArticles returns the caller's recent jobs, newest first.
func (a *App) ListArticles(w http.ResponseWriter, r *http.Request) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		a.error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	articles, err := a.Articles.ListByUser(r.Context(), userID, 50)
	if err != nil {
		a.Logger.Error().Err(err).Str("user_id", userID).Msg("handlers: list articles failed")
		a.error(w, http.StatusInternalServerError, "Internal error")
		return
	}

	out := make([]articleSummary, 0, len(articles))
	for _, article := range articles {
		out = append(out, articleSummary{
			ID:         article.ID,
			Status:     article.Status,
			VideoTitle: article.VideoTitle,
			WordCount:  article.WordCount,
			Progress:   article.Progress,
			CreatedAt:  article.CreatedAt,
		})
	}
	a.json(w, http.StatusOK, map[string]any{"articles": out})
}

func validatePrefs(p *domain.GenerationPrefs) error {
	if p == nil {
		return nil
	}
	limits := []struct {
		name  string
		value string
		max   int
	}{
		{"language", p.Language, 10},
		{"tone", p.Tone, 500},
		{"include", p.Include, 2000},
		{"exclude", p.Exclude, 2000},
		{"additionalNotes", p.AdditionalNotes, 4000},
		{"seoKeywords", p.SEOKeywords, 1000},
	}
	for _, l := range limits {
		if len(l.value) > l.max {
			return errors.New("Invalid request: " + l.name + " too long")
		}
	}
	return nil
}
