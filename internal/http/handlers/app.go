package handlers

import (
	"encoding/json"
	"net/http"

	"articlemaster/internal/domain"
	"articlemaster/internal/infra"
	"articlemaster/internal/pipeline"
	"articlemaster/internal/plans"
	"articlemaster/internal/transcript"
)

// App bundles handler dependencies.
type App struct {
	Articles    domain.ArticleRepository
	Users       domain.UserRepository
	Plans       *plans.Service
	Runner      pipeline.Runner
	Transcripts transcript.Source
	Logger      infra.Logger
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, code int, message string) {
	a.json(w, code, map[string]string{"error": message})
}
