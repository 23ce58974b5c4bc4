// Package httpapi assembles the public HTTP surface.
package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"articlemaster/internal/http/handlers"
	"articlemaster/internal/infra"
	"articlemaster/internal/middleware"
)

// Options carries everything the router wires besides the handlers.
type Options struct {
	JWTSecret      string
	AllowedOrigins []string
	DefaultLocale  string
	CountryLookup  middleware.CountryLookup
	RateLimitRPS   float64
	RateLimitBurst int
	Logger         infra.Logger
}

// NewRouter builds the chi router with the full middleware chain.
// Everything under /v1 except the health check requires a bearer token.
func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(opts.Logger),
		middleware.CORS(opts.AllowedOrigins),
		middleware.I18N(opts.DefaultLocale, opts.CountryLookup),
		middleware.RateLimit(opts.RateLimitRPS, opts.RateLimitBurst),
	)

	r.Get("/v1/healthz", app.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.AuthJWT(opts.JWTSecret))

		r.Route("/v1/articles", func(r chi.Router) {
			r.Post("/generate", app.GenerateArticle)
			r.Get("/", app.ListArticles)
			r.Get("/{id}", app.GetArticle)
		})

		r.Route("/v1/settings/generation-prefs", func(r chi.Router) {
			r.Get("/", app.GetGenerationPrefs)
			r.Put("/", app.UpdateGenerationPrefs)
		})

		r.Get("/v1/usage", app.GetUsage)
	})

	return r
}
