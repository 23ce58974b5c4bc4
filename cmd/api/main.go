package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"articlemaster/internal/adapter/repo"
	"articlemaster/internal/http/handlers"
	"articlemaster/internal/http/httpapi"
	"articlemaster/internal/infra"
	"articlemaster/internal/infra/geoip"
	"articlemaster/internal/middleware"
	"articlemaster/internal/pipeline"
	"articlemaster/internal/plans"
	"articlemaster/internal/providers/openrouter"
	"articlemaster/internal/transcript"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "api")

	ctx := context.Background()
	dbpool, err := infra.NewDBPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect database")
	}
	defer dbpool.Close()

	articles := repo.NewArticleRepository(dbpool)
	users := repo.NewUserRepository(dbpool)
	planSvc := plans.NewService(users, articles)

	llm, err := openrouter.NewClient(openrouter.Options{
		APIKey:  cfg.OpenRouterAPIKey,
		BaseURL: cfg.OpenRouterBaseURL,
		SiteURL: cfg.AppURL,
		AppName: cfg.AppName,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure openrouter client")
	}

	pipe := pipeline.New(articles, users, llm, pipeline.Config{
		ChaptersModel: cfg.ChaptersModel,
		WriterModel:   cfg.WriterModel,
		CriticModel:   cfg.CriticModel,
		JobTimeout:    cfg.JobTimeout,
	}, logger)

	// In worker mode accepted jobs stay PENDING until a worker process
	// claims them.
	var runner pipeline.Runner = pipeline.NoopRunner{}
	if cfg.DispatchMode == infra.DispatchInline {
		runner = pipeline.NewGoRunner(pipe, logger)
	}

	transcripts, err := transcript.NewHTTPSource(transcript.Options{BaseURL: cfg.CaptionExtractorURL})
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to configure caption extractor client")
	}

	var countryLookup middleware.CountryLookup
	resolver, err := geoip.NewResolver(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn().Err(err).Msg("geoip database unavailable, continuing without it")
	} else if resolver != nil {
		countryLookup = resolver.CountryCode
	}

	app := &handlers.App{
		Articles:    articles,
		Users:       users,
		Plans:       planSvc,
		Runner:      runner,
		Transcripts: transcripts,
		Logger:      logger,
	}

	router := httpapi.NewRouter(app, httpapi.Options{
		JWTSecret:      cfg.JWTSecret,
		AllowedOrigins: []string{cfg.AppURL},
		DefaultLocale:  cfg.DefaultLocale,
		CountryLookup:  countryLookup,
		RateLimitRPS:   cfg.RateLimitRPS,
		RateLimitBurst: cfg.RateLimitBurst,
		Logger:         logger,
	})

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Str("port", cfg.Port).Str("dispatch_mode", cfg.DispatchMode).Msg("api listening")
		if err := server.Start(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
