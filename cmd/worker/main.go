package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"articlemaster/internal/adapter/repo"
	"articlemaster/internal/domain"
	"articlemaster/internal/infra"
	"articlemaster/internal/pipeline"
	"articlemaster/internal/providers/openrouter"
)

const jobPollInterval = 2 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv, "worker")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := infra.NewDBPool(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: db connection failed")
	}
	defer pool.Close()

	articles := repo.NewArticleRepository(pool)
	users := repo.NewUserRepository(pool)

	llm, err := openrouter.NewClient(openrouter.Options{
		APIKey:  cfg.OpenRouterAPIKey,
		BaseURL: cfg.OpenRouterBaseURL,
		SiteURL: cfg.AppURL,
		AppName: cfg.AppName,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure openrouter client")
	}

	pipe := pipeline.New(articles, users, llm, pipeline.Config{
		ChaptersModel: cfg.ChaptersModel,
		WriterModel:   cfg.WriterModel,
		CriticModel:   cfg.CriticModel,
		JobTimeout:    cfg.JobTimeout,
	}, logger)

	logger.Info().Msg("worker: started")
	if err := run(ctx, articles, pipe, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}

// run claims the oldest PENDING job and executes the pipeline on it, one
// job at a time. Claiming uses row locks, so any number of workers can
// share the queue without double-processing.
func run(ctx context.Context, articles domain.ArticleRepository, pipe *pipeline.Pipeline, logger infra.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		id, err := articles.ClaimNextPending(ctx)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				sleep(ctx, jobPollInterval)
				continue
			}
			if errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			logger.Error().Err(err).Msg("worker: failed to claim job")
			sleep(ctx, jobPollInterval)
			continue
		}

		logger.Info().Str("article_id", id).Msg("worker: picked job")
		if err := pipe.Run(ctx, id); err != nil {
			logger.Error().Err(err).Str("article_id", id).Msg("worker: job ended in failure")
		}
	}
}

func sleep(ctx context.Context, d time.Duration) {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
