package main

import (
	"database/sql"
	"os"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"articlemaster/internal/infra"
)

// The migrator needs only the database; it deliberately skips the full
// config load so it can run before the rest of the environment is set up.
func main() {
	_ = godotenv.Load()

	appEnv := os.Getenv("APP_ENV")
	if appEnv == "" {
		appEnv = "development"
	}
	logger := infra.NewLogger(appEnv, "migrate")

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		logger.Fatal().Msg("migrate: DATABASE_URL is required")
	}

	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("migrate: open database failed")
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		logger.Fatal().Err(err).Msg("migrate: set dialect failed")
	}
	if err := goose.Up(db, "migrations"); err != nil {
		logger.Fatal().Err(err).Msg("migrate: apply migrations failed")
	}
	logger.Info().Msg("migrate: done")
}
