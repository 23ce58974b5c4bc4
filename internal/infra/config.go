package infra

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"articlemaster/internal/pipeline"
)

// Dispatch modes for accepted generation jobs.
const (
	DispatchInline = "inline" // run in-process right after admission
	DispatchWorker = "worker" // leave PENDING for a worker binary to claim
)

// Config represents application configuration loaded from environment variables.
type Config struct {
	AppEnv      string
	Port        string
	DatabaseURL string
	JWTSecret   string

	OpenRouterAPIKey  string
	OpenRouterBaseURL string
	AppURL            string
	AppName           string

	ChaptersModel string
	WriterModel   string
	CriticModel   string

	CaptionExtractorURL string

	DispatchMode string
	JobTimeout   time.Duration

	GeoIPDBPath   string
	DefaultLocale string

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
	RateLimitRPS     float64
	RateLimitBurst   int
}

// LoadConfig loads configuration from environment variables and applies defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:      getEnv("APP_ENV", "development"),
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: os.Getenv("DATABASE_URL"),
		JWTSecret:   os.Getenv("JWT_SECRET"),

		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterBaseURL: getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		AppURL:            getEnv("APP_URL", "http://localhost:8080"),
		AppName:           getEnv("APP_NAME", "ArticleMaster"),

		ChaptersModel: getEnv("OPENROUTER_MODEL_CHAPTERS", pipeline.DefaultChaptersModel),
		WriterModel:   getEnv("OPENROUTER_MODEL_WRITER", pipeline.DefaultWriterModel),
		CriticModel:   getEnv("OPENROUTER_MODEL_CRITIC", pipeline.DefaultCriticModel),

		CaptionExtractorURL: getEnv("CAPTION_EXTRACTOR_URL", "http://localhost:8000"),

		DispatchMode: getEnv("DISPATCH_MODE", DispatchInline),
		JobTimeout:   time.Second * time.Duration(getEnvInt("JOB_TIMEOUT_SECONDS", 0)),

		GeoIPDBPath:   os.Getenv("GEOIP_DB_PATH"),
		DefaultLocale: getEnv("DEFAULT_LOCALE", "en"),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
		RateLimitRPS:     getEnvFloat("RATE_LIMIT_RPS", 5),
		RateLimitBurst:   getEnvInt("RATE_LIMIT_BURST", 10),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	if cfg.OpenRouterAPIKey == "" {
		return nil, fmt.Errorf("OPENROUTER_API_KEY is required")
	}

	if cfg.DispatchMode != DispatchInline && cfg.DispatchMode != DispatchWorker {
		return nil, fmt.Errorf("DISPATCH_MODE must be %q or %q, got %q", DispatchInline, DispatchWorker, cfg.DispatchMode)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
