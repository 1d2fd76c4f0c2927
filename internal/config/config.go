package config

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sellershield/intake-backend/internal/entity"
	"github.com/sellershield/intake-backend/internal/intake"
	pkgRetry "github.com/sellershield/intake-backend/internal/pkg/retry"
)

const defaultCatalogPath = "internal/config/question_catalog.json"

// Config holds the application configuration
type Config struct {
	// Server configuration
	ServerAddr     string        `env:"SERVER_ADDR,notEmpty"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"60s"`
	// Empty or "*" allows any origin
	AllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:","`

	// Database configuration. Only the Telegram bot uses it; an empty URL
	// keeps chat state in memory.
	DatabaseURL         string        `env:"DATABASE_URL"`
	DBMaxConns          int           `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns          int           `env:"DB_MIN_CONNS" envDefault:"1"`
	DBMaxConnLifetime   time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxConnIdleTime   time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBHealthCheckPeriod time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`

	DBConnectRetry pkgRetry.RetryConfig `envPrefix:"DB_CONNECT_RETRY_"`

	// Logging configuration
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	FlowCfg     FlowConfig              `envPrefix:"FLOW_"`
	SessionCfg  SessionConfig           `envPrefix:"SESSION_"`
	CallbackCfg CallbackConnectorConfig `envPrefix:"CALLBACK_"`

	// Telegram bot configuration (optional)
	TelegramCfg TelegramConfig `envPrefix:"TELEGRAM_"`

	CatalogPath string `env:"QUESTION_CATALOG_PATH"`

	// Questions loaded from CatalogPath or the built-in default catalog
	Questions []entity.Question

	// Environment (set from flag, not from env var)
	Environment string
}

// FlowConfig holds the intake timing knobs
type FlowConfig struct {
	AutoAdvanceDelay time.Duration `env:"AUTO_ADVANCE_DELAY" envDefault:"300ms"`
	AnalysisDelay    time.Duration `env:"ANALYSIS_DELAY" envDefault:"3s"`
}

// SessionConfig bounds how long an idle intake session is kept
type SessionConfig struct {
	TTL             time.Duration `env:"TTL" envDefault:"30m"`
	CleanupInterval time.Duration `env:"CLEANUP_INTERVAL" envDefault:"5m"`
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken           string        `env:"BOT_TOKEN"`
	UpdateTimeout      int           `env:"UPDATE_TIMEOUT" envDefault:"60"`
	MaxConcurrentUsers int           `env:"MAX_CONCURRENT_USERS" envDefault:"100"`
	RateLimitPerMinute int           `env:"RATE_LIMIT_PER_MINUTE" envDefault:"30"`
	RateLimitBurst     int           `env:"RATE_LIMIT_BURST" envDefault:"5"`
	ShutdownTimeout    int           `env:"SHUTDOWN_TIMEOUT" envDefault:"10"` // seconds
	StateTTL           time.Duration `env:"STATE_TTL" envDefault:"24h"`
}

type CallbackConnectorConfig struct {
	HTTPClientConfig
	Retry pkgRetry.RetryConfig `envPrefix:"RETRY_"`
}

type HTTPClientConfig struct {
	RequestTimeout        time.Duration `env:"TIMEOUT" envDefault:"10s"`
	ConnTimeout           time.Duration `env:"CONN_TIMEOUT" envDefault:"5s"`
	KeepAlive             time.Duration `env:"KEEP_ALIVE" envDefault:"30s"`
	IdleConnTimeout       time.Duration `env:"IDLE_CONN_TIMEOUT" envDefault:"90s"`
	ResponseHeaderTimeout time.Duration `env:"RESPONSE_HEADER_TIMEOUT" envDefault:"10s"`
	Token                 string        `env:"TOKEN"`
	Url                   string        `env:"SERVICE_URL"`
}

// questionCatalog represents the structure of question_catalog.json
type questionCatalog struct {
	Questions []entity.Question `json:"questions"`
}

func LoadConfig() (*Config, error) {
	envFlag := flag.String("env", "local", "Environment to run (local, prod, or custom)")
	flag.Parse()

	envFile := getEnvFile(*envFlag)
	// Missing env files are fine when variables come from the environment.
	if err := godotenv.Load(envFile); err != nil {
		fmt.Printf("Warning: could not load %s file (this is ok if env vars are set externally): %v\n", envFile, err)
	}

	cfg, err := parseEnv()
	if err != nil {
		return nil, err
	}
	cfg.Environment = *envFlag

	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	path := cfg.CatalogPath
	if path == "" {
		path = defaultCatalogPath
	}
	if err := loadQuestionCatalog(cfg, path); err != nil {
		return nil, fmt.Errorf("load question catalog: %w", err)
	}

	return cfg, nil
}

func parseEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	cfg.DBConnectRetry.ApplyDefaults()
	cfg.CallbackCfg.Retry.ApplyDefaults()
	return cfg, nil
}

func validateConfig(cfg *Config) error {
	var errs []string

	if cfg.FlowCfg.AutoAdvanceDelay < 0 {
		errs = append(errs, fmt.Sprintf("FLOW_AUTO_ADVANCE_DELAY must not be negative, got %s", cfg.FlowCfg.AutoAdvanceDelay))
	}

	if cfg.FlowCfg.AnalysisDelay < 0 {
		errs = append(errs, fmt.Sprintf("FLOW_ANALYSIS_DELAY must not be negative, got %s", cfg.FlowCfg.AnalysisDelay))
	}

	if cfg.SessionCfg.TTL <= 0 {
		errs = append(errs, fmt.Sprintf("SESSION_TTL must be positive, got %s", cfg.SessionCfg.TTL))
	}

	if cfg.TelegramCfg.RateLimitPerMinute < 1 || cfg.TelegramCfg.RateLimitPerMinute > 60 {
		errs = append(errs, fmt.Sprintf("TELEGRAM_RATE_LIMIT_PER_MINUTE must be between 1 and 60, got %d", cfg.TelegramCfg.RateLimitPerMinute))
	}

	if cfg.TelegramCfg.RateLimitBurst < 1 || cfg.TelegramCfg.RateLimitBurst > 20 {
		errs = append(errs, fmt.Sprintf("TELEGRAM_RATE_LIMIT_BURST must be between 1 and 20, got %d", cfg.TelegramCfg.RateLimitBurst))
	}

	if cfg.TelegramCfg.ShutdownTimeout < 1 || cfg.TelegramCfg.ShutdownTimeout > 300 {
		errs = append(errs, fmt.Sprintf("TELEGRAM_SHUTDOWN_TIMEOUT must be between 1 and 300 seconds, got %d", cfg.TelegramCfg.ShutdownTimeout))
	}

	if cfg.DBMaxConns < 1 || cfg.DBMaxConns > 200 {
		errs = append(errs, fmt.Sprintf("DB_MAX_CONNS must be between 1 and 200, got %d", cfg.DBMaxConns))
	}

	if cfg.DBMinConns < 0 || cfg.DBMinConns > cfg.DBMaxConns {
		errs = append(errs, fmt.Sprintf("DB_MIN_CONNS must be between 0 and DB_MAX_CONNS(%d), got %d", cfg.DBMaxConns, cfg.DBMinConns))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation errors:\n  - %s", strings.Join(errs, "\n  - "))
	}

	return nil
}

func loadQuestionCatalog(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		fmt.Printf("Warning: question catalog not found at %s, using default questions\n", path)
		cfg.Questions = intake.DefaultQuestions()
		return nil
	}
	if err != nil {
		return fmt.Errorf("read question catalog file: %w", err)
	}

	if len(data) == 0 {
		return fmt.Errorf("question catalog file is empty: %s", path)
	}

	var catalog questionCatalog
	if err := json.Unmarshal(data, &catalog); err != nil {
		return fmt.Errorf("parse question catalog JSON: %w", err)
	}

	// Reject a broken catalog at startup rather than on the first session.
	if _, err := intake.NewCatalog(catalog.Questions); err != nil {
		return fmt.Errorf("invalid question catalog %s: %w", path, err)
	}

	cfg.Questions = catalog.Questions

	fmt.Printf("Loaded %d questions from %s\n", len(cfg.Questions), path)
	return nil
}

func getEnvFile(environment string) string {
	switch environment {
	case "prod", "production":
		return ".env.prod"
	case "local", "dev", "development":
		return ".env.local"
	default:
		return fmt.Sprintf(".env.%s", environment)
	}
}
