package builder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sellershield/intake-backend/internal/api"
	sessionapi "github.com/sellershield/intake-backend/internal/api/session"
	"github.com/sellershield/intake-backend/internal/config"
	"github.com/sellershield/intake-backend/internal/integration/callback"
	"github.com/sellershield/intake-backend/internal/intake"
	"github.com/sellershield/intake-backend/internal/metrics"
	"github.com/sellershield/intake-backend/internal/pkg/validator"
	"github.com/sellershield/intake-backend/internal/repository"
	"github.com/sellershield/intake-backend/internal/telegram"
	"github.com/sellershield/intake-backend/internal/telegram/state"
	"github.com/sellershield/intake-backend/internal/usecase/session"
	"go.uber.org/zap"
)

func Build() (*App, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building application",
		zap.String("environment", cfg.Environment),
		zap.String("server_addr", cfg.ServerAddr),
	)

	catalog, err := intake.NewCatalog(cfg.Questions)
	if err != nil {
		return nil, fmt.Errorf("build question catalog: %w", err)
	}
	logger.Info("Question catalog loaded", zap.Int("questions", catalog.Len()))

	recorder := metrics.NewRecorder()

	// Initialize connectors
	callbackConnector := callback.NewConnector(cfg.CallbackCfg, logger)

	// Initialize use cases
	intakeUC := newIntakeUsecase(cfg, catalog, callbackConnector, recorder, logger)
	logger.Info("Use cases initialized")

	// Setup API handlers
	sessionHandler := sessionapi.NewHandler(intakeUC, validator.NewValidator())

	// Setup router
	router := api.SetupRouter(sessionHandler, api.RouterConfig{
		AllowedOrigins: cfg.AllowedOrigins,
		RequestTimeout: cfg.RequestTimeout,
		Metrics:        recorder.Handler(),
	}, logger)
	logger.Info("HTTP router configured")

	// Create HTTP server
	server := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("Application built successfully",
		zap.String("environment", cfg.Environment),
	)

	return &App{
		server: server,
		intake: intakeUC,
		logger: logger,
	}, nil
}

// BuildTelegramBot creates and initializes the Telegram bot
func BuildTelegramBot() (*TelegramApp, error) {
	ctx := context.Background()

	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := setupLogger(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("setup logger: %w", err)
	}

	logger.Info("Building Telegram bot",
		zap.String("environment", cfg.Environment),
	)

	catalog, err := intake.NewCatalog(cfg.Questions)
	if err != nil {
		return nil, fmt.Errorf("build question catalog: %w", err)
	}

	app := &TelegramApp{logger: logger}

	var storage state.Storage
	if cfg.DatabaseURL != "" {
		db, err := setupDatabase(ctx, cfg, logger)
		if err != nil {
			return nil, fmt.Errorf("setup database: %w", err)
		}
		app.db = db

		logger.Info("Running database migrations")
		if err := repository.RunMigrations(cfg.DatabaseURL); err != nil {
			db.Close()
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		logger.Info("Database migrations completed successfully")

		repo := repository.NewTelegramStateRepository(db, cfg.TelegramCfg.StateTTL)
		if n, err := repo.PurgeExpired(ctx); err != nil {
			logger.Warn("Failed to purge expired telegram sessions", zap.Error(err))
		} else {
			logger.Info("Expired telegram sessions purged", zap.Int64("count", n))
		}
		storage = repo
	} else {
		logger.Info("DATABASE_URL not set, keeping telegram state in memory")
		storage = state.NewMemoryStorage(cfg.TelegramCfg.StateTTL)
	}

	recorder := metrics.NewRecorder()

	// Chat sessions never carry a callback URL
	intakeUC := newIntakeUsecase(cfg, catalog, nil, recorder, logger)
	app.intake = intakeUC

	bot, err := telegram.NewBot(&cfg.TelegramCfg, storage, intakeUC, logger)
	if err != nil {
		if app.db != nil {
			app.db.Close()
		}
		return nil, fmt.Errorf("initialize telegram bot: %w", err)
	}
	app.bot = bot

	app.server = &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      probeRouter(recorder.Handler()),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logger.Info("Telegram bot built successfully",
		zap.String("environment", cfg.Environment),
	)

	return app, nil
}

func newIntakeUsecase(
	cfg *config.Config,
	catalog *intake.Catalog,
	callbackConnector session.CallbackConnector,
	recorder session.MetricsRecorder,
	logger *zap.Logger,
) *session.IntakeUsecase {
	return session.NewUsecase(
		catalog,
		session.Config{
			Timings: intake.Timings{
				AutoAdvanceDelay: cfg.FlowCfg.AutoAdvanceDelay,
				AnalysisDelay:    cfg.FlowCfg.AnalysisDelay,
			},
			SessionTTL:      cfg.SessionCfg.TTL,
			CleanupInterval: cfg.SessionCfg.CleanupInterval,
		},
		callbackConnector,
		recorder,
		logger,
	)
}

// probeRouter serves health and metrics for the bot process
func probeRouter(metricsHandler http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	return r
}
