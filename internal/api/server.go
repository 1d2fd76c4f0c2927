package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/sellershield/intake-backend/internal/api/docs"
	"github.com/sellershield/intake-backend/internal/api/middleware"
	sessionapi "github.com/sellershield/intake-backend/internal/api/session"
	"go.uber.org/zap"
)

// RouterConfig carries the optional pieces of the router
type RouterConfig struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	// Metrics is mounted at /metrics when set
	Metrics http.Handler
}

// SetupRouter creates and configures the HTTP router
func SetupRouter(sessionHandler *sessionapi.Handler, cfg RouterConfig, logger *zap.Logger) http.Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(chimiddleware.Timeout(cfg.RequestTimeout))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"healthy"}`))
	})

	if cfg.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", cfg.Metrics)
	}

	docs.RegisterRoutes(r)
	sessionapi.RegisterRoutes(r, sessionHandler)

	return r
}
