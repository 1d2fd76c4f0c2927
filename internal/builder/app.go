package builder

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sellershield/intake-backend/internal/telegram"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

// intakeShutdowner closes live intake sessions and waits for pending callbacks
type intakeShutdowner interface {
	Shutdown(ctx context.Context) error
}

// App represents the application with all its components
type App struct {
	server *http.Server
	intake intakeShutdowner
	logger *zap.Logger
}

// Run starts the application and all its daemons
func (a *App) Run() error {
	// Start HTTP server in goroutine
	errChan := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or server error
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		a.logger.Error("Server error", zap.Error(err))
		return err
	case sig := <-sigChan:
		a.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	}

	// Graceful shutdown
	return a.shutdown()
}

// shutdown gracefully shuts down the application
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	a.logger.Info("Shutting down server gracefully")

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("Server shutdown error", zap.Error(err))
		return err
	}

	a.logger.Info("Closing intake sessions")
	if err := a.intake.Shutdown(ctx); err != nil {
		a.logger.Warn("Intake shutdown incomplete", zap.Error(err))
	}

	a.logger.Info("Application stopped gracefully")
	_ = a.logger.Sync()
	return nil
}

// TelegramApp is the chat front-end process: the bot, the intake sessions it
// drives and a small HTTP server for probes and metrics
type TelegramApp struct {
	bot    telegram.Bot
	intake intakeShutdowner
	server *http.Server
	db     *pgxpool.Pool
	logger *zap.Logger
}

// Logger returns the process logger
func (a *TelegramApp) Logger() *zap.Logger {
	return a.logger
}

// Start starts the bot and the probe server
func (a *TelegramApp) Start(ctx context.Context) error {
	go func() {
		a.logger.Info("Starting probe server", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("Probe server error", zap.Error(err))
		}
	}()

	return a.bot.Start(ctx)
}

// Stop stops the bot, closes live sessions and releases the database
func (a *TelegramApp) Stop() error {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	botErr := a.bot.Stop()

	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Warn("Probe server shutdown error", zap.Error(err))
	}

	if err := a.intake.Shutdown(ctx); err != nil {
		a.logger.Warn("Intake shutdown incomplete", zap.Error(err))
	}

	if a.db != nil {
		a.logger.Info("Closing database connections")
		a.db.Close()
	}

	_ = a.logger.Sync()
	return botErr
}
