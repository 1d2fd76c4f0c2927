package telegram

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sellershield/intake-backend/internal/config"
	"github.com/sellershield/intake-backend/internal/telegram/bot"
	"github.com/sellershield/intake-backend/internal/telegram/state"
	"go.uber.org/zap"
)

// Bot is the main telegram bot interface
type Bot interface {
	Start(ctx context.Context) error
	Stop() error
}

// NewBot authorizes against the Bot API and wires the bot to the intake usecase
func NewBot(
	cfg *config.TelegramConfig,
	storage state.Storage,
	intakeUC bot.IntakeUsecase,
	logger *zap.Logger,
) (Bot, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("TELEGRAM_BOT_TOKEN is required")
	}

	api, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create bot API: %w", err)
	}
	api.Debug = false

	logger.Info("telegram bot authorized",
		zap.String("username", api.Self.UserName),
		zap.Int64("id", api.Self.ID),
	)

	b := bot.New(cfg, api, state.NewManager(storage), intakeUC, logger)

	logger.Info("telegram bot initialized successfully")

	return b, nil
}
