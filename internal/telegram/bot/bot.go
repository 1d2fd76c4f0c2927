package bot

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/sellershield/intake-backend/internal/config"
	"github.com/sellershield/intake-backend/internal/entity"
	"github.com/sellershield/intake-backend/internal/pkg/formatter"
	"github.com/sellershield/intake-backend/internal/telegram/keyboard"
	"github.com/sellershield/intake-backend/internal/telegram/middleware"
	"github.com/sellershield/intake-backend/internal/telegram/render"
	"github.com/sellershield/intake-backend/internal/telegram/state"
	"go.uber.org/zap"
)

// Bot represents the Telegram bot
type Bot struct {
	api          API
	cfg          *config.TelegramConfig
	stateManager *state.Manager
	intakeUC     IntakeUsecase
	questions    map[string]entity.QuestionDTO
	keyboard     *keyboard.Builder
	formatters   *formatter.Factory
	logger       *zap.Logger
	loggingMW    *middleware.LoggingMiddleware
	recoveryMW   *middleware.RecoveryMiddleware
	rateLimitMW  *middleware.RateLimiterMiddleware
	updatesChan  tgbotapi.UpdatesChannel
	baseCtx      context.Context
	stopChan     chan struct{}
	stopOnce     sync.Once
	slots        chan struct{}
	wg           sync.WaitGroup

	screensMu sync.Mutex
	screens   map[string]*screen
}

// New creates a new Telegram bot
func New(
	cfg *config.TelegramConfig,
	api API,
	stateManager *state.Manager,
	intakeUC IntakeUsecase,
	logger *zap.Logger,
) *Bot {
	questions := make(map[string]entity.QuestionDTO)
	for _, q := range intakeUC.Catalog().Questions {
		questions[q.ID] = q
	}

	maxConcurrent := cfg.MaxConcurrentUsers
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	bot := &Bot{
		api:          api,
		cfg:          cfg,
		stateManager: stateManager,
		intakeUC:     intakeUC,
		questions:    questions,
		keyboard:     keyboard.NewBuilder(),
		formatters:   formatter.NewFactory(),
		logger:       logger,
		baseCtx:      ctxzap.ToContext(context.Background(), logger),
		stopChan:     make(chan struct{}),
		slots:        make(chan struct{}, maxConcurrent),
		screens:      make(map[string]*screen),
	}

	// Initialize middleware
	bot.loggingMW = middleware.NewLoggingMiddleware(logger)
	bot.recoveryMW = middleware.NewRecoveryMiddleware(logger, api)
	bot.rateLimitMW = middleware.NewRateLimiterMiddleware(
		cfg.RateLimitPerMinute,
		cfg.RateLimitBurst,
		logger,
		api,
	)

	return bot
}

// Start starts the bot
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("starting telegram bot")

	u := tgbotapi.NewUpdate(0)
	u.Timeout = b.cfg.UpdateTimeout
	b.updatesChan = b.api.GetUpdatesChan(u)

	ctx = ctxzap.ToContext(ctx, b.logger)

	go b.processUpdates(ctx)

	b.logger.Info("telegram bot started successfully")
	return nil
}

// Stop stops the bot gracefully with timeout
func (b *Bot) Stop() error {
	b.logger.Info("stopping telegram bot")

	b.stopOnce.Do(func() {
		close(b.stopChan)
		b.api.StopReceivingUpdates()
		b.rateLimitMW.Close()
	})

	// Wait for all active handlers to complete
	done := make(chan struct{})
	go func() {
		b.wg.Wait()
		close(done)
	}()

	shutdownTimeout := time.Duration(b.cfg.ShutdownTimeout) * time.Second
	select {
	case <-done:
		b.logger.Info("all handlers completed gracefully")
	case <-time.After(shutdownTimeout):
		b.logger.Warn("shutdown timeout exceeded, some handlers may not have completed",
			zap.Duration("timeout", shutdownTimeout),
		)
		return fmt.Errorf("shutdown timeout exceeded")
	}

	b.closeScreens()

	b.logger.Info("telegram bot stopped successfully")
	return nil
}

// processUpdates processes incoming updates
func (b *Bot) processUpdates(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			ctxzap.Info(ctx, "context cancelled, stopping update processing")
			return
		case <-b.stopChan:
			ctxzap.Info(ctx, "stop signal received, stopping update processing")
			return
		case update, ok := <-b.updatesChan:
			if !ok {
				ctxzap.Info(ctx, "updates channel closed")
				return
			}

			// bounded by MaxConcurrentUsers
			select {
			case b.slots <- struct{}{}:
			case <-b.stopChan:
				return
			}

			b.wg.Add(1)
			go func(u tgbotapi.Update) {
				defer func() {
					<-b.slots
					b.wg.Done()
				}()
				b.handleUpdateWithMiddleware(u)
			}(update)
		}
	}
}

// handleUpdateWithMiddleware processes update through middleware chain
func (b *Bot) handleUpdateWithMiddleware(update tgbotapi.Update) {
	b.rateLimitMW.Handle(update, func(u tgbotapi.Update) {
		b.loggingMW.Handle(u, func(u2 tgbotapi.Update) {
			b.recoveryMW.Handle(u2, b.handleUpdate)
		})
	})
}

// handleUpdate routes update to appropriate handler
func (b *Bot) handleUpdate(update tgbotapi.Update) {
	ctx := b.baseCtx

	switch {
	case update.CallbackQuery != nil:
		b.handleCallbackQuery(ctx, update.CallbackQuery)
	case update.Message != nil && update.Message.From != nil:
		b.handleMessage(ctx, update.Message)
	}
}

// handleMessage handles incoming messages
func (b *Bot) handleMessage(ctx context.Context, message *tgbotapi.Message) {
	ctx = ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(
		zap.Int64("user_id", message.From.ID),
		zap.Int64("chat_id", message.Chat.ID),
	))

	if message.IsCommand() {
		b.handleCommand(ctx, message)
		return
	}

	text := strings.TrimSpace(message.Text)
	if text == "" {
		b.sendText(ctx, message.Chat.ID, render.ErrInvalidInput)
		return
	}

	b.handleTextInput(ctx, message.From.ID, message.Chat.ID, text)
}

// sendMessage sends a message to chat
func (b *Bot) sendMessage(chatID int64, text string, replyMarkup any) (tgbotapi.Message, error) {
	msg := tgbotapi.NewMessage(chatID, text)
	if replyMarkup != nil {
		msg.ReplyMarkup = replyMarkup
	}
	return b.api.Send(msg)
}

// sendText sends a plain message and logs delivery failures
func (b *Bot) sendText(ctx context.Context, chatID int64, text string) {
	if _, err := b.sendMessage(chatID, text, nil); err != nil {
		ctxzap.Error(ctx, "failed to send message",
			zap.Error(err),
			zap.Int64("chat_id", chatID),
		)
	}
}

// sendDocument sends a document
func (b *Bot) sendDocument(chatID int64, filename string, data []byte) error {
	doc := tgbotapi.NewDocument(chatID, tgbotapi.FileBytes{
		Name:  filename,
		Bytes: data,
	})

	if _, err := b.api.Send(doc); err != nil {
		return fmt.Errorf("send document: %w", err)
	}

	return nil
}

// answerCallback answers a callback query
func (b *Bot) answerCallback(ctx context.Context, callbackID string, text string) {
	callback := tgbotapi.NewCallback(callbackID, text)
	if _, err := b.api.Request(callback); err != nil {
		ctxzap.Error(ctx, "failed to answer callback",
			zap.Error(err),
			zap.String("callback_id", callbackID),
		)
	}
}
