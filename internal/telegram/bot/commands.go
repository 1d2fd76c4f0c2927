package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/sellershield/intake-backend/internal/telegram/render"
	"go.uber.org/zap"
)

const confirmationCancel = "cancel"

// handleCommand handles bot commands
func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message) {
	command := message.Command()

	ctxzap.Info(ctx, "command received", zap.String("command", command))

	switch command {
	case "start":
		b.handleStartCommand(ctx, message)
	case "help":
		b.sendText(ctx, message.Chat.ID, render.MsgHelp)
	case "cancel":
		b.handleCancelCommand(ctx, message)
	default:
		b.sendText(ctx, message.Chat.ID, render.ErrUnknownCommand)
	}
}

// handleStartCommand shows the welcome message with the start button
func (b *Bot) handleStartCommand(ctx context.Context, message *tgbotapi.Message) {
	if _, err := b.sendMessage(message.Chat.ID, render.MsgWelcome, b.keyboard.StartKeyboard()); err != nil {
		ctxzap.Error(ctx, "failed to send welcome message", zap.Error(err))
	}
}

// handleCancelCommand asks for confirmation before dropping the session
func (b *Bot) handleCancelCommand(ctx context.Context, message *tgbotapi.Message) {
	userID := message.From.ID
	chatID := message.Chat.ID

	sessionID, err := b.stateManager.ActiveSessionID(ctx, userID)
	if err != nil {
		ctxzap.Error(ctx, "failed to get telegram session", zap.Error(err))
		b.sendText(ctx, chatID, render.ErrGeneric)
		return
	}
	if sessionID == "" {
		b.sendText(ctx, chatID, render.MsgNoSession)
		return
	}

	stateData, err := b.stateManager.GetStateData(ctx, userID)
	if err != nil {
		ctxzap.Error(ctx, "failed to get state data", zap.Error(err))
		b.sendText(ctx, chatID, render.ErrGeneric)
		return
	}

	// a second /cancel confirms
	if stateData.PendingConfirmation == confirmationCancel {
		b.performCancellation(ctx, sessionID, userID, chatID)
		return
	}

	stateData.PendingConfirmation = confirmationCancel
	if err := b.stateManager.UpdateStateData(ctx, userID, stateData); err != nil {
		ctxzap.Error(ctx, "failed to update state data", zap.Error(err))
	}

	if _, err := b.sendMessage(chatID, render.MsgConfirmCancel, b.keyboard.ConfirmCancelKeyboard()); err != nil {
		ctxzap.Error(ctx, "failed to send confirmation", zap.Error(err))
	}
}

func (b *Bot) performCancellation(ctx context.Context, sessionID string, userID, chatID int64) {
	b.dropSession(ctx, sessionID)

	if err := b.stateManager.DeleteSession(ctx, userID); err != nil {
		ctxzap.Error(ctx, "failed to delete telegram session", zap.Error(err))
	}

	b.sendText(ctx, chatID, render.MsgSessionFinished)
}

// dropSession stops rendering a session and removes it from the registry
func (b *Bot) dropSession(ctx context.Context, sessionID string) {
	if sessionID == "" {
		return
	}

	b.unwatch(sessionID)

	if err := b.intakeUC.CancelSession(ctx, sessionID); err != nil {
		ctxzap.Debug(ctx, "cancel intake session",
			zap.Error(err),
			zap.String("session_id", sessionID),
		)
	}
}
