package bot

import (
	"context"
	"errors"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/sellershield/intake-backend/internal/entity"
	"github.com/sellershield/intake-backend/internal/telegram/keyboard"
	"github.com/sellershield/intake-backend/internal/telegram/render"
	"go.uber.org/zap"
)

var errUnknownCallback = errors.New("unknown callback")

// handleCallbackQuery handles callback button clicks
func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	if query.Message == nil {
		b.answerCallback(ctx, query.ID, "")
		return
	}

	userID := query.From.ID
	chatID := query.Message.Chat.ID
	ctx = ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(
		zap.Int64("user_id", userID),
		zap.Int64("chat_id", chatID),
	))

	cb, err := keyboard.ParseCallback(query.Data)
	if err != nil {
		ctxzap.Warn(ctx, "invalid callback data",
			zap.Error(err),
			zap.String("data", query.Data),
		)
		b.answerCallback(ctx, query.ID, render.ErrInvalidCallback)
		return
	}

	ctxzap.Info(ctx, "callback query received",
		zap.String("action", cb.Action),
		zap.String("value", cb.Value),
	)

	if cb.Action == keyboard.ActionControl && cb.Value == keyboard.ControlStart {
		b.answerCallback(ctx, query.ID, "")
		b.startSession(ctx, userID, chatID)
		return
	}

	sessionID, err := b.stateManager.ActiveSessionID(ctx, userID)
	if err != nil {
		ctxzap.Error(ctx, "failed to get telegram session", zap.Error(err))
		b.answerCallback(ctx, query.ID, render.ErrGeneric)
		return
	}
	if sessionID == "" {
		b.answerCallback(ctx, query.ID, render.MsgNoSession)
		return
	}
	ctx = ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(zap.String("session_id", sessionID)))

	if cb.Action == keyboard.ActionConfirm {
		b.answerCallback(ctx, query.ID, "")
		b.handleConfirm(ctx, cb.Value, sessionID, userID, chatID)
		return
	}

	if cb.Action == keyboard.ActionDownload {
		b.answerCallback(ctx, query.ID, render.MsgPreparingFile)
		if err := b.sendReport(ctx, sessionID, chatID, entity.ResultFormat(cb.Value)); err != nil {
			ctxzap.Error(ctx, "failed to send report", zap.Error(err))
			b.sendText(ctx, chatID, render.ClassifyError(err))
		}
		return
	}

	b.watch(ctx, sessionID)

	if err := b.applyAction(ctx, sessionID, cb); err != nil {
		ctxzap.Info(ctx, "callback action rejected", zap.Error(err))
		if errors.Is(err, entity.ErrSessionNotFound) {
			b.unwatch(sessionID)
		}
		b.answerCallback(ctx, query.ID, render.ClassifyError(err))
		return
	}

	b.answerCallback(ctx, query.ID, "")
}

// applyAction runs a flow action; the resulting screen is rendered by the session watcher
func (b *Bot) applyAction(ctx context.Context, sessionID string, cb *keyboard.CallbackData) error {
	var err error

	switch {
	case cb.Action == keyboard.ActionAnswer:
		var questionID, option string
		questionID, option, err = b.resolveOption(cb.Value)
		if err != nil {
			return err
		}
		_, err = b.intakeUC.SubmitAnswer(ctx, sessionID, questionID, entity.Answer{Value: option})
	case cb.Action == keyboard.ActionNav && cb.Value == keyboard.NavBack:
		_, err = b.intakeUC.Retreat(ctx, sessionID)
	case cb.Action == keyboard.ActionNav && cb.Value == keyboard.NavNext:
		_, err = b.intakeUC.Advance(ctx, sessionID)
	case cb.Action == keyboard.ActionControl && cb.Value == keyboard.ControlRestart:
		_, err = b.intakeUC.Restart(ctx, sessionID)
	default:
		err = fmt.Errorf("%w: %s:%s", errUnknownCallback, cb.Action, cb.Value)
	}

	return err
}

// resolveOption maps an answer button back to the option text
func (b *Bot) resolveOption(value string) (string, string, error) {
	questionID, index, err := keyboard.ParseAnswerValue(value)
	if err != nil {
		return "", "", fmt.Errorf("%w: %w", entity.ErrInvalidOption, err)
	}

	q, ok := b.questions[questionID]
	if !ok {
		return "", "", fmt.Errorf("%w: %s", entity.ErrUnknownQuestion, questionID)
	}
	if index >= len(q.Options) {
		return "", "", fmt.Errorf("%w: option %d of %s", entity.ErrInvalidOption, index, questionID)
	}

	return questionID, q.Options[index], nil
}

func (b *Bot) handleConfirm(ctx context.Context, value, sessionID string, userID, chatID int64) {
	if value == keyboard.ConfirmCancel {
		b.performCancellation(ctx, sessionID, userID, chatID)
		return
	}

	stateData, err := b.stateManager.GetStateData(ctx, userID)
	if err != nil {
		ctxzap.Error(ctx, "failed to get state data", zap.Error(err))
		return
	}
	stateData.PendingConfirmation = ""
	if err := b.stateManager.UpdateStateData(ctx, userID, stateData); err != nil {
		ctxzap.Error(ctx, "failed to update state data", zap.Error(err))
	}

	b.sendText(ctx, chatID, render.MsgCancelAborted)
}

// startSession replaces any previous session of the user with a fresh one
func (b *Bot) startSession(ctx context.Context, userID, chatID int64) {
	previous, err := b.stateManager.ActiveSessionID(ctx, userID)
	if err != nil {
		ctxzap.Warn(ctx, "failed to look up previous session", zap.Error(err))
	}
	b.dropSession(ctx, previous)

	view, err := b.intakeUC.StartSession(ctx, &entity.StartSessionRequest{})
	if err != nil {
		ctxzap.Error(ctx, "failed to start intake session", zap.Error(err))
		b.sendText(ctx, chatID, render.ClassifyError(err))
		return
	}

	if err := b.stateManager.BindSession(ctx, userID, chatID, view.ID); err != nil {
		ctxzap.Error(ctx, "failed to bind telegram session",
			zap.Error(err),
			zap.String("session_id", view.ID),
		)
		b.dropSession(ctx, view.ID)
		b.sendText(ctx, chatID, render.ErrGeneric)
		return
	}

	ctxzap.Info(ctx, "intake session started from telegram", zap.String("session_id", view.ID))

	b.watch(ctx, view.ID)
	b.show(ctx, view)
}

// sendReport renders the session result in the requested format and sends it as a file
func (b *Bot) sendReport(ctx context.Context, sessionID string, chatID int64, format entity.ResultFormat) error {
	if !format.IsValid() {
		return fmt.Errorf("%w: format %s", entity.ErrInvalidParameter, format)
	}

	result, err := b.intakeUC.GetResult(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("get result: %w", err)
	}

	fmtr, err := b.formatters.Create(format)
	if err != nil {
		return fmt.Errorf("create formatter: %w", err)
	}

	data, err := fmtr.Format(result)
	if err != nil {
		return fmt.Errorf("format result: %w", err)
	}

	return b.sendDocument(chatID, "assessment"+fmtr.FileExtension(), data)
}
