package bot

import (
	"context"
	"errors"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/sellershield/intake-backend/internal/entity"
	"github.com/sellershield/intake-backend/internal/intake"
	"github.com/sellershield/intake-backend/internal/telegram/render"
	"go.uber.org/zap"
)

// handleTextInput records a typed answer for currency and contact questions and moves on
func (b *Bot) handleTextInput(ctx context.Context, userID, chatID int64, text string) {
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
	ctx = ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(zap.String("session_id", sessionID)))

	view, err := b.intakeUC.GetSession(ctx, sessionID)
	if err != nil {
		b.failAction(ctx, sessionID, chatID, err)
		return
	}

	switch view.Phase {
	case entity.FlowPhaseAnalyzing:
		b.sendText(ctx, chatID, render.MsgAnalyzing)
		return
	case entity.FlowPhaseResulted:
		b.sendText(ctx, chatID, render.MsgUseButtons)
		return
	}

	q := view.CurrentQuestion
	if q == nil || q.Type.IsChoice() {
		b.sendText(ctx, chatID, render.MsgUseButtons)
		return
	}

	question := entity.Question{
		ID:      q.ID,
		Title:   q.Title,
		Kind:    q.Type,
		Options: q.Options,
	}
	raw := entity.Answer{Value: text}
	if ans, err := intake.NormalizeAnswer(question, raw); err != nil || !intake.IsValidAnswer(question, ans) {
		ctxzap.Debug(ctx, "typed answer rejected", zap.String("question_id", q.ID))
		b.sendText(ctx, chatID, render.ErrInvalidInput)
		return
	}

	// the next screen goes below the user's message
	b.resetScreenMessage(ctx, userID)
	b.watch(ctx, sessionID)

	if _, err := b.intakeUC.SubmitAnswer(ctx, sessionID, q.ID, raw); err != nil {
		b.failAction(ctx, sessionID, chatID, err)
		return
	}
	if _, err := b.intakeUC.Advance(ctx, sessionID); err != nil {
		b.failAction(ctx, sessionID, chatID, err)
	}
}

func (b *Bot) failAction(ctx context.Context, sessionID string, chatID int64, err error) {
	ctxzap.Info(ctx, "intake action rejected", zap.Error(err))
	if errors.Is(err, entity.ErrSessionNotFound) {
		b.unwatch(sessionID)
	}
	b.sendText(ctx, chatID, render.ClassifyError(err))
}

func (b *Bot) resetScreenMessage(ctx context.Context, userID int64) {
	stateData, err := b.stateManager.GetStateData(ctx, userID)
	if err != nil {
		ctxzap.Warn(ctx, "failed to get state data", zap.Error(err))
		return
	}

	stateData.LastMessageID = 0
	stateData.PendingConfirmation = ""
	if err := b.stateManager.UpdateStateData(ctx, userID, stateData); err != nil {
		ctxzap.Warn(ctx, "failed to update state data", zap.Error(err))
	}
}
