package bot

import (
	"context"
	"errors"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/sellershield/intake-backend/internal/entity"
	"github.com/sellershield/intake-backend/internal/telegram/render"
	"github.com/sellershield/intake-backend/internal/telegram/state"
	"go.uber.org/zap"
)

// screen renders the views of one session in order. Only the newest pending
// view is kept, so a slow Telegram API never blocks the flow.
type screen struct {
	views       chan *entity.SessionView
	done        chan struct{}
	unsubscribe func()
}

// push is called from the session's transition observer, which is serialized per session
func (s *screen) push(view *entity.SessionView) {
	select {
	case <-s.views:
	default:
	}
	s.views <- view
}

// watch subscribes to a session's transitions unless it is already watched
func (b *Bot) watch(ctx context.Context, sessionID string) {
	b.screensMu.Lock()
	defer b.screensMu.Unlock()

	if _, ok := b.screens[sessionID]; ok {
		return
	}

	sc := &screen{
		views: make(chan *entity.SessionView, 1),
		done:  make(chan struct{}),
	}

	unsubscribe, err := b.intakeUC.Subscribe(sessionID, sc.push)
	if err != nil {
		ctxzap.Debug(ctx, "subscribe to session", zap.Error(err), zap.String("session_id", sessionID))
		return
	}
	sc.unsubscribe = unsubscribe
	b.screens[sessionID] = sc

	go b.runScreen(sc)
}

// unwatch stops rendering a session
func (b *Bot) unwatch(sessionID string) {
	b.screensMu.Lock()
	sc, ok := b.screens[sessionID]
	delete(b.screens, sessionID)
	b.screensMu.Unlock()

	if ok {
		sc.unsubscribe()
		close(sc.done)
	}
}

func (b *Bot) closeScreens() {
	b.screensMu.Lock()
	ids := make([]string, 0, len(b.screens))
	for id := range b.screens {
		ids = append(ids, id)
	}
	b.screensMu.Unlock()

	for _, id := range ids {
		b.unwatch(id)
	}
}

func (b *Bot) runScreen(sc *screen) {
	for {
		select {
		case <-sc.done:
			return
		case view := <-sc.views:
			b.show(b.baseCtx, view)
		}
	}
}

// show renders a session view into the chat the session is bound to.
// The previous screen message is edited in place when possible.
func (b *Bot) show(ctx context.Context, view *entity.SessionView) {
	ts, err := b.stateManager.GetBySessionID(ctx, view.ID)
	if errors.Is(err, state.ErrNotFound) {
		return
	}
	if err != nil {
		ctxzap.Error(ctx, "failed to get telegram session", zap.Error(err), zap.String("session_id", view.ID))
		return
	}

	logger := ctxzap.Extract(ctx).With(
		zap.String("session_id", view.ID),
		zap.Int64("chat_id", ts.ChatID),
	)

	stateData, err := b.stateManager.GetStateData(ctx, ts.UserID)
	if err != nil {
		logger.Error("failed to get state data", zap.Error(err))
		return
	}

	text := render.RenderView(view)
	markup, hasMarkup := b.markupFor(view)

	if stateData.LastMessageID != 0 {
		edit := tgbotapi.NewEditMessageText(ts.ChatID, stateData.LastMessageID, text)
		if hasMarkup {
			edit.ReplyMarkup = &markup
		}

		_, err := b.api.Send(edit)
		if err == nil || isNotModified(err) {
			return
		}
		logger.Debug("edit screen message failed, sending a new one", zap.Error(err))
	}

	var replyMarkup any
	if hasMarkup {
		replyMarkup = markup
	}

	msg, err := b.sendMessage(ts.ChatID, text, replyMarkup)
	if err != nil {
		logger.Error("failed to send screen", zap.Error(err))
		return
	}

	stateData.LastMessageID = msg.MessageID
	if err := b.stateManager.UpdateStateData(ctx, ts.UserID, stateData); err != nil {
		logger.Warn("failed to update state data", zap.Error(err))
	}
}

func (b *Bot) markupFor(view *entity.SessionView) (tgbotapi.InlineKeyboardMarkup, bool) {
	switch view.Phase {
	case entity.FlowPhaseCollecting:
		return b.keyboard.QuestionKeyboard(view)
	case entity.FlowPhaseResulted:
		if view.NotEligible {
			return b.keyboard.NotEligibleKeyboard(), true
		}
		return b.keyboard.ResultKeyboard(), true
	default:
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
}

func isNotModified(err error) bool {
	return strings.Contains(err.Error(), "message is not modified")
}
