package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sellershield/intake-backend/internal/entity"
)

// API is the subset of *tgbotapi.BotAPI the bot uses
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// IntakeUsecase drives intake sessions
type IntakeUsecase interface {
	Catalog() *entity.CatalogDTO
	StartSession(ctx context.Context, req *entity.StartSessionRequest) (*entity.SessionView, error)
	GetSession(ctx context.Context, sessionID string) (*entity.SessionView, error)
	SubmitAnswer(ctx context.Context, sessionID, questionID string, raw entity.Answer) (*entity.SessionView, error)
	Advance(ctx context.Context, sessionID string) (*entity.SessionView, error)
	Retreat(ctx context.Context, sessionID string) (*entity.SessionView, error)
	Restart(ctx context.Context, sessionID string) (*entity.SessionView, error)
	GetResult(ctx context.Context, sessionID string) (*entity.Quote, error)
	CancelSession(ctx context.Context, sessionID string) error
	Subscribe(sessionID string, fn func(*entity.SessionView)) (func(), error)
}
