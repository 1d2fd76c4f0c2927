package session

import (
	"context"

	"github.com/sellershield/intake-backend/internal/entity"
)

type IntakeUsecase interface {
	StartSession(ctx context.Context, req *entity.StartSessionRequest) (*entity.SessionView, error)
	GetSession(ctx context.Context, sessionID string) (*entity.SessionView, error)
	SubmitAnswer(ctx context.Context, sessionID, questionID string, raw entity.Answer) (*entity.SessionView, error)
	Advance(ctx context.Context, sessionID string) (*entity.SessionView, error)
	Retreat(ctx context.Context, sessionID string) (*entity.SessionView, error)
	Restart(ctx context.Context, sessionID string) (*entity.SessionView, error)
	GetResult(ctx context.Context, sessionID string) (*entity.Quote, error)
	CancelSession(ctx context.Context, sessionID string) error
	Catalog() *entity.CatalogDTO
}

type RequestValidator interface {
	ValidateStartSession(req *entity.StartSessionRequest) error
	ValidateSubmitAnswer(req *entity.SubmitAnswerRequest) error
}
