package session

import (
	"context"

	"github.com/sellershield/intake-backend/internal/entity"
)

type CallbackConnector interface {
	SendResult(ctx context.Context, callbackURL string, requestID string, data *entity.CallbackResultData)
	SendError(ctx context.Context, callbackURL string, requestID string, message string, details map[string]any)
}

type MetricsRecorder interface {
	SessionStarted()
	SessionRestarted()
	SessionEnded()
	StepReached(questionID string)
	OutcomeClassified(tier entity.Tier)
}

type noopMetrics struct{}

func (noopMetrics) SessionStarted()              {}
func (noopMetrics) SessionRestarted()            {}
func (noopMetrics) SessionEnded()                {}
func (noopMetrics) StepReached(string)           {}
func (noopMetrics) OutcomeClassified(entity.Tier) {}
