package callback

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"github.com/sellershield/intake-backend/internal/config"
	"github.com/sellershield/intake-backend/internal/entity"
	"github.com/sellershield/intake-backend/internal/integration/common"
	pkghttp "github.com/sellershield/intake-backend/pkg/http"
	"go.uber.org/zap"
)

type Connector struct {
	config    config.CallbackConnectorConfig
	connector *pkghttp.Connector
	logger    *zap.Logger
	now       func() time.Time
}

func NewConnector(
	cfg config.CallbackConnectorConfig,
	logger *zap.Logger,
) *Connector {
	cfg.Retry.ApplyDefaults()

	return &Connector{
		connector: common.NewBaseConnector(cfg.HTTPClientConfig, logger),
		config:    cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// SendResult delivers a finished assessment to the session's callback URL
func (c *Connector) SendResult(ctx context.Context, callbackURL string, requestID string, data *entity.CallbackResultData) {
	err := c.Send(ctx, callbackURL, requestID, &entity.CallbackEvent{
		Event: entity.CallbackEventTypeResult,
		Data:  data,
	})
	if err != nil {
		ctxzap.Error(ctx, "failed to send result callback", zap.Error(err))
	}
}

// SendError sends an error event to the specified callback URL
func (c *Connector) SendError(ctx context.Context, callbackURL string, requestID string, message string, details map[string]any) {
	err := c.Send(ctx, callbackURL, requestID, &entity.CallbackEvent{
		Event: entity.CallbackEventTypeError,
		Data: &entity.CallbackErrorData{
			Error: entity.CallbackErrorDetails{
				Message: message,
				Details: details,
			},
		},
	})
	if err != nil {
		ctxzap.Error(ctx, "failed to send error callback", zap.Error(err))
	}
}

// Send posts the event, retrying transient failures
func (c *Connector) Send(ctx context.Context, callbackURL string, requestID string, event *entity.CallbackEvent) error {
	if callbackURL == "" {
		return fmt.Errorf("callback url: %w", entity.ErrMissingField)
	}
	if event.Timestamp == "" {
		event.Timestamp = c.now().UTC().Format(time.RFC3339)
	}

	ctxzap.Debug(ctx, "sending callback event",
		zap.String("event_type", string(event.Event)),
		zap.String("callback_url", callbackURL),
		zap.String("request_id", requestID),
		zap.String("timestamp", event.Timestamp),
	)

	opts := []pkghttp.RequestOpt{
		pkghttp.WithHeader("X-Request-ID", requestID),
		pkghttp.WithURL(callbackURL),
	}

	attempt := 0
	err := c.config.Retry.Do(ctx, func(ctx context.Context) error {
		attempt++
		return c.connector.DoRequest(ctx, http.MethodPost, "", event, nil, opts...)
	},
		retry.RetryIf(pkghttp.IsRetryable),
		retry.OnRetry(func(n uint, err error) {
			ctxzap.Warn(ctx, "callback attempt failed, retrying",
				zap.Uint("attempt", n+1),
				zap.String("request_id", requestID),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to send callback, event_type: %s, url: %s, attempts: %d, error: %w",
			string(event.Event), callbackURL, attempt, err)
	}

	ctxzap.Info(ctx, "callback sent successfully",
		zap.String("event_type", string(event.Event)),
		zap.String("callback_url", callbackURL),
		zap.String("request_id", requestID),
		zap.Int("attempts", attempt),
	)
	return nil
}
