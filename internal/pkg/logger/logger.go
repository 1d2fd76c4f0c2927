// Package logger tags the zap logger carried in a request context.
package logger

import (
	"context"

	"github.com/grpc-ecosystem/go-grpc-middleware/logging/zap/ctxzap"
	"go.uber.org/zap"
)

// WithAction names the operation being served
func WithAction(ctx context.Context, action string) context.Context {
	return withFields(ctx, zap.String("action", action))
}

// WithSession names the operation and the intake session it acts on
func WithSession(ctx context.Context, sessionID, action string) context.Context {
	return withFields(ctx,
		zap.String("session_id", sessionID),
		zap.String("action", action),
	)
}

func withFields(ctx context.Context, fields ...zap.Field) context.Context {
	return ctxzap.ToContext(ctx, ctxzap.Extract(ctx).With(fields...))
}
