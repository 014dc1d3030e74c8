package logger

import (
	"context"

	"go.uber.org/zap"
)

// Field keys shared by every request-scoped log line.
const (
	RequestIDKey = "request_id"
	OwnerKey     = "user_id"
	SearchIDKey  = "search_id"
)

type loggerKey struct{}

// ContextWithLogger stores a logger in the context.
func ContextWithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext extracts a logger from the context.
// Returns zap.NewNop() if no logger is found.
func FromContext(ctx context.Context) *zap.Logger {
	if l, ok := ctx.Value(loggerKey{}).(*zap.Logger); ok {
		return l
	}
	return zap.NewNop()
}

// WithFields stores a child of the context logger carrying fields.
func WithFields(ctx context.Context, fields ...zap.Field) context.Context {
	return ContextWithLogger(ctx, FromContext(ctx).With(fields...))
}

// WithRequest derives a request logger from base and stores it in ctx.
func WithRequest(ctx context.Context, base *zap.Logger, requestID string) (context.Context, *zap.Logger) {
	l := base
	if requestID != "" {
		l = base.With(zap.String(RequestIDKey, requestID))
	}
	return ContextWithLogger(ctx, l), l
}

// WithOwner tags later log lines with the authenticated owner.
// Anonymous requests carry no owner field.
func WithOwner(ctx context.Context, owner string) context.Context {
	if owner == "" {
		return ctx
	}
	return WithFields(ctx, zap.String(OwnerKey, owner))
}

// SearchID is the log field for a search record id.
func SearchID(id string) zap.Field {
	return zap.String(SearchIDKey, id)
}
