package logger

import (
	"context"
	"log/slog"
)

type contextKey struct{}

// WithContext returns a copy of ctx carrying l.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, l)
}

// FromContext returns the logger stored in ctx and whether one was found.
func FromContext(ctx context.Context) (*slog.Logger, bool) {
	if ctx == nil {
		return nil, false
	}
	l, ok := ctx.Value(contextKey{}).(*slog.Logger)
	return l, ok && l != nil
}

// FromContextOrDefault returns the logger stored in ctx, falling back to
// fallback and then to slog.Default().
func FromContextOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if l, ok := FromContext(ctx); ok {
		return l
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}
