// Package ctxlog carries a slog.Logger through context.Context so that every
// component of the engine logs through the logger of the App instance that
// owns it, not through a mutable global.
package ctxlog

import (
	"context"
	"log/slog"
)

// key is an unexported type so no other package can collide with our context key.
type key struct{}

var loggerKey = key{}

// WithLogger returns a new context with the provided logger embedded.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// FromContext extracts the slog.Logger from a context. Contexts that predate
// app construction (init paths, tests) fall back to the process default.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}
