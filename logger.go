package appx

import (
	"context"
	"io"
	"log/slog"

	"github.com/go-logr/logr"
)

// NewLogger returns a logr.Logger writing to w, with the slog level
// derived from verbosity the same way across every appx binary.
func NewLogger(w io.Writer, verbosity int) logr.Logger {
	return logr.FromSlogHandler(
		slog.NewTextHandler(w, &slog.HandlerOptions{
			Level: slog.Level(int(slog.LevelError) - 4*verbosity),
		}),
	)
}

func WithLogger(ctx context.Context, log logr.Logger) context.Context {
	return logr.NewContext(ctx, log)
}

func LoggerFrom(ctx context.Context) logr.Logger {
	return logr.FromContextOrDiscard(ctx)
}
