// Package logging provides the context-scoped structured logger used
// throughout the archive, writer, and ingest packages.
package logging

import (
	"context"
	"os"

	"github.com/rs/zerolog"
)

func init() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
}

type loggerKey struct{}

// New builds the archive's default logger: console-writer in dev,
// structured JSON otherwise, selected by KVINGO_LOG_PRETTY.
func New() zerolog.Logger {
	var out = os.Stderr
	if os.Getenv("KVINGO_LOG_PRETTY") != "" {
		return zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
	}
	return zerolog.New(out).With().Timestamp().Logger()
}

// Set attaches lg to ctx, retrievable via Get.
func Set(ctx context.Context, lg *zerolog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, lg)
}

// Get returns the logger attached to ctx, or a disabled logger if none
// was ever Set — callers in a bare context.Background() still log
// safely, just silently.
func Get(ctx context.Context) *zerolog.Logger {
	lg, ok := ctx.Value(loggerKey{}).(*zerolog.Logger)
	if !ok {
		nop := zerolog.Nop()
		return &nop
	}
	return lg
}
