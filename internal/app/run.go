package app

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
)

type Runner func(ctx context.Context, logger zerolog.Logger) error

// NewLogger builds the process-wide logger. Unknown levels fall back to info.
func NewLogger(serviceName, level string) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	return zerolog.New(os.Stdout).
		Level(lvl).
		With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// Run wires signal handling around a process body and converts its result
// into an exit code. SIGINT and SIGTERM cancel the context; the body gets a
// grace period to drain before the process exits.
func Run(serviceName, logLevel string, run Runner) int {
	logger := NewLogger(serviceName, logLevel)
	logger.Info().Msg("starting")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- run(ctx, logger) }()

	select {
	case <-ctx.Done():
		logger.Info().Msg("shutting down")
		select {
		case err := <-errCh:
			if err != nil && err != context.Canceled {
				logger.Error().Err(err).Msg("shutdown error")
				return 1
			}
		case <-time.After(10 * time.Second):
			logger.Warn().Msg("shutdown grace period expired")
		}
		return 0
	case err := <-errCh:
		if err != nil {
			logger.Error().Err(err).Msg("failed")
			return 1
		}
		logger.Info().Msg("stopped")
		return 0
	}
}
