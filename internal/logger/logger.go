// Package logger wires the process-wide slog default: readable text at
// debug level in development, JSON at info level in production, with an
// optional Sentry fan-out for error-level records.
package logger

import (
	"log/slog"
	"os"

	"github.com/getsentry/sentry-go"
	slogmulti "github.com/samber/slog-multi"
	slogsentry "github.com/samber/slog-sentry/v2"
)

func Init(isDev bool, sentryDSN string) {
	handler := baseHandler(isDev)

	if sentryDSN != "" {
		err := sentry.Init(sentry.ClientOptions{
			Dsn:              sentryDSN,
			TracesSampleRate: 1.0,
		})
		if err != nil {
			slog.Warn("sentry disabled", "error", err)
		} else {
			handler = slogmulti.Fanout(handler, slogsentry.Option{
				Level: slog.LevelError,
			}.NewSentryHandler())
		}
	}

	slog.SetDefault(slog.New(handler))
}

func baseHandler(isDev bool) slog.Handler {
	if isDev {
		return slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
}
