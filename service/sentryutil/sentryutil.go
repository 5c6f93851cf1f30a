package sentryutil

import (
	"context"
	"time"

	"github.com/artverse/ingest/env"
	"github.com/artverse/ingest/service/logger"
	"github.com/getsentry/sentry-go"
)

// Init wires the process to Sentry. It is a no-op when SENTRY_DSN is unset,
// which is the default for local runs.
func Init(service string) {
	dsn := env.GetString("SENTRY_DSN")
	if dsn == "" {
		return
	}

	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      env.GetString("ENV"),
		TracesSampleRate: env.GetFloat64("SENTRY_TRACES_SAMPLE_RATE"),
		AttachStacktrace: true,
		ServerName:       service,
	})
	if err != nil {
		logger.For(nil).WithError(err).Fatal("failed to initialize sentry")
	}
}

// ReportError captures err on the context's hub, falling back to the global one.
func ReportError(ctx context.Context, err error) {
	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	if hub == nil {
		return
	}
	hub.CaptureException(err)
}

// RecoverAndRaise reports a panic and then re-raises it so the process still
// dies and gets restarted by its supervisor.
func RecoverAndRaise(ctx context.Context) {
	p := recover()
	if p == nil {
		return
	}

	hub := sentry.GetHubFromContext(ctx)
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	if hub != nil {
		hub.RecoverWithContext(ctx, p)
		sentry.Flush(2 * time.Second)
	}

	panic(p)
}
