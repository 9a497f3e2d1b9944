package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	sentryhttp "github.com/getsentry/sentry-go/http"

	"github.com/ghuser/itemsapi/pkg/config"
)

// SetupSentry initializes the Sentry SDK. No-ops if DSN is empty.
// Traces are sampled more aggressively outside production.
func SetupSentry(cfg *config.Config) error {
	if cfg.SentryDSN == "" {
		return nil
	}
	rate := 1.0
	if cfg.Environment == config.EnvProduction {
		rate = 0.2
	}
	if err := sentry.Init(sentry.ClientOptions{
		Dsn:              cfg.SentryDSN,
		Environment:      cfg.Environment,
		Release:          cfg.ServiceName + "@" + cfg.ServiceVersion,
		ServerName:       cfg.ServiceName,
		TracesSampleRate: rate,
	}); err != nil {
		return fmt.Errorf("sentry init: %w", err)
	}
	return nil
}

// SentryFlush waits up to 2s for buffered events before process exit.
func SentryFlush() {
	sentry.Flush(2 * time.Second)
}

// SentryMiddleware binds a hub to every request and captures panics. It
// re-panics so the outer Recovery middleware still writes the JSON 500.
func SentryMiddleware() func(http.Handler) http.Handler {
	return sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle
}

// ReportError sends a handled 5xx cause to Sentry, tagged with the route
// and the item id when the path carries one. It is a no-op when Sentry is
// not initialized.
func ReportError(r *http.Request, err error) {
	hub := sentry.GetHubFromContext(r.Context())
	if hub == nil {
		hub = sentry.CurrentHub()
	}
	if hub.Client() == nil {
		return
	}
	hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("http.method", r.Method)
		scope.SetTag("http.path", r.URL.Path)
		if id := chi.URLParam(r, "id"); id != "" {
			scope.SetTag("item.id", id)
		}
		scope.SetRequest(r)
		hub.CaptureException(err)
	})
}
