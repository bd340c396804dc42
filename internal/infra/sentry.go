package infra

import (
	"fmt"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
)

// Reporter forwards unexpected errors to Sentry. A zero Reporter (no hub) is
// valid and drops everything, which is what local development gets when
// SENTRY_DSN is unset.
type Reporter struct {
	hub *sentry.Hub
}

// NewReporter initialises Sentry for the given DSN. An empty DSN yields a
// no-op reporter.
func NewReporter(dsn, env, module string) (*Reporter, error) {
	if strings.TrimSpace(dsn) == "" {
		return &Reporter{}, nil
	}
	err := sentry.Init(sentry.ClientOptions{
		Dsn:              dsn,
		Environment:      env,
		AttachStacktrace: true,
		TracesSampleRate: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("sentry: init: %w", err)
	}
	hub := sentry.CurrentHub().Clone()
	hub.ConfigureScope(func(scope *sentry.Scope) {
		scope.SetTag("module", module)
	})
	return &Reporter{hub: hub}, nil
}

// Capture reports err with the provided tags.
func (r *Reporter) Capture(err error, tags map[string]string) {
	if r == nil || r.hub == nil || err == nil {
		return
	}
	r.hub.WithScope(func(scope *sentry.Scope) {
		for k, v := range tags {
			scope.SetTag(k, v)
		}
		r.hub.CaptureException(err)
	})
}

// Flush waits for buffered events to be delivered.
func (r *Reporter) Flush(timeout time.Duration) {
	if r == nil || r.hub == nil {
		return
	}
	r.hub.Flush(timeout)
}
