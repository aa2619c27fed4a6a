// Package observability sends FluxErrors recovered by a loop's error
// handler to Sentry, with tags and breadcrumbs describing which component
// and member raised them.
package observability

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	flux "github.com/cerebralia/fluxcore"
)

// SentryReporter reports FluxErrors to Sentry via a Hub, so it can be
// installed as a flux.Loop's error handler with WithErrorHandler(reporter.Report).
type SentryReporter struct {
	hub *sentry.Hub
}

// Breadcrumb is a single navigation-trail entry attached to every event
// this reporter sends, e.g. "round started", "action X invoked".
type Breadcrumb struct {
	Category string
	Message  string
	Level    sentry.Level
	Data     map[string]interface{}
}

// Option configures the underlying Sentry client during NewSentryReporter.
type Option func(*sentry.ClientOptions)

// WithDebug enables Sentry's verbose stderr logging.
func WithDebug(debug bool) Option {
	return func(o *sentry.ClientOptions) { o.Debug = debug }
}

// WithEnvironment tags every event with the given environment name.
func WithEnvironment(env string) Option {
	return func(o *sentry.ClientOptions) { o.Environment = env }
}

// WithRelease tags every event with the given release identifier.
func WithRelease(release string) Option {
	return func(o *sentry.ClientOptions) { o.Release = release }
}

// NewSentryReporter initializes the Sentry SDK with dsn and returns a
// reporter bound to the resulting hub. An empty dsn disables sending,
// which is useful in tests.
func NewSentryReporter(dsn string, opts ...Option) (*SentryReporter, error) {
	clientOpts := sentry.ClientOptions{Dsn: dsn}
	for _, opt := range opts {
		opt(&clientOpts)
	}
	if err := sentry.Init(clientOpts); err != nil {
		return nil, fmt.Errorf("observability: failed to initialize sentry: %w", err)
	}
	return &SentryReporter{hub: sentry.CurrentHub()}, nil
}

// AddBreadcrumb records a navigation-trail entry that rides along with
// every subsequent Report call, until the process exits or the hub's
// breadcrumb ring buffer evicts it.
func (r *SentryReporter) AddBreadcrumb(b Breadcrumb) {
	r.hub.AddBreadcrumb(&sentry.Breadcrumb{
		Category: b.Category,
		Message:  b.Message,
		Level:    b.Level,
		Data:     b.Data,
	}, nil)
}

// Report sends a FluxError to Sentry, tagged with its kind and (when
// available) the originating component and member. It matches the
// flux.LoopOption error-handler signature, so it can be installed directly:
//
//	loop := flux.NewLoop(flux.WithErrorHandler(reporter.Report))
func (r *SentryReporter) Report(err flux.FluxError) {
	r.hub.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("kind", err.Kind().String())

		switch e := err.(type) {
		case *flux.InvariantError:
			scope.SetTag("component", e.Component)
			scope.SetTag("op", e.Op)
		case *flux.ConnectionError:
			scope.SetTag("spec", e.Spec)
		case *flux.ValidationError:
			scope.SetTag("property", e.Property)
			scope.SetExtra("value", e.Value)
		case *flux.UserError:
			scope.SetTag("component", e.Component)
			scope.SetTag("member", e.Member)
			if e.Event != "" {
				scope.SetTag("event", e.Event)
			}
		case *flux.UnknownEventWarning:
			scope.SetTag("component", e.Component)
			scope.SetTag("event", e.EventType)
		}

		r.hub.CaptureException(err)
	})
}

// Flush blocks until pending events are sent or timeout elapses.
func (r *SentryReporter) Flush(timeout time.Duration) {
	sentry.Flush(timeout)
}
