// Package monitoring exposes loop and reaction scheduling metrics in the
// Prometheus format, so a running flux loop can be scraped and graphed
// (e.g. in Grafana) the same way a long-lived service would be.
//
// All metrics are prefixed with "flux_" to avoid naming conflicts with the
// rest of a host process's registry.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	flux "github.com/cerebralia/fluxcore"
)

var _ flux.Observer = (*Metrics)(nil)

// Metrics is the set of counters, gauges, and histograms this package
// maintains for a single flux.Loop. It is safe for concurrent use; every
// Prometheus collector is thread-safe by design.
type Metrics struct {
	rounds           prometheus.Counter
	actionsProcessed *prometheus.CounterVec
	reactionsRun     *prometheus.CounterVec
	reactionLatency  *prometheus.HistogramVec
	reconnects       *prometheus.CounterVec
	actionQueueDepth prometheus.Gauge
	reactionQueueDepth prometheus.Gauge
	errorsByKind     *prometheus.CounterVec

	registry prometheus.Registerer
}

// New creates a new Metrics collector and registers every metric against
// reg. Use prometheus.DefaultRegisterer for the global registry, or
// prometheus.NewRegistry() for an isolated one (e.g. in tests). Metrics are
// registered immediately; a duplicate registration panics, matching the
// fail-fast startup behavior the rest of the stack uses.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		rounds: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flux_loop_rounds_total",
			Help: "Total number of rounds driven by Loop.Iter.",
		}),
		actionsProcessed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flux_actions_processed_total",
				Help: "Total number of action invocations processed, partitioned by action name.",
			},
			[]string{"action"},
		),
		reactionsRun: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flux_reactions_run_total",
				Help: "Total number of reaction bodies run, partitioned by reaction name.",
			},
			[]string{"reaction"},
		),
		reactionLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "flux_reaction_duration_seconds",
				Help:    "Histogram of reaction body execution time, partitioned by reaction name.",
				Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
			},
			[]string{"reaction"},
		),
		reconnects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flux_reaction_reconnects_total",
				Help: "Total number of explicit reaction reconnections, partitioned by reaction name.",
			},
			[]string{"reaction"},
		),
		actionQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flux_action_queue_depth",
			Help: "Current number of pending action invocations.",
		}),
		reactionQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "flux_reaction_queue_depth",
			Help: "Current number of pending reaction invocations.",
		}),
		errorsByKind: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "flux_errors_total",
				Help: "Total number of errors reported by the loop, partitioned by error kind.",
			},
			[]string{"kind"},
		),
		registry: reg,
	}

	reg.MustRegister(
		m.rounds,
		m.actionsProcessed,
		m.reactionsRun,
		m.reactionLatency,
		m.reconnects,
		m.actionQueueDepth,
		m.reactionQueueDepth,
		m.errorsByKind,
	)
	return m
}

// RecordRound increments the total round counter; call once per Loop.Iter
// pass through its for-loop body.
func (m *Metrics) RecordRound() {
	m.rounds.Inc()
}

// RecordAction records that an action with the given name finished
// processing.
func (m *Metrics) RecordAction(name string) {
	m.actionsProcessed.WithLabelValues(name).Inc()
}

// RecordReaction records that a reaction body ran and how long it took.
func (m *Metrics) RecordReaction(name string, duration time.Duration) {
	m.reactionsRun.WithLabelValues(name).Inc()
	m.reactionLatency.WithLabelValues(name).Observe(duration.Seconds())
}

// RecordReconnect records that an explicit reaction rewalked its connection
// specs.
func (m *Metrics) RecordReconnect(name string) {
	m.reconnects.WithLabelValues(name).Inc()
}

// RecordError records a reported FluxError, partitioned by its kind
// ("invariant", "connection", "validation", "user", "unknown_event").
func (m *Metrics) RecordError(kind string) {
	m.errorsByKind.WithLabelValues(kind).Inc()
}

// SetQueueDepths updates the two queue-depth gauges, typically from a
// periodic poll of Loop.QueueDepths.
func (m *Metrics) SetQueueDepths(actions, reactions int) {
	m.actionQueueDepth.Set(float64(actions))
	m.reactionQueueDepth.Set(float64(reactions))
}
