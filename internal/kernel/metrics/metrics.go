// Package metrics holds the Authority Kernel's Prometheus collectors,
// following the same package-level Registry plus typed Record* helpers
// the rest of the ecosystem's service layer uses.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the kernel-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	gateAdmissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "authority_kernel",
			Subsystem: "gate",
			Name:      "admissions_total",
			Help:      "Total runtime gate admission decisions.",
		},
		[]string{"outcome", "violation_code"},
	)

	replayOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "authority_kernel",
			Subsystem: "replay",
			Name:      "outcomes_total",
			Help:      "Total replay attempt outcomes.",
		},
		[]string{"status"},
	)

	suiteRunDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "authority_kernel",
			Subsystem: "suite",
			Name:      "run_duration_seconds",
			Help:      "Duration of a suite governance run.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		},
		[]string{"suite_key", "status"},
	)

	envelopeSeals = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "authority_kernel",
			Subsystem: "envelope",
			Name:      "seals_total",
			Help:      "Total envelope seal calls by whether the hash was new.",
		},
		[]string{"is_new"},
	)

	sweeperActions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "authority_kernel",
			Subsystem: "sweeper",
			Name:      "stale_entries_total",
			Help:      "Total entries transitioned to a terminal state by the background sweeper.",
		},
		[]string{"kind"},
	)
)

func init() {
	Registry.MustRegister(
		gateAdmissions,
		replayOutcomes,
		suiteRunDuration,
		envelopeSeals,
		sweeperActions,
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewGoCollector(),
	)
}

// Handler exposes the registered collectors for scraping.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordGateAdmission records one runtime gate decision.
func RecordGateAdmission(admitted bool, violationCode string) {
	outcome := "blocked"
	if admitted {
		outcome = "admitted"
		violationCode = "none"
	}
	gateAdmissions.WithLabelValues(outcome, violationCode).Inc()
}

// RecordReplayOutcome records one replay completion.
func RecordReplayOutcome(status string) {
	replayOutcomes.WithLabelValues(status).Inc()
}

// RecordSuiteRun records one suite governance run's duration.
func RecordSuiteRun(suiteKey, status string, seconds float64) {
	suiteRunDuration.WithLabelValues(suiteKey, status).Observe(seconds)
}

// RecordEnvelopeSeal records one seal call.
func RecordEnvelopeSeal(isNew bool) {
	label := "false"
	if isNew {
		label = "true"
	}
	envelopeSeals.WithLabelValues(label).Inc()
}

// RecordSweep records n entries of the given kind (envelope, replay, run)
// transitioned to a terminal state by the background sweeper.
func RecordSweep(kind string, n int) {
	if n <= 0 {
		return
	}
	sweeperActions.WithLabelValues(kind).Add(float64(n))
}
