// Package metrics provides Prometheus metrics for dnsanchor.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace prefixes all dnsanchor metric names.
const Namespace = "dnsanchor"

// Outcome label values for ReconcileOutcomes.
const (
	OutcomeUnchanged = "unchanged"
	OutcomeUpdated   = "updated"
	OutcomeFailed    = "failed"
)

var (
	// ReconcilePasses counts completed reconciliation passes.
	ReconcilePasses = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "reconcile_passes_total",
		Help:      "Total number of completed reconciliation passes.",
	})

	// PassDuration observes the wall time of each reconciliation pass.
	PassDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: Namespace,
		Name:      "reconcile_pass_duration_seconds",
		Help:      "Duration of reconciliation passes in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	// ReconcileOutcomes counts per-family reconciliation outcomes.
	ReconcileOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "reconcile_outcomes_total",
		Help:      "Per-family reconciliation outcomes (unchanged, updated, failed).",
	}, []string{"family", "outcome"})

	// ProviderErrors counts provider operation failures by error class.
	ProviderErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "provider_errors_total",
		Help:      "Provider operation failures, labeled permanent or transient.",
	}, []string{"provider", "class"})

	// ResolveFailures counts exhausted external IP lookups.
	ResolveFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Name:      "ip_resolve_failures_total",
		Help:      "External IP resolution attempts that exhausted all endpoints.",
	}, []string{"family"})

	buildInfo = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: Namespace,
		Name:      "build_info",
		Help:      "Build information, value is always 1.",
	}, []string{"version"})
)

// SetBuildInfo publishes the running version as a constant gauge.
func SetBuildInfo(version string) {
	buildInfo.WithLabelValues(version).Set(1)
}
