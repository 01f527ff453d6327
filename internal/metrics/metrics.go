// Package metrics holds the Prometheus collectors recorded while provisioning.
package metrics

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"sigs.k8s.io/controller-runtime/pkg/metrics"
)

var (
	provisionTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "k8shub",
			Subsystem: "agent",
			Name:      "provision_total",
			Help:      "Total number of provisioning calls by provider and result",
		},
		[]string{"provider", "result"},
	)

	phaseDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "k8shub",
			Subsystem: "agent",
			Name:      "phase_duration_seconds",
			Help:      "Duration of provisioning phases in seconds",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1s to ~34min
		},
		[]string{"provider", "phase"},
	)

	ensureTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "k8shub",
			Subsystem: "reconcile",
			Name:      "ensure_total",
			Help:      "Total number of ensure calls by resource kind and action",
		},
		[]string{"kind", "action"},
	)

	pollAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "k8shub",
			Subsystem: "poller",
			Name:      "attempts_total",
			Help:      "Total number of poll checks by outcome",
		},
		[]string{"outcome"},
	)

	dnsFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "k8shub",
			Subsystem: "agent",
			Name:      "dns_failures_total",
			Help:      "Total number of DNS reconciliations that failed after retries",
		},
	)
)

func init() {
	metrics.Registry.MustRegister(
		provisionTotal,
		phaseDuration,
		ensureTotal,
		pollAttempts,
		dnsFailures,
	)
}

// RecordProvision records the result of a provisioning call.
func RecordProvision(provider, result string) {
	provisionTotal.WithLabelValues(provider, result).Inc()
}

// RecordPhase records how long a provisioning phase took.
func RecordPhase(provider, phase string, d time.Duration) {
	phaseDuration.WithLabelValues(provider, phase).Observe(d.Seconds())
}

// RecordEnsure records a reconciler decision ("exists", "created", "failed").
func RecordEnsure(kind, action string) {
	ensureTotal.WithLabelValues(kind, action).Inc()
}

// RecordPoll records a single poll check ("done", "pending", "transient", "terminal").
func RecordPoll(outcome string) {
	pollAttempts.WithLabelValues(outcome).Inc()
}

// RecordDNSFailure counts a DNS reconciliation that was given up on.
func RecordDNSFailure() {
	dnsFailures.Inc()
}

// Push sends every registered collector to a Prometheus Pushgateway.
func Push(ctx context.Context, url, job string) error {
	pusher := push.New(url, job).Gatherer(metrics.Registry)
	if err := pusher.PushContext(ctx); err != nil {
		return fmt.Errorf("failed to push metrics to %s: %w", url, err)
	}
	return nil
}
