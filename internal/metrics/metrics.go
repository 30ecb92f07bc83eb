// Package metrics exposes Prometheus collectors for the server.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "zapsplit"

// Metrics holds the collectors, registered on their own registry so tests
// can create as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	rpcDuration    *prometheus.HistogramVec
	payments       *prometheus.CounterVec
	claimsRecorded prometheus.Counter
	claimConflicts prometheus.Counter
}

// New creates and registers the collectors, plus Go runtime and process
// collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		rpcDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "rpc_duration_seconds",
			Help:      "Duration of RPCs by procedure and result code.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"procedure", "code"}),
		payments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "payments_total",
			Help:      "Payments by the status they reached.",
		}, []string{"status"}),
		claimsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claims_recorded_total",
			Help:      "Item claims recorded after a successful payment.",
		}),
		claimConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claim_conflicts_total",
			Help:      "Payments whose items were claimed by someone else first.",
		}),
	}

	m.registry.MustRegister(
		m.rpcDuration,
		m.payments,
		m.claimsRecorded,
		m.claimConflicts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveRPC records one RPC.
func (m *Metrics) ObserveRPC(procedure, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.rpcDuration.WithLabelValues(procedure, code).Observe(d.Seconds())
}

// PaymentStatus counts a payment reaching status.
func (m *Metrics) PaymentStatus(status string) {
	if m == nil {
		return
	}
	m.payments.WithLabelValues(status).Inc()
}

// ClaimsRecorded counts n claims written.
func (m *Metrics) ClaimsRecorded(n int) {
	if m == nil {
		return
	}
	m.claimsRecorded.Add(float64(n))
}

// ClaimConflict counts a payment that lost the race for its items.
func (m *Metrics) ClaimConflict() {
	if m == nil {
		return
	}
	m.claimConflicts.Inc()
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
