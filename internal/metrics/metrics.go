// Package metrics holds the Prometheus collectors the service exports.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Claim results.
const (
	ClaimBooked      = "booked"
	ClaimUnavailable = "unavailable"
	ClaimReplayed    = "replayed"
	ClaimInvalid     = "invalid"
	ClaimFailed      = "failed"
)

type Metrics struct {
	claims          *prometheus.CounterVec
	inconsistencies prometheus.Counter
	backfillErrors  prometheus.Counter
	providerCalls   *prometheus.CounterVec
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New registers every collector on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		claims: f.NewCounterVec(prometheus.CounterOpts{
			Name: "booking_claims_total",
			Help: "Claim attempts by result.",
		}, []string{"result"}),
		inconsistencies: f.NewCounter(prometheus.CounterOpts{
			Name: "booking_inconsistencies_total",
			Help: "Units left booked without a booking after a failed revert.",
		}),
		backfillErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "booking_backfill_failures_total",
			Help: "Bookings whose id could not be linked back onto the unit.",
		}),
		providerCalls: f.NewCounterVec(prometheus.CounterOpts{
			Name: "provider_calls_total",
			Help: "Calls to the external calendar provider.",
		}, []string{"operation", "result"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests by route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) Claim(result string) {
	if m == nil {
		return
	}
	m.claims.WithLabelValues(result).Inc()
}

func (m *Metrics) Inconsistency() {
	if m == nil {
		return
	}
	m.inconsistencies.Inc()
}

func (m *Metrics) BackfillFailure() {
	if m == nil {
		return
	}
	m.backfillErrors.Inc()
}

func (m *Metrics) ProviderCall(operation string, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.providerCalls.WithLabelValues(operation, result).Inc()
}

func (m *Metrics) HTTPRequest(method, route, status string, seconds float64) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(seconds)
}
