// Package metrics exposes payout and retry counters to Prometheus.
package metrics

import (
	"net/http"
	"time"

	"github.com/amirasaad/stealthmoney/pkg/payout"
	"github.com/amirasaad/stealthmoney/pkg/retry"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered on one registry.
type Metrics struct {
	registry *prometheus.Registry

	// Attempts counts provider invocations per operation.
	Attempts *prometheus.CounterVec
	// Retries counts scheduled retries per operation and error code.
	Retries *prometheus.CounterVec
	// RetryDelay observes the backoff waits.
	RetryDelay *prometheus.HistogramVec
	// Outcomes counts finished operations per result and error code.
	Outcomes *prometheus.CounterVec
	// AttemptsPerCall observes how many attempts a call needed.
	AttemptsPerCall *prometheus.HistogramVec
	// Payouts counts created payouts per provider and status.
	Payouts *prometheus.CounterVec
	// Rejections counts payouts refused before reaching a provider.
	Rejections *prometheus.CounterVec
}

// New registers the collectors, plus the Go and process collectors, on a
// fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Attempts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stealthmoney_provider_attempts_total",
			Help: "Total number of provider call attempts",
		}, []string{"operation"}),
		Retries: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stealthmoney_provider_retries_total",
			Help: "Total number of scheduled retries",
		}, []string{"operation", "code"}),
		RetryDelay: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stealthmoney_provider_retry_delay_seconds",
			Help:    "Backoff wait before a retry in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"operation"}),
		Outcomes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stealthmoney_provider_outcomes_total",
			Help: "Total number of finished provider calls",
		}, []string{"operation", "result", "code"}),
		AttemptsPerCall: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "stealthmoney_provider_attempts_per_call",
			Help:    "Attempts needed per provider call",
			Buckets: []float64{1, 2, 3, 4, 5, 8},
		}, []string{"operation"}),
		Payouts: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stealthmoney_payouts_total",
			Help: "Total number of payouts accepted by a provider",
		}, []string{"provider", "status"}),
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Name: "stealthmoney_payout_rejections_total",
			Help: "Total number of payouts rejected before reaching a provider",
		}, []string{"code"}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Observer adapts the metrics to retry callbacks.
func (m *Metrics) Observer() retry.Observer {
	return observer{m}
}

// PayoutCreated records an accepted payout.
func (m *Metrics) PayoutCreated(provider string, status payout.Status) {
	m.Payouts.WithLabelValues(provider, string(status)).Inc()
}

// PayoutRejected records a payout refused by validation.
func (m *Metrics) PayoutRejected(code payout.Code) {
	m.Rejections.WithLabelValues(string(code)).Inc()
}

type observer struct{ m *Metrics }

func (o observer) OnAttempt(label string, _ int) {
	o.m.Attempts.WithLabelValues(label).Inc()
}

func (o observer) OnRetry(label string, _ int, delay time.Duration, err *payout.Error) {
	o.m.Retries.WithLabelValues(label, string(err.Code)).Inc()
	o.m.RetryDelay.WithLabelValues(label).Observe(delay.Seconds())
}

func (o observer) OnSuccess(label string, attempts int) {
	o.m.Outcomes.WithLabelValues(label, "success", "").Inc()
	o.m.AttemptsPerCall.WithLabelValues(label).Observe(float64(attempts))
}

func (o observer) OnFailure(label string, attempts int, err *payout.Error) {
	o.m.Outcomes.WithLabelValues(label, "failure", string(err.Code)).Inc()
	o.m.AttemptsPerCall.WithLabelValues(label).Observe(float64(attempts))
}
