package monitoring

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "uats"

// Metrics manages the Prometheus metrics.
type Metrics struct {
	APICalls           *prometheus.CounterVec
	APILatency         *prometheus.HistogramVec
	Ceremonies         *prometheus.CounterVec
	TokenRefreshes     *prometheus.CounterVec
	TokenRefreshTime   prometheus.Histogram
	Notifications      *prometheus.CounterVec
	DeviceFallbacks    prometheus.Counter
	Devices            prometheus.Gauge
	CacheAccesses      *prometheus.CounterVec
	HTTPActiveRequests *prometheus.GaugeVec
	HTTPDuration       *prometheus.HistogramVec
	HTTPErrors         *prometheus.CounterVec
}

// NewMetrics creates the metrics and registers them with reg.
// A nil reg uses the default registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		APICalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_calls_total",
				Help:      "Total number of orchestrated backend calls.",
			},
			[]string{"endpoint_key", "result"},
		),
		APILatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_call_duration_seconds",
				Help:      "Latency of orchestrated backend calls.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"endpoint_key"},
		),
		Ceremonies: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webauthn_ceremonies_total",
				Help:      "WebAuthn ceremonies by outcome.",
			},
			[]string{"ceremony", "outcome"},
		),
		TokenRefreshes: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "token_refreshes_total",
				Help:      "Bearer token refreshes by outcome.",
			},
			[]string{"outcome"},
		),
		TokenRefreshTime: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "token_refresh_duration_seconds",
				Help:      "Time spent obtaining a bearer token.",
				Buckets:   prometheus.DefBuckets,
			},
		),
		Notifications: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "notifications_total",
				Help:      "Notifications emitted by severity.",
			},
			[]string{"severity"},
		),
		DeviceFallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "device_placeholder_fallbacks_total",
				Help:      "Device loads that degraded to placeholder data.",
			},
		),
		Devices: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "devices",
				Help:      "Security keys in the current device list.",
			},
		),
		CacheAccesses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_accesses_total",
				Help:      "Token cache lookups by cache tier and result.",
			},
			[]string{"cache", "result"},
		),
		HTTPActiveRequests: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_active_requests",
				Help:      "Console requests currently being served.",
			},
			[]string{"path", "method"},
		),
		HTTPDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "Console request latency.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"path", "method", "status"},
		),
		HTTPErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_request_errors_total",
				Help:      "Console responses with a 4xx or 5xx status.",
			},
			[]string{"path", "method", "status"},
		),
	}
}

// RecordAPICall records metrics for an orchestrated backend call.
func (m *Metrics) RecordAPICall(endpointKey string, success bool, duration time.Duration) {
	m.APICalls.WithLabelValues(endpointKey, resultLabel(success)).Inc()
	m.APILatency.WithLabelValues(endpointKey).Observe(duration.Seconds())
}

func (m *Metrics) ActiveRequestsInc(path, method string) {
	m.HTTPActiveRequests.WithLabelValues(path, method).Inc()
}

func (m *Metrics) ActiveRequestsDec(path, method string) {
	m.HTTPActiveRequests.WithLabelValues(path, method).Dec()
}

func (m *Metrics) ObserveRequestDuration(path, method string, status int, seconds float64) {
	m.HTTPDuration.WithLabelValues(path, method, strconv.Itoa(status)).Observe(seconds)
}

func (m *Metrics) IncRequestErrors(path, method string, status int) {
	m.HTTPErrors.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
}

func resultLabel(ok bool) string {
	if ok {
		return "success"
	}
	return "failure"
}

//Personal.AI order the ending
