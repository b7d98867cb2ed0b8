package observability

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// DefaultNamespace prefixes every gateway metric.
const DefaultNamespace = "alarino_gateway"

// Upstream outcome label values.
const (
	OutcomeRelayed     = "relayed"
	OutcomeUnreachable = "unreachable"
	OutcomeMissingPath = "missing_path"
	OutcomeRejected    = "rejected"
)

// Endpoint label values outside the backend's known endpoints.
const (
	EndpointOther  = "other"
	EndpointNonAPI = "none"
)

// knownEndpoints bounds the endpoint label; paths are caller-controlled.
var knownEndpoints = map[string]struct{}{
	"daily-word": {},
	"proverb":    {},
	"translate":  {},
	"admin":      {},
	"health":     {},
}

// EndpointLabel maps a request path to a bounded endpoint label.
func EndpointLabel(path string) string {
	rest, ok := strings.CutPrefix(path, "/api/")
	if !ok {
		if path == "/api" {
			return EndpointOther
		}
		return EndpointNonAPI
	}
	first, _, _ := strings.Cut(rest, "/")
	if _, ok := knownEndpoints[first]; ok {
		return first
	}
	return EndpointOther
}

// Metrics is the gateway's Prometheus instrumentation on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	latency       *prometheus.HistogramVec
	inFlight      prometheus.Gauge
	upstream      *prometheus.CounterVec
	upstreamTime  *prometheus.HistogramVec
	rateLimited   *prometheus.CounterVec
	configReloads *prometheus.CounterVec
	buildInfo     *prometheus.GaugeVec
}

// NewMetrics registers the gateway metrics under namespace, or
// DefaultNamespace when it is empty.
func NewMetrics(namespace string) *Metrics {
	if namespace == "" {
		namespace = DefaultNamespace
	}
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	m := &Metrics{
		registry: reg,
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Requests served, by method, endpoint and status code.",
		}, []string{"method", "endpoint", "status"}),
		latency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "request_duration_seconds",
			Help:      "Time to serve a request, including the relayed body.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 15},
		}, []string{"method", "endpoint"}),
		inFlight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "requests_in_flight",
			Help:      "Requests currently being served.",
		}),
		upstream: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "requests_total",
			Help:      "Forwarding attempts to the backend, by outcome.",
		}, []string{"method", "outcome"}),
		upstreamTime: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "upstream",
			Name:      "duration_seconds",
			Help:      "Duration of backend calls that reached the network.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method"}),
		rateLimited: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected with 429, by endpoint.",
		}, []string{"endpoint"}),
		configReloads: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "config_reloads_total",
			Help:      "Configuration reloads, by result.",
		}, []string{"result"}),
		buildInfo: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "build_info",
			Help:      "Always 1, labelled with the running build.",
		}, []string{"version", "commit", "build_time"}),
	}

	f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "start_time_seconds",
		Help:      "Process start time in unix seconds.",
	}).SetToCurrentTime()

	return m
}

// RecordRequest records a served request. endpoint should come from
// EndpointLabel.
func (m *Metrics) RecordRequest(method, endpoint string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, endpoint, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(method, endpoint).Observe(d.Seconds())
}

// TrackInFlight counts a request as in flight until the returned func runs.
func (m *Metrics) TrackInFlight() func() {
	m.inFlight.Inc()
	return m.inFlight.Dec
}

// RecordUpstream records one forwarding attempt and how it ended.
// Attempts that never reached the network are counted but not timed.
func (m *Metrics) RecordUpstream(method, outcome string, d time.Duration) {
	m.upstream.WithLabelValues(method, outcome).Inc()
	if outcome == OutcomeRelayed || outcome == OutcomeUnreachable {
		m.upstreamTime.WithLabelValues(method).Observe(d.Seconds())
	}
}

// RecordRateLimited records a request rejected by the rate limiter.
func (m *Metrics) RecordRateLimited(endpoint string) {
	m.rateLimited.WithLabelValues(endpoint).Inc()
}

// RecordConfigReload records the result of a configuration reload.
func (m *Metrics) RecordConfigReload(success bool) {
	result := "success"
	if !success {
		result = "failure"
	}
	m.configReloads.WithLabelValues(result).Inc()
}

// SetBuildInfo publishes the running build.
func (m *Metrics) SetBuildInfo(version, commit, buildTime string) {
	m.buildInfo.WithLabelValues(version, commit, buildTime).Set(1)
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
