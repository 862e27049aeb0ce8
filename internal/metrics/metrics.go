// Package metrics exposes Prometheus collectors for HTTP traffic and survey
// domain events.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/surveyor-app/surveyor/internal/middleware"
	"github.com/surveyor-app/surveyor/internal/services"
)

const namespace = "surveyor"

type Metrics struct {
	registry  *prometheus.Registry
	requests  *prometheus.CounterVec
	latency   *prometheus.HistogramVec
	submitted prometheus.Counter
	rejected  *prometheus.CounterVec
	invites   prometheus.Counter
	drafts    prometheus.Counter
}

var (
	_ services.Recorder          = (*Metrics)(nil)
	_ middleware.RequestObserver = (*Metrics)(nil)
)

// New registers every collector on a private registry, plus the Go runtime
// and process collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status code.",
		}, []string{"route", "method", "status"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		submitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_submitted_total",
			Help:      "Accepted survey submissions.",
		}),
		rejected: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "responses_rejected_total",
			Help:      "Rejected survey submissions by reason.",
		}, []string{"reason"}),
		invites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "invites_issued_total",
			Help:      "Invite tokens issued.",
		}),
		drafts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drafts_saved_total",
			Help:      "Draft saves, new and overwritten.",
		}),
	}
	m.registry.MustRegister(
		m.requests, m.latency, m.submitted, m.rejected, m.invites, m.drafts,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveRequest(route, method string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.latency.WithLabelValues(route, method).Observe(elapsed.Seconds())
}

// ResponseSubmitted ignores the survey id to keep label cardinality bounded.
func (m *Metrics) ResponseSubmitted(string) { m.submitted.Inc() }

func (m *Metrics) ResponseRejected(reason string) { m.rejected.WithLabelValues(reason).Inc() }

func (m *Metrics) InvitesIssued(n int) {
	if n > 0 {
		m.invites.Add(float64(n))
	}
}

func (m *Metrics) DraftSaved() { m.drafts.Inc() }
