// Package metrics exposes Prometheus collectors for the planning workflows.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics bundles the collectors the server and workflows report into. All
// increment helpers are nil-safe so services can run without metrics wired
// (tests, CLI).
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests   *prometheus.CounterVec
	NameConflicts  prometheus.Counter
	RacesRecovered prometheus.Counter
	CreateRetries  prometheus.Counter
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chainplan_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "code"}),
		NameConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chainplan_name_conflicts_total",
			Help: "Rename attempts rejected because the name was taken.",
		}),
		RacesRecovered: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chainplan_ensure_races_recovered_total",
			Help: "Ensure workflows that recovered from a concurrent-create race.",
		}),
		CreateRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chainplan_result_create_retries_total",
			Help: "Result creations retried after a uniqueness conflict.",
		}),
	}
	reg.MustRegister(m.HTTPRequests, m.NameConflicts, m.RacesRecovered, m.CreateRetries)
	return m
}

// Handler returns the scrape endpoint handler for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// IncHTTPRequest records one handled request.
func (m *Metrics) IncHTTPRequest(method, route, code string) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, route, code).Inc()
}

// IncNameConflict records a rejected rename.
func (m *Metrics) IncNameConflict() {
	if m == nil {
		return
	}
	m.NameConflicts.Inc()
}

// IncRaceRecovered records an ensure workflow that re-queried after losing a
// create race.
func (m *Metrics) IncRaceRecovered() {
	if m == nil {
		return
	}
	m.RacesRecovered.Inc()
}

// IncCreateRetry records a result creation retried after a conflict.
func (m *Metrics) IncCreateRetry() {
	if m == nil {
		return
	}
	m.CreateRetries.Inc()
}
