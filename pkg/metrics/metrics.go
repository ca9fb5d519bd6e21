// Package metrics provides Prometheus metrics for the Podium backend.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Manager owns the Prometheus registry and every metric the backend
// records. A disabled manager keeps all Observe/Inc calls as no-ops so
// callers never have to branch on MetricsEnabled.
type Manager struct {
	enabled  bool
	registry *prometheus.Registry

	// Business metrics
	settlementsTotal     prometheus.Counter
	resultsIngestedTotal *prometheus.CounterVec
	priceUpdatesTotal    prometheus.Counter
	scoresComputedTotal  prometheus.Counter
	rosterEditsTotal     *prometheus.CounterVec

	// HTTP metrics
	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// Realtime metrics
	wsClients prometheus.Gauge

	// Scheduler metrics
	jobRuns *prometheus.CounterVec
}

// NewManager creates a metrics manager with its own registry.
// Pass enabled=false to get a no-op manager.
func NewManager(enabled bool) *Manager {
	m := &Manager{
		enabled:  enabled,
		registry: prometheus.NewRegistry(),
	}

	if !enabled {
		return m
	}

	factory := promauto.With(m.registry)

	m.settlementsTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "podium",
		Name:      "settlements_total",
		Help:      "Number of race settlements completed",
	})

	m.resultsIngestedTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "podium",
		Name:      "results_ingested_total",
		Help:      "Number of race/sprint results ingested by source",
	}, []string{"source"})

	m.priceUpdatesTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "podium",
		Name:      "price_updates_total",
		Help:      "Number of asset price updates applied",
	})

	m.scoresComputedTotal = factory.NewCounter(prometheus.CounterOpts{
		Namespace: "podium",
		Name:      "scores_computed_total",
		Help:      "Number of driver/constructor scores computed",
	})

	m.rosterEditsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "podium",
		Name:      "roster_edits_total",
		Help:      "Number of roster edit operations by outcome",
	}, []string{"operation", "outcome"})

	m.httpRequests = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "podium",
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, path and status",
	}, []string{"method", "path", "status"})

	m.httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "podium",
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path"})

	m.wsClients = factory.NewGauge(prometheus.GaugeOpts{
		Namespace: "podium",
		Name:      "ws_clients",
		Help:      "Connected websocket ticker clients",
	})

	m.jobRuns = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: "podium",
		Name:      "job_runs_total",
		Help:      "Scheduler job runs by job name and outcome",
	}, []string{"job", "outcome"})

	return m
}

// Enabled reports whether metrics collection is active
func (m *Manager) Enabled() bool {
	return m.enabled
}

// Handler returns the /metrics HTTP handler for this registry
func (m *Manager) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordSettlement increments the settlement counter
func (m *Manager) RecordSettlement() {
	if m.enabled {
		m.settlementsTotal.Inc()
	}
}

// RecordResultsIngested counts ingested results by source ("feed" or "html")
func (m *Manager) RecordResultsIngested(source string, count int) {
	if m.enabled {
		m.resultsIngestedTotal.WithLabelValues(source).Add(float64(count))
	}
}

// RecordPriceUpdate increments the price update counter
func (m *Manager) RecordPriceUpdate() {
	if m.enabled {
		m.priceUpdatesTotal.Inc()
	}
}

// RecordScoreComputed increments the score counter
func (m *Manager) RecordScoreComputed() {
	if m.enabled {
		m.scoresComputedTotal.Inc()
	}
}

// RecordRosterEdit counts a roster edit attempt by operation and outcome
func (m *Manager) RecordRosterEdit(operation, outcome string) {
	if m.enabled {
		m.rosterEditsTotal.WithLabelValues(operation, outcome).Inc()
	}
}

// RecordHTTPRequest records one served request
func (m *Manager) RecordHTTPRequest(method, path string, status int, duration time.Duration) {
	if m.enabled {
		m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
		m.httpRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
	}
}

// WSClientConnected adjusts the websocket client gauge
func (m *Manager) WSClientConnected(delta int) {
	if m.enabled {
		m.wsClients.Add(float64(delta))
	}
}

// RecordJobRun counts a scheduler job execution
func (m *Manager) RecordJobRun(job, outcome string) {
	if m.enabled {
		m.jobRuns.WithLabelValues(job, outcome).Inc()
	}
}
