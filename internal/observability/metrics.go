package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the process's collectors on a private registry. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	reg *prometheus.Registry

	identityPairs   *prometheus.CounterVec
	scrapeCandidate *prometheus.CounterVec
	scrapeRuns      *prometheus.CounterVec
	scrapeDuration  *prometheus.HistogramVec

	syncRuns *prometheus.CounterVec
	syncRows *prometheus.GaugeVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

func NewMetrics() *Metrics {
	r := prometheus.NewRegistry()
	m := &Metrics{
		reg: r,
		identityPairs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frugal_identity_pairs_total",
			Help: "Identity pairs processed by outcome.",
		}, []string{"store", "outcome"}),
		scrapeCandidate: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frugal_scrape_candidates_total",
			Help: "Info/price candidates processed by result.",
		}, []string{"mode", "store", "result"}),
		scrapeRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frugal_scrape_runs_total",
			Help: "Scrape invocations by final status.",
		}, []string{"mode", "status"}),
		scrapeDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "frugal_scrape_run_duration_seconds",
			Buckets: []float64{1, 10, 60, 300, 900, 1800, 3600, 7200},
		}, []string{"mode"}),
		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frugal_live_sync_runs_total",
			Help: "Live dataset syncs by final status.",
		}, []string{"status"}),
		syncRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "frugal_live_sync_rows",
			Help: "Rows written by the last successful live sync.",
		}, []string{"table"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frugal_http_requests_total",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "frugal_http_request_duration_seconds",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	r.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.identityPairs, m.scrapeCandidate, m.scrapeRuns, m.scrapeDuration,
		m.syncRuns, m.syncRows,
		m.httpRequests, m.httpLatency,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

func (m *Metrics) ObserveIdentity(store, outcome string) {
	if m == nil {
		return
	}
	m.identityPairs.WithLabelValues(store, outcome).Inc()
}

func (m *Metrics) ObserveCandidate(mode, store, result string) {
	if m == nil {
		return
	}
	m.scrapeCandidate.WithLabelValues(mode, store, result).Inc()
}

func (m *Metrics) ObserveScrapeRun(mode, status string, took time.Duration) {
	if m == nil {
		return
	}
	m.scrapeRuns.WithLabelValues(mode, status).Inc()
	m.scrapeDuration.WithLabelValues(mode).Observe(took.Seconds())
}

func (m *Metrics) ObserveSync(status string, brands, products int) {
	if m == nil {
		return
	}
	m.syncRuns.WithLabelValues(status).Inc()
	if status == "succeeded" {
		m.syncRows.WithLabelValues("brand").Set(float64(brands))
		m.syncRows.WithLabelValues("product").Set(float64(products))
	}
}

func (m *Metrics) ObserveHTTP(method, route string, status int, took time.Duration) {
	if m == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(took.Seconds())
}
