// Package metrics exposes Prometheus collectors for the indicator service.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"indicatorEngine/internal/engine"
)

// Recorder holds the service collectors on its own registry.
type Recorder struct {
	registry *prometheus.Registry

	computeDuration prometheus.Histogram
	outputsTotal    prometheus.Counter
	skipsTotal      *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	cacheTotal      *prometheus.CounterVec
	fetchDuration   *prometheus.HistogramVec
	fetchRows       prometheus.Counter
}

// New creates a Recorder. Process and Go runtime collectors are included.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		computeDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "indicator_compute_duration_seconds",
			Help:    "Duration of one indicator computation pass",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1},
		}),
		outputsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "indicator_outputs_total",
			Help: "Indicator outputs produced",
		}),
		skipsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "indicator_skips_total",
			Help: "Active indicators skipped, by family and reason",
		}, []string{"indicator", "reason"}),
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "indicator_requests_total",
			Help: "Analyze requests by outcome",
		}, []string{"outcome"}),
		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "indicator_cache_lookups_total",
			Help: "Result cache lookups by result",
		}, []string{"result"}),
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "market_data_fetch_duration_seconds",
			Help:    "Duration of price history fetches by source and outcome",
			Buckets: prometheus.DefBuckets,
		}, []string{"source", "outcome"}),
		fetchRows: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "market_data_rows_total",
			Help: "Price history rows received",
		}),
	}
	r.registry.MustRegister(
		r.computeDuration, r.outputsTotal, r.skipsTotal, r.requestsTotal,
		r.cacheTotal, r.fetchDuration, r.fetchRows,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// ObservePass implements engine.Observer.
func (r *Recorder) ObservePass(elapsed time.Duration, computed, _ int) {
	r.computeDuration.Observe(elapsed.Seconds())
	r.outputsTotal.Add(float64(computed))
}

// ObserveSkip implements engine.Observer.
func (r *Recorder) ObserveSkip(s engine.Skip) {
	r.skipsTotal.WithLabelValues(s.Kind.String(), string(s.Reason)).Inc()
}

// RecordRequest counts an analyze request by outcome.
func (r *Recorder) RecordRequest(outcome string) {
	r.requestsTotal.WithLabelValues(outcome).Inc()
}

// RecordCacheLookup counts a cache hit or miss.
func (r *Recorder) RecordCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	r.cacheTotal.WithLabelValues(result).Inc()
}

// RecordFetch observes a price history fetch.
func (r *Recorder) RecordFetch(source string, elapsed time.Duration, rows int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	r.fetchDuration.WithLabelValues(source, outcome).Observe(elapsed.Seconds())
	r.fetchRows.Add(float64(rows))
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
