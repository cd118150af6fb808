// Package metrics provides custom Prometheus metrics for the beastvault components.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// ResolverMetrics contains all Prometheus metrics related to species metadata resolution.
type ResolverMetrics struct {
	CacheSize      prometheus.Gauge
	CacheHits      prometheus.Counter
	CacheMisses    prometheus.Counter
	CacheEvictions prometheus.Counter
	APICalls       prometheus.Counter
	APIErrors      prometheus.Counter
	FetchDuration  prometheus.Histogram
}

// NewResolverMetrics creates and registers the metadata resolver metrics.
func NewResolverMetrics(registry *prometheus.Registry) (*ResolverMetrics, error) {
	m := &ResolverMetrics{
		CacheSize: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "species_metadata_cache_entries",
			Help: "Current number of entries in the species metadata cache.",
		}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "species_metadata_cache_hits_total",
			Help: "Total number of metadata cache hits.",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "species_metadata_cache_misses_total",
			Help: "Total number of metadata cache misses.",
		}),
		CacheEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "species_metadata_cache_evictions_total",
			Help: "Total number of LRU evictions from the metadata cache.",
		}),
		APICalls: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pokeapi_requests_total",
			Help: "Total number of requests issued to the species data API.",
		}),
		APIErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pokeapi_request_errors_total",
			Help: "Total number of failed species data API requests.",
		}),
		FetchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pokeapi_request_duration_seconds",
			Help:    "Duration of species data API requests in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
	}

	collectors := []prometheus.Collector{
		m.CacheSize, m.CacheHits, m.CacheMisses, m.CacheEvictions,
		m.APICalls, m.APIErrors, m.FetchDuration,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register resolver metrics: %w", err)
		}
	}
	return m, nil
}

// SetCacheSize updates the current metadata cache entry count.
func (m *ResolverMetrics) SetCacheSize(entries float64) {
	if m == nil {
		return
	}
	m.CacheSize.Set(entries)
}

// IncrementCacheHits increases the cache hit counter by one.
func (m *ResolverMetrics) IncrementCacheHits() {
	if m == nil {
		return
	}
	m.CacheHits.Inc()
}

// IncrementCacheMisses increases the cache miss counter by one.
func (m *ResolverMetrics) IncrementCacheMisses() {
	if m == nil {
		return
	}
	m.CacheMisses.Inc()
}

// IncrementCacheEvictions increases the eviction counter by one.
func (m *ResolverMetrics) IncrementCacheEvictions() {
	if m == nil {
		return
	}
	m.CacheEvictions.Inc()
}

// IncrementAPICalls increases the API call counter by one.
func (m *ResolverMetrics) IncrementAPICalls() {
	if m == nil {
		return
	}
	m.APICalls.Inc()
}

// IncrementAPIErrors increases the API error counter by one.
func (m *ResolverMetrics) IncrementAPIErrors() {
	if m == nil {
		return
	}
	m.APIErrors.Inc()
}

// ObserveFetchDuration records the duration of one API request.
func (m *ResolverMetrics) ObserveFetchDuration(seconds float64) {
	if m == nil {
		return
	}
	m.FetchDuration.Observe(seconds)
}
