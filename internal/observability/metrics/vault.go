package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// VaultMetrics contains Prometheus metrics for import/scan and query operations.
type VaultMetrics struct {
	ImportedFiles prometheus.Counter
	ImportErrors  prometheus.Counter
	ScansTotal    prometheus.Counter
	QueriesTotal  prometheus.Counter
	QueryDuration prometheus.Histogram
}

// NewVaultMetrics creates and registers the vault metrics.
func NewVaultMetrics(registry *prometheus.Registry) (*VaultMetrics, error) {
	m := &VaultMetrics{
		ImportedFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vault_imported_files_total",
			Help: "Total number of creature files imported.",
		}),
		ImportErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vault_import_errors_total",
			Help: "Total number of files that failed to import.",
		}),
		ScansTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vault_scans_total",
			Help: "Total number of directory scans performed.",
		}),
		QueriesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "vault_queries_total",
			Help: "Total number of collection queries executed.",
		}),
		QueryDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "vault_query_duration_seconds",
			Help:    "Duration of collection queries in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 10),
		}),
	}

	collectors := []prometheus.Collector{
		m.ImportedFiles, m.ImportErrors, m.ScansTotal, m.QueriesTotal, m.QueryDuration,
	}
	for _, c := range collectors {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register vault metrics: %w", err)
		}
	}
	return m, nil
}

// IncrementImportedFiles increases the imported file counter by one.
func (m *VaultMetrics) IncrementImportedFiles() {
	if m == nil {
		return
	}
	m.ImportedFiles.Inc()
}

// IncrementImportErrors increases the import error counter by one.
func (m *VaultMetrics) IncrementImportErrors() {
	if m == nil {
		return
	}
	m.ImportErrors.Inc()
}

// IncrementScans increases the scan counter by one.
func (m *VaultMetrics) IncrementScans() {
	if m == nil {
		return
	}
	m.ScansTotal.Inc()
}

// IncrementQueries increases the query counter by one.
func (m *VaultMetrics) IncrementQueries() {
	if m == nil {
		return
	}
	m.QueriesTotal.Inc()
}

// ObserveQueryDuration records the duration of one collection query.
func (m *VaultMetrics) ObserveQueryDuration(seconds float64) {
	if m == nil {
		return
	}
	m.QueryDuration.Observe(seconds)
}
