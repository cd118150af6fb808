// Package observability provides metrics and monitoring capabilities for the application.
package observability

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/David-H-Afonso/beastvault/internal/observability/metrics"
)

// Metrics holds all the metric collectors for the application.
type Metrics struct {
	registry *prometheus.Registry
	Resolver *metrics.ResolverMetrics
	Vault    *metrics.VaultMetrics
}

// NewMetrics creates a new instance of Metrics, initializing all metric collectors.
func NewMetrics() (*Metrics, error) {
	registry := prometheus.NewRegistry()

	resolverMetrics, err := metrics.NewResolverMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create resolver metrics: %w", err)
	}

	vaultMetrics, err := metrics.NewVaultMetrics(registry)
	if err != nil {
		return nil, fmt.Errorf("failed to create vault metrics: %w", err)
	}

	return &Metrics{
		registry: registry,
		Resolver: resolverMetrics,
		Vault:    vaultMetrics,
	}, nil
}

// Handler returns an HTTP handler exposing the registry in Prometheus format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ResolverMetrics returns the resolver collectors, nil-safe.
func (m *Metrics) ResolverMetrics() *metrics.ResolverMetrics {
	if m == nil {
		return nil
	}
	return m.Resolver
}

// VaultMetrics returns the vault collectors, nil-safe.
func (m *Metrics) VaultMetrics() *metrics.VaultMetrics {
	if m == nil {
		return nil
	}
	return m.Vault
}
