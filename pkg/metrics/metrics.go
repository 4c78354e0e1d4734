// Package metrics exposes the Prometheus registry used by the catalog client.
// Metrics are defined in their own packages (client, cache, coordinator) and
// registered via promauto; this package documents them and serves them.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry is the default Prometheus registry used by the client.
var Registry = prometheus.DefaultRegisterer

// Handler returns the HTTP handler serving the default gatherer.
func Handler() http.Handler {
	return promhttp.Handler()
}

// Metrics Documentation
//
// Request Metrics (pkg/client):
//   - your_energy_requests_total{path, status} (Counter)
//   - your_energy_request_duration_seconds{path} (Histogram)
//   - your_energy_errors_total{class} (Counter): client, server, network, timeout, cancelled
//   - your_energy_retries_total{error_class} (Counter)
//
// Cache Metrics (pkg/cache):
//   - your_energy_cache_hits_total{layer} (Counter): memory or redis
//   - your_energy_cache_misses_total{layer} (Counter)
//   - your_energy_cache_errors_total{operation} (Counter)
//   - your_energy_cache_entries{layer} (Gauge)
//
// Coordinator Metrics (pkg/coordinator):
//   - your_energy_coordinator_loads_total{resource} (Counter)
//   - your_energy_coordinator_deliveries_total{resource, source} (Counter): cache, network or error
//   - your_energy_coordinator_stale_discards_total{resource} (Counter)
//   - your_energy_coordinator_cancellations_total{resource} (Counter)
//   - your_energy_coordinator_errors_total{resource} (Counter)
//
// Batch Metrics (pkg/batch):
//   - your_energy_batch_items_fetched_total (Counter)
//   - your_energy_batch_items_failed_total (Counter)
//
// Example Prometheus Queries:
//
//   # Cache hit ratio for listings
//   sum(rate(your_energy_coordinator_deliveries_total{source="cache"}[5m])) /
//   sum(rate(your_energy_coordinator_deliveries_total[5m]))
//
//   # How often fast navigation supersedes requests
//   rate(your_energy_coordinator_cancellations_total[5m])
