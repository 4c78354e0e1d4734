package client

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for catalog API requests.
var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "your_energy_requests_total",
		Help: "Total catalog API requests by path and status",
	}, []string{"path", "status"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "your_energy_request_duration_seconds",
		Help:    "Catalog API request duration in seconds by path",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"path"})

	errorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "your_energy_errors_total",
		Help: "Total catalog API errors by class",
	}, []string{"class"})

	retriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "your_energy_retries_total",
		Help: "Total number of retry attempts by error class",
	}, []string{"error_class"})
)
