package coordinator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	sourceCache   = "cache"
	sourceNetwork = "network"
	sourceError   = "error"
)

var (
	loadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "your_energy_coordinator_loads_total",
			Help: "Total number of loads started",
		},
		[]string{"resource"},
	)

	// deliveries counts outcomes handed to the presenter by source (cache, network, error)
	deliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "your_energy_coordinator_deliveries_total",
			Help: "Total number of outcomes presented",
		},
		[]string{"resource", "source"},
	)

	staleDiscards = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "your_energy_coordinator_stale_discards_total",
			Help: "Total number of results discarded because a newer load superseded them",
		},
		[]string{"resource"},
	)

	cancellations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "your_energy_coordinator_cancellations_total",
			Help: "Total number of fetches that ended in cancellation",
		},
		[]string{"resource"},
	)

	loadErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "your_energy_coordinator_errors_total",
			Help: "Total number of failed loads presented as errors",
		},
		[]string{"resource"},
	)
)
