package batch

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	itemsFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "your_energy_batch_items_fetched_total",
		Help: "Total number of batch items fetched successfully",
	})

	itemsFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "your_energy_batch_items_failed_total",
		Help: "Total number of batch items dropped after a failed fetch",
	})
)
